package domain

import "time"

// MaxItems is the maximum number of distinct items a wishlist may hold.
const MaxItems = 20

// WishlistItem is a reference to an item saved in a wishlist. Items are never
// edited in place; replacing one means removing and re-adding it.
type WishlistItem struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
}

// Wishlist is the per-user aggregate. There is at most one wishlist per UserID
// and Items never holds two entries with the same ItemID.
//
// A Wishlist with an empty ID has not been persisted yet. Version is managed by
// the store and is used to reject stale writes.
type Wishlist struct {
	ID        string         `json:"id,omitempty"`
	UserID    string         `json:"userId"`
	Items     []WishlistItem `json:"items"`
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// NewWishlist returns a pending, empty wishlist owned by userID.
func NewWishlist(userID string) *Wishlist {
	return &Wishlist{
		UserID: userID,
		Items:  []WishlistItem{},
	}
}

// IsPending reports whether the wishlist has not been persisted yet.
func (w *Wishlist) IsPending() bool {
	return w.ID == ""
}

// Len returns the number of items in the wishlist.
func (w *Wishlist) Len() int {
	return len(w.Items)
}

// IsFull reports whether another distinct item would exceed MaxItems.
func (w *Wishlist) IsFull() bool {
	return len(w.Items) >= MaxItems
}

// FindItemIndex returns the index of the item with the given ID, or -1.
func (w *Wishlist) FindItemIndex(itemID string) int {
	for i := range w.Items {
		if w.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// FindItem returns the item with the given ID.
func (w *Wishlist) FindItem(itemID string) (WishlistItem, bool) {
	if i := w.FindItemIndex(itemID); i >= 0 {
		return w.Items[i], true
	}
	return WishlistItem{}, false
}

// Contains reports whether an item with the given ID is in the wishlist.
func (w *Wishlist) Contains(itemID string) bool {
	return w.FindItemIndex(itemID) >= 0
}

// Clone returns a deep copy of the wishlist.
func (w *Wishlist) Clone() *Wishlist {
	c := *w
	c.Items = make([]WishlistItem, len(w.Items))
	copy(c.Items, w.Items)
	return &c
}

// WithItem returns a copy of the wishlist with item appended. It does not
// check for duplicates or capacity; callers enforce those rules first.
func (w *Wishlist) WithItem(item WishlistItem) *Wishlist {
	c := w.Clone()
	c.Items = append(c.Items, item)
	return c
}

// WithoutItem returns a copy of the wishlist without the item with the given
// ID. The boolean is false when nothing matched, in which case the returned
// wishlist is the receiver itself.
func (w *Wishlist) WithoutItem(itemID string) (*Wishlist, bool) {
	i := w.FindItemIndex(itemID)
	if i < 0 {
		return w, false
	}
	c := w.Clone()
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return c, true
}
