package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/repository"
)

// WishlistRepository keeps wishlists in process memory. Wishlists are copied
// on the way in and out so callers never share state with the store.
type WishlistRepository struct {
	mu        sync.RWMutex
	wishlists map[string]*domain.Wishlist
	now       func() time.Time
}

// NewWishlistRepository creates an empty in-memory repository.
func NewWishlistRepository() *WishlistRepository {
	return &WishlistRepository{
		wishlists: make(map[string]*domain.Wishlist),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FindByOwner returns a copy of the wishlist owned by userID.
func (r *WishlistRepository) FindByOwner(_ context.Context, userID string) (*domain.Wishlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.wishlists[userID]
	if !ok {
		return nil, domain.ErrWishlistNotFound(userID)
	}
	return w.Clone(), nil
}

// Save stores a copy of w after checking its version.
func (r *WishlistRepository) Save(_ context.Context, w *domain.Wishlist) (*domain.Wishlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.wishlists[w.UserID]
	saved := w.Clone()
	now := r.now()

	if w.IsPending() {
		if exists {
			return nil, repository.ErrStaleWrite(w.UserID)
		}
		saved.ID = uuid.NewString()
		saved.CreatedAt = now
	} else if !exists || current.ID != w.ID || current.Version != w.Version {
		return nil, repository.ErrStaleWrite(w.UserID)
	}

	saved.Version = w.Version + 1
	saved.UpdatedAt = now
	r.wishlists[w.UserID] = saved

	return saved.Clone(), nil
}

// Ping always succeeds.
func (r *WishlistRepository) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored wishlists.
func (r *WishlistRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wishlists)
}
