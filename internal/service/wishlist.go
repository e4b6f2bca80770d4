package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/repository"
	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

// EventPublisher announces committed wishlist changes. Publishing is best
// effort; errors are logged and never fail the operation.
type EventPublisher interface {
	PublishItemAdded(ctx context.Context, w *domain.Wishlist, item domain.WishlistItem) error
	PublishItemRemoved(ctx context.Context, w *domain.Wishlist, itemID string) error
}

// AddItemInput holds the parameters for adding an item to a wishlist.
type AddItemInput struct {
	UserID string
	ItemID string
	Name   string
}

// AddItemOutput identifies the stored item. For a duplicate add it carries
// the name stored by the first add.
type AddItemOutput struct {
	WishlistID string
	ItemID     string
	Name       string
}

// WishlistService implements the wishlist use cases on top of a repository.
//
// Mutations for one user are serialized inside the process. Across
// processes the repository's version check rejects stale writes, which
// surface as conflicts and are not retried.
type WishlistService struct {
	repo   repository.WishlistRepository
	events EventPublisher
	logger *slog.Logger
	locks  *keyLocker
}

// NewWishlistService creates a new wishlist service. events may be nil.
func NewWishlistService(repo repository.WishlistRepository, events EventPublisher, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		repo:   repo,
		events: events,
		logger: logger,
		locks:  newKeyLocker(),
	}
}

// FindByOwner returns the user's wishlist. The boolean is false when the user
// has none; that is not an error.
func (s *WishlistService) FindByOwner(ctx context.Context, userID string) (*domain.Wishlist, bool, error) {
	if err := requireField("userId", userID); err != nil {
		return nil, false, err
	}

	w, err := s.repo.FindByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find wishlist: %w", err)
	}
	return w, true, nil
}

// AddItem adds an item to the user's wishlist, creating the wishlist on the
// first add. Adding an item that is already present changes nothing and
// returns the stored item. A new item beyond domain.MaxItems fails with a
// *domain.LimitExceededError.
func (s *WishlistService) AddItem(ctx context.Context, input AddItemInput) (*AddItemOutput, error) {
	for _, f := range []struct{ name, value string }{
		{"userId", input.UserID},
		{"itemId", input.ItemID},
		{"name", input.Name},
	} {
		if err := requireField(f.name, f.value); err != nil {
			return nil, err
		}
	}

	unlock, err := s.locks.Lock(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("wait for wishlist lock: %w", err)
	}
	defer unlock()

	w, found, err := s.FindByOwner(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.DebugContext(ctx, "no wishlist yet, starting a new one",
			slog.String("user_id", input.UserID),
		)
		w = domain.NewWishlist(input.UserID)
	}

	if existing, ok := w.FindItem(input.ItemID); ok {
		duplicateAddsTotal.Inc()
		s.logger.DebugContext(ctx, "item already in wishlist",
			slog.String("user_id", input.UserID),
			slog.String("item_id", input.ItemID),
		)
		return &AddItemOutput{WishlistID: w.ID, ItemID: existing.ItemID, Name: existing.Name}, nil
	}

	if w.IsFull() {
		limitExceededTotal.Inc()
		s.logger.WarnContext(ctx, "wishlist limit exceeded",
			slog.String("user_id", input.UserID),
			slog.Int("current_size", w.Len()),
		)
		return nil, domain.ErrLimitExceeded(input.UserID, w.Len())
	}

	item := domain.WishlistItem{ItemID: input.ItemID, Name: input.Name}
	saved, err := s.repo.Save(ctx, w.WithItem(item))
	if err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}
	itemsAddedTotal.Inc()

	if s.events != nil {
		if err := s.events.PublishItemAdded(ctx, saved, item); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish wishlist.item_added event",
				slog.String("user_id", input.UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "item added to wishlist",
		slog.String("user_id", input.UserID),
		slog.String("wishlist_id", saved.ID),
		slog.String("item_id", input.ItemID),
		slog.Int("item_count", saved.Len()),
	)

	return &AddItemOutput{WishlistID: saved.ID, ItemID: item.ItemID, Name: item.Name}, nil
}

// RemoveItem removes an item from the user's wishlist. The wishlist must
// exist; removing an item it does not hold is a no-op and writes nothing.
func (s *WishlistService) RemoveItem(ctx context.Context, userID, itemID string) error {
	if err := requireField("userId", userID); err != nil {
		return err
	}
	if err := requireField("itemId", itemID); err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return fmt.Errorf("wait for wishlist lock: %w", err)
	}
	defer unlock()

	w, found, err := s.FindByOwner(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrWishlistNotFound(userID)
	}

	next, removed := w.WithoutItem(itemID)
	if !removed {
		s.logger.DebugContext(ctx, "item not in wishlist, nothing to remove",
			slog.String("user_id", userID),
			slog.String("item_id", itemID),
		)
		return nil
	}

	saved, err := s.repo.Save(ctx, next)
	if err != nil {
		return fmt.Errorf("save wishlist: %w", err)
	}
	itemsRemovedTotal.Inc()

	if s.events != nil {
		if err := s.events.PublishItemRemoved(ctx, saved, itemID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish wishlist.item_removed event",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "item removed from wishlist",
		slog.String("user_id", userID),
		slog.String("wishlist_id", saved.ID),
		slog.String("item_id", itemID),
		slog.Int("item_count", saved.Len()),
	)

	return nil
}

// ListItems returns the user's items in insertion order. A user without a
// wishlist has no items.
func (s *WishlistService) ListItems(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	w, found, err := s.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.WishlistItem{}, nil
	}
	return w.Clone().Items, nil
}

// ContainsItem reports whether the user's wishlist holds itemID. A user
// without a wishlist holds nothing.
func (s *WishlistService) ContainsItem(ctx context.Context, userID, itemID string) (bool, error) {
	if err := requireField("itemId", itemID); err != nil {
		return false, err
	}

	w, found, err := s.FindByOwner(ctx, userID)
	if err != nil || !found {
		return false, err
	}
	return w.Contains(itemID), nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.InvalidInput(name + " is required")
	}
	return nil
}
