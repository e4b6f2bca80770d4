package repository

import (
	"context"
	"fmt"

	"github.com/utafrali/wishlist/internal/domain"
	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

// WishlistRepository defines the persistence operations for wishlists.
type WishlistRepository interface {
	// FindByOwner returns the wishlist owned by userID. When the user has
	// none the error wraps apperrors.ErrNotFound.
	FindByOwner(ctx context.Context, userID string) (*domain.Wishlist, error)

	// Save persists w and returns the stored copy. A pending wishlist is
	// assigned an ID and created; it fails with a conflict if the owner
	// already has one. Otherwise the stored version must equal w.Version.
	// The returned copy carries the incremented version.
	Save(ctx context.Context, w *domain.Wishlist) (*domain.Wishlist, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// ErrStaleWrite builds the conflict returned when Save loses a race.
func ErrStaleWrite(userID string) error {
	return apperrors.Conflict(fmt.Sprintf("wishlist for user %s was modified concurrently", userID))
}
