package domain

import (
	"fmt"

	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

// NotFoundError is returned when an operation requires an existing wishlist
// and the user has none.
type NotFoundError struct {
	UserID string
}

func (e *NotFoundError) Error() string {
	return "Wishlist not found for user: " + e.UserID
}

func (e *NotFoundError) Unwrap() error {
	return apperrors.ErrNotFound
}

// LimitExceededError is returned when adding a new item would push the
// wishlist past MaxItems.
type LimitExceededError struct {
	UserID      string
	CurrentSize int
	MaxItems    int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("Wishlist limit exceeded for user %s. Current items: %d, maximum allowed: %d.",
		e.UserID, e.CurrentSize, e.MaxItems)
}

func (e *LimitExceededError) Unwrap() error {
	return apperrors.ErrLimitExceeded
}

// ErrWishlistNotFound builds a NotFoundError for userID.
func ErrWishlistNotFound(userID string) error {
	return &NotFoundError{UserID: userID}
}

// ErrLimitExceeded builds a LimitExceededError for userID at the given size.
func ErrLimitExceeded(userID string, currentSize int) error {
	return &LimitExceededError{UserID: userID, CurrentSize: currentSize, MaxItems: MaxItems}
}
