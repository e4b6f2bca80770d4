package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/repository"
	"github.com/utafrali/wishlist/pkg/database"
)

const (
	selectWishlistSQL = `
		SELECT id, user_id, items, version, created_at, updated_at
		FROM wishlists
		WHERE user_id = $1`

	insertWishlistSQL = `
		INSERT INTO wishlists (id, user_id, items, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING`

	updateWishlistSQL = `
		UPDATE wishlists
		SET items = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`
)

// WishlistRepository stores wishlists in PostgreSQL, one row per owner with
// the items in a JSONB column.
type WishlistRepository struct {
	pool database.DBTX
	now  func() time.Time
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(pool database.DBTX) *WishlistRepository {
	return &WishlistRepository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// FindByOwner retrieves the wishlist owned by userID.
func (r *WishlistRepository) FindByOwner(ctx context.Context, userID string) (_ *domain.Wishlist, err error) {
	ctx, end := database.TraceQuery(ctx, "FindWishlist", selectWishlistSQL)
	defer func() {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrWishlistNotFound(userID)
			end(nil)
			return
		}
		end(err)
	}()

	var (
		w     domain.Wishlist
		items []byte
	)
	err = r.pool.QueryRow(ctx, selectWishlistSQL, userID).Scan(
		&w.ID,
		&w.UserID,
		&items,
		&w.Version,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find wishlist by owner: %w", err)
	}

	w.Items = []domain.WishlistItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &w.Items); err != nil {
			return nil, fmt.Errorf("unmarshal wishlist items: %w", err)
		}
	}

	return &w, nil
}

// Save inserts a pending wishlist or updates an existing one when the stored
// version still matches.
func (r *WishlistRepository) Save(ctx context.Context, w *domain.Wishlist) (*domain.Wishlist, error) {
	items, err := json.Marshal(w.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal wishlist items: %w", err)
	}

	if w.IsPending() {
		return r.insert(ctx, w, items)
	}
	return r.update(ctx, w, items)
}

func (r *WishlistRepository) insert(ctx context.Context, w *domain.Wishlist, items []byte) (_ *domain.Wishlist, err error) {
	ctx, end := database.TraceQuery(ctx, "InsertWishlist", insertWishlistSQL)
	defer func() { end(err) }()

	saved := w.Clone()
	saved.ID = uuid.NewString()
	saved.Version = 1
	saved.CreatedAt = r.now()
	saved.UpdatedAt = saved.CreatedAt

	tag, err := r.pool.Exec(ctx, insertWishlistSQL,
		saved.ID,
		saved.UserID,
		items,
		saved.Version,
		saved.CreatedAt,
		saved.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert wishlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrStaleWrite(w.UserID)
	}

	return saved, nil
}

func (r *WishlistRepository) update(ctx context.Context, w *domain.Wishlist, items []byte) (_ *domain.Wishlist, err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateWishlist", updateWishlistSQL)
	defer func() { end(err) }()

	saved := w.Clone()
	saved.Version = w.Version + 1
	saved.UpdatedAt = r.now()

	tag, err := r.pool.Exec(ctx, updateWishlistSQL, items, saved.UpdatedAt, w.ID, w.Version)
	if err != nil {
		return nil, fmt.Errorf("update wishlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrStaleWrite(w.UserID)
	}

	return saved, nil
}

// Ping runs a trivial query.
func (r *WishlistRepository) Ping(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "SELECT 1")
	return err
}
