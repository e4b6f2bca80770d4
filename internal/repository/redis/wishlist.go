package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/repository"
	"github.com/utafrali/wishlist/pkg/database"
)

const keyPrefix = "wishlist:"

var errStaleVersion = errors.New("stale wishlist version")

// WishlistRepository stores each wishlist as one JSON document per owner.
// Writes run inside WATCH/MULTI so a concurrent writer aborts the transaction.
type WishlistRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewWishlistRepository creates a new Redis-backed wishlist repository.
func NewWishlistRepository(client *redis.Client) *WishlistRepository {
	return &WishlistRepository{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func key(userID string) string {
	return keyPrefix + userID
}

// FindByOwner retrieves the wishlist owned by userID.
func (r *WishlistRepository) FindByOwner(ctx context.Context, userID string) (_ *domain.Wishlist, err error) {
	ctx, end := database.Trace(ctx, database.SystemRedis, "FindWishlist", "GET "+keyPrefix+"*")
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrWishlistNotFound(userID)
		}
		return nil, fmt.Errorf("redis get wishlist: %w", err)
	}

	return decode(data)
}

// Save writes w if the stored document still carries w.Version.
func (r *WishlistRepository) Save(ctx context.Context, w *domain.Wishlist) (_ *domain.Wishlist, err error) {
	ctx, end := database.Trace(ctx, database.SystemRedis, "SaveWishlist", "WATCH/MULTI SET "+keyPrefix+"*")
	defer func() {
		if errors.Is(err, errStaleVersion) || errors.Is(err, redis.TxFailedErr) {
			err = repository.ErrStaleWrite(w.UserID)
			end(nil)
			return
		}
		end(err)
	}()

	k := key(w.UserID)
	saved := w.Clone()
	now := r.now()

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if !w.IsPending() {
				return errStaleVersion
			}
		case err != nil:
			return fmt.Errorf("redis get wishlist: %w", err)
		default:
			if w.IsPending() {
				return errStaleVersion
			}
			current, err := decode(data)
			if err != nil {
				return err
			}
			if current.ID != w.ID || current.Version != w.Version {
				return errStaleVersion
			}
		}

		if w.IsPending() {
			saved.ID = uuid.NewString()
			saved.CreatedAt = now
		}
		saved.Version = w.Version + 1
		saved.UpdatedAt = now

		payload, err := json.Marshal(saved)
		if err != nil {
			return fmt.Errorf("marshal wishlist: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, 0)
			return nil
		})
		return err
	}, k)
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// Ping checks the Redis connection.
func (r *WishlistRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func decode(data []byte) (*domain.Wishlist, error) {
	var w domain.Wishlist
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal wishlist: %w", err)
	}
	if w.Items == nil {
		w.Items = []domain.WishlistItem{}
	}
	return &w, nil
}
