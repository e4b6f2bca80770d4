package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/repository"
	"github.com/utafrali/wishlist/pkg/database"
)

// CollectionName is the collection holding one document per wishlist owner.
const CollectionName = "wishlists"

type itemDocument struct {
	ItemID string `bson:"itemId"`
	Name   string `bson:"name"`
}

type wishlistDocument struct {
	ID        string         `bson:"_id"`
	UserID    string         `bson:"userId"`
	Items     []itemDocument `bson:"items"`
	Version   int            `bson:"version"`
	CreatedAt time.Time      `bson:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

func toDocument(w *domain.Wishlist) wishlistDocument {
	items := make([]itemDocument, len(w.Items))
	for i, it := range w.Items {
		items[i] = itemDocument{ItemID: it.ItemID, Name: it.Name}
	}
	return wishlistDocument{
		ID:        w.ID,
		UserID:    w.UserID,
		Items:     items,
		Version:   w.Version,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func (d wishlistDocument) toDomain() *domain.Wishlist {
	items := make([]domain.WishlistItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = domain.WishlistItem{ItemID: it.ItemID, Name: it.Name}
	}
	return &domain.Wishlist{
		ID:        d.ID,
		UserID:    d.UserID,
		Items:     items,
		Version:   d.Version,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// WishlistRepository stores wishlists in a MongoDB collection with a unique
// index on userId.
type WishlistRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewWishlistRepository creates a new MongoDB-backed wishlist repository.
func NewWishlistRepository(coll *mongo.Collection) *WishlistRepository {
	return &WishlistRepository{
		coll: coll,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique owner index. It is safe to call on every
// start.
func (r *WishlistRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("userId_unique"),
	})
	if err != nil {
		return fmt.Errorf("create wishlist owner index: %w", err)
	}
	return nil
}

// FindByOwner retrieves the wishlist owned by userID.
func (r *WishlistRepository) FindByOwner(ctx context.Context, userID string) (_ *domain.Wishlist, err error) {
	ctx, end := database.Trace(ctx, database.SystemMongo, "FindWishlist", "find wishlists {userId}")
	defer func() {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = domain.ErrWishlistNotFound(userID)
			end(nil)
			return
		}
		end(err)
	}()

	var doc wishlistDocument
	err = r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, fmt.Errorf("find wishlist by owner: %w", err)
	}

	return doc.toDomain(), nil
}

// Save inserts a pending wishlist or updates the stored one when its version
// still matches.
func (r *WishlistRepository) Save(ctx context.Context, w *domain.Wishlist) (*domain.Wishlist, error) {
	if w.IsPending() {
		return r.insert(ctx, w)
	}
	return r.update(ctx, w)
}

func (r *WishlistRepository) insert(ctx context.Context, w *domain.Wishlist) (_ *domain.Wishlist, err error) {
	ctx, end := database.Trace(ctx, database.SystemMongo, "InsertWishlist", "insert wishlists")
	defer func() { end(err) }()

	saved := w.Clone()
	saved.ID = uuid.NewString()
	saved.Version = 1
	saved.CreatedAt = r.now()
	saved.UpdatedAt = saved.CreatedAt

	if _, err = r.coll.InsertOne(ctx, toDocument(saved)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrStaleWrite(w.UserID)
		}
		return nil, fmt.Errorf("insert wishlist: %w", err)
	}

	return saved, nil
}

func (r *WishlistRepository) update(ctx context.Context, w *domain.Wishlist) (_ *domain.Wishlist, err error) {
	ctx, end := database.Trace(ctx, database.SystemMongo, "UpdateWishlist", "update wishlists {_id, version}")
	defer func() { end(err) }()

	saved := w.Clone()
	saved.Version = w.Version + 1
	saved.UpdatedAt = r.now()

	doc := toDocument(saved)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": w.ID, "version": w.Version},
		bson.M{
			"$set": bson.M{"items": doc.Items, "updatedAt": doc.UpdatedAt},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("update wishlist: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, repository.ErrStaleWrite(w.UserID)
	}

	return saved, nil
}

// Ping checks that the primary is reachable.
func (r *WishlistRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}
