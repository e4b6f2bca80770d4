package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/utafrali/wishlist/internal/domain"
	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newRepo(mt *mtest.T) *WishlistRepository {
	repo := NewWishlistRepository(mt.Coll)
	repo.now = func() time.Time { return fixedNow }
	return repo
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestWishlistRepository_FindByOwner(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "wl-1"},
			{Key: "userId", Value: "user-1"},
			{Key: "items", Value: bson.A{bson.D{{Key: "itemId", Value: "i1"}, {Key: "name", Value: "Book"}}}},
			{Key: "version", Value: 4},
			{Key: "createdAt", Value: fixedNow},
			{Key: "updatedAt", Value: fixedNow},
		}))

		got, err := newRepo(mt).FindByOwner(context.Background(), "user-1")
		require.NoError(mt, err)
		assert.Equal(mt, "wl-1", got.ID)
		assert.Equal(mt, 4, got.Version)
		assert.Equal(mt, []domain.WishlistItem{{ItemID: "i1", Name: "Book"}}, got.Items)
		assert.True(mt, fixedNow.Equal(got.CreatedAt))
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		got, err := newRepo(mt).FindByOwner(context.Background(), "nobody")
		assert.Nil(mt, got)
		assert.ErrorIs(mt, err, apperrors.ErrNotFound)
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Message: "shutdown in progress",
		}))

		_, err := newRepo(mt).FindByOwner(context.Background(), "user-1")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, apperrors.ErrNotFound)
		assert.Contains(mt, err.Error(), "find wishlist by owner")
	})
}

func TestWishlistRepository_Save(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert pending", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		pending := domain.NewWishlist("user-1").WithItem(domain.WishlistItem{ItemID: "i1", Name: "Book"})
		saved, err := newRepo(mt).Save(context.Background(), pending)
		require.NoError(mt, err)
		assert.NotEmpty(mt, saved.ID)
		assert.Equal(mt, 1, saved.Version)
		assert.Equal(mt, fixedNow, saved.CreatedAt)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("insert duplicate owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: wishlists index: userId_unique",
		}))

		_, err := newRepo(mt).Save(context.Background(), domain.NewWishlist("user-1"))
		assert.ErrorIs(mt, err, apperrors.ErrConflict)
	})

	mt.Run("update matching version", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		current := &domain.Wishlist{ID: "wl-1", UserID: "user-1", Items: []domain.WishlistItem{}, Version: 2}
		saved, err := newRepo(mt).Save(context.Background(), current.WithItem(domain.WishlistItem{ItemID: "i1", Name: "Book"}))
		require.NoError(mt, err)
		assert.Equal(mt, 3, saved.Version)
		assert.Equal(mt, fixedNow, saved.UpdatedAt)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
	})

	mt.Run("update stale version", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		current := &domain.Wishlist{ID: "wl-1", UserID: "user-1", Items: []domain.WishlistItem{}, Version: 2}
		_, err := newRepo(mt).Save(context.Background(), current)
		assert.ErrorIs(mt, err, apperrors.ErrConflict)
	})
}

func TestWishlistRepository_EnsureIndexesAndPing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ok", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		repo := newRepo(mt)
		require.NoError(mt, repo.EnsureIndexes(context.Background()))
		assert.NoError(mt, repo.Ping(context.Background()))
	})
}
