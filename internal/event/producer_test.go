package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/wishlist/internal/domain"
	pkgkafka "github.com/utafrali/wishlist/pkg/kafka"
	"github.com/utafrali/wishlist/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: event})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleWishlist() *domain.Wishlist {
	return &domain.Wishlist{
		ID:      "wl-1",
		UserID:  "u1",
		Items:   []domain.WishlistItem{{ItemID: "i1", Name: "Book"}, {ItemID: "i2", Name: "Pen"}},
		Version: 5,
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "ecommerce.wishlist.item_added", TopicItemAdded)
	assert.Equal(t, "ecommerce.wishlist.item_removed", TopicItemRemoved)
}

func TestPublishItemAdded(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, testLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, p.PublishItemAdded(ctx, sampleWishlist(), domain.WishlistItem{ItemID: "i2", Name: "Pen"}))
	require.Len(t, pub.sent, 1)

	msg := pub.sent[0]
	assert.Equal(t, TopicItemAdded, msg.topic)
	assert.Equal(t, EventTypeItemAdded, msg.event.EventType)
	assert.Equal(t, "u1", msg.event.AggregateID)
	assert.Equal(t, AggregateTypeWishlist, msg.event.AggregateType)
	assert.Equal(t, "corr-1", msg.event.CorrelationID)
	assert.Equal(t, 5, msg.event.Version)
	assert.JSONEq(t,
		`{"user_id":"u1","wishlist_id":"wl-1","item_id":"i2","name":"Pen","item_count":2}`,
		string(msg.event.Data))
}

func TestPublishItemRemoved(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, testLogger())

	require.NoError(t, p.PublishItemRemoved(context.Background(), sampleWishlist(), "i9"))
	require.Len(t, pub.sent, 1)

	msg := pub.sent[0]
	assert.Equal(t, TopicItemRemoved, msg.topic)
	assert.Empty(t, msg.event.CorrelationID)

	var data ItemRemovedData
	require.NoError(t, msg.event.UnmarshalData(&data))
	assert.Equal(t, ItemRemovedData{UserID: "u1", WishlistID: "wl-1", ItemID: "i9", ItemCount: 2}, data)
}

func TestPublish_WrapsError(t *testing.T) {
	p := NewProducer(&fakePublisher{err: errors.New("broker down")}, testLogger())

	err := p.PublishItemAdded(context.Background(), sampleWishlist(), domain.WishlistItem{ItemID: "i1", Name: "Book"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish wishlist.item_added event")
	assert.Contains(t, err.Error(), "broker down")
}

func TestNilProducerDropsEvents(t *testing.T) {
	var p *Producer
	assert.NoError(t, p.PublishItemAdded(context.Background(), sampleWishlist(), domain.WishlistItem{}))
	assert.NoError(t, p.PublishItemRemoved(context.Background(), sampleWishlist(), "i1"))
}
