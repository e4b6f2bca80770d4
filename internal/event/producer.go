package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/wishlist/internal/domain"
	pkgkafka "github.com/utafrali/wishlist/pkg/kafka"
	"github.com/utafrali/wishlist/pkg/logger"
)

// Kafka topic constants for wishlist domain events.
var (
	TopicItemAdded   = pkgkafka.Topic("wishlist", "item_added")
	TopicItemRemoved = pkgkafka.Topic("wishlist", "item_removed")
)

// Event types carried in the envelope.
const (
	EventTypeItemAdded   = "wishlist.item_added"
	EventTypeItemRemoved = "wishlist.item_removed"
)

// AggregateTypeWishlist is the aggregate type of every wishlist event.
const AggregateTypeWishlist = "wishlist"

// SourceWishlistService identifies events originating from this service.
const SourceWishlistService = "wishlist-service"

// ItemAddedData is the payload for a wishlist.item_added event.
type ItemAddedData struct {
	UserID     string `json:"user_id"`
	WishlistID string `json:"wishlist_id"`
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	ItemCount  int    `json:"item_count"`
}

// ItemRemovedData is the payload for a wishlist.item_removed event.
type ItemRemovedData struct {
	UserID     string `json:"user_id"`
	WishlistID string `json:"wishlist_id"`
	ItemID     string `json:"item_id"`
	ItemCount  int    `json:"item_count"`
}

// Publisher writes an event envelope to a topic. *pkgkafka.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes wishlist domain events. A nil *Producer drops events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the wishlist service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishItemAdded publishes a wishlist.item_added event.
func (p *Producer) PublishItemAdded(ctx context.Context, w *domain.Wishlist, item domain.WishlistItem) error {
	if p == nil {
		return nil
	}
	data := ItemAddedData{
		UserID:     w.UserID,
		WishlistID: w.ID,
		ItemID:     item.ItemID,
		Name:       item.Name,
		ItemCount:  w.Len(),
	}
	return p.publish(ctx, TopicItemAdded, EventTypeItemAdded, w, data)
}

// PublishItemRemoved publishes a wishlist.item_removed event.
func (p *Producer) PublishItemRemoved(ctx context.Context, w *domain.Wishlist, itemID string) error {
	if p == nil {
		return nil
	}
	data := ItemRemovedData{
		UserID:     w.UserID,
		WishlistID: w.ID,
		ItemID:     itemID,
		ItemCount:  w.Len(),
	}
	return p.publish(ctx, TopicItemRemoved, EventTypeItemRemoved, w, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, w *domain.Wishlist, data any) error {
	// Keyed by owner so all events for one wishlist share a partition.
	event, err := pkgkafka.NewEvent(eventType, w.UserID, AggregateTypeWishlist, SourceWishlistService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	event.Version = w.Version

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published "+eventType+" event",
		slog.String("user_id", w.UserID),
		slog.Int("item_count", w.Len()),
	)
	return nil
}
