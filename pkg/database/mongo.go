package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// DefaultMongoConfig returns defaults for a local MongoDB.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "wishlist",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    20,
	}
}

// NewMongoClient connects to MongoDB and pings the primary, retrying startup
// failures. Slow commands are reported through the slow query logger set
// with SetSlowQueryLogging. logger may be nil.
func NewMongoClient(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMonitor(slowCommandMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}

	err = withRetry(ctx, logger, "ping mongo", nil, func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

// slowCommandMonitor logs Mongo commands that exceed the slow query threshold.
func slowCommandMonitor() *event.CommandMonitor {
	report := func(ctx context.Context, cmd string, d time.Duration, failure string) {
		threshold, logger := getSlowQueryConfig()
		if threshold <= 0 || logger == nil || d < threshold {
			return
		}
		attrs := []any{
			slog.String("db_system", "mongodb"),
			slog.String("operation", cmd),
			slog.Duration("duration", d),
		}
		if failure != "" {
			attrs = append(attrs, slog.String("error", failure))
		}
		logger.WarnContext(ctx, "slow query detected", attrs...)
	}

	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			report(ctx, e.CommandName, e.Duration, "")
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			report(ctx, e.CommandName, e.Duration, e.Failure)
		},
	}
}
