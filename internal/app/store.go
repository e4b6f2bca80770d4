package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/wishlist/internal/config"
	"github.com/utafrali/wishlist/internal/repository"
	"github.com/utafrali/wishlist/internal/repository/memory"
	mongorepo "github.com/utafrali/wishlist/internal/repository/mongo"
	"github.com/utafrali/wishlist/internal/repository/postgres"
	redisrepo "github.com/utafrali/wishlist/internal/repository/redis"
	"github.com/utafrali/wishlist/migrations"
	"github.com/utafrali/wishlist/pkg/database"
)

// openStore connects the store selected by cfg.Store and returns it with a
// function releasing its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.WishlistRepository, func(context.Context) error, error) {
	if t := cfg.SlowQueryThreshold(); t > 0 {
		database.SetSlowQueryLogging(t, logger)
	}

	switch cfg.Store {
	case config.StoreRedis:
		rc := cfg.Redis()
		rdb, err := database.NewRedisClient(ctx, rc, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to Redis",
			slog.String("addr", rc.Addr),
			slog.Int("db", rc.DB),
		)
		return redisrepo.NewWishlistRepository(rdb), func(context.Context) error { return rdb.Close() }, nil

	case config.StorePostgres:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", pgCfg.Host),
			slog.Int("port", pgCfg.Port),
			slog.String("database", pgCfg.DBName),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, "wishlist"); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		if cfg.RunMigrations {
			if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("database migrations completed")
		}
		return postgres.NewWishlistRepository(pool), func(context.Context) error { pool.Close(); return nil }, nil

	case config.StoreMongo:
		mc := cfg.Mongo()
		client, err := database.NewMongoClient(ctx, mc, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		logger.Info("connected to MongoDB", slog.String("database", mc.Database))

		repo := mongorepo.NewWishlistRepository(client.Database(mc.Database).Collection(mongorepo.CollectionName))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, client.Disconnect, nil

	default:
		logger.Warn("using in-memory wishlist store; data is lost on restart")
		return memory.NewWishlistRepository(), func(context.Context) error { return nil }, nil
	}
}
