// cmd/api/stores.go
// Store backend and notification pipeline selection

package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/datescape-backend/internal/common/database"
	"github.com/imadgeboyega/datescape-backend/internal/common/logger"
	"github.com/imadgeboyega/datescape-backend/internal/config"
	"github.com/imadgeboyega/datescape-backend/internal/dating"
	notifications "github.com/imadgeboyega/datescape-backend/internal/notification"
	"github.com/imadgeboyega/datescape-backend/internal/profile"
)

// storeSet holds the repositories for the configured backend and the clients behind them
type storeSet struct {
	Profiles profile.Repository
	Matches  dating.Repository

	db        *sqlx.DB
	redis     *redis.Client
	firestore *firestore.Client
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storeSet, error) {
	s := &storeSet{}

	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := database.NewPostgresDB(ctx, &database.PostgresConfig{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		s.db = db
		s.Profiles = profile.NewPostgresRepository(db)
		s.Matches = dating.NewPostgresRepository(db, cfg.TxMaxAttempts)

	case config.StoreRedis:
		client, err := database.NewRedisClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.redis = client
		s.Profiles = profile.NewRedisRepository(client)
		s.Matches = dating.NewRedisRepository(client, cfg.TxMaxAttempts)

	case config.StoreFirestore:
		client, err := database.NewFirestoreClient(ctx, &database.FirestoreConfig{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsPath: cfg.FirebaseCredentials,
		})
		if err != nil {
			return nil, err
		}
		s.firestore = client
		s.Profiles = profile.NewFirestoreRepository(client)
		s.Matches = dating.NewFirestoreRepository(client, cfg.TxMaxAttempts)

	default:
		log.Warn("using in-memory stores, data is lost on restart")
		s.Profiles = profile.NewMemoryRepository()
		s.Matches = dating.NewMemoryRepository(cfg.TxMaxAttempts)
	}

	// the dedupe store prefers Redis even when records live elsewhere
	if s.redis == nil && cfg.RedisURL != "" {
		client, err := database.NewRedisClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, notification dedupe stays in memory", "error", err)
		} else {
			s.redis = client
		}
	}
	return s, nil
}

func (s *storeSet) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.firestore != nil {
		s.firestore.Close()
	}
}

func newNotifier(ctx context.Context, cfg *config.Config, stores *storeSet, log *logger.Logger) (notifications.Service, func()) {
	closeFn := func() {}

	var emitter notifications.Emitter = notifications.NewLogEmitter(log.With("component", "notifications"))
	if cfg.NATSURL != "" {
		natsEmitter, err := notifications.NewNATSEmitter(cfg.NATSURL, cfg.NotifySubjectPrefix)
		if err != nil {
			log.Warn("NATS unavailable, logging notification intents instead", "error", err)
		} else {
			emitter = natsEmitter
			closeFn = natsEmitter.Close
			log.Info("publishing notification intents to NATS", "prefix", cfg.NotifySubjectPrefix)
		}
	}

	dedupe := notifications.NewMemoryDeduper()
	if stores.redis != nil {
		dedupe = notifications.NewRedisDeduper(stores.redis, cfg.NotifyDedupeTTL)
	}

	return notifications.NewService(emitter, dedupe, log), closeFn
}
