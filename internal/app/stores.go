package app

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/noticeboard/internal/cache"
	"github.com/charlesng35/noticeboard/internal/database"
	"github.com/charlesng35/noticeboard/internal/notices"
	"github.com/charlesng35/noticeboard/internal/services"
)

// Stores bundles the persistence handles shared by the server and noticectl.
type Stores struct {
	DB     *gorm.DB
	Shared cache.Store
	// Purger is nil when the shared store expires entries on its own.
	Purger cache.Purger

	redis *cache.RedisClient
}

// OpenStores connects to the database, applies migrations and picks the
// shared store: Redis when enabled and reachable, the database otherwise.
func OpenStores(cfg *Config, log *zap.Logger) (*Stores, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	conn := cfg.Database.Connection()
	db, err := database.Open(conn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		closeDB(db, log)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}
	log.Info("database connected", zap.String("driver", conn.Driver))

	stores := &Stores{DB: db}

	if cfg.Cache.Redis.Enabled {
		client, err := cache.NewRedisClient(cfg.Cache.RedisClientConfig())
		if err != nil {
			log.Warn("redis unavailable; falling back to database-backed store", zap.Error(err))
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			stores.redis = client
			stores.Shared = client
		}
	}

	if stores.Shared == nil {
		dbStore := cache.NewDatabaseStore(db)
		stores.Shared = dbStore
		stores.Purger = dbStore
	}

	return stores, nil
}

// NoticeStack builds the flag store and catalog service over the stores.
func (s *Stores) NoticeStack(cfg *Config) (*notices.FlagStore, *services.NoticeService, error) {
	meta, err := services.NewUserMetaService(s.DB)
	if err != nil {
		return nil, nil, err
	}
	flags := notices.NewFlagStore(meta, s.Shared)

	svc, err := services.NewNoticeService(s.DB, notices.NewStaticCatalog(cfg.Notices.Catalog), flags, meta)
	if err != nil {
		return nil, nil, err
	}
	return flags, svc, nil
}

// Close releases the Redis connection and the database pool.
func (s *Stores) Close(log *zap.Logger) {
	if s == nil {
		return
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}
	closeDB(s.DB, log)
}

func closeDB(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
