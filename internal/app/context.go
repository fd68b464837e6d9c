package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/culturematch/backend/internal/cache"
	"github.com/culturematch/backend/internal/config"
	"github.com/culturematch/backend/internal/vecindex"
)

// AppContext holds shared dependencies (DB, Redis, vector index, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Vectors    vecindex.Index
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, vectors vecindex.Index, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Vectors:    vectors,
		Logger:     logger,
	}
}
