package main

import (
	"context"

	"github.com/culturematch/backend/internal/app"
	"github.com/culturematch/backend/internal/cache"
	"github.com/culturematch/backend/internal/config"
	"github.com/culturematch/backend/internal/db"
	"github.com/culturematch/backend/internal/logger"
	"github.com/culturematch/backend/internal/repository"
	"github.com/culturematch/backend/internal/server"
	"github.com/culturematch/backend/internal/service/chat"
	"github.com/culturematch/backend/internal/service/discovery"
	"github.com/culturematch/backend/internal/service/match"
	"github.com/culturematch/backend/internal/service/taste"
	"github.com/culturematch/backend/internal/vecindex"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Build the vector index from persisted taste vectors
	vectors := vecindex.NewMemory(cfg.Matching.VectorDim)
	users, err := repository.NewUserRepository(database).AllWithVectors(context.Background())
	if err != nil {
		log.Error("failed to load taste vectors", "err", err)
		return
	}
	for _, u := range users {
		if err := vectors.Upsert(u.ID, u.TasteVector); err != nil {
			log.Warn("skipping unindexable vector", "user", u.ID, "err", err)
		}
	}
	log.Info("vector index ready", "indexed", vectors.Len())

	appCtx := app.New(cfg, database, redisCache, vectors, log)

	registrars := []server.Registrar{
		discovery.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
		taste.NewRegistrar(appCtx),
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
