package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/config"
	"github.com/jazzvault/JazzVault/internal/db"
	"github.com/jazzvault/JazzVault/internal/importer"
	"github.com/jazzvault/JazzVault/internal/jobs"
	"github.com/jazzvault/JazzVault/internal/provider/coverart"
	"github.com/jazzvault/JazzVault/internal/provider/itunes"
	"github.com/jazzvault/JazzVault/internal/provider/jazzstandards"
	"github.com/jazzvault/JazzVault/internal/provider/musicbrainz"
	"github.com/jazzvault/JazzVault/internal/provider/spotify"
	"github.com/jazzvault/JazzVault/internal/provider/wikimedia"
	"github.com/jazzvault/JazzVault/internal/repository"
	"github.com/jazzvault/JazzVault/internal/scheduler"
	"github.com/jazzvault/JazzVault/internal/version"
)

func main() {
	ver := version.Load()
	log.Printf("JazzVault worker %s starting...", ver.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()
	cfg.MergeFromDB(database)

	// Fail fast when the asynq backend is unreachable.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatalf("redis ping failed (%s): %v", cfg.RedisAddr, err)
	}
	pingCancel()
	rdb.Close()

	store := importer.NewDataStore(repository.NewStore(database))

	// Each task handler invocation gets a fresh client set; provider clients
	// carry mutable rate-limit and token state and are not safe to share
	// between concurrent workers.
	factory := func() *importer.Importer {
		cacheStore := cache.NewFSStore(cfg.CacheDir, false)
		var tracks importer.TrackCatalog
		if cfg.SpotifyEnabled() {
			tracks = spotify.New(cacheStore, cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		}
		return importer.New(
			store,
			jazzstandards.New(cacheStore),
			musicbrainz.New(cacheStore, cfg.UserAgentContact),
			coverart.New(cacheStore),
			itunes.New(cacheStore),
			tracks,
			wikimedia.New(cacheStore, cfg.UserAgentContact),
			importer.Options{
				AutoMatchMinScore: cfg.AutoMatchMinScore,
				StreamingMinScore: cfg.StreamingMinScore,
				DefaultLimit:      cfg.ImportLimitDefault,
			},
		)
	}

	queue := jobs.NewQueue(cfg.RedisAddr, 2)
	jobs.RegisterHandlers(queue, factory)

	sched := scheduler.New(queue, cfg)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler start failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := queue.Start(ctx); err != nil {
		log.Fatalf("queue start failed: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	sched.Stop()
	queue.Stop()
}
