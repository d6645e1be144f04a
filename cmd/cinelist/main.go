package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/JustinTDCT/CineList/internal/api"
	"github.com/JustinTDCT/CineList/internal/config"
	"github.com/JustinTDCT/CineList/internal/db"
	"github.com/JustinTDCT/CineList/internal/logging"
	"github.com/JustinTDCT/CineList/internal/metadata"
	"github.com/JustinTDCT/CineList/internal/scheduler"
)

func main() {
	cfg := config.Load()

	logFile := logging.Setup(cfg.LogFile)
	defer logFile.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	var cache metadata.Cache
	if cfg.CatalogCacheEnabled() {
		redisCache, err := metadata.NewRedisCache(cfg.RedisURL, cfg.CatalogCacheTTL)
		if err != nil {
			log.Printf("catalog cache disabled: %v", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
			log.Printf("catalog cache enabled (ttl=%s)", cfg.CatalogCacheTTL)
		}
	}
	if cfg.TMDBAPIKey == "" {
		log.Println("warning: TMDB_API_KEY is not set, catalog endpoints will return 503")
	}

	srv, err := api.NewServer(cfg, database, afero.NewOsFs(), cache)
	if err != nil {
		log.Fatalf("server setup failed: %v", err)
	}
	log.Printf("CineList %s starting...", srv.Version())

	sched := scheduler.New(srv.AuthRepo(), srv.Registry(), cfg.SessionSweepInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
