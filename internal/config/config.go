package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type Config struct {
	Port                 int
	DatabaseURL          string
	JWTSecret            string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	TMDBAPIKey           string
	TMDBBaseURL          string
	TMDBImageBaseURL     string
	TMDBRateLimit        float64
	HomeGenres           []int
	RedisURL             string
	CatalogCacheTTL      time.Duration
	DataDir              string
	LogFile              string
	AuthRateLimit        float64
	AuthRateBurst        int
	VersionFile          string
}

func Load() *Config {
	return &Config{
		Port:                 envInt("PORT", 8080),
		DatabaseURL:          env("DATABASE_URL", "file:cinelist.db"),
		JWTSecret:            env("JWT_SECRET", "change-me-in-production"),
		SessionTTL:           envDuration("SESSION_TTL", 30*24*time.Hour),
		SessionSweepInterval: envDuration("SESSION_SWEEP_INTERVAL", 15*time.Minute),
		TMDBAPIKey:           env("TMDB_API_KEY", ""),
		TMDBBaseURL:          env("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBaseURL:     env("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		TMDBRateLimit:        envFloat("TMDB_RATE_LIMIT", 20),
		HomeGenres:           envInts("HOME_GENRES", []int{28, 35, 18, 27}),
		RedisURL:             env("REDIS_URL", ""),
		CatalogCacheTTL:      envDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		DataDir:              env("DATA_DIR", "./data"),
		LogFile:              env("LOG_FILE", ""),
		AuthRateLimit:        envFloat("AUTH_RATE_LIMIT", 1),
		AuthRateBurst:        envInt("AUTH_RATE_BURST", 5),
		VersionFile:          env("VERSION_FILE", "version.json"),
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 1 and 65535"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionSweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL must be positive"))
	}
	if c.TMDBRateLimit <= 0 || c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	if len(c.HomeGenres) == 0 {
		errs = append(errs, errors.New("HOME_GENRES must list at least one genre"))
	}
	return errors.Join(errs...)
}

func (c *Config) CatalogCacheEnabled() bool {
	return c.RedisURL != "" && c.CatalogCacheTTL > 0
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			return i
		}
		log.Printf("config: ignoring invalid %s=%q", key, v)
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := cast.ToFloat64E(v); err == nil {
			return f
		}
		log.Printf("config: ignoring invalid %s=%q", key, v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			return d
		}
		log.Printf("config: ignoring invalid %s=%q", key, v)
	}
	return fallback
}

func envInts(key string, fallback []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	ints, err := cast.ToIntSliceE(parts)
	if err != nil {
		log.Printf("config: ignoring invalid %s=%q", key, v)
		return fallback
	}
	return ints
}
