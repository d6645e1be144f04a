package api

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"

	"github.com/JustinTDCT/CineList/internal/auth"
	"github.com/JustinTDCT/CineList/internal/avatars"
	"github.com/JustinTDCT/CineList/internal/config"
	"github.com/JustinTDCT/CineList/internal/db"
	"github.com/JustinTDCT/CineList/internal/httputil"
	"github.com/JustinTDCT/CineList/internal/metadata"
	"github.com/JustinTDCT/CineList/internal/profiles"
	"github.com/JustinTDCT/CineList/internal/version"
	"github.com/JustinTDCT/CineList/internal/watchlist"
)

type Server struct {
	config    *config.Config
	version   version.Info
	authRepo  *auth.Repository
	registry  *watchlist.Registry
	watchlist *watchlist.Handler
	router    chi.Router
}

// NewServer wires every package behind one router. fs holds avatars and the
// version file; cache may be nil to disable catalog caching.
func NewServer(cfg *config.Config, database *db.DB, fs afero.Fs, cache metadata.Cache) (*Server, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	authRepo := auth.NewRepository(database)
	authMW := auth.NewMiddleware(issuer, authRepo)
	limiter := auth.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	registry := watchlist.NewRegistry()

	catalog := metadata.NewClient(cfg, cache)
	avatarStore, err := avatars.NewStore(fs, filepath.Join(cfg.DataDir, "avatars"))
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		version:   version.Load(fs, cfg.VersionFile),
		authRepo:  authRepo,
		registry:  registry,
		watchlist: watchlist.NewHandler(registry, catalog.ResolveWatchlistMovie),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware)

	r.Get("/health", s.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Mount("/auth", auth.NewHandler(authRepo, issuer, authMW, limiter, registry, cfg.SessionTTL).Router())

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Mount("/profiles", profiles.NewHandler(profiles.NewRepository(database), avatarStore, authRepo).Router())
			r.Mount("/catalog", metadata.NewHandler(catalog, cfg.HomeGenres).Router())
			r.Mount("/watchlist", s.watchlist.Router())
		})
	})
	s.router = r

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry is the per-session watchlist registry, shared with the session sweep.
func (s *Server) Registry() *watchlist.Registry {
	return s.registry
}

func (s *Server) Version() string {
	return s.version.Version
}

func (s *Server) AuthRepo() *auth.Repository {
	return s.authRepo
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":           s.version.Version,
		"live_sessions":     s.registry.Len(),
		"stream_clients":    s.watchlist.Streams().ClientCount(),
		"catalog_cache":     s.config.CatalogCacheEnabled(),
		"catalog_available": s.config.TMDBAPIKey != "",
	})
}

// securityHeadersMiddleware adds standard security headers to all responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		w.Header().Set("X-XSS-Protection", "0")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles CORS preflight and response headers globally.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, If-None-Match")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
