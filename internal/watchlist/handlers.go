package watchlist

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/CineList/internal/auth"
	"github.com/JustinTDCT/CineList/internal/httputil"
)

// ErrMovieNotFound is returned by a MovieResolver for ids the catalog does not know.
var ErrMovieNotFound = errors.New("movie not found")

// MovieResolver fetches the display record for a movie id from the catalog.
type MovieResolver func(ctx context.Context, id int) (Movie, error)

type Handler struct {
	registry *Registry
	resolve  MovieResolver
	streams  *Streams
}

func NewHandler(registry *Registry, resolve MovieResolver) *Handler {
	return &Handler{registry: registry, resolve: resolve, streams: NewStreams()}
}

// Streams exposes the live stream connections for status reporting.
func (h *Handler) Streams() *Streams {
	return h.streams
}

// Router expects auth.Middleware.RequireAuth to run first.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Get("/stream", h.stream)
	r.Get("/{movieID}", h.contains)
	r.Delete("/{movieID}", h.remove)
	return r
}

func (h *Handler) store(r *http.Request) *Store {
	return h.registry.For(auth.UserFromContext(r.Context()).SessionID)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONWithETag(w, r, http.StatusOK, h.store(r).List())
}

func (h *Handler) contains(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"in_watchlist": h.store(r).Contains(id)})
}

// add accepts a full movie record, or just {"id": N} in which case the
// record is looked up in the catalog first.
func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var movie Movie
	if err := httputil.ReadJSON(r, &movie); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeInvalidJSON, "invalid request body")
		return
	}
	if movie.ID <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeMissingFields, "movie id is required")
		return
	}

	store := h.store(r)
	if store.Contains(movie.ID) {
		writeAlreadyAdded(w)
		return
	}

	if strings.TrimSpace(movie.Title) == "" {
		if h.resolve == nil {
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeMissingFields, "movie title is required")
			return
		}
		resolved, err := h.resolve(r.Context(), movie.ID)
		if err != nil {
			if errors.Is(err, ErrMovieNotFound) {
				httputil.WriteError(w, http.StatusNotFound, httputil.CodeNotFound, "movie not found")
				return
			}
			log.Printf("Watchlist: resolve movie %d: %v", movie.ID, err)
			httputil.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to fetch movie details. Please try again.")
			return
		}
		resolved.ID = movie.ID
		movie = resolved
	}

	// a concurrent request may have added it since the check above
	if !store.Add(movie) {
		writeAlreadyAdded(w)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, store.List())
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	store := h.store(r)
	store.Remove(id)
	httputil.WriteJSON(w, http.StatusOK, store.List())
}

func writeAlreadyAdded(w http.ResponseWriter) {
	httputil.WriteError(w, http.StatusConflict, "ALREADY_ADDED", "This movie is already in your list.")
}

func movieIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeMissingFields, "invalid movie id")
		return 0, false
	}
	return id, true
}
