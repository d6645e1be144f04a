package metadata

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/CineList/internal/httputil"
)

type Handler struct {
	client     *Client
	homeGenres []int
}

func NewHandler(client *Client, homeGenres []int) *Handler {
	return &Handler{client: client, homeGenres: homeGenres}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/home", h.home)
	r.Get("/popular", h.popular)
	r.Get("/search", h.search)
	r.Get("/discover", h.discover)
	r.Get("/movies/{id}", h.movie)
	return r
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	categories, err := h.client.HomeCategories(r.Context(), h.homeGenres)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) popular(w http.ResponseWriter, r *http.Request) {
	page, err := h.client.Popular(r.Context(), pageParam(r))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	page, err := h.client.Search(r.Context(), r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) discover(w http.ResponseWriter, r *http.Request) {
	genreID, err := strconv.Atoi(r.URL.Query().Get("genre"))
	if err != nil || genreID <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_PARAMS", "genre is required")
		return
	}
	page, err := h.client.Discover(r.Context(), genreID, pageParam(r))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) movie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid movie id")
		return
	}
	m, err := h.client.Details(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyQuery):
		httputil.WriteError(w, http.StatusBadRequest, "MISSING_PARAMS", "Please enter a movie title to search.")
	case errors.Is(err, ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, httputil.CodeNotFound, "movie not found")
	case errors.Is(err, ErrNotConfigured):
		httputil.WriteError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "movie catalog is not configured")
	default:
		log.Printf("Catalog: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to fetch movies. Please try again.")
	}
}

func pageParam(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return page
}
