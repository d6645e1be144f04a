package profiles

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/CineList/internal/auth"
	"github.com/JustinTDCT/CineList/internal/avatars"
	"github.com/JustinTDCT/CineList/internal/httputil"
)

// SessionSelector records the chosen profile on the caller's session.
type SessionSelector interface {
	SelectProfile(ctx context.Context, sessionID, profileID string) error
}

type Handler struct {
	repo     *Repository
	avatars  *avatars.Store
	sessions SessionSelector
}

func NewHandler(repo *Repository, avatarStore *avatars.Store, sessions SessionSelector) *Handler {
	return &Handler{repo: repo, avatars: avatarStore, sessions: sessions}
}

// Router expects auth.Middleware.RequireAuth to run first.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/{id}", h.rename)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/select", h.selectProfile)
	r.Put("/{id}/avatar", h.uploadAvatar)
	r.Get("/{id}/avatar", h.avatar)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	profiles, err := h.repo.List(r.Context(), u.AccountID)
	if err != nil {
		log.Printf("Profiles: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to load profiles")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profiles)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	var req struct {
		Name string `json:"name"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeInvalidJSON, "invalid request body")
		return
	}

	p, err := h.repo.Create(r.Context(), u.AccountID, req.Name)
	if err != nil {
		h.writeRepoError(w, err, "failed to create profile")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	var req struct {
		Name string `json:"name"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeInvalidJSON, "invalid request body")
		return
	}

	p, err := h.repo.Rename(r.Context(), u.AccountID, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.writeRepoError(w, err, "failed to rename profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	p, err := h.repo.Get(r.Context(), u.AccountID, id)
	if err != nil {
		h.writeRepoError(w, err, "failed to delete profile")
		return
	}
	if err := h.repo.Delete(r.Context(), u.AccountID, id); err != nil {
		h.writeRepoError(w, err, "failed to delete profile")
		return
	}
	if p.AvatarPath != nil {
		if err := h.avatars.Delete(*p.AvatarPath); err != nil {
			log.Printf("Profiles: could not remove avatar for %s: %v", id, err)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *Handler) selectProfile(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	p, err := h.repo.Get(r.Context(), u.AccountID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err, "failed to select profile")
		return
	}
	if err := h.sessions.SelectProfile(r.Context(), u.SessionID, p.ID); err != nil {
		log.Printf("Profiles: select %s: %v", p.ID, err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to select profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// uploadAvatar accepts either a raw image body or a multipart form with an
// "avatar" file field.
func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	p, err := h.repo.Get(r.Context(), u.AccountID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err, "failed to store avatar")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, avatars.MaxSize+1<<16)
	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("avatar")
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeMissingFields, "avatar file is required")
			return
		}
		defer file.Close()
		body = file
	}

	name, err := h.avatars.Save(p.ID, body)
	if err != nil {
		switch {
		case errors.Is(err, avatars.ErrUnsupportedType), errors.Is(err, avatars.ErrEmpty):
			httputil.WriteError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_IMAGE", err.Error())
		case errors.Is(err, avatars.ErrTooLarge):
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", err.Error())
		default:
			log.Printf("Profiles: avatar for %s: %v", p.ID, err)
			httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to store avatar")
		}
		return
	}
	if err := h.repo.SetAvatar(r.Context(), u.AccountID, p.ID, name); err != nil {
		h.writeRepoError(w, err, "failed to store avatar")
		return
	}
	p.AvatarPath = &name
	p.HasAvatar = true
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) avatar(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	p, err := h.repo.Get(r.Context(), u.AccountID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err, "failed to load avatar")
		return
	}
	if p.AvatarPath == nil {
		httputil.WriteError(w, http.StatusNotFound, httputil.CodeNotFound, "profile has no avatar")
		return
	}

	f, ctype, err := h.avatars.Open(*p.AvatarPath)
	if err != nil {
		log.Printf("Profiles: open avatar %s: %v", *p.AvatarPath, err)
		httputil.WriteError(w, http.StatusNotFound, httputil.CodeNotFound, "profile has no avatar")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Cache-Control", "no-cache, must-revalidate")
	http.ServeContent(w, r, *p.AvatarPath, p.UpdatedAt, f)
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, httputil.CodeNotFound, "profile not found")
	case errors.Is(err, ErrNameRequired):
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeMissingFields, err.Error())
	case errors.Is(err, ErrProfileLimit):
		httputil.WriteError(w, http.StatusConflict, "PROFILE_LIMIT", "an account can hold at most 5 profiles")
	default:
		log.Printf("Profiles: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, fallback)
	}
}
