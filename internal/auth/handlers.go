package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/CineList/internal/httputil"
)

// SessionEnder drops per-session state when a session ends.
type SessionEnder interface {
	Discard(sessionIDs ...string)
}

type Handler struct {
	repo       *Repository
	issuer     *Issuer
	middleware *Middleware
	limiter    *RateLimiter
	ender      SessionEnder
	ttl        time.Duration
}

func NewHandler(repo *Repository, issuer *Issuer, mw *Middleware, limiter *RateLimiter, ender SessionEnder, ttl time.Duration) *Handler {
	return &Handler{repo: repo, issuer: issuer, middleware: mw, limiter: limiter, ender: ender, ttl: ttl}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware)
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.middleware.RequireAuth)
		r.Get("/session", h.session)
		r.Post("/logout", h.logout)
	})
	return r
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeInvalidJSON, "invalid request body")
		return
	}

	if err := ValidateSignup(req.Name, req.Email, req.Password, req.ConfirmPassword); err != nil {
		code := httputil.CodeMissingFields
		switch {
		case errors.Is(err, ErrPasswordMismatch):
			code = "PASSWORD_MISMATCH"
		case errors.Is(err, ErrWeakPassword):
			code = "WEAK_PASSWORD"
		}
		httputil.WriteError(w, http.StatusBadRequest, code, err.Error())
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to hash password")
		return
	}

	account := &Account{
		Name:         strings.TrimSpace(req.Name),
		Email:        NormalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := h.repo.CreateAccount(r.Context(), account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httputil.WriteError(w, http.StatusConflict, "EMAIL_EXISTS", "email already registered")
			return
		}
		log.Printf("Auth: signup failed: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to save account")
		return
	}
	log.Printf("Auth: account %s created", account.ID)

	h.startSession(w, r, account, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeInvalidJSON, "invalid request body")
		return
	}

	account, err := h.repo.GetAccountByEmail(r.Context(), NormalizeEmail(req.Email))
	if err != nil || !CheckPassword(account.PasswordHash, req.Password) {
		if err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("Auth: login lookup failed: %v", err)
		}
		httputil.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		return
	}

	h.startSession(w, r, account, http.StatusOK)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, account *Account, status int) {
	session, err := h.repo.CreateSession(r.Context(), account.ID, h.ttl)
	if err != nil {
		log.Printf("Auth: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to start session")
		return
	}
	token, err := h.issuer.GenerateToken(account.ID, session.ID, session.ExpiresAt)
	if err != nil {
		log.Printf("Auth: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})

	httputil.WriteJSON(w, status, map[string]interface{}{
		"account":    account,
		"token":      token,
		"expires_at": session.ExpiresAt,
	})
}

// session answers the launch screen's "is someone already signed in" check.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	account, err := h.repo.GetAccountByID(r.Context(), u.AccountID)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "account no longer exists")
		return
	}
	resp := map[string]interface{}{
		"account":    account,
		"session_id": u.SessionID,
	}
	if u.ProfileID != "" {
		resp["profile_id"] = u.ProfileID
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	if err := h.repo.RevokeSession(r.Context(), u.SessionID); err != nil {
		log.Printf("Auth: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternal, "failed to end session")
		return
	}
	h.ender.Discard(u.SessionID)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "You have been successfully logged out."})
}
