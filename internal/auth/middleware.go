package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/JustinTDCT/CineList/internal/httputil"
)

type contextKey string

const (
	ContextUser contextKey = "user"

	sessionCookie = "session"
)

type ContextUserData struct {
	AccountID string
	SessionID string
	ProfileID string
}

// SessionLookup is the part of Repository the middleware needs.
type SessionLookup interface {
	GetSession(ctx context.Context, id string) (*Session, error)
}

type Middleware struct {
	issuer   *Issuer
	sessions SessionLookup
}

func NewMiddleware(issuer *Issuer, sessions SessionLookup) *Middleware {
	return &Middleware{issuer: issuer, sessions: sessions}
}

func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "authentication required")
			return
		}

		claims, err := m.issuer.ValidateToken(token)
		if errors.Is(err, ErrTokenExpired) {
			httputil.WriteError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired")
			return
		}
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "invalid session")
			return
		}

		session, err := m.sessions.GetSession(r.Context(), claims.SessionID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("Auth: session lookup failed: %v", err)
			}
			httputil.WriteError(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "invalid session")
			return
		}
		if session.AccountID != claims.AccountID || !session.Active(time.Now()) {
			httputil.WriteError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session ended")
			return
		}

		data := ContextUserData{AccountID: session.AccountID, SessionID: session.ID}
		if session.ProfileID != nil {
			data.ProfileID = *session.ProfileID
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), data)))
	})
}

// WithUser stores the authenticated caller on ctx.
func WithUser(ctx context.Context, u ContextUserData) context.Context {
	return context.WithValue(ctx, ContextUser, u)
}

func UserFromContext(ctx context.Context) *ContextUserData {
	if v, ok := ctx.Value(ContextUser).(ContextUserData); ok {
		return &v
	}
	return nil
}

// extractToken accepts a bearer header, the session cookie, or a token query
// parameter (websocket clients cannot set headers).
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return r.URL.Query().Get("token")
}
