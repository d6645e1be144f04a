package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/CineList/internal/db/dbtest"
)

type recordingEnder struct {
	discarded []string
}

func (e *recordingEnder) Discard(ids ...string) { e.discarded = append(e.discarded, ids...) }

type authEnv struct {
	repo    *Repository
	ender   *recordingEnder
	handler http.Handler
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	issuer, err := NewIssuer("test-secret")
	require.NoError(t, err)
	ender := &recordingEnder{}
	h := NewHandler(repo, issuer, NewMiddleware(issuer, repo), NewRateLimiter(1000, 1000), ender, time.Hour)
	return &authEnv{repo: repo, ender: ender, handler: h.Router()}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *authEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (e *authEnv) signup(t *testing.T, email string) string {
	t.Helper()
	rec, env := e.do(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Ana", "email": email, "password": "secret1", "confirm_password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestSignupLoginSessionLogout(t *testing.T) {
	env := newAuthEnv(t)
	env.signup(t, "Ana@Example.com")

	rec, body := env.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token   string  `json:"token"`
		Account Account `json:"account"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &login))
	assert.Equal(t, "ana@example.com", login.Account.Email)
	assert.NotContains(t, string(body.Data), "password")

	rec, body = env.do(t, http.MethodGet, "/session", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sess struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &sess))
	require.NotEmpty(t, sess.SessionID)

	rec, _ = env.do(t, http.MethodPost, "/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{sess.SessionID}, env.ender.discarded)

	rec, body = env.do(t, http.MethodGet, "/session", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", body.Error.Code)
}

func TestSignupValidation(t *testing.T) {
	env := newAuthEnv(t)

	rec, body := env.do(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1", "confirm_password": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PASSWORD_MISMATCH", body.Error.Code)

	rec, body = env.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_FIELDS", body.Error.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newAuthEnv(t)
	env.signup(t, "ana@example.com")

	rec, body := env.do(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Ana", "email": "ANA@example.com", "password": "secret1", "confirm_password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_EXISTS", body.Error.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newAuthEnv(t)
	env.signup(t, "ana@example.com")

	rec, body := env.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong-one",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", body.Error.Code)
}

func TestSessionRequiresToken(t *testing.T) {
	env := newAuthEnv(t)

	rec, body := env.do(t, http.MethodGet, "/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestDeleteEndedSessions(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	account := &Account{Name: "Ana", Email: "ana@example.com", PasswordHash: "x"}
	require.NoError(t, env.repo.CreateAccount(ctx, account))

	live, err := env.repo.CreateSession(ctx, account.ID, time.Hour)
	require.NoError(t, err)
	expired, err := env.repo.CreateSession(ctx, account.ID, -time.Minute)
	require.NoError(t, err)
	revoked, err := env.repo.CreateSession(ctx, account.ID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, env.repo.RevokeSession(ctx, revoked.ID))

	ids, err := env.repo.DeleteEndedSessions(ctx, time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{expired.ID, revoked.ID}, ids)

	_, err = env.repo.GetSession(ctx, live.ID)
	assert.NoError(t, err)
	_, err = env.repo.GetSession(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRateLimiterBlocksBursts(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}
