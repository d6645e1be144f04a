package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JustinTDCT/CineList/internal/db"
)

type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Session struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	ProfileID *string    `json:"profile_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"-"`
}

// Active reports whether the session can still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// Repository persists accounts and their login sessions.
type Repository struct {
	db *db.DB
}

func NewRepository(database *db.DB) *Repository {
	return &Repository{db: database}
}

// ──────────────────── Accounts ────────────────────

func (r *Repository) CreateAccount(ctx context.Context, a *Account) error {
	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO accounts (id, name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		a.ID, a.Name, a.Email, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getAccount(ctx, "email", email)
}

func (r *Repository) GetAccountByID(ctx context.Context, id string) (*Account, error) {
	return r.getAccount(ctx, "id", id)
}

func (r *Repository) getAccount(ctx context.Context, column, value string) (*Account, error) {
	a := &Account{}
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM accounts WHERE `+column+`=?`), value,
	).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ──────────────────── Sessions ────────────────────

func (r *Repository) CreateSession(ctx context.Context, accountID string, ttl time.Duration) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO sessions (id, account_id, created_at, expires_at) VALUES (?, ?, ?, ?)`),
		s.ID, s.AccountID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	s := &Session{}
	var profileID sql.NullString
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, account_id, profile_id, created_at, expires_at, revoked_at
		FROM sessions WHERE id=?`), id,
	).Scan(&s.ID, &s.AccountID, &profileID, &s.CreatedAt, &s.ExpiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if profileID.Valid {
		s.ProfileID = &profileID.String
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	return s, nil
}

// SelectProfile records which profile the session is browsing as.
func (r *Repository) SelectProfile(ctx context.Context, sessionID, profileID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		"UPDATE sessions SET profile_id=? WHERE id=? AND revoked_at IS NULL"), profileID, sessionID)
	if err != nil {
		return fmt.Errorf("select profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) RevokeSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		"UPDATE sessions SET revoked_at=? WHERE id=? AND revoked_at IS NULL"), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// DeleteEndedSessions removes sessions that expired or were revoked before
// now and returns their ids.
func (r *Repository) DeleteEndedSessions(ctx context.Context, now time.Time) ([]string, error) {
	now = now.UTC()
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		"SELECT id FROM sessions WHERE expires_at <= ? OR revoked_at IS NOT NULL"), now)
	if err != nil {
		return nil, fmt.Errorf("list ended sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM sessions WHERE id=?"), id); err != nil {
			return nil, fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	return ids, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
