package profiles

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

type Repository struct {
	db *db.DB
}

func NewRepository(database *db.DB) *Repository {
	return &Repository{db: database}
}

// Create adds a profile, enforcing MaxPerAccount inside one transaction.
func (r *Repository) Create(ctx context.Context, accountID, name string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM profiles WHERE account_id=?"), accountID).Scan(&count); err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	if count >= MaxPerAccount {
		return nil, ErrProfileLimit
	}

	now := time.Now().UTC()
	p := &Profile{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = tx.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO profiles (id, account_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		p.ID, p.AccountID, p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, accountID string) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, account_id, name, avatar_path, created_at, updated_at
		FROM profiles WHERE account_id=? ORDER BY created_at, id`), accountID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Get returns the profile only if it belongs to accountID.
func (r *Repository) Get(ctx context.Context, accountID, id string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, account_id, name, avatar_path, created_at, updated_at
		FROM profiles WHERE id=? AND account_id=?`), id, accountID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *Repository) Rename(ctx context.Context, accountID, id, name string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		"UPDATE profiles SET name=?, updated_at=? WHERE id=? AND account_id=?"),
		name, time.Now().UTC(), id, accountID)
	if err != nil {
		return nil, fmt.Errorf("rename profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, accountID, id)
}

func (r *Repository) SetAvatar(ctx context.Context, accountID, id, path string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		"UPDATE profiles SET avatar_path=?, updated_at=? WHERE id=? AND account_id=?"),
		path, time.Now().UTC(), id, accountID)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM profiles WHERE id=? AND account_id=?"), id, accountID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(s scanner) (*Profile, error) {
	p := &Profile{}
	var avatar sql.NullString
	if err := s.Scan(&p.ID, &p.AccountID, &p.Name, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if avatar.Valid && avatar.String != "" {
		p.AvatarPath = &avatar.String
		p.HasAvatar = true
	}
	return p, nil
}
