package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Readout/internal/core/users"
)

type userRepo struct {
	store *Store
}

// NewUserRepository creates a user repository over the local store
func NewUserRepository(store *Store) users.Repository {
	return &userRepo{store: store}
}

func (r *userRepo) GetUser(ctx context.Context, name string) (*users.User, error) {
	query := `SELECT name, icon_url, snoovatar_url FROM users WHERE name = $1`

	u, err := scanUser(r.store.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", name, err)
	}
	return u, nil
}

// GetUsers retrieves multiple users in a single query.
// Missing users are not included in the result map.
func (r *userRepo) GetUsers(ctx context.Context, names []string) (map[string]*users.User, error) {
	out := make(map[string]*users.User, len(names))
	if len(names) == 0 {
		return out, nil
	}

	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	query := `SELECT name, icon_url, snoovatar_url FROM users WHERE name IN (` + placeholders(1, len(names)) + `)`

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out[u.Name] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return out, nil
}

func (r *userRepo) UpsertUser(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (name, icon_url, snoovatar_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			icon_url = excluded.icon_url,
			snoovatar_url = excluded.snoovatar_url`

	if _, err := r.store.db.ExecContext(ctx, query, user.Name, user.IconURL, user.SnoovatarURL); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.Name, err)
	}
	r.store.tracker.Notify(users.Table)
	return nil
}

// insertPlaceholderUsers inserts an empty row for every fetchable name that is
// not cached yet and returns the names, in input order, that are still placeholders.
func insertPlaceholderUsers(ctx context.Context, q queryer, names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	var candidates []string
	for _, n := range names {
		if !users.Enrichable(n) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		candidates = append(candidates, n)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	insert := `INSERT INTO users (name, icon_url) VALUES ($1, '') ON CONFLICT (name) DO NOTHING`
	for _, n := range candidates {
		if _, err := q.ExecContext(ctx, insert, n); err != nil {
			return nil, fmt.Errorf("failed to insert placeholder user %s: %w", n, err)
		}
	}

	args := make([]any, len(candidates))
	for i, n := range candidates {
		args[i] = n
	}
	query := `SELECT name FROM users WHERE icon_url = '' AND name IN (` + placeholders(1, len(candidates)) + `)`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read placeholder users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pending := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan placeholder user: %w", err)
		}
		pending[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating placeholder users: %w", err)
	}

	var out []string
	for _, n := range candidates {
		if _, ok := pending[n]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func scanUser(s scanner) (*users.User, error) {
	var (
		u         users.User
		snoovatar sql.NullString
	)
	if err := s.Scan(&u.Name, &u.IconURL, &snoovatar); err != nil {
		return nil, err
	}
	u.SnoovatarURL = nullStringPtr(snoovatar)
	return &u, nil
}
