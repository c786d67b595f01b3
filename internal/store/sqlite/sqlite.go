package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-io/inkwell/server/internal/model"
	"github.com/inkwell-io/inkwell/server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id       TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    creation_time TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
    entry_id   TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    title      TEXT NOT NULL,
    body       TEXT NOT NULL,
    tags       TEXT NOT NULL DEFAULT '[]',
    embedding  TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_owner ON entries(owner_id);
`

// New opens a SQLite-backed store at path and bootstraps the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires a store over an existing connection (used by factory and tests).
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite schema bootstrap: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Users() store.Users     { return &users{db: s.db} }
func (s *sqliteStore) Entries() store.Entries { return &entries{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, email, password_hash, creation_time)
        VALUES (?,?,?,?)
    `, m.UserID, m.Email, m.PasswordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", model.ErrConflict)
		}
		return nil, err
	}
	out := *m
	out.CreationTime = now
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, password_hash, creation_time FROM users WHERE user_id = ?
    `, userID)
	return scanUser(row)
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, password_hash, creation_time FROM users WHERE email = ?
    `, email)
	return scanUser(row)
}

func (u *users) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := u.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var out model.User
	if err := row.Scan(&out.UserID, &out.Email, &out.PasswordHash, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// --- Entries ---

type entries struct{ db *sql.DB }

func (e *entries) Create(ctx context.Context, m *model.Entry) (*model.Entry, error) {
	tags, embedding, err := encodeJSONFields(m)
	if err != nil {
		return nil, err
	}
	_, err = e.db.ExecContext(ctx, `
        INSERT INTO entries (entry_id, owner_id, title, body, tags, embedding, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?)
    `, m.ID, m.OwnerID, m.Title, m.Body, tags, embedding, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: entry %s", model.ErrConflict, m.ID)
		}
		return nil, err
	}
	out := *m
	return &out, nil
}

func (e *entries) Get(ctx context.Context, ownerID, entryID string) (*model.Entry, error) {
	row := e.db.QueryRowContext(ctx, `
        SELECT entry_id, owner_id, title, body, tags, embedding, created_at, updated_at
        FROM entries WHERE entry_id = ? AND owner_id = ?
    `, entryID, ownerID)
	return scanEntry(row.Scan)
}

func (e *entries) Update(ctx context.Context, m *model.Entry) (*model.Entry, error) {
	tags, embedding, err := encodeJSONFields(m)
	if err != nil {
		return nil, err
	}
	res, err := e.db.ExecContext(ctx, `
        UPDATE entries SET title = ?, body = ?, tags = ?, embedding = ?, updated_at = ?
        WHERE entry_id = ? AND owner_id = ?
    `, m.Title, m.Body, tags, embedding, m.UpdatedAt, m.ID, m.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	out := *m
	return &out, nil
}

func (e *entries) Delete(ctx context.Context, ownerID, entryID string) (bool, error) {
	res, err := e.db.ExecContext(ctx, `DELETE FROM entries WHERE entry_id = ? AND owner_id = ?`, entryID, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (e *entries) List(ctx context.Context, ownerID string) ([]*model.Entry, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT entry_id, owner_id, title, body, tags, embedding, created_at, updated_at
        FROM entries WHERE owner_id = ? ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (e *entries) All(ctx context.Context) ([]*model.Entry, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT entry_id, owner_id, title, body, tags, embedding, created_at, updated_at
        FROM entries
    `)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// --- helpers ---

func encodeJSONFields(m *model.Entry) (tags string, embedding string, err error) {
	t := m.Tags
	if t == nil {
		t = []string{}
	}
	tb, err := json.Marshal(t)
	if err != nil {
		return "", "", err
	}
	v := m.Embedding
	if v == nil {
		v = []float32{}
	}
	vb, err := json.Marshal(v)
	if err != nil {
		return "", "", err
	}
	return string(tb), string(vb), nil
}

func scanEntry(scan func(dest ...any) error) (*model.Entry, error) {
	var out model.Entry
	var tags, embedding string
	if err := scan(&out.ID, &out.OwnerID, &out.Title, &out.Body, &tags, &embedding, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &out.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", out.ID, err)
	}
	if err := json.Unmarshal([]byte(embedding), &out.Embedding); err != nil {
		return nil, fmt.Errorf("decode embedding for %s: %w", out.ID, err)
	}
	return &out, nil
}

func collectEntries(rows *sql.Rows) ([]*model.Entry, error) {
	defer func() { _ = rows.Close() }()
	var res []*model.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text;
	// there is no exported sentinel to compare against.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
