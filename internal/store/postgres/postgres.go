package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/inkwell-io/inkwell/server/internal/model"
	"github.com/inkwell-io/inkwell/server/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
// Schema migrations are handled by deploy tooling, not here.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users     { return &users{db: s.db} }
func (s *pgStore) Entries() store.Entries { return &entries{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap performs a connectivity check to ensure Postgres is reachable.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.PingContext(ctx)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, password_hash)
        VALUES ($1,$2,$3)
        RETURNING creation_time
    `, m.UserID, m.Email, m.PasswordHash)
	if err := row.Scan(&created); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", model.ErrConflict)
		}
		return nil, err
	}
	out := *m
	out.CreationTime = created
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, password_hash, creation_time FROM users WHERE user_id=$1
    `, userID)
	return scanUser(row)
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, password_hash, creation_time FROM users WHERE email=$1
    `, email)
	return scanUser(row)
}

func (u *users) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := u.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE user_id=$2`, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id=$1`, userID)
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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
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
        FROM entries WHERE entry_id=$1 AND owner_id=$2
    `, entryID, ownerID)
	return scanEntry(row.Scan)
}

func (e *entries) Update(ctx context.Context, m *model.Entry) (*model.Entry, error) {
	tags, embedding, err := encodeJSONFields(m)
	if err != nil {
		return nil, err
	}
	res, err := e.db.ExecContext(ctx, `
        UPDATE entries SET title=$1, body=$2, tags=$3, embedding=$4, updated_at=$5
        WHERE entry_id=$6 AND owner_id=$7
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
	res, err := e.db.ExecContext(ctx, `DELETE FROM entries WHERE entry_id=$1 AND owner_id=$2`, entryID, ownerID)
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
        FROM entries WHERE owner_id=$1 ORDER BY created_at DESC
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

func encodeJSONFields(m *model.Entry) (string, string, error) {
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
	// SQLSTATE 23505 (unique_violation) as surfaced through the pgx stdlib driver.
	return err != nil && strings.Contains(err.Error(), "23505")
}
