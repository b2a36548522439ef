// Package sqlite implements the storage contracts on an embedded
// SQLite database with schema migrations applied at open time.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/fabled/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/fabled/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store is a SQLite-backed implementation of storage.Store.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, sub); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database. Nil-safe so callers can defer
// it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user storage.UserRecord) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (id, name, password_hash, credits, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.PasswordHash, user.Credits,
		toMillis(user.CreatedAt), toMillis(user.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (storage.UserRecord, error) {
	var rec storage.UserRecord
	var created, updated int64
	err := row.Scan(&rec.ID, &rec.Name, &rec.PasswordHash, &rec.Credits, &created, &updated)
	if err == sql.ErrNoRows {
		return storage.UserRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.UserRecord{}, fmt.Errorf("scan user: %w", err)
	}
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	return rec, nil
}

// UserByID fetches a user row by id.
func (s *Store) UserByID(ctx context.Context, id string) (storage.UserRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, password_hash, credits, created_at, updated_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// UserByName fetches a user row by unique name.
func (s *Store) UserByName(ctx context.Context, name string) (storage.UserRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, password_hash, credits, created_at, updated_at FROM users WHERE name = ?`, name)
	return scanUser(row)
}

// AddCredits adjusts the balance by delta and returns the new value.
func (s *Store) AddCredits(ctx context.Context, userID string, delta int64) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?`,
		delta, toMillis(time.Now()), userID)
	if err != nil {
		return 0, fmt.Errorf("update credits: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update credits result: %w", err)
	}
	if affected == 0 {
		return 0, storage.ErrNotFound
	}
	return s.creditBalance(ctx, userID)
}

// SpendCredit decrements one credit only when the balance is positive,
// so exhausted users fail before any narrative call is made.
func (s *Store) SpendCredit(ctx context.Context, userID string) (int64, error) {
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE users SET credits = credits - 1, updated_at = ? WHERE id = ? AND credits > 0`,
		toMillis(time.Now()), userID)
	if err != nil {
		return 0, fmt.Errorf("spend credit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("spend credit result: %w", err)
	}
	if affected == 0 {
		if _, err := s.UserByID(ctx, userID); err != nil {
			return 0, err
		}
		return 0, storage.ErrInsufficientCredits
	}
	return s.creditBalance(ctx, userID)
}

func (s *Store) creditBalance(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, userID).Scan(&credits)
	if err == sql.ErrNoRows {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read credits: %w", err)
	}
	return credits, nil
}

// PutSave inserts or replaces a save row.
func (s *Store) PutSave(ctx context.Context, save storage.SaveRecord) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO saves (id, user_id, payload, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		save.ID, save.UserID, string(save.Payload),
		toMillis(save.CreatedAt), toMillis(save.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert save: %w", err)
	}
	return nil
}

func scanSave(scan func(dest ...any) error) (storage.SaveRecord, error) {
	var rec storage.SaveRecord
	var payload string
	var created, updated int64
	err := scan(&rec.ID, &rec.UserID, &payload, &created, &updated)
	if err == sql.ErrNoRows {
		return storage.SaveRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.SaveRecord{}, fmt.Errorf("scan save: %w", err)
	}
	rec.Payload = []byte(payload)
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	return rec, nil
}

// LatestSave returns the most recently updated save for the user.
func (s *Store) LatestSave(ctx context.Context, userID string) (storage.SaveRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, payload, created_at, updated_at FROM saves
WHERE user_id = ? ORDER BY updated_at DESC, id LIMIT 1`, userID)
	return scanSave(row.Scan)
}

// ListSaves returns the user's saves, most recently updated first.
func (s *Store) ListSaves(ctx context.Context, userID string) ([]storage.SaveRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, payload, created_at, updated_at FROM saves
WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var out []storage.SaveRecord
	for rows.Next() {
		rec, err := scanSave(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saves: %w", err)
	}
	return out, nil
}

// DeleteSave removes one of the user's saves.
func (s *Store) DeleteSave(ctx context.Context, userID, saveID string) error {
	res, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM saves WHERE id = ? AND user_id = ?`, saveID, userID)
	if err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete save result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendTelemetry records one debug event.
func (s *Store) AppendTelemetry(ctx context.Context, rec storage.TelemetryRecord) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (id, user_id, kind, message, created_at)
VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Kind, rec.Message, toMillis(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

// RecentTelemetry returns the user's newest events, newest first.
func (s *Store) RecentTelemetry(ctx context.Context, userID string, limit int) ([]storage.TelemetryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, kind, message, created_at FROM telemetry_events
WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	defer rows.Close()

	var out []storage.TelemetryRecord
	for rows.Next() {
		var rec storage.TelemetryRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Kind, &rec.Message, &created); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		rec.CreatedAt = fromMillis(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry events: %w", err)
	}
	return out, nil
}
