// Package storage defines the persistence contracts for users, cloud
// saves, credits, and the debug event log.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing. Callers use it
// to distinguish "no such entity" from transport failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrInsufficientCredits indicates the user's balance cannot cover a
// narrative call. No state is mutated when it is returned.
var ErrInsufficientCredits = apperrors.New(apperrors.CodeInsufficientCredits, "not enough credits")

// UserRecord is a registered player.
type UserRecord struct {
	ID           string
	Name         string
	PasswordHash string
	Credits      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SaveRecord is one cloud save. Payload is the versioned save
// envelope, stored as JSON.
type SaveRecord struct {
	ID        string
	UserID    string
	Payload   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TelemetryRecord is one debug-console event kept for inspection.
type TelemetryRecord struct {
	ID        string
	UserID    string
	Kind      string
	Message   string
	CreatedAt time.Time
}

// UserStore persists players and their credit balances.
type UserStore interface {
	CreateUser(ctx context.Context, user UserRecord) error
	UserByID(ctx context.Context, id string) (UserRecord, error)
	UserByName(ctx context.Context, name string) (UserRecord, error)
	// AddCredits adjusts the balance by delta, which may be negative.
	AddCredits(ctx context.Context, userID string, delta int64) (int64, error)
	// SpendCredit atomically decrements one credit, failing with
	// ErrInsufficientCredits when the balance is empty.
	SpendCredit(ctx context.Context, userID string) (int64, error)
}

// SaveStore persists cloud saves. Each user keeps a history; the most
// recently updated save wins on load.
type SaveStore interface {
	PutSave(ctx context.Context, save SaveRecord) error
	LatestSave(ctx context.Context, userID string) (SaveRecord, error)
	ListSaves(ctx context.Context, userID string) ([]SaveRecord, error)
	DeleteSave(ctx context.Context, userID, saveID string) error
}

// TelemetryStore records debug-console events.
type TelemetryStore interface {
	AppendTelemetry(ctx context.Context, rec TelemetryRecord) error
	RecentTelemetry(ctx context.Context, userID string, limit int) ([]TelemetryRecord, error)
}

// Store aggregates every persistence contract the application needs.
type Store interface {
	UserStore
	SaveStore
	TelemetryStore
	Close() error
}
