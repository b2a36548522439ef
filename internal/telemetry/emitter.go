// Package telemetry persists debug-console events so players can
// inspect the model exchange behind each turn.
package telemetry

import (
	"context"
	"time"

	"github.com/louisbranch/fabled/internal/platform/id"
	"github.com/louisbranch/fabled/internal/storage"
)

// Event kinds recorded by the debug console.
const (
	KindRequest  = "request"
	KindResponse = "response"
	KindError    = "error"
	KindInfo     = "info"
)

// Emitter records debug events for one store. A nil Emitter or a nil
// store discards events, so callers never guard their log calls.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates an emitter over the given store.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records one event for the user. Failures are swallowed; the
// debug console must never break a turn.
func (e *Emitter) Emit(ctx context.Context, userID, kind, message string) {
	if e == nil || e.store == nil {
		return
	}
	eventID, err := id.NewID()
	if err != nil {
		return
	}
	clock := e.clock
	if clock == nil {
		clock = time.Now
	}
	_ = e.store.AppendTelemetry(ctx, storage.TelemetryRecord{
		ID:        eventID,
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: clock().UTC(),
	})
}

// LogFunc adapts the emitter to the func(kind, message) shape the
// session and narrator take, bound to one user.
func (e *Emitter) LogFunc(ctx context.Context, userID string) func(kind, message string) {
	return func(kind, message string) {
		e.Emit(ctx, userID, kind, message)
	}
}

// Recent returns the latest events for the user, newest first.
func (e *Emitter) Recent(ctx context.Context, userID string, limit int) ([]storage.TelemetryRecord, error) {
	if e == nil || e.store == nil {
		return nil, nil
	}
	return e.store.RecentTelemetry(ctx, userID, limit)
}
