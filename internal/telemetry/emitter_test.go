package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/fabled/internal/storage"
)

type memTelemetry struct {
	events []storage.TelemetryRecord
}

func (m *memTelemetry) AppendTelemetry(_ context.Context, rec storage.TelemetryRecord) error {
	m.events = append(m.events, rec)
	return nil
}

func (m *memTelemetry) RecentTelemetry(_ context.Context, userID string, limit int) ([]storage.TelemetryRecord, error) {
	var out []storage.TelemetryRecord
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].UserID == userID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func TestEmitRecordsEvent(t *testing.T) {
	store := &memTelemetry{}
	emitter := NewEmitter(store)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	emitter.clock = func() time.Time { return now }

	emitter.Emit(context.Background(), "user-1", KindRequest, "Begin the adventure.")

	if len(store.events) != 1 {
		t.Fatalf("events = %d, want 1", len(store.events))
	}
	evt := store.events[0]
	if evt.ID == "" {
		t.Fatal("event id is empty")
	}
	if evt.UserID != "user-1" || evt.Kind != KindRequest || evt.Message != "Begin the adventure." {
		t.Fatalf("unexpected event %+v", evt)
	}
	if !evt.CreatedAt.Equal(now) {
		t.Fatalf("created at = %v, want %v", evt.CreatedAt, now)
	}
}

func TestNilEmitterDiscards(t *testing.T) {
	var emitter *Emitter
	emitter.Emit(context.Background(), "user-1", KindInfo, "ignored")

	events, err := emitter.Recent(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if events != nil {
		t.Fatalf("events = %v, want nil", events)
	}

	logf := NewEmitter(nil).LogFunc(context.Background(), "user-1")
	logf(KindError, "also ignored")
}

func TestLogFuncBindsUser(t *testing.T) {
	store := &memTelemetry{}
	emitter := NewEmitter(store)

	logf := emitter.LogFunc(context.Background(), "user-2")
	logf(KindResponse, "The tale continues.")
	logf(KindError, "model timeout")

	events, err := emitter.Recent(context.Background(), "user-2", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Kind != KindError {
		t.Fatalf("newest kind = %q, want %q", events[0].Kind, KindError)
	}
}
