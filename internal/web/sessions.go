package web

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/fabled/internal/core/dice"
	"github.com/louisbranch/fabled/internal/game/engine"
	"github.com/louisbranch/fabled/internal/narrative"
	"github.com/louisbranch/fabled/internal/random"
	"github.com/louisbranch/fabled/internal/telemetry"
)

// Sessions keeps one live game session per user. Sessions are created
// lazily on first use and live until the process exits; durable state
// crosses restarts through cloud saves, not this map.
type Sessions struct {
	mu      sync.Mutex
	gen     narrative.Generator
	emitter *telemetry.Emitter
	byUser  map[string]*engine.Session
}

// NewSessions builds a session registry over one narrator.
func NewSessions(gen narrative.Generator, emitter *telemetry.Emitter) *Sessions {
	return &Sessions{
		gen:     gen,
		emitter: emitter,
		byUser:  make(map[string]*engine.Session),
	}
}

// For returns the user's session, creating it when absent.
func (m *Sessions) For(userID string) (*engine.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.byUser[userID]; ok {
		return sess, nil
	}
	seed, err := random.NewSeed()
	if err != nil {
		return nil, fmt.Errorf("seed session rng: %w", err)
	}
	sess := engine.NewSession(m.gen, dice.New(seed), m.emitter.LogFunc(context.Background(), userID))
	m.byUser[userID] = sess
	return sess, nil
}

// Drop discards the user's live session, if any.
func (m *Sessions) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
}
