// Package web exposes the JSON API and the HTML shell the browser
// client runs against. Every game mutation flows through here: the
// handlers authenticate the player, charge credits for narrator
// calls, and delegate to the player's live session.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/louisbranch/fabled/internal/auth"
	"github.com/louisbranch/fabled/internal/storage"
	"github.com/louisbranch/fabled/internal/telemetry"
	"github.com/louisbranch/fabled/internal/web/templates"
)

// HandlerConfig wires the dependencies of the web handler.
type HandlerConfig struct {
	Auth     *auth.Service
	Store    storage.Store
	Sessions *Sessions
	Emitter  *telemetry.Emitter
	// Now supplies the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

type handler struct {
	auth     *auth.Service
	store    storage.Store
	sessions *Sessions
	emitter  *telemetry.Emitter
	now      func() time.Time
}

// NewHandler builds the HTTP handler for the web server.
func NewHandler(cfg HandlerConfig) http.Handler {
	h := &handler{
		auth:     cfg.Auth,
		store:    cfg.Store,
		sessions: cfg.Sessions,
		emitter:  cfg.Emitter,
		now:      cfg.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", templ.Handler(templates.Home(templates.PageView{})))
	mux.Handle("GET /static/", staticHandler())

	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("POST /api/logout", h.handleLogout)

	mux.Handle("GET /api/me", h.withUser(h.handleMe))
	mux.Handle("GET /api/state", h.withUser(h.handleState))
	mux.Handle("POST /api/settings", h.withUser(h.handleSettings))
	mux.Handle("GET /api/telemetry", h.withUser(h.handleTelemetry))

	mux.Handle("POST /api/game/new", h.withUser(h.handleNewGame))
	mux.Handle("POST /api/game/genre", h.withUser(h.handleGenre))
	mux.Handle("POST /api/game/stats", h.withUser(h.handleStats))
	mux.Handle("POST /api/game/choice", h.withUser(h.handleChoice))
	mux.Handle("POST /api/game/proceed", h.withUser(h.handleProceed))
	mux.Handle("POST /api/game/reroll", h.withUser(h.handleReroll))
	mux.Handle("POST /api/game/heroic", h.withUser(h.handleHeroic))
	mux.Handle("POST /api/game/stop", h.withUser(h.handleStop))
	mux.Handle("POST /api/game/retry", h.withUser(h.handleRetry))

	mux.Handle("POST /api/game/equip", h.withUser(h.handleEquip))
	mux.Handle("POST /api/game/unequip", h.withUser(h.handleUnequip))
	mux.Handle("POST /api/game/use", h.withUser(h.handleUseItem))
	mux.Handle("POST /api/game/discard", h.withUser(h.handleDiscard))
	mux.Handle("POST /api/game/levelup", h.withUser(h.handleLevelUp))
	mux.Handle("POST /api/game/quest/accept", h.withUser(h.handleAcceptQuest))
	mux.Handle("POST /api/game/quest/collect", h.withUser(h.handleCollectQuest))

	mux.Handle("GET /api/game/epilogue", h.withUser(h.handleEpilogue))
	mux.Handle("POST /api/game/storyboard", h.withUser(h.handleStoryboard))
	mux.Handle("GET /api/game/transcript", h.withUser(h.handleTranscript))

	mux.Handle("GET /api/saves", h.withUser(h.handleListSaves))
	mux.Handle("POST /api/saves", h.withUser(h.handleSave))
	mux.Handle("POST /api/saves/load", h.withUser(h.handleLoad))
	mux.Handle("DELETE /api/saves/{id}", h.withUser(h.handleDeleteSave))

	return mux
}

// userKey carries the authenticated user through the request context.
type userKey struct{}

// withUser authenticates the session cookie and loads the user record.
func (h *handler) withUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := readSessionCookie(r)
		if !ok {
			writeError(w, errSessionRequired)
			return
		}
		claims, err := h.auth.VerifyToken(token)
		if err != nil {
			clearSessionCookie(w, r)
			writeError(w, err)
			return
		}
		user, err := h.store.UserByID(r.Context(), claims.UserID)
		if err != nil {
			clearSessionCookie(w, r)
			writeError(w, errSessionRequired)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// requestUser returns the user loaded by withUser.
func requestUser(r *http.Request) storage.UserRecord {
	user, _ := r.Context().Value(userKey{}).(storage.UserRecord)
	return user
}
