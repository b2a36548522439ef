package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/louisbranch/fabled/internal/auth"
	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/game/engine"
	"github.com/louisbranch/fabled/internal/narrative"
	"github.com/louisbranch/fabled/internal/storage/sqlite"
	"github.com/louisbranch/fabled/internal/telemetry"
)

type fakeNarrator struct {
	outline func(narrative.OutlineRequest) (*domain.MainStoryArc, error)
	step    func(narrative.StepRequest) (*narrative.StepResponse, error)
}

var _ narrative.Generator = (*fakeNarrator)(nil)

func (f *fakeNarrator) Outline(_ context.Context, req narrative.OutlineRequest) (*domain.MainStoryArc, error) {
	if f.outline == nil {
		return &domain.MainStoryArc{
			CampaignTitle:  "The Hollow Crown",
			BackgroundLore: "An old king vanished.",
			MainQuests: []domain.MainQuest{
				{ID: "1", Title: "Act I", Description: "Find the trail.", Status: domain.MainQuestActive},
			},
			FinalObjective: "Restore the crown.",
		}, nil
	}
	return f.outline(req)
}

func (f *fakeNarrator) Step(_ context.Context, req narrative.StepRequest) (*narrative.StepResponse, error) {
	if f.step == nil {
		return &narrative.StepResponse{
			Narrative: "The tale continues.",
			Choices: []domain.Choice{
				{Text: "Go on"},
				{Text: "Force the gate", Stat: domain.StatSTR, Difficulty: 10},
			},
		}, nil
	}
	return f.step(req)
}

func (f *fakeNarrator) Summary(context.Context, string) (string, error) {
	return "A short tale.", nil
}

func (f *fakeNarrator) Storyboard(context.Context, string) (string, error) {
	return "", nil
}

// testClient drives the API as one signed-in player.
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newTestClient(t *testing.T, gen *fakeNarrator) *testClient {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	authSvc, err := auth.NewService(store, auth.Config{Secret: []byte("test-secret")})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	emitter := telemetry.NewEmitter(store)
	handler := NewHandler(HandlerConfig{
		Auth:     authSvc,
		Store:    store,
		Sessions: NewSessions(gen, emitter),
		Emitter:  emitter,
	})
	return &testClient{t: t, handler: handler}
}

func (c *testClient) do(method, path string, payload any) *httptest.ResponseRecorder {
	c.t.Helper()
	var body *bytes.Buffer
	if payload == nil {
		body = bytes.NewBuffer(nil)
	} else {
		raw, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, body)
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func (c *testClient) must(method, path string, payload any, wantStatus int) *httptest.ResponseRecorder {
	c.t.Helper()
	rec := c.do(method, path, payload)
	if rec.Code != wantStatus {
		c.t.Fatalf("%s %s status = %d, want %d (body %s)", method, path, rec.Code, wantStatus, rec.Body.String())
	}
	return rec
}

func (c *testClient) signUp(name string) {
	c.t.Helper()
	c.must(http.MethodPost, "/api/register", map[string]string{"name": name, "password": "hunter2"}, http.StatusCreated)
}

func (c *testClient) startAdventure() {
	c.t.Helper()
	c.must(http.MethodPost, "/api/game/new", nil, http.StatusOK)
	c.must(http.MethodPost, "/api/game/genre", map[string]any{"genre": "Fantasy", "length": "medium"}, http.StatusOK)
	c.must(http.MethodPost, "/api/game/stats", map[string]any{"stats": domain.DefaultStats()}, http.StatusOK)
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) engine.Snapshot {
	t.Helper()
	var snap engine.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v (body %s)", err, rec.Body.String())
	}
	return snap
}

func TestHomePage(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	rec := client.must(http.MethodGet, "/", nil, http.StatusOK)
	body := rec.Body.String()
	for _, want := range []string{"<!doctype html>", "<title>Fabled</title>", `id="app"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("home page missing %q:\n%s", want, body)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	rec := client.must(http.MethodGet, "/static/app.css", nil, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "#app") {
		t.Fatalf("stylesheet looks wrong:\n%s", rec.Body.String())
	}
	client.must(http.MethodGet, "/static/app.js", nil, http.StatusOK)
}

func TestAPIRequiresSession(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	rec := client.do(http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")

	rec := client.must(http.MethodGet, "/api/me", nil, http.StatusOK)
	var me userView
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Name != "rowan" {
		t.Fatalf("name = %q, want %q", me.Name, "rowan")
	}
	if me.Credits != auth.StartingCredits {
		t.Fatalf("credits = %d, want %d", me.Credits, auth.StartingCredits)
	}

	client.must(http.MethodPost, "/api/logout", nil, http.StatusNoContent)
	if rec := client.do(http.MethodGet, "/api/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	client.must(http.MethodPost, "/api/login", map[string]string{"name": "rowan", "password": "hunter2"}, http.StatusOK)
	client.must(http.MethodGet, "/api/me", nil, http.StatusOK)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")

	rec := client.do(http.MethodPost, "/api/register", map[string]string{"name": "rowan", "password": "other"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestAdventureFlow(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")
	client.startAdventure()

	rec := client.must(http.MethodGet, "/api/state", nil, http.StatusOK)
	snap := decodeSnapshot(t, rec)
	if snap.State.Phase != domain.PhasePlaying {
		t.Fatalf("phase = %q, want %q", snap.State.Phase, domain.PhasePlaying)
	}
	if len(snap.Choices) != 2 {
		t.Fatalf("choices = %d, want 2", len(snap.Choices))
	}

	// Plain choice resolves a whole turn.
	rec = client.must(http.MethodPost, "/api/game/choice", map[string]int{"index": 0}, http.StatusOK)
	snap = decodeSnapshot(t, rec)
	if snap.PendingRoll != nil {
		t.Fatal("plain choice should not park a roll")
	}
	turns := len(snap.State.History)

	// Skill choice parks a roll, then proceed narrates it.
	rec = client.must(http.MethodPost, "/api/game/choice", map[string]int{"index": 1}, http.StatusOK)
	snap = decodeSnapshot(t, rec)
	if snap.PendingRoll == nil {
		t.Fatal("skill choice should park a roll")
	}
	rec = client.must(http.MethodPost, "/api/game/proceed", nil, http.StatusOK)
	snap = decodeSnapshot(t, rec)
	if got := len(snap.State.History); got != turns+2 {
		t.Fatalf("history = %d turns, want %d", got, turns+2)
	}
}

func TestChoiceIndexOutOfRange(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")
	client.startAdventure()

	rec := client.do(http.MethodPost, "/api/game/choice", map[string]int{"index": 9})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestNarrativeCallsCostCredits(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")
	client.startAdventure()

	before := client.credits()
	client.must(http.MethodPost, "/api/game/choice", map[string]int{"index": 0}, http.StatusOK)
	if got := client.credits(); got != before-1 {
		t.Fatalf("credits after turn = %d, want %d", got, before-1)
	}

	// Parking a roll is free; the charge lands on proceed.
	client.must(http.MethodPost, "/api/game/choice", map[string]int{"index": 1}, http.StatusOK)
	if got := client.credits(); got != before-1 {
		t.Fatalf("credits after parked roll = %d, want %d", got, before-1)
	}
	client.must(http.MethodPost, "/api/game/proceed", nil, http.StatusOK)
	if got := client.credits(); got != before-2 {
		t.Fatalf("credits after proceed = %d, want %d", got, before-2)
	}
}

func (c *testClient) credits() int64 {
	c.t.Helper()
	rec := c.must(http.MethodGet, "/api/me", nil, http.StatusOK)
	var me userView
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		c.t.Fatalf("decode me: %v", err)
	}
	return me.Credits
}

func TestExhaustedCreditsBlockTurns(t *testing.T) {
	stepCalls := 0
	gen := &fakeNarrator{step: func(narrative.StepRequest) (*narrative.StepResponse, error) {
		stepCalls++
		return &narrative.StepResponse{
			Narrative: "The tale continues.",
			Choices:   []domain.Choice{{Text: "Go on"}},
		}, nil
	}}
	client := newTestClient(t, gen)
	client.signUp("rowan")
	client.startAdventure()

	// Burn the balance down with plain turns.
	for client.credits() > 0 {
		client.must(http.MethodPost, "/api/game/choice", map[string]int{"index": 0}, http.StatusOK)
	}
	callsAtZero := stepCalls

	rec := client.do(http.MethodPost, "/api/game/choice", map[string]int{"index": 0})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}
	if stepCalls != callsAtZero {
		t.Fatal("narrator called with an empty balance")
	}
}

func TestSettingsUpdate(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")

	settings := domain.DefaultSettings()
	settings.EnableDiceRolls = false
	rec := client.must(http.MethodPost, "/api/settings", settings, http.StatusOK)
	snap := decodeSnapshot(t, rec)
	if snap.Settings.EnableDiceRolls {
		t.Fatal("dice rolls still enabled")
	}
}

func TestCloudSaves(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")
	client.startAdventure()

	rec := client.must(http.MethodPost, "/api/saves", nil, http.StatusCreated)
	var created saveView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode save: %v", err)
	}
	if created.ID == "" {
		t.Fatal("save id is empty")
	}

	// A fresh game then a load restores the adventure.
	client.must(http.MethodPost, "/api/game/new", nil, http.StatusOK)
	rec = client.must(http.MethodPost, "/api/saves/load", map[string]string{}, http.StatusOK)
	snap := decodeSnapshot(t, rec)
	if snap.State.Phase != domain.PhasePlaying {
		t.Fatalf("phase after load = %q, want %q", snap.State.Phase, domain.PhasePlaying)
	}

	rec = client.must(http.MethodGet, "/api/saves", nil, http.StatusOK)
	var listing struct {
		Saves []saveView `json:"saves"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Saves) != 1 {
		t.Fatalf("saves = %d, want 1", len(listing.Saves))
	}

	client.must(http.MethodDelete, "/api/saves/"+created.ID, nil, http.StatusNoContent)
	if rec := client.do(http.MethodDelete, "/api/saves/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSavesAreScopedPerUser(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")
	client.startAdventure()
	client.must(http.MethodPost, "/api/saves", nil, http.StatusCreated)

	client.must(http.MethodPost, "/api/logout", nil, http.StatusNoContent)
	client.signUp("wren")
	rec := client.do(http.MethodPost, "/api/saves/load", map[string]string{})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestTranscriptDownload(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")
	client.startAdventure()

	rec := client.must(http.MethodGet, "/api/game/transcript", nil, http.StatusOK)
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "adventure-log.txt") {
		t.Fatalf("content disposition = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "DM: The tale continues.") {
		t.Fatalf("transcript missing narration:\n%s", rec.Body.String())
	}
}

func TestTelemetryEndpoint(t *testing.T) {
	client := newTestClient(t, &fakeNarrator{})
	client.signUp("rowan")
	client.startAdventure()

	rec := client.must(http.MethodGet, "/api/telemetry", nil, http.StatusOK)
	var listing struct {
		Events []struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(listing.Events) == 0 {
		t.Fatal("no telemetry events recorded")
	}
	kinds := make(map[string]bool)
	for _, evt := range listing.Events {
		kinds[evt.Kind] = true
	}
	for _, want := range []string{telemetry.KindRequest, telemetry.KindResponse} {
		if !kinds[want] {
			t.Fatalf("missing %q event in %v", want, kinds)
		}
	}
}

func TestGameOverGatesEpilogue(t *testing.T) {
	turn := 0
	gen := &fakeNarrator{step: func(narrative.StepRequest) (*narrative.StepResponse, error) {
		turn++
		resp := &narrative.StepResponse{
			Narrative: fmt.Sprintf("Turn %d.", turn),
			Choices:   []domain.Choice{{Text: "Go on"}},
		}
		if turn > 1 {
			resp.GameStatus = domain.StatusLost
			resp.HPChange = -200
		}
		return resp, nil
	}}
	client := newTestClient(t, gen)
	client.signUp("rowan")
	client.startAdventure()

	// Epilogue before the end is a conflict.
	if rec := client.do(http.MethodGet, "/api/game/epilogue", nil); rec.Code != http.StatusConflict {
		t.Fatalf("early epilogue status = %d, want %d", rec.Code, http.StatusConflict)
	}

	client.must(http.MethodPost, "/api/game/choice", map[string]int{"index": 0}, http.StatusOK)
	rec := client.must(http.MethodGet, "/api/game/epilogue", nil, http.StatusOK)
	var epilogue struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &epilogue); err != nil {
		t.Fatalf("decode epilogue: %v", err)
	}
	if epilogue.Summary != "A short tale." {
		t.Fatalf("summary = %q", epilogue.Summary)
	}
}
