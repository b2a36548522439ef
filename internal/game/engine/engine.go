// Package engine drives one adventure session: setup flow, the
// roll-then-confirm loop, heroic actions, and the turn resolution
// pipeline that merges the narrator's reply into game state. A
// Session serializes all mutation behind its mutex; the narrator
// call itself runs unlocked so Stop can supersede it mid-flight.
package engine

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/louisbranch/fabled/internal/core/check"
	"github.com/louisbranch/fabled/internal/core/dice"
	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/game/effects"
	"github.com/louisbranch/fabled/internal/game/quests"
	"github.com/louisbranch/fabled/internal/narrative"
	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
	"github.com/louisbranch/fabled/internal/platform/id"
)

const openingAction = "Begin the adventure."

const summaryFallback = "Summary unavailable."

// Logger receives session events for the debug console. Kind is one of
// "request", "response", "error", "info".
type Logger func(kind, message string)

// Session is one player's adventure. All exported methods are safe for
// concurrent use.
type Session struct {
	mu   sync.Mutex
	rng  *rand.Rand
	gen  narrative.Generator
	logf Logger

	state    *domain.State
	choices  []domain.Choice
	settings domain.Settings

	pending    *pendingRoll
	lastParams *turnParams
	requestID  uint64
	busy       bool
	retryable  bool
}

// pendingRoll parks a resolved skill check until the player proceeds
// or spends a reroll token.
type pendingRoll struct {
	choice  domain.Choice
	result  domain.RollResult
	levelUp *domain.LevelUpEvent
	streak  *domain.StatusEffect
}

// turnParams captures everything needed to resubmit a turn with
// identical parameters after a transient narrator failure.
type turnParams struct {
	userText string
	roll     *domain.RollResult
	heroic   *narrative.HeroicAction
	history  []domain.StoryTurn
}

// NewSession creates a session at the main menu. A nil logf discards
// events.
func NewSession(gen narrative.Generator, rng *rand.Rand, logf Logger) *Session {
	if logf == nil {
		logf = func(string, string) {}
	}
	return &Session{
		rng:      rng,
		gen:      gen,
		logf:     logf,
		state:    domain.NewState(),
		settings: domain.DefaultSettings(),
	}
}

// Snapshot is a point-in-time view of the session for rendering.
type Snapshot struct {
	State          domain.State       `json:"gameState"`
	Choices        []domain.Choice    `json:"currentChoices"`
	Settings       domain.Settings    `json:"settings"`
	Busy           bool               `json:"isLoading"`
	RetryAvailable bool               `json:"showRetry"`
	PendingRoll    *domain.RollResult `json:"pendingRoll,omitempty"`
}

// Snapshot returns a copy of the visible session state. The state is
// deep-copied so the caller can encode it while later turns run.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:          *s.state.Clone(),
		Choices:        append([]domain.Choice(nil), s.choices...),
		Settings:       s.settings,
		Busy:           s.busy,
		RetryAvailable: s.retryable,
	}
	if s.pending != nil {
		r := s.pending.result
		snap.PendingRoll = &r
	}
	return snap
}

// UpdateSettings replaces the session settings.
func (s *Session) UpdateSettings(settings domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// StartNewGame resets the session to genre selection.
func (s *Session) StartNewGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestID++ // abandon anything in flight
	s.state = domain.NewState()
	s.state.Phase = domain.PhaseSetupGenre
	s.choices = nil
	s.pending = nil
	s.lastParams = nil
	s.busy = false
	s.retryable = false
}

// SelectGenre records the genre and pacing and moves on to stat
// allocation.
func (s *Session) SelectGenre(genre string, length domain.GameLength) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != domain.PhaseSetupGenre {
		return apperrors.WithMetadata(apperrors.CodeGamePhaseDisallowsOp,
			"genre can only be chosen during setup",
			map[string]string{"phase": string(s.state.Phase)})
	}
	s.state.Genre = genre
	s.state.GameLength = length
	s.state.Phase = domain.PhaseSetupStats
	return nil
}

// CompleteStats accepts the allocated attributes, generates the
// campaign outline, and plays the opening turn. Outline failure falls
// back to arc-less play rather than blocking the game.
func (s *Session) CompleteStats(ctx context.Context, stats domain.CharacterStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != domain.PhaseSetupStats {
		return apperrors.WithMetadata(apperrors.CodeGamePhaseDisallowsOp,
			"stats can only be set during setup",
			map[string]string{"phase": string(s.state.Phase)})
	}
	s.state.Stats = stats
	s.state.StartingStats = stats
	s.state.StatHistory = []domain.CharacterStats{stats}
	s.state.RecalculateMaxHP()
	s.state.Phase = domain.PhaseCreatingWorld

	req := narrative.OutlineRequest{
		Genre:      s.state.Genre,
		Stats:      s.state.EffectiveStats(),
		GameLength: s.state.GameLength,
	}
	s.mu.Unlock()
	arc, err := s.gen.Outline(ctx, req)
	s.mu.Lock()

	if err != nil {
		s.logf("error", "Campaign outline failed: "+err.Error())
	} else {
		s.state.MainStoryArc = arc
	}
	s.state.Phase = domain.PhasePlaying

	pool, err := quests.Refill(s.rng, nil)
	if err != nil {
		return err
	}
	s.state.SideQuests = pool

	return s.startTurn(ctx, openingAction, nil, nil, nil, nil)
}

// ChooseOption plays one of the currently offered choices. A skill
// choice pre-rolls the d20 and parks the result for Proceed or Reroll;
// the returned RollResult is non-nil in that case and the turn has not
// yet been submitted. Plain choices are submitted immediately.
func (s *Session) ChooseOption(ctx context.Context, index int) (*domain.RollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.canAct(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.choices) {
		return nil, apperrors.New(apperrors.CodeChoiceMissingCheck, "choice index out of range")
	}
	choice := s.choices[index]

	if s.settings.EnableDiceRolls && choice.RequiresCheck() && choice.Difficulty > 0 {
		result := s.rollForChoice(choice)
		return &result, nil
	}
	return nil, s.startTurn(ctx, choice.Text, nil, nil, nil, nil)
}

// rollForChoice resolves the skill check, applies stat experience
// immediately on success, and parks the outcome. Caller holds the lock.
func (s *Session) rollForChoice(choice domain.Choice) domain.RollResult {
	base := dice.D20(s.rng)
	mod := domain.Modifier(s.state.EffectiveStat(choice.Stat))
	res := check.Resolve(base, mod, choice.Difficulty)

	result := domain.RollResult{
		Base:       base,
		Modifier:   mod,
		Total:      res.Total,
		Success:    res.Success,
		Stat:       choice.Stat,
		Difficulty: choice.Difficulty,
	}

	streak, err := effects.HotStreak(s.rng, s.state.History, result)
	if err != nil {
		streak = nil
	}
	if streak != nil {
		s.logf("info", "Hot Streak! "+streak.Description)
	}

	var levelUp *domain.LevelUpEvent
	if result.Success {
		levelUp = s.state.GainStatExperience(choice.Stat)
	}

	s.pending = &pendingRoll{
		choice:  choice,
		result:  result,
		levelUp: levelUp,
		streak:  streak,
	}
	return result
}

// Proceed submits the parked skill check as the player's turn.
func (s *Session) Proceed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return apperrors.New(apperrors.CodeNoPendingRoll, "no roll waiting for confirmation")
	}
	p := s.pending
	s.pending = nil
	return s.startTurn(ctx, p.choice.Text, &p.result, nil, p.levelUp, p.streak)
}

// Reroll spends a reroll token and rolls the parked choice again.
func (s *Session) Reroll() (*domain.RollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, apperrors.New(apperrors.CodeNoPendingRoll, "no roll waiting for confirmation")
	}
	if s.state.RerollTokens <= 0 {
		return nil, apperrors.New(apperrors.CodeNoRerollTokens, "no reroll tokens left")
	}
	s.state.RerollTokens--
	result := s.rollForChoice(s.pending.choice)
	return &result, nil
}

// PerformHeroicAction submits a free-form player action. The claimed
// item is resolved by id across inventory and equipped gear; the raw
// die roll is sent along so the narrator cannot invent one.
func (s *Session) PerformHeroicAction(ctx context.Context, text, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.canAct(); err != nil {
		return err
	}
	if s.state.HeroicActionsRemaining <= 0 {
		return apperrors.New(apperrors.CodeNoHeroicActionsLeft, "no heroic actions remaining")
	}
	if s.state.HeroicBlocked() {
		return apperrors.New(apperrors.CodeHeroicActionsBlocked, "a status effect blocks heroic actions")
	}

	itemName := "None"
	if itemID != "" {
		pool := make([]domain.Item, 0, len(s.state.Inventory)+3)
		pool = append(pool, s.state.Inventory...)
		for _, it := range s.state.Equipped.Items() {
			pool = append(pool, *it)
		}
		for _, it := range pool {
			if it.ID == itemID {
				itemName = it.Name
				break
			}
		}
	}

	heroic := &narrative.HeroicAction{
		Text: text,
		Item: itemName,
		Roll: dice.D20(s.rng),
	}
	s.state.HeroicActionsRemaining--
	return s.startTurn(ctx, text, nil, heroic, nil, nil)
}

// Stop abandons the in-flight narrator call. Its reply will be
// discarded when it lands; the turn can be resubmitted with Retry.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.busy {
		return
	}
	s.requestID++
	s.busy = false
	s.retryable = true
}

// Retry resubmits the last turn with identical parameters.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return apperrors.New(apperrors.CodeGameTurnInFlight, "a turn is already being resolved")
	}
	if s.lastParams == nil {
		return apperrors.New(apperrors.CodeNotFound, "no turn to retry")
	}
	s.retryable = false
	return s.generate(ctx, s.lastParams)
}

// canAct guards turn-starting operations. Caller holds the lock.
func (s *Session) canAct() error {
	if s.state.Phase != domain.PhasePlaying {
		return apperrors.WithMetadata(apperrors.CodeGamePhaseDisallowsOp,
			"the adventure is not in play",
			map[string]string{"phase": string(s.state.Phase)})
	}
	if s.state.Over() {
		return apperrors.New(apperrors.CodeGameAlreadyOver, "the adventure is over")
	}
	if s.busy {
		return apperrors.New(apperrors.CodeGameTurnInFlight, "a turn is already being resolved")
	}
	if s.pending != nil {
		return apperrors.New(apperrors.CodeRollAlreadyPending, "a roll is waiting for confirmation")
	}
	return nil
}

// startTurn commits the player's side of the turn (optimistic history
// append plus effect decay) and invokes the narrator. Caller holds the
// lock; it is released around the narrator call.
func (s *Session) startTurn(ctx context.Context, userText string, roll *domain.RollResult, heroic *narrative.HeroicAction, levelUp *domain.LevelUpEvent, newEffect *domain.StatusEffect) error {
	turnID, err := id.NewID()
	if err != nil {
		return err
	}

	// The prompt window is captured before the optimistic append so
	// the player's action is not repeated in the history block.
	window := historyWindow(s.state.History)

	userTurn := domain.StoryTurn{
		ID:           turnID,
		Text:         strings.ReplaceAll(userText, "*", ""),
		Choices:      []domain.Choice{},
		IsUserTurn:   true,
		RollResult:   roll,
		LevelUpEvent: levelUp,
	}
	s.state.History = append(s.state.History, userTurn)

	if expired := s.state.DecayEffects(); len(expired) > 0 {
		s.logf("info", "Effects expired: "+strings.Join(expired, ", "))
	}
	if newEffect != nil {
		s.state.ActiveEffects = append(s.state.ActiveEffects, *newEffect)
		s.state.RecalculateMaxHP()
	}

	params := &turnParams{
		userText: userText,
		roll:     roll,
		heroic:   heroic,
		history:  window,
	}
	s.lastParams = params
	s.retryable = false
	return s.generate(ctx, params)
}

// generate runs one narrator round trip under request-id fencing.
// Caller holds the lock; it is released for the duration of the call.
func (s *Session) generate(ctx context.Context, params *turnParams) error {
	s.requestID++
	reqID := s.requestID
	s.busy = true

	req := s.buildStepRequest(params)
	s.logf("request", params.userText)

	s.mu.Unlock()
	resp, err := s.gen.Step(ctx, req)
	s.mu.Lock()

	if reqID != s.requestID {
		// Superseded by Stop or a newer turn; drop the reply.
		return nil
	}
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		s.busy = false
		s.retryable = true
		s.logf("error", "Narration failed: "+err.Error())
		return err
	}
	return s.merge(resp)
}

// buildStepRequest snapshots the state the narrator needs. Caller
// holds the lock; copies are taken because the request outlives it.
func (s *Session) buildStepRequest(params *turnParams) narrative.StepRequest {
	return narrative.StepRequest{
		Genre:        s.state.Genre,
		GameLength:   s.state.GameLength,
		History:      params.history,
		UserChoice:   params.userText,
		Inventory:    append([]domain.Item(nil), s.state.Inventory...),
		Equipped:     s.state.Equipped,
		CurrentQuest: s.state.CurrentQuest,
		HP:           s.state.HP,
		Stats:        s.state.EffectiveStats(),
		NPCs:         append([]domain.NPC(nil), s.state.NPCs...),
		RollResult:   params.roll,
		Heroic:       params.heroic,
		Arc:          s.state.MainStoryArc,
	}
}

// historyWindow copies the turns the narrator is shown.
func historyWindow(history []domain.StoryTurn) []domain.StoryTurn {
	const window = 5
	start := 0
	if len(history) > window {
		start = len(history) - window
	}
	return append([]domain.StoryTurn(nil), history[start:]...)
}
