package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/game/quests"
	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
)

func apperrorPhase(phase domain.GamePhase, message string) error {
	return apperrors.WithMetadata(apperrors.CodeGamePhaseDisallowsOp, message,
		map[string]string{"phase": string(phase)})
}

// Equip moves an inventory item into its gear slot.
func (s *Session) Equip(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Equip(itemID)
}

// Unequip returns the item in the given slot to the inventory.
func (s *Session) Unequip(slot domain.GearSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Unequip(slot)
}

// UseItem consumes a consumable from the inventory.
func (s *Session) UseItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.FindItem(itemID)
	name := itemID
	if i >= 0 {
		name = s.state.Inventory[i].Name
	}
	added, err := s.state.UseItem(itemID)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		s.logf("response", fmt.Sprintf("Used %s.", name))
	}
	for _, eff := range added {
		if eff.Type == domain.EffectBuff {
			s.logf("response", fmt.Sprintf("Used %s: %s for %d turns.", name, eff.Description, eff.Duration))
		}
	}
	return nil
}

// DiscardItem drops an inventory item permanently.
func (s *Session) DiscardItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DiscardItem(itemID)
}

// SpendLevelUp puts a pending level-up into the chosen attribute.
func (s *Session) SpendLevelUp(stat domain.StatType) (*domain.LevelUpEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SpendLevelUp(stat)
}

// AcceptQuest activates an offered side quest.
func (s *Session) AcceptQuest(questID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AcceptQuest(questID)
}

// CollectQuestReward claims a completed side quest's reward.
func (s *Session) CollectQuestReward(questID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, err := quests.Collect(s.rng, s.state, questID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		s.logf("response", line)
	}
	return nil
}

// Save serializes the session into a versioned save envelope.
func (s *Session) Save(now time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.NewSaveData(s.state, s.choices, s.settings, now).Marshal()
}

// Load replaces the session with a previously saved one. Anything in
// flight is abandoned.
func (s *Session) Load(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := domain.ParseSaveData(raw)
	if err != nil {
		return err
	}
	s.requestID++
	s.state = data.GameState
	s.choices = data.CurrentChoices
	if data.Settings != (domain.Settings{}) {
		s.settings = data.Settings
	}
	s.pending = nil
	s.lastParams = nil
	s.busy = false
	s.retryable = false
	return nil
}

// Epilogue produces the end-of-game summary and storyboard. The
// summary degrades to placeholder text on failure; the storyboard is
// best effort and may stay empty. Results are cached on the state.
func (s *Session) Epilogue(ctx context.Context) (summary, storyboard string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != domain.PhaseGameOver {
		return "", "", apperrorPhase(s.state.Phase, "the adventure is not over yet")
	}
	if s.state.FinalSummary != "" {
		return s.state.FinalSummary, s.state.FinalStoryboard, nil
	}

	logText := s.fullTranscript()
	s.mu.Unlock()
	summary, sumErr := s.gen.Summary(ctx, logText)
	if sumErr != nil || summary == "" {
		summary = summaryFallback
	}
	var image string
	if sumErr == nil {
		image, _ = s.gen.Storyboard(ctx, summary)
	}
	s.mu.Lock()

	s.state.FinalSummary = summary
	if image != "" {
		s.state.FinalStoryboard = image
	}
	return s.state.FinalSummary, s.state.FinalStoryboard, nil
}

// RegenerateStoryboard discards the storyboard and renders a new one
// from the cached summary.
func (s *Session) RegenerateStoryboard(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state.FinalSummary == "" {
		s.mu.Unlock()
		return "", apperrorPhase(s.state.Phase, "no summary to illustrate")
	}
	summary := s.state.FinalSummary
	s.state.FinalStoryboard = ""
	s.logf("request", "User requested image regeneration. Trying to create image...")
	s.mu.Unlock()

	image, err := s.gen.Storyboard(ctx, summary)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if image != "" {
		s.state.FinalStoryboard = image
	}
	return s.state.FinalStoryboard, nil
}

// Transcript renders the adventure log as plain text for download.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for _, turn := range s.state.History {
		if turn.IsUserTurn {
			fmt.Fprintf(&b, "> USER: %s", turn.Text)
			if r := turn.RollResult; r != nil {
				fmt.Fprintf(&b, " [ROLL: %d vs DC %d]", r.Total, r.Difficulty)
			}
			if lv := turn.LevelUpEvent; lv != nil {
				fmt.Fprintf(&b, " [LEVEL UP: %s %d->%d]", lv.Stat, lv.OldValue, lv.NewValue)
			}
			b.WriteString("\n\n")
		} else {
			fmt.Fprintf(&b, "DM: %s\n-------------------\n\n", turn.Text)
		}
	}
	if s.state.FinalSummary != "" {
		fmt.Fprintf(&b, "\n=== EPILOGUE ===\n%s\n", s.state.FinalSummary)
	}
	return b.String()
}

// fullTranscript is the unabridged USER/DM log fed to the summary
// model. Caller holds the lock.
func (s *Session) fullTranscript() string {
	lines := make([]string, 0, len(s.state.History))
	for _, turn := range s.state.History {
		speaker := "DM"
		if turn.IsUserTurn {
			speaker = "USER"
		}
		lines = append(lines, speaker+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}
