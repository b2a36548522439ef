// Package narrative defines the contract between the game engine and
// the story model. The engine hands over a snapshot of the mechanical
// state and receives structured narration back; everything the model
// says about mechanics (items, HP, NPCs) is re-validated by the engine
// before it touches game state.
package narrative

import (
	"context"
	"strings"

	"github.com/louisbranch/fabled/internal/game/domain"
	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
)

// HeroicAction is a free-form player action resolved by the narrator
// instead of a pre-authored choice. The raw die roll is provided so
// the model cannot invent one.
type HeroicAction struct {
	Text string
	Item string
	Roll int
}

// StepRequest is the snapshot sent to the narrator for one turn.
type StepRequest struct {
	Genre        string
	GameLength   domain.GameLength
	History      []domain.StoryTurn
	UserChoice   string
	Inventory    []domain.Item
	Equipped     domain.EquippedGear
	CurrentQuest string
	HP           int
	Stats        domain.CharacterStats
	NPCs         []domain.NPC
	RollResult   *domain.RollResult
	Heroic       *HeroicAction
	Arc          *domain.MainStoryArc
}

// AddedItem is a narrator-invented item. Only the name and description
// are trusted; mechanics are derived locally.
type AddedItem struct {
	Name        string          `json:"name"`
	Type        domain.ItemType `json:"type"`
	Description string          `json:"description,omitempty"`
}

// NPCAdd introduces a character.
type NPCAdd struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Type        domain.NPCDisposition `json:"type"`
	Condition   string                `json:"condition"`
}

// NPCUpdate changes an existing character, matched by name.
type NPCUpdate struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Status    string `json:"status,omitempty"`
}

// NPCChanges groups the narrator's roster edits.
type NPCChanges struct {
	Add    []NPCAdd    `json:"add,omitempty"`
	Update []NPCUpdate `json:"update,omitempty"`
	Remove []string    `json:"remove,omitempty"`
}

// ActionResult is the narrator's resolution of a heroic action.
type ActionResult struct {
	Stat       domain.StatType `json:"stat"`
	Difficulty int             `json:"difficulty"`
	BaseRoll   int             `json:"base_roll"`
	Total      int             `json:"total"`
	Success    bool            `json:"is_success"`
}

// StepResponse is the narrator's structured reply for one turn.
type StepResponse struct {
	Narrative        string                `json:"narrative"`
	Choices          []domain.Choice       `json:"choices"`
	InventoryAdded   []AddedItem           `json:"inventory_added,omitempty"`
	InventoryRemoved []string              `json:"inventory_removed,omitempty"`
	QuestUpdate      string                `json:"quest_update,omitempty"`
	VisualPrompt     string                `json:"visual_prompt,omitempty"`
	HPChange         int                   `json:"hp_change,omitempty"`
	GameStatus       domain.GameStatus     `json:"game_status,omitempty"`
	NewEffects       []domain.StatusEffect `json:"new_effects,omitempty"`
	NPCs             *NPCChanges           `json:"npcs_update,omitempty"`
	ActionResult     *ActionResult         `json:"action_result,omitempty"`
	ActCompleted     bool                  `json:"act_completed,omitempty"`
}

// Validate rejects replies that decoded but carry no story text. Such
// a reply must not reach the merge; the failure is transient and the
// turn can be resubmitted.
func (r *StepResponse) Validate() error {
	if r == nil || strings.TrimSpace(r.Narrative) == "" {
		return apperrors.New(apperrors.CodeNarrativeMalformed, "narrator reply has no narrative text")
	}
	return nil
}

// Normalize fills defaults a sloppy model reply may omit so the engine
// never sees a half-empty response. An ended game is allowed to offer
// no choices.
func (r *StepResponse) Normalize() {
	if r.GameStatus == "" {
		r.GameStatus = domain.StatusOngoing
	}
	if len(r.Choices) == 0 && r.GameStatus == domain.StatusOngoing {
		r.Choices = []domain.Choice{{Text: "Continue"}}
	}
}

// OutlineRequest asks for a campaign outline at world creation.
type OutlineRequest struct {
	Genre      string
	Stats      domain.CharacterStats
	GameLength domain.GameLength
}

// Generator is the story model behind the engine. Implementations must
// be safe for concurrent use.
type Generator interface {
	// Outline creates the campaign arc for a new adventure.
	Outline(ctx context.Context, req OutlineRequest) (*domain.MainStoryArc, error)
	// Step narrates one turn.
	Step(ctx context.Context, req StepRequest) (*StepResponse, error)
	// Summary condenses a finished adventure log into a few sentences.
	Summary(ctx context.Context, logText string) (string, error)
	// Storyboard renders a comic-page image for the summary, returned
	// as a data URL. An empty string means the model produced no image.
	Storyboard(ctx context.Context, summary string) (string, error)
}
