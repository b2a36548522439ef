package gemini

import (
	"fmt"
	"strings"
	"testing"

	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/narrative"
)

func TestStepPromptIncludesState(t *testing.T) {
	req := narrative.StepRequest{
		Genre:        "noir detective",
		GameLength:   domain.LengthMedium,
		UserChoice:   "Tail the suspect",
		CurrentQuest: "Find the missing violinist",
		HP:           64,
		Stats:        domain.DefaultStats(),
		Inventory:    []domain.Item{{Name: "Lockpick Set"}},
		Equipped: domain.EquippedGear{
			Weapon: &domain.Item{Name: "Snub Revolver", Bonuses: map[domain.StatType]int{domain.StatDEX: 2}},
		},
		NPCs: []domain.NPC{{Name: "Vera", Type: domain.NPCNeutral, Condition: "Healthy"}},
		RollResult: &domain.RollResult{
			Stat: domain.StatDEX, Base: 14, Modifier: 2, Total: 16, Difficulty: 12, Success: true,
		},
	}

	prompt := stepPrompt(req)
	for _, want := range []string{
		"noir detective",
		"Snub Revolver",
		"Lockpick Set",
		"Vera (Neutral): Healthy",
		"Find the missing violinist",
		"HP: 64",
		"Tail the suspect",
		"Roll(14) + Mod(2) = Total(16)",
		"SUCCESS",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestStepPromptHeroicAction(t *testing.T) {
	req := narrative.StepRequest{
		Stats:  domain.DefaultStats(),
		Heroic: &narrative.HeroicAction{Text: "Swing from the chandelier", Roll: 17},
	}

	prompt := stepPrompt(req)
	if !strings.Contains(prompt, "HEROIC CUSTOM ACTION") {
		t.Error("prompt missing heroic action block")
	}
	if !strings.Contains(prompt, "RAW DIE ROLL provided: 17") {
		t.Error("prompt missing provided die roll")
	}
	if !strings.Contains(prompt, "Item: None") {
		t.Error("prompt should report no item when none claimed")
	}
}

func TestStepPromptUrgency(t *testing.T) {
	arc := &domain.MainStoryArc{
		CampaignTitle: "Embers of the North",
		MainQuests: []domain.MainQuest{
			{ID: "1", Description: "Cross the tundra", Status: domain.MainQuestActive, TurnCount: 11},
		},
		FinalObjective: "Relight the beacon",
	}

	tests := []struct {
		name       string
		length     domain.GameLength
		wantUrgent bool
	}{
		{name: "short game over threshold", length: domain.LengthShort, wantUrgent: true},
		{name: "medium game under threshold", length: domain.LengthMedium, wantUrgent: false},
		{name: "long game under threshold", length: domain.LengthLong, wantUrgent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := stepPrompt(narrative.StepRequest{
				Stats: domain.DefaultStats(), GameLength: tt.length, Arc: arc,
			})
			got := strings.Contains(prompt, "CRITICAL INSTRUCTION")
			if got != tt.wantUrgent {
				t.Errorf("urgency present = %v, want %v", got, tt.wantUrgent)
			}
		})
	}
}

func TestFormatHistoryWindow(t *testing.T) {
	var history []domain.StoryTurn
	for i := 0; i < 10; i++ {
		history = append(history, domain.StoryTurn{Text: fmt.Sprintf("turn %d", i)})
	}
	got := formatHistory(history)
	if strings.Count(got, "\n") != historyWindow {
		t.Errorf("history lines = %d, want %d", strings.Count(got, "\n"), historyWindow)
	}
	if strings.Contains(got, "turn 4") {
		t.Error("old turns should be dropped from the window")
	}
	if !strings.Contains(got, "turn 9") {
		t.Error("latest turn missing from the window")
	}
}

func TestOutlinePromptHighestStat(t *testing.T) {
	stats := domain.DefaultStats()
	stats.PER = 15
	prompt := outlinePrompt(narrative.OutlineRequest{Genre: "western", Stats: stats, GameLength: domain.LengthShort})
	if !strings.Contains(prompt, "High PER") {
		t.Error("prompt should call out the highest stat")
	}
	if !strings.Contains(prompt, "SHORT, fast-paced") {
		t.Error("prompt missing length instruction")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "whitespace", in: "  {\"a\":1}\n", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeArc(t *testing.T) {
	arc := &domain.MainStoryArc{
		MainQuests: []domain.MainQuest{
			{Title: "Act I"},
			{Title: "Act II"},
			{Title: "Act III"},
		},
	}
	normalizeArc(arc)

	if arc.MainQuests[0].Status != domain.MainQuestActive {
		t.Errorf("first act status = %s, want active", arc.MainQuests[0].Status)
	}
	for i, q := range arc.MainQuests[1:] {
		if q.Status != domain.MainQuestPending {
			t.Errorf("act %d status = %s, want pending", i+2, q.Status)
		}
	}
	for i, q := range arc.MainQuests {
		if q.ID == "" {
			t.Errorf("act %d missing id", i+1)
		}
	}
}

func TestFormatHistoryRollAnnotations(t *testing.T) {
	history := []domain.StoryTurn{
		{Text: "A door blocks the way."},
		{Text: "Force the door", IsUserTurn: true, RollResult: &domain.RollResult{
			Total: 17, Stat: domain.StatSTR, Difficulty: 12, Success: true,
		}},
		{Text: "Pick the lock", IsUserTurn: true, RollResult: &domain.RollResult{
			Total: 6, Stat: domain.StatDEX, Difficulty: 10, Success: false,
		}},
	}

	got := formatHistory(history)
	for _, want := range []string{
		"DM: A door blocks the way.",
		"User: Force the door [Rolled 17 on STR vs DC 12: Success]",
		"User: Pick the lock [Rolled 6 on DEX vs DC 10: Fail]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatHistory() missing %q:\n%s", want, got)
		}
	}
}
