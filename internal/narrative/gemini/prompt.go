package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/narrative"
)

// historyWindow limits how many recent turns are replayed to the model
// each step. Older context lives in the campaign outline instead.
const historyWindow = 5

const systemInstruction = `
You are the Dungeon Master for an immersive, infinite RPG.
Your goal is to weave a compelling narrative based on the user's choices, GENRE, and STATS.

Rules:
1.  **Genre & Tone**: Adhere strictly to the selected genre (e.g., Fantasy, Sci-Fi, Horror).
2.  **Stats**: STR (Power), DEX (Agility), CON (Health), INT (Magic/Mind), CHA (Presence), PER (Senses/Observation), LUK (Fate/Chance).
3.  **Equipment & Inventory (STRICT)**:
    *   **Context Matches Gear**: If the user chooses "Shoot them", CHECK THEIR EQUIPPED GEAR. If they hold a Sword, they fail or throw it.
    *   **Usage Rule**: If an item is NOT equipped, the user CANNOT use it effectively in combat/action sequences unless they spend a turn to equip it (which you should narrate as a setup action).
    *   **Lost Items**: If the narrative implies an item is broken, lost, or consumed (e.g., "The grenade explodes", "You drop the key"), CHECK if it exists in Inventory or Equipped. If yes, populate 'inventory_removed'. If no, simply mock the user for trying to use what they don't have.
4.  **Heroic Actions (Anti-Cheat)**:
    *   If a user Custom Action attempts to conjure items they do not possess, DENY IT. Mock them.
    *   If they attempt an action physically impossible given the state, make them fail.
5.  **Skill Checks & Choices**:
    *   When generating choices, assign a 'type' (STAT) and 'difficulty' (DC 5-20).
    *   **Formatting**: In the 'text' of the choice, wrap the specific **verb or action phrase** that corresponds to the skill check in asterisks (*).
6.  **Status Effects**:
    *   Apply logic to the narrative. If the player is hurt, dizzy, terrified, or empowered, apply a **Status Effect**.
7.  **NPC Tracking**:
    *   Track significant characters. Use 'npcs_update' to add or update their condition (Healthy -> Dead).

The current state (inventory, quest, hp, stats, active effects, known NPCs) will be provided.

Respond with ONLY a JSON object, no markdown, with these fields:
- "narrative" (string, required): the story text.
- "choices" (array, required): 2-4 options, each {"text", "type", "difficulty"}. Add 'type' and 'difficulty' ONLY if the choice carries a risk of failure.
- "inventory_added" (array): items gained, each {"name", "type": weapon|armor|accessory|misc, "description"}.
- "inventory_removed" (array of strings): item names lost.
- "quest_update" (string): new short-term objective, if it changed.
- "hp_change" (integer): damage (negative) or healing (positive).
- "game_status" (string, required): ongoing|won|lost.
- "act_completed" (boolean): true ONLY when the Current Act Objective is fully resolved.
- "npcs_update" (object): {"add": [{"name","description","type","condition"}], "update": [{"name","condition","status"}], "remove": [names]}.
- "action_result" (object): ONLY for Custom Actions: {"stat","difficulty","base_roll","total","is_success"}.
`

func formatEquipped(equipped domain.EquippedGear) string {
	var parts []string
	if equipped.Weapon != nil {
		parts = append(parts, fmt.Sprintf("[MAIN HAND]: %s (%s)", equipped.Weapon.Name, bonusJSON(equipped.Weapon.Bonuses)))
	} else {
		parts = append(parts, "[MAIN HAND]: Empty (Unarmed)")
	}
	if equipped.Armor != nil {
		parts = append(parts, fmt.Sprintf("[BODY]: %s (%s)", equipped.Armor.Name, bonusJSON(equipped.Armor.Bonuses)))
	}
	if equipped.Accessory != nil {
		parts = append(parts, fmt.Sprintf("[TRINKET]: %s (%s)", equipped.Accessory.Name, bonusJSON(equipped.Accessory.Bonuses)))
	}
	return strings.Join(parts, "\n    ")
}

func bonusJSON(bonuses map[domain.StatType]int) string {
	raw, err := json.Marshal(bonuses)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func formatNPCs(npcs []domain.NPC) string {
	if len(npcs) == 0 {
		return "None known."
	}
	var parts []string
	for _, n := range npcs {
		parts = append(parts, fmt.Sprintf("%s (%s): %s", n.Name, n.Type, n.Condition))
	}
	return strings.Join(parts, ", ")
}

func formatHistory(history []domain.StoryTurn) string {
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	var b strings.Builder
	for _, turn := range history[start:] {
		speaker := "DM"
		if turn.IsUserTurn {
			speaker = "User"
		}
		fmt.Fprintf(&b, "%s: %s", speaker, turn.Text)
		if r := turn.RollResult; r != nil {
			outcome := "Fail"
			if r.Success {
				outcome = "Success"
			}
			fmt.Fprintf(&b, " [Rolled %d on %s vs DC %d: %s]", r.Total, r.Stat, r.Difficulty, outcome)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func stepPrompt(req narrative.StepRequest) string {
	var action string
	switch {
	case req.Heroic != nil:
		item := req.Heroic.Item
		if item == "" {
			item = "None"
		}
		action = fmt.Sprintf(`User performs a HEROIC CUSTOM ACTION: %q
    User claims to be using Item: %s (VERIFY this is equipped/owned before allowing bonuses).

    [INTERNAL RESOLUTION REQUIRED]
    1. Choose the most relevant STAT for this action.
    2. Set a DC (5 = Easy, 15 = Hard, 25 = Impossible).
    3. Use the RAW DIE ROLL provided: %d
    4. Calculate: Total = %d + (Stat Modifier).
    5. Narrate the outcome and populate the 'action_result' field in JSON.`,
			req.Heroic.Text, item, req.Heroic.Roll, req.Heroic.Roll)
	default:
		action = fmt.Sprintf("User's Latest Choice: %q", req.UserChoice)
		if roll := req.RollResult; roll != nil {
			outcome := "FAILURE"
			if roll.Success {
				outcome = "SUCCESS"
			}
			action += fmt.Sprintf(`

    [ACTION RESOLUTION]
    - Skill Check: %s
    - Difficulty Class (DC): %d
    - Calculation: Roll(%d) + Mod(%d) = Total(%d)
    - Result: %s

    (Narrate the outcome based on this result. If it was a failure on a dangerous action, reduce HP or BREAK equipped item.)`,
				roll.Stat, roll.Difficulty, roll.Base, roll.Modifier, roll.Total, outcome)
		}
	}

	names := make([]string, 0, len(req.Inventory))
	for _, item := range req.Inventory {
		names = append(names, item.Name)
	}
	inventoryNames, err := json.Marshal(names)
	if err != nil {
		inventoryNames = []byte("[]")
	}

	var campaign string
	if arc := req.Arc; arc != nil {
		objective := arc.FinalObjective
		var urgency string
		if active := arc.ActiveQuest(); active != nil {
			objective = active.Description
			if active.TurnCount > urgencyThreshold(req.GameLength) {
				urgency = "CRITICAL INSTRUCTION: The player has been in this act for too long. You MUST steer the narrative towards the immediate conclusion of this act. Present a climax or a resolution NOW."
			}
		}
		campaign = fmt.Sprintf(`
    --- CAMPAIGN CONTEXT ---
    Title: %s
    Lore: %s
    Current Act Objective: %s
    Final Goal: %s

    INSTRUCTIONS:
    1. If the user successfully completes the 'Current Act Objective', set "act_completed": true in the JSON.
    2. Do NOT set "game_status": "won" unless the 'Final Goal' is fully achieved.
    %s
    ------------------------`,
			arc.CampaignTitle, arc.BackgroundLore, objective, arc.FinalObjective, urgency)
	}

	stats := req.Stats
	return fmt.Sprintf(`Context:
    - Genre: %s
    - Base Stats: STR:%d, DEX:%d, CON:%d, INT:%d, CHA:%d, PER:%d, LUK:%d

    Current Loadout (CRITICAL - RESPECT THIS):
    %s

    Known People/NPCs:
    %s

    Stowed in Backpack (Must spend turn to equip):
    %s

    - Quest: %q
    - HP: %d (Max based on CON)

    Previous Story:
    %s

    %s
    %s

    Generate the next segment.`,
		req.Genre,
		stats.STR, stats.DEX, stats.CON, stats.INT, stats.CHA, stats.PER, stats.LUK,
		formatEquipped(req.Equipped),
		formatNPCs(req.NPCs),
		inventoryNames,
		req.CurrentQuest,
		req.HP,
		formatHistory(req.History),
		action,
		campaign,
	)
}

// urgencyThreshold is the number of turns a single act may run before
// the narrator is told to force a climax.
func urgencyThreshold(length domain.GameLength) int {
	switch length {
	case domain.LengthShort:
		return 10
	case domain.LengthLong:
		return 35
	default:
		return 20
	}
}

func outlinePrompt(req narrative.OutlineRequest) string {
	var lengthInstruction string
	switch req.GameLength {
	case domain.LengthShort:
		lengthInstruction = "Design a SHORT, fast-paced adventure. The plot should move quickly."
	case domain.LengthLong:
		lengthInstruction = "Design a LONG, epic saga. The plot should be intricate and slow-burning."
	}

	return fmt.Sprintf(`Create a unique, high-stakes RPG campaign outline based on the following:
    Genre: %s
    Hero Stats: High %s (Focus on this playstyle).
    %s

    Return ONLY a JSON object with:
    1. "campaignTitle": A catchy name for the adventure.
    2. "backgroundLore": A short paragraph setting the scene (the world state, the threat).
    3. "mainQuests": An array of exactly 3 objects, each with "id" (1, 2, 3), "title", "description", and "status" (set first to 'active', others 'pending').
       IMPORTANT: These descriptions must be BROAD, HIGH-LEVEL GOALS (e.g., "Cross the Desert", "Infiltrate the Citadel", "Find the Oracle").
       Do NOT provide specific solutions or step-by-step instructions. The player must figure out *how* to achieve them.
    4. "finalObjective": The ultimate win condition.`,
		req.Genre, highestStat(req.Stats), lengthInstruction)
}

func highestStat(stats domain.CharacterStats) domain.StatType {
	best := domain.AllStats[0]
	for _, stat := range domain.AllStats[1:] {
		if stats.Get(stat) > stats.Get(best) {
			best = stat
		}
	}
	return best
}

func summaryPrompt(logText string) string {
	return fmt.Sprintf(`Read the following adventure log and write a concise, engaging summary (3-5 sentences) of the entire journey.
  Highlight the key conflicts, major decisions, and how it ended.

  LOG:
  %s`, logText)
}

func storyboardPrompt(summary string) string {
	return fmt.Sprintf(`Create a single high-quality image that looks like a comic book page or storyboard.
    It should contain exactly 10 distinct panels arranged in a grid.
    Style: Half-cartoon, vibrant, detailed, expressive fantasy art.
    Content: Visualize the following story summary in chronological order across the panels:

    %q

    Make it look epic and cohesive.`, summary)
}
