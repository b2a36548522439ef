package domain

// Choice is one of the options offered to the player at the end of a
// turn. A zero Stat means the choice needs no skill check.
type Choice struct {
	Text       string   `json:"text"`
	Stat       StatType `json:"type,omitempty"`
	Difficulty int      `json:"difficulty,omitempty"`
}

// RequiresCheck reports whether picking the choice triggers a d20 roll.
func (c Choice) RequiresCheck() bool {
	return c.Stat != ""
}

// RollResult records the outcome of a resolved skill check.
type RollResult struct {
	Total      int      `json:"total"`
	Base       int      `json:"base"`
	Modifier   int      `json:"modifier"`
	Success    bool     `json:"isSuccess"`
	Stat       StatType `json:"statType"`
	Difficulty int      `json:"difficulty"`
}

// LevelUpEvent notes a permanent attribute increase, either earned
// through repeated successes or granted instantly by a reward.
type LevelUpEvent struct {
	Stat         StatType `json:"stat"`
	OldValue     int      `json:"oldValue"`
	NewValue     int      `json:"newValue"`
	SpecialEvent bool     `json:"isSpecialEvent,omitempty"`
}

// StoryTurn is one entry in the adventure log: either the player's
// action (IsUserTurn) or the narrator's response with its mechanical
// side effects.
type StoryTurn struct {
	ID               string         `json:"id"`
	Text             string         `json:"text"`
	ImagePrompt      string         `json:"imagePrompt,omitempty"`
	Choices          []Choice       `json:"choices"`
	IsUserTurn       bool           `json:"isUserTurn,omitempty"`
	RollResult       *RollResult    `json:"rollResult,omitempty"`
	LevelUpEvent     *LevelUpEvent  `json:"levelUpEvent,omitempty"`
	InventoryAdded   []Item         `json:"inventoryAdded,omitempty"`
	InventoryRemoved []string       `json:"inventoryRemoved,omitempty"`
	NewEffects       []StatusEffect `json:"newEffects,omitempty"`
	NPCUpdates       []NPC          `json:"npcUpdates,omitempty"`
}
