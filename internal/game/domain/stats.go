// Package domain holds the adventure game state and the pure rules that
// operate on it. Nothing here talks to storage, the network, or the
// narrative model.
package domain

// StatType identifies one of the seven character attributes.
type StatType string

const (
	StatSTR StatType = "STR"
	StatDEX StatType = "DEX"
	StatCON StatType = "CON"
	StatINT StatType = "INT"
	StatCHA StatType = "CHA"
	StatPER StatType = "PER"
	StatLUK StatType = "LUK"
)

// AllStats lists every attribute in canonical display order.
var AllStats = []StatType{StatSTR, StatDEX, StatCON, StatINT, StatCHA, StatPER, StatLUK}

// IsValidStat reports whether s names a known attribute.
func IsValidStat(s StatType) bool {
	switch s {
	case StatSTR, StatDEX, StatCON, StatINT, StatCHA, StatPER, StatLUK:
		return true
	}
	return false
}

// Game balance constants.
const (
	BaseHP               = 100
	DefaultStatValue     = 10
	ExpThreshold         = 3
	InventoryCap         = 8
	HeroicActionsPerGame = 3
	StartingRerollTokens = 1
	QuestPoolSize        = 3
)

// CharacterStats holds the seven attribute scores.
type CharacterStats struct {
	STR int `json:"STR"`
	DEX int `json:"DEX"`
	CON int `json:"CON"`
	INT int `json:"INT"`
	CHA int `json:"CHA"`
	PER int `json:"PER"`
	LUK int `json:"LUK"`
}

// DefaultStats returns a stat block with every attribute at the
// baseline value.
func DefaultStats() CharacterStats {
	return CharacterStats{
		STR: DefaultStatValue,
		DEX: DefaultStatValue,
		CON: DefaultStatValue,
		INT: DefaultStatValue,
		CHA: DefaultStatValue,
		PER: DefaultStatValue,
		LUK: DefaultStatValue,
	}
}

// Get returns the score for the given attribute, or 0 for an unknown one.
func (c CharacterStats) Get(stat StatType) int {
	switch stat {
	case StatSTR:
		return c.STR
	case StatDEX:
		return c.DEX
	case StatCON:
		return c.CON
	case StatINT:
		return c.INT
	case StatCHA:
		return c.CHA
	case StatPER:
		return c.PER
	case StatLUK:
		return c.LUK
	}
	return 0
}

// Set assigns the score for the given attribute. Unknown attributes are
// ignored.
func (c *CharacterStats) Set(stat StatType, value int) {
	switch stat {
	case StatSTR:
		c.STR = value
	case StatDEX:
		c.DEX = value
	case StatCON:
		c.CON = value
	case StatINT:
		c.INT = value
	case StatCHA:
		c.CHA = value
	case StatPER:
		c.PER = value
	case StatLUK:
		c.LUK = value
	}
}

// Add shifts the score of the given attribute by delta.
func (c *CharacterStats) Add(stat StatType, delta int) {
	c.Set(stat, c.Get(stat)+delta)
}

// Modifier converts an attribute score to its d20 modifier using the
// standard floor((score - 10) / 2) formula.
func Modifier(score int) int {
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// MaxHPFor derives maximum hit points from an effective constitution
// score.
func MaxHPFor(constitution int) int {
	return BaseHP + 10*Modifier(constitution)
}
