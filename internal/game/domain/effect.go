package domain

// EffectType separates beneficial and harmful status effects.
type EffectType string

const (
	EffectBuff   EffectType = "buff"
	EffectDebuff EffectType = "debuff"
)

// StatusEffect is a temporary modifier applied to the character for a
// number of turns.
type StatusEffect struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	Type                EffectType       `json:"type"`
	Duration            int              `json:"duration"`
	StatModifiers       map[StatType]int `json:"statModifiers,omitempty"`
	BlocksHeroicActions bool             `json:"blocksHeroicActions,omitempty"`
}

// Modifies reports whether the effect shifts the given attribute.
func (e StatusEffect) Modifies(stat StatType) bool {
	_, ok := e.StatModifiers[stat]
	return ok
}
