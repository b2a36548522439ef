package domain

// ItemType classifies inventory items.
type ItemType string

const (
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemAccessory  ItemType = "accessory"
	ItemConsumable ItemType = "consumable"
	ItemMisc       ItemType = "misc"
)

// IsValidItemType reports whether t is a known item type.
func IsValidItemType(t ItemType) bool {
	switch t {
	case ItemWeapon, ItemArmor, ItemAccessory, ItemConsumable, ItemMisc:
		return true
	}
	return false
}

// ConsumableKind distinguishes what a consumable does when used.
type ConsumableKind string

const (
	ConsumableHeal      ConsumableKind = "heal"
	ConsumableStatBoost ConsumableKind = "stat_boost"
)

// ConsumableEffect describes what happens when a consumable item is
// used. Heal effects restore Value hit points. Stat boosts grant a
// temporary buff to Stat for Duration turns, optionally paired with a
// penalty to another attribute.
type ConsumableEffect struct {
	Kind         ConsumableKind `json:"type"`
	Value        int            `json:"value"`
	Stat         StatType       `json:"stat,omitempty"`
	Duration     int            `json:"duration,omitempty"`
	PenaltyStat  StatType       `json:"penaltyStat,omitempty"`
	PenaltyValue int            `json:"penaltyValue,omitempty"`
}

// Item is a single inventory entry.
type Item struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        ItemType          `json:"type"`
	Description string            `json:"description,omitempty"`
	Bonuses     map[StatType]int  `json:"bonuses,omitempty"`
	Consumable  *ConsumableEffect `json:"consumableEffect,omitempty"`
}

// Equippable reports whether the item can occupy a gear slot.
func (i Item) Equippable() bool {
	_, ok := SlotFor(i.Type)
	return ok
}
