package domain

// GearSlot names an equipment slot.
type GearSlot string

const (
	SlotWeapon    GearSlot = "weapon"
	SlotArmor     GearSlot = "armor"
	SlotAccessory GearSlot = "accessory"
)

// AllSlots lists every gear slot.
var AllSlots = []GearSlot{SlotWeapon, SlotArmor, SlotAccessory}

// SlotFor maps an item type to the gear slot it occupies. The second
// return value is false for item types that cannot be equipped.
func SlotFor(t ItemType) (GearSlot, bool) {
	switch t {
	case ItemWeapon:
		return SlotWeapon, true
	case ItemArmor:
		return SlotArmor, true
	case ItemAccessory:
		return SlotAccessory, true
	}
	return "", false
}

// EquippedGear holds the three equipment slots. A nil entry means the
// slot is empty.
type EquippedGear struct {
	Weapon    *Item `json:"weapon"`
	Armor     *Item `json:"armor"`
	Accessory *Item `json:"accessory"`
}

// Get returns the item in the given slot, or nil.
func (g *EquippedGear) Get(slot GearSlot) *Item {
	switch slot {
	case SlotWeapon:
		return g.Weapon
	case SlotArmor:
		return g.Armor
	case SlotAccessory:
		return g.Accessory
	}
	return nil
}

// Set places an item in the given slot, replacing whatever was there.
func (g *EquippedGear) Set(slot GearSlot, item *Item) {
	switch slot {
	case SlotWeapon:
		g.Weapon = item
	case SlotArmor:
		g.Armor = item
	case SlotAccessory:
		g.Accessory = item
	}
}

// Items returns the equipped items in slot order, skipping empty slots.
func (g *EquippedGear) Items() []*Item {
	var items []*Item
	for _, slot := range AllSlots {
		if item := g.Get(slot); item != nil {
			items = append(items, item)
		}
	}
	return items
}

// FullyEquipped reports whether all three slots are occupied.
func (g *EquippedGear) FullyEquipped() bool {
	return g.Weapon != nil && g.Armor != nil && g.Accessory != nil
}

// Bonuses aggregates the stat bonuses of every equipped item.
func (g *EquippedGear) Bonuses() map[StatType]int {
	total := make(map[StatType]int)
	for _, item := range g.Items() {
		for stat, bonus := range item.Bonuses {
			total[stat] += bonus
		}
	}
	return total
}
