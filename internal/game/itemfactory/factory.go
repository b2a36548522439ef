// Package itemfactory turns item names from the narrative into
// mechanically useful items. The narrator only invents names and
// descriptions; type, stat bonuses and consumable effects are derived
// here from keyword tables so the model cannot hand out arbitrary
// power.
package itemfactory

import (
	"math/rand"
	"strings"

	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/platform/id"
)

var consumableKeywords = []string{
	"potion", "elixir", "tonic", "brew", "flask", "vial", "stim", "medkit",
	"bandage", "salve", "pill", "tablet", "injector", "ration", "food",
	"drink", "snack", "meal", "bread", "water", "wine", "ale", "beer",
}

var healKeywords = []string{
	"health", "heal", "life", "vitality", "medkit", "bandage", "salve",
	"ration", "food", "bread",
}

var weaponKeywords = []string{
	"sword", "axe", "dagger", "blade", "spear", "mace", "hammer", "bow",
	"staff", "wand", "rod", "scepter", "pipe", "bar", "club", "stick",
	"rock", "stone", "brick", "shiv", "knife", "glass", "shard", "wrench",
	"crowbar", "bat", "pistol", "rifle", "gun", "blaster", "saber",
	"claws", "fist", "knuckles", "gauntlet", "scythe", "whip", "flail",
	"morningstar", "halberd", "pike", "lance", "trident", "rapier",
	"katana", "scimitar", "claymore", "zweihander", "maul", "sledge",
	"crossbow", "dart", "shuriken", "sling", "revolver", "sniper",
	"shotgun", "smg", "cannon", "raygun", "phaser", "taser", "prod",
	"cutter", "chainsaw", "drill",
}

var armorKeywords = []string{
	"shield", "armor", "mail", "plate", "helmet", "helm", "cap", "hat",
	"robe", "cloak", "vest", "jacket", "coat", "shirt", "tunic", "boots",
	"shoes", "sandals", "gloves", "bracers", "pants", "greaves", "suit",
	"garb", "cuirass", "breastplate", "brigandine", "hide", "leather",
	"kevlar", "flak", "exoskeleton", "mech", "power", "bodysuit",
	"jumpsuit", "cowl", "hood", "mask", "visor", "buckler", "targe",
}

var accessoryKeywords = []string{
	"ring", "amulet", "necklace", "charm", "gem", "stone", "talisman",
	"watch", "goggles", "glasses", "monocle", "crown", "tiara", "circlet",
	"belt", "sash", "girdle", "scarf", "pendant", "orb", "device",
	"gadget", "tool", "kit", "totem", "idol", "relic", "artifact",
	"symbol", "badge", "medal", "token", "card", "die", "dice", "coin",
	"lens", "scope", "tracker", "scanner", "implant", "chip",
}

// boostRecipe is a timed stat buff with its trade-off.
type boostRecipe struct {
	keywords []string
	stat     domain.StatType
	penalty  domain.StatType
}

var boostRecipes = []boostRecipe{
	{keywords: []string{"stim", "injector", "adrenaline", "rage", "frenzy"}, stat: domain.StatSTR, penalty: domain.StatINT},
	{keywords: []string{"focus", "mind", "clarity", "intelligence", "mana"}, stat: domain.StatINT, penalty: domain.StatCON},
	{keywords: []string{"speed", "haste", "swift", "dexterity", "reflex"}, stat: domain.StatDEX, penalty: domain.StatSTR},
	{keywords: []string{"iron", "skin", "bark", "defense", "constitution", "fortitude"}, stat: domain.StatCON, penalty: domain.StatDEX},
}

// bonusRule assigns stat bonuses when any of its keywords appears in
// the name. Rules are tried in order and only the first match applies.
type bonusRule struct {
	keywords []string
	grants   []grant
}

type grant struct {
	stat  domain.StatType
	value int
}

var weaponRules = []bonusRule{
	{keywords: []string{"heavy", "great", "hammer", "axe", "mace", "club", "pipe", "bar", "wrench", "crowbar", "bat", "rock", "brick", "maul", "sledge", "flail", "morningstar", "claymore", "zweihander", "halberd", "pike", "lance", "trident", "chainsaw", "drill", "cannon"},
		grants: []grant{{domain.StatSTR, 2}}},
	{keywords: []string{"dagger", "bow", "rapier", "knife", "shiv", "spear", "pistol", "rifle", "gun", "blaster", "scimitar", "katana", "saber", "whip", "dart", "shuriken", "sling", "revolver", "sniper", "shotgun", "smg", "raygun", "phaser", "needle", "scalpel"},
		grants: []grant{{domain.StatDEX, 2}}},
	{keywords: []string{"staff", "wand", "tome", "rod", "scepter", "orb", "crystal", "rune", "grimoire", "scroll", "taser", "prod", "cutter", "laser", "plasma", "shock"},
		grants: []grant{{domain.StatINT, 2}}},
	{keywords: []string{"sniper", "scope", "sight", "longbow", "crossbow"},
		grants: []grant{{domain.StatPER, 2}, {domain.StatDEX, 1}}},
	{keywords: []string{"golden", "ornate", "royal", "king", "queen", "ceremonial", "rapier"},
		grants: []grant{{domain.StatCHA, 2}, {domain.StatDEX, 1}}},
}

var defaultWeaponGrants = []grant{{domain.StatSTR, 1}, {domain.StatDEX, 1}}

var armorRules = []bonusRule{
	{keywords: []string{"plate", "heavy", "mail", "metal", "riot", "mech", "power", "exoskeleton", "full", "knight"},
		grants: []grant{{domain.StatCON, 3}, {domain.StatDEX, -1}}},
	{keywords: []string{"kevlar", "tactical", "flak", "vest", "breastplate", "cuirass", "brigandine", "chain", "scale"},
		grants: []grant{{domain.StatCON, 2}}},
	{keywords: []string{"leather", "studded", "padded", "gambeson", "tunic", "bodysuit", "jumpsuit", "stealth", "camo", "ninja", "thief"},
		grants: []grant{{domain.StatDEX, 2}, {domain.StatCON, 1}}},
	{keywords: []string{"robe", "cloak", "wizard", "mage", "sorcerer", "cowl", "hood", "vestment", "mantle"},
		grants: []grant{{domain.StatINT, 2}, {domain.StatCON, 1}}},
	{keywords: []string{"shield", "buckler", "targe", "bulwark"},
		grants: []grant{{domain.StatCON, 2}, {domain.StatSTR, 1}}},
}

var defaultArmorGrants = []grant{{domain.StatCON, 1}}

var accessoryStatRules = []bonusRule{
	{keywords: []string{"strength", "power", "muscle", "bear", "bull", "giant", "titan", "force", "impact"}, grants: []grant{{domain.StatSTR, 1}}},
	{keywords: []string{"dexterity", "swift", "cat", "thief", "speed", "reflex", "agility", "cobra", "viper", "wind"}, grants: []grant{{domain.StatDEX, 1}}},
	{keywords: []string{"health", "vitality", "life", "heart", "troll", "regeneration", "stamina", "endurance"}, grants: []grant{{domain.StatCON, 1}}},
	{keywords: []string{"intelligence", "mind", "wisdom", "owl", "fox", "smart", "sage", "arcane", "knowledge", "logic", "memory"}, grants: []grant{{domain.StatINT, 1}}},
	{keywords: []string{"charisma", "charm", "king", "leader", "eagle", "gold", "presence", "persuasion", "diplomat", "noble"}, grants: []grant{{domain.StatCHA, 1}}},
	{keywords: []string{"perception", "sight", "eye", "vision", "scope", "lens", "glasses", "goggles", "tracker", "scanner", "hawk", "eagle", "scout"}, grants: []grant{{domain.StatPER, 1}}},
	{keywords: []string{"luck", "fate", "fortune", "clover", "coin", "rabbit", "dice", "chance", "gambler", "chaos", "wild"}, grants: []grant{{domain.StatLUK, 1}}},
}

var techAccessoryKeywords = []string{"watch", "gadget", "device", "implant", "chip", "sensor", "computer", "datapad"}
var magicAccessoryKeywords = []string{"ring", "amulet", "talisman", "orb", "gem", "crystal"}

var mentalStats = []domain.StatType{domain.StatINT, domain.StatCHA, domain.StatPER, domain.StatLUK}

var negativeQualityKeywords = []string{"rusty", "broken", "cracked", "shoddy", "old", "weak", "dull", "dirty", "poor", "cursed", "damaged"}
var positiveQualityKeywords = []string{"fine", "sharp", "balanced", "reinforced", "hardened", "polished", "new", "quality", "improved"}
var legendaryKeywords = []string{"magic", "enchanted", "legendary", "epic", "mythic", "ancient", "divine", "holy", "demonic", "masterwork", "high-tech", "plasma", "laser", "quantum", "cybernetic", "glowing", "flaming", "frozen", "shocking", "vampiric"}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// bonusSet preserves insertion order so quality passes know which
// bonus is the item's primary one.
type bonusSet struct {
	order  []domain.StatType
	values map[domain.StatType]int
}

func newBonusSet() *bonusSet {
	return &bonusSet{values: make(map[domain.StatType]int)}
}

func (b *bonusSet) add(stat domain.StatType, delta int) {
	if _, ok := b.values[stat]; !ok {
		b.order = append(b.order, stat)
	}
	b.values[stat] += delta
}

func (b *bonusSet) primary() (domain.StatType, bool) {
	if len(b.order) == 0 {
		return "", false
	}
	return b.order[0], true
}

func (b *bonusSet) toMap() map[domain.StatType]int {
	if len(b.order) == 0 {
		return nil
	}
	out := make(map[domain.StatType]int, len(b.order))
	for stat, v := range b.values {
		out[stat] = v
	}
	return out
}

// FromName builds an item from its name alone. The same name can yield
// slightly different items because heal amounts and fallback accessory
// stats are rolled on rng.
func FromName(rng *rand.Rand, name string) (domain.Item, error) {
	itemID, err := id.NewID()
	if err != nil {
		return domain.Item{}, err
	}

	lower := strings.ToLower(name)
	itemType := domain.ItemMisc
	bonuses := newBonusSet()
	var consumable *domain.ConsumableEffect

	switch {
	case containsAny(lower, consumableKeywords):
		itemType = domain.ItemConsumable
		consumable = consumableEffect(rng, lower)
	case containsAny(lower, weaponKeywords):
		itemType = domain.ItemWeapon
		applyRules(bonuses, lower, weaponRules, defaultWeaponGrants)
	case containsAny(lower, armorKeywords):
		itemType = domain.ItemArmor
		applyRules(bonuses, lower, armorRules, defaultArmorGrants)
	case containsAny(lower, accessoryKeywords):
		itemType = domain.ItemAccessory
		applyAccessoryRules(rng, bonuses, lower)
	}

	applyQuality(bonuses, lower)

	return domain.Item{
		ID:         itemID,
		Name:       name,
		Type:       itemType,
		Bonuses:    bonuses.toMap(),
		Consumable: consumable,
	}, nil
}

func consumableEffect(rng *rand.Rand, lower string) *domain.ConsumableEffect {
	if containsAny(lower, healKeywords) {
		return &domain.ConsumableEffect{
			Kind:  domain.ConsumableHeal,
			Value: 15 + rng.Intn(15),
		}
	}
	for _, recipe := range boostRecipes {
		if containsAny(lower, recipe.keywords) {
			return &domain.ConsumableEffect{
				Kind:         domain.ConsumableStatBoost,
				Stat:         recipe.stat,
				Value:        2,
				Duration:     4,
				PenaltyStat:  recipe.penalty,
				PenaltyValue: 1,
			}
		}
	}
	// Anything unrecognised is a weak restorative.
	return &domain.ConsumableEffect{
		Kind:  domain.ConsumableHeal,
		Value: 10 + rng.Intn(10),
	}
}

func applyRules(bonuses *bonusSet, lower string, rules []bonusRule, fallback []grant) {
	for _, rule := range rules {
		if containsAny(lower, rule.keywords) {
			for _, g := range rule.grants {
				bonuses.add(g.stat, g.value)
			}
			return
		}
	}
	for _, g := range fallback {
		bonuses.add(g.stat, g.value)
	}
}

func applyAccessoryRules(rng *rand.Rand, bonuses *bonusSet, lower string) {
	for _, rule := range accessoryStatRules {
		if containsAny(lower, rule.keywords) {
			for _, g := range rule.grants {
				bonuses.add(g.stat, g.value)
			}
			return
		}
	}
	if containsAny(lower, techAccessoryKeywords) {
		bonuses.add(domain.StatINT, 1)
		bonuses.add(domain.StatPER, 1)
		return
	}
	if containsAny(lower, magicAccessoryKeywords) {
		bonuses.add(mentalStats[rng.Intn(len(mentalStats))], 1)
		return
	}
	bonuses.add(domain.AllStats[rng.Intn(len(domain.AllStats))], 1)
}

func applyQuality(bonuses *bonusSet, lower string) {
	if containsAny(lower, negativeQualityKeywords) {
		if primary, ok := bonuses.primary(); ok {
			reduced := bonuses.values[primary] - 1
			if reduced < 0 {
				reduced = 0
			}
			bonuses.values[primary] = reduced
		}
		if strings.Contains(lower, "cursed") {
			bonuses.add(domain.StatLUK, -2)
		}
	}

	if containsAny(lower, positiveQualityKeywords) {
		if primary, ok := bonuses.primary(); ok {
			bonuses.values[primary]++
		}
	}

	if containsAny(lower, legendaryKeywords) {
		primary, ok := bonuses.primary()
		if !ok {
			// A legendary trinket with no mechanical hook still
			// impresses people.
			bonuses.add(domain.StatCHA, 2)
			bonuses.add(domain.StatLUK, 1)
			return
		}
		bonuses.values[primary] += 2
		if containsAny(lower, []string{"flaming", "shocking", "plasma", "laser"}) {
			bonuses.add(domain.StatSTR, 1)
		}
		if containsAny(lower, []string{"frozen", "holy", "divine"}) {
			bonuses.add(domain.StatCON, 1)
		}
		if containsAny(lower, []string{"demonic", "vampiric"}) {
			bonuses.add(domain.StatLUK, -1)
		}
		if containsAny(lower, []string{"ancient", "mythic"}) {
			bonuses.add(domain.StatINT, 1)
		}
	}
}
