package domain

import (
	"maps"
	"math"
	"slices"

	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
	"github.com/louisbranch/fabled/internal/platform/id"
)

// GameStatus is the win/loss state of an adventure.
type GameStatus string

const (
	StatusOngoing GameStatus = "ongoing"
	StatusWon     GameStatus = "won"
	StatusLost    GameStatus = "lost"
)

// GamePhase tracks where the player is in the session flow.
type GamePhase string

const (
	PhaseMenu          GamePhase = "menu"
	PhaseSetupGenre    GamePhase = "setup_genre"
	PhaseSetupStats    GamePhase = "setup_stats"
	PhaseCreatingWorld GamePhase = "creating_world"
	PhasePlaying       GamePhase = "playing"
	PhaseGameOver      GamePhase = "game_over"
)

// GameLength controls story pacing.
type GameLength string

const (
	LengthShort  GameLength = "short"
	LengthMedium GameLength = "medium"
	LengthLong   GameLength = "long"
)

// State is the full mechanical state of one adventure.
type State struct {
	Inventory              []Item           `json:"inventory"`
	Equipped               EquippedGear     `json:"equipped"`
	CurrentQuest           string           `json:"currentQuest"`
	NPCs                   []NPC            `json:"npcs"`
	History                []StoryTurn      `json:"history"`
	HP                     int              `json:"hp"`
	MaxHP                  int              `json:"maxHp"`
	HPHistory              []int            `json:"hpHistory"`
	StatHistory            []CharacterStats `json:"statHistory"`
	GameStatus             GameStatus       `json:"gameStatus"`
	Phase                  GamePhase        `json:"phase"`
	Genre                  string           `json:"genre"`
	GameLength             GameLength       `json:"gameLength"`
	Stats                  CharacterStats   `json:"stats"`
	StatExperience         map[StatType]int `json:"statExperience"`
	ActiveEffects          []StatusEffect   `json:"activeEffects"`
	StartingStats          CharacterStats   `json:"startingStats"`
	FinalSummary           string           `json:"finalSummary,omitempty"`
	FinalStoryboard        string           `json:"finalStoryboard,omitempty"`
	HeroicActionsRemaining int              `json:"customChoicesRemaining"`
	MainStoryArc           *MainStoryArc    `json:"mainStoryArc,omitempty"`
	SideQuests             []SideQuest      `json:"activeSideQuests"`
	PendingLevelUps        int              `json:"pendingLevelUps"`
	RerollTokens           int              `json:"rerollTokens"`
}

// NewState returns a fresh adventure at the main menu with baseline
// stats and full health.
func NewState() *State {
	stats := DefaultStats()
	return &State{
		Inventory:              []Item{},
		NPCs:                   []NPC{},
		History:                []StoryTurn{},
		HP:                     BaseHP,
		MaxHP:                  BaseHP,
		HPHistory:              []int{BaseHP},
		StatHistory:            []CharacterStats{stats},
		GameStatus:             StatusOngoing,
		Phase:                  PhaseMenu,
		GameLength:             LengthMedium,
		Stats:                  stats,
		StatExperience:         make(map[StatType]int),
		ActiveEffects:          []StatusEffect{},
		StartingStats:          stats,
		HeroicActionsRemaining: HeroicActionsPerGame,
		SideQuests:             []SideQuest{},
		RerollTokens:           StartingRerollTokens,
	}
}

// Clone returns a deep copy sharing no mutable memory with s. Turn
// resolution filters effects, NPCs, and inventory slices in place, so
// views handed outside the session lock must not alias them.
func (s *State) Clone() *State {
	out := *s
	out.Inventory = cloneItems(s.Inventory)
	out.Equipped = EquippedGear{
		Weapon:    s.Equipped.Weapon.clone(),
		Armor:     s.Equipped.Armor.clone(),
		Accessory: s.Equipped.Accessory.clone(),
	}
	out.NPCs = slices.Clone(s.NPCs)
	if s.History != nil {
		out.History = make([]StoryTurn, len(s.History))
		for i := range s.History {
			out.History[i] = s.History[i].clone()
		}
	}
	out.HPHistory = slices.Clone(s.HPHistory)
	out.StatHistory = slices.Clone(s.StatHistory)
	out.StatExperience = maps.Clone(s.StatExperience)
	out.ActiveEffects = cloneEffects(s.ActiveEffects)
	out.MainStoryArc = s.MainStoryArc.clone()
	if s.SideQuests != nil {
		out.SideQuests = make([]SideQuest, len(s.SideQuests))
		for i, q := range s.SideQuests {
			q.RewardItem = q.RewardItem.clone()
			out.SideQuests[i] = q
		}
	}
	return &out
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		item.Bonuses = maps.Clone(item.Bonuses)
		if item.Consumable != nil {
			c := *item.Consumable
			item.Consumable = &c
		}
		out[i] = item
	}
	return out
}

func (i *Item) clone() *Item {
	if i == nil {
		return nil
	}
	out := *i
	out.Bonuses = maps.Clone(i.Bonuses)
	if i.Consumable != nil {
		c := *i.Consumable
		out.Consumable = &c
	}
	return &out
}

func cloneEffects(effects []StatusEffect) []StatusEffect {
	if effects == nil {
		return nil
	}
	out := make([]StatusEffect, len(effects))
	for i, e := range effects {
		e.StatModifiers = maps.Clone(e.StatModifiers)
		out[i] = e
	}
	return out
}

func (t StoryTurn) clone() StoryTurn {
	out := t
	out.Choices = slices.Clone(t.Choices)
	if t.RollResult != nil {
		r := *t.RollResult
		out.RollResult = &r
	}
	if t.LevelUpEvent != nil {
		e := *t.LevelUpEvent
		out.LevelUpEvent = &e
	}
	out.InventoryAdded = cloneItems(t.InventoryAdded)
	out.InventoryRemoved = slices.Clone(t.InventoryRemoved)
	out.NewEffects = cloneEffects(t.NewEffects)
	out.NPCUpdates = slices.Clone(t.NPCUpdates)
	return out
}

func (a *MainStoryArc) clone() *MainStoryArc {
	if a == nil {
		return nil
	}
	out := *a
	out.MainQuests = slices.Clone(a.MainQuests)
	return &out
}

// EffectiveStat returns the attribute score after gear bonuses and
// active status effects.
func (s *State) EffectiveStat(stat StatType) int {
	value := s.Stats.Get(stat)
	for _, item := range s.Equipped.Items() {
		value += item.Bonuses[stat]
	}
	for _, effect := range s.ActiveEffects {
		value += effect.StatModifiers[stat]
	}
	return value
}

// EffectiveStats returns the full stat block after gear and effects.
func (s *State) EffectiveStats() CharacterStats {
	var out CharacterStats
	for _, stat := range AllStats {
		out.Set(stat, s.EffectiveStat(stat))
	}
	return out
}

// RecalculateMaxHP re-derives maximum HP from effective constitution
// and rescales current HP proportionally so equipping armor does not
// change the fraction of health remaining.
func (s *State) RecalculateMaxHP() {
	newMax := MaxHPFor(s.EffectiveStat(StatCON))
	if newMax < 10 {
		newMax = 10
	}
	if newMax == s.MaxHP {
		return
	}
	if s.MaxHP > 0 && s.HP > 0 {
		ratio := float64(s.HP) / float64(s.MaxHP)
		s.HP = int(math.Round(ratio * float64(newMax)))
	}
	s.MaxHP = newMax
	s.clampHP()
}

func (s *State) clampHP() {
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
	if s.HP < 0 {
		s.HP = 0
	}
}

// ApplyHPChange shifts current HP by delta, clamped to [0, MaxHP], and
// returns the resulting value.
func (s *State) ApplyHPChange(delta int) int {
	s.HP += delta
	s.clampHP()
	return s.HP
}

// FindItem returns the index of the inventory item with the given id,
// or -1.
func (s *State) FindItem(itemID string) int {
	for i, item := range s.Inventory {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// AddItem appends an item to the inventory, enforcing the carry
// capacity.
func (s *State) AddItem(item Item) error {
	if len(s.Inventory) >= InventoryCap {
		return apperrors.WithMetadata(apperrors.CodeInventoryFull, "inventory is full",
			map[string]string{"item": item.Name})
	}
	s.Inventory = append(s.Inventory, item)
	return nil
}

// RemoveItemAt removes and returns the inventory item at index i.
func (s *State) RemoveItemAt(i int) Item {
	item := s.Inventory[i]
	s.Inventory = append(s.Inventory[:i], s.Inventory[i+1:]...)
	return item
}

// Equip moves an inventory item into its gear slot. Anything already
// in the slot returns to the inventory. Maximum HP is re-derived since
// gear can shift constitution.
func (s *State) Equip(itemID string) error {
	idx := s.FindItem(itemID)
	if idx < 0 {
		return apperrors.New(apperrors.CodeItemNotFound, "item not in inventory")
	}
	item := s.Inventory[idx]
	slot, ok := SlotFor(item.Type)
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeItemNotEquippable, "item cannot be equipped",
			map[string]string{"type": string(item.Type)})
	}

	s.RemoveItemAt(idx)
	if prev := s.Equipped.Get(slot); prev != nil {
		s.Inventory = append(s.Inventory, *prev)
	}
	equipped := item
	s.Equipped.Set(slot, &equipped)
	s.RecalculateMaxHP()
	return nil
}

// Unequip clears a gear slot, returning the item to the inventory if
// there is room.
func (s *State) Unequip(slot GearSlot) error {
	item := s.Equipped.Get(slot)
	if item == nil {
		return apperrors.WithMetadata(apperrors.CodeItemNotEquipped, "slot is empty",
			map[string]string{"slot": string(slot)})
	}
	if len(s.Inventory) >= InventoryCap {
		return apperrors.New(apperrors.CodeInventoryFull, "no room to unequip")
	}
	s.Inventory = append(s.Inventory, *item)
	s.Equipped.Set(slot, nil)
	s.RecalculateMaxHP()
	return nil
}

// UseItem consumes a consumable: heals restore HP, stat boosts become
// timed status effects (with their penalty, if any). The item is
// removed from the inventory. The returned effects, when non-empty,
// were added to ActiveEffects.
func (s *State) UseItem(itemID string) ([]StatusEffect, error) {
	idx := s.FindItem(itemID)
	if idx < 0 {
		return nil, apperrors.New(apperrors.CodeItemNotFound, "item not in inventory")
	}
	item := s.Inventory[idx]
	if item.Type != ItemConsumable || item.Consumable == nil {
		return nil, apperrors.New(apperrors.CodeItemNotConsumable, "item cannot be used")
	}

	effect := item.Consumable
	switch effect.Kind {
	case ConsumableHeal:
		if s.HP >= s.MaxHP {
			return nil, apperrors.New(apperrors.CodeHealthAlreadyFull, "already at full health")
		}
		s.RemoveItemAt(idx)
		s.ApplyHPChange(effect.Value)
		return nil, nil
	case ConsumableStatBoost:
		s.RemoveItemAt(idx)
		var added []StatusEffect
		boostID, err := id.NewID()
		if err != nil {
			return nil, err
		}
		boost := StatusEffect{
			ID:            boostID,
			Name:          item.Name,
			Description:   "Consumed " + item.Name + ".",
			Type:          EffectBuff,
			Duration:      effect.Duration,
			StatModifiers: map[StatType]int{effect.Stat: effect.Value},
		}
		added = append(added, boost)
		if effect.PenaltyStat != "" && effect.PenaltyValue != 0 {
			penaltyID, err := id.NewID()
			if err != nil {
				return nil, err
			}
			added = append(added, StatusEffect{
				ID:            penaltyID,
				Name:          item.Name + " (side effect)",
				Description:   "Side effect of " + item.Name + ".",
				Type:          EffectDebuff,
				Duration:      effect.Duration,
				StatModifiers: map[StatType]int{effect.PenaltyStat: -abs(effect.PenaltyValue)},
			})
		}
		s.ActiveEffects = append(s.ActiveEffects, added...)
		s.RecalculateMaxHP()
		return added, nil
	}
	return nil, apperrors.New(apperrors.CodeItemNotConsumable, "unknown consumable effect")
}

// DiscardItem drops an inventory item permanently.
func (s *State) DiscardItem(itemID string) error {
	idx := s.FindItem(itemID)
	if idx < 0 {
		return apperrors.New(apperrors.CodeItemNotFound, "item not in inventory")
	}
	s.RemoveItemAt(idx)
	return nil
}

// SpendLevelUp consumes one pending level-up to raise a stat by one.
func (s *State) SpendLevelUp(stat StatType) (*LevelUpEvent, error) {
	if s.PendingLevelUps <= 0 {
		return nil, apperrors.New(apperrors.CodeNoPendingLevelUps, "no pending level ups")
	}
	if !IsValidStat(stat) {
		return nil, apperrors.WithMetadata(apperrors.CodeStatUnknown, "unknown stat",
			map[string]string{"stat": string(stat)})
	}
	old := s.Stats.Get(stat)
	s.Stats.Set(stat, old+1)
	s.PendingLevelUps--
	if stat == StatCON {
		s.RecalculateMaxHP()
	}
	return &LevelUpEvent{Stat: stat, OldValue: old, NewValue: old + 1}, nil
}

// GainStatExperience credits a successful check toward the stat's
// experience counter. Crossing the threshold resets the counter and
// permanently raises the stat by one.
func (s *State) GainStatExperience(stat StatType) *LevelUpEvent {
	if s.StatExperience == nil {
		s.StatExperience = make(map[StatType]int)
	}
	s.StatExperience[stat]++
	if s.StatExperience[stat] < ExpThreshold {
		return nil
	}
	s.StatExperience[stat] = 0
	old := s.Stats.Get(stat)
	s.Stats.Set(stat, old+1)
	if stat == StatCON {
		s.RecalculateMaxHP()
	}
	return &LevelUpEvent{Stat: stat, OldValue: old, NewValue: old + 1}
}

// AcceptQuest activates an available side quest.
func (s *State) AcceptQuest(questID string) error {
	for i := range s.SideQuests {
		if s.SideQuests[i].ID != questID {
			continue
		}
		if s.SideQuests[i].Status != QuestAvailable {
			return apperrors.WithMetadata(apperrors.CodeQuestNotAvailable, "quest cannot be accepted",
				map[string]string{"status": string(s.SideQuests[i].Status)})
		}
		s.SideQuests[i].Status = QuestActive
		return nil
	}
	return apperrors.New(apperrors.CodeQuestNotFound, "quest not found")
}

// DecayEffects advances time for status effects by one turn, dropping
// any that expire. It returns the names of expired effects.
func (s *State) DecayEffects() []string {
	var expired []string
	kept := s.ActiveEffects[:0]
	for _, effect := range s.ActiveEffects {
		effect.Duration--
		if effect.Duration <= 0 {
			expired = append(expired, effect.Name)
			continue
		}
		kept = append(kept, effect)
	}
	s.ActiveEffects = kept
	if len(expired) > 0 {
		s.RecalculateMaxHP()
	}
	return expired
}

// HeroicBlocked reports whether an active effect currently forbids
// heroic actions.
func (s *State) HeroicBlocked() bool {
	for _, effect := range s.ActiveEffects {
		if effect.BlocksHeroicActions {
			return true
		}
	}
	return false
}

// RecordSnapshot appends the current HP and stat block to the history
// series used by the end-of-game charts.
func (s *State) RecordSnapshot() {
	s.HPHistory = append(s.HPHistory, s.HP)
	s.StatHistory = append(s.StatHistory, s.EffectiveStats())
}

// Over reports whether the adventure has ended.
func (s *State) Over() bool {
	return s.GameStatus != StatusOngoing
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
