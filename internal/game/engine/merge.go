package engine

import (
	"strings"

	"github.com/louisbranch/fabled/internal/core/dice"
	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/game/effects"
	"github.com/louisbranch/fabled/internal/game/itemfactory"
	"github.com/louisbranch/fabled/internal/game/quests"
	"github.com/louisbranch/fabled/internal/game/statinfer"
	"github.com/louisbranch/fabled/internal/narrative"
	"github.com/louisbranch/fabled/internal/platform/id"
)

// merge folds the narrator's reply into game state. Caller holds the
// lock. The order matters: items before HP, HP before injuries,
// campaign progression before the win downgrade, everything before the
// side-quest check.
func (s *Session) merge(resp *narrative.StepResponse) error {
	resp.Normalize()
	s.sanitizeChoices(resp.Choices)

	// Injury severity depends on net HP lost after clamping, judged
	// against the effects already in play this turn.
	hpBefore := s.state.HP
	newHP := clamp(hpBefore+resp.HPChange, 0, s.state.MaxHP)
	injury, err := effects.Injury(s.rng, hpBefore-newHP, s.state.ActiveEffects)
	if err != nil {
		return err
	}
	if injury != nil {
		s.logf("info", "Injury Sustained! "+injury.Description)
	}

	newItems, err := s.buildItems(resp.InventoryAdded)
	if err != nil {
		return err
	}
	s.applyInventoryChanges(newItems, resp.InventoryRemoved)

	s.state.HP = newHP
	status := resp.GameStatus
	if s.state.HP <= 0 {
		status = domain.StatusLost
	}

	if injury != nil {
		s.state.ActiveEffects = append(s.state.ActiveEffects, *injury)
	}

	questText := resp.QuestUpdate
	if questText == "" {
		questText = s.state.CurrentQuest
	}
	status, questText = s.advanceCampaign(resp.ActCompleted, status, questText)

	// The narrator cannot declare victory while campaign acts remain.
	if status == domain.StatusWon && s.state.MainStoryArc != nil && !s.state.MainStoryArc.AllActsCompleted() {
		status = domain.StatusOngoing
	}

	if err := s.applyNPCChanges(resp.NPCs); err != nil {
		return err
	}

	var heroicRoll *domain.RollResult
	var heroicLevelUp *domain.LevelUpEvent
	if ar := resp.ActionResult; ar != nil {
		heroicRoll = &domain.RollResult{
			Total:      ar.Total,
			Base:       ar.BaseRoll,
			Modifier:   ar.Total - ar.BaseRoll,
			Success:    ar.Success,
			Stat:       ar.Stat,
			Difficulty: ar.Difficulty,
		}
		if ar.Success && domain.IsValidStat(ar.Stat) {
			heroicLevelUp = s.state.GainStatExperience(ar.Stat)
		}
	}

	turnID, err := id.NewID()
	if err != nil {
		return err
	}
	aiTurn := domain.StoryTurn{
		ID:               turnID,
		Text:             resp.Narrative,
		ImagePrompt:      resp.VisualPrompt,
		Choices:          resp.Choices,
		RollResult:       heroicRoll,
		LevelUpEvent:     heroicLevelUp,
		InventoryAdded:   newItems,
		InventoryRemoved: resp.InventoryRemoved,
		NewEffects:       resp.NewEffects,
	}
	s.state.History = append(s.state.History, aiTurn)

	s.state.CurrentQuest = questText
	s.state.GameStatus = status
	s.state.HPHistory = append(s.state.HPHistory, s.state.HP)
	if status == domain.StatusOngoing {
		s.state.Phase = domain.PhasePlaying
	} else {
		s.state.Phase = domain.PhaseGameOver
	}
	s.state.RecalculateMaxHP()

	s.choices = resp.Choices
	s.busy = false
	s.lastParams = nil

	if s.state.Phase == domain.PhasePlaying {
		if err := s.checkSideQuests(); err != nil {
			return err
		}
	}
	s.logf("response", resp.Narrative)
	return nil
}

// sanitizeChoices backfills a stat inferred from the wording and a
// random difficulty for skill choices the narrator left unfinished.
func (s *Session) sanitizeChoices(choices []domain.Choice) {
	for i := range choices {
		c := &choices[i]
		if c.Stat == "" {
			if stat, ok := statinfer.Infer(c.Text); ok {
				c.Stat = stat
			}
		}
		if c.Stat != "" && c.Difficulty == 0 {
			c.Difficulty = dice.Between(s.rng, 8, 12)
		}
	}
}

// buildItems derives mechanics for narrator-invented items locally;
// only the name and description are trusted.
func (s *Session) buildItems(added []narrative.AddedItem) ([]domain.Item, error) {
	var items []domain.Item
	for _, a := range added {
		item, err := itemfactory.FromName(s.rng, a.Name)
		if err != nil {
			return nil, err
		}
		if a.Description != "" {
			item.Description = a.Description
		}
		items = append(items, item)
	}
	return items, nil
}

// applyInventoryChanges adds and removes items by (case-insensitive)
// name, enforces the carry cap, keeps equipped gear out of the bag,
// and returns gear the narrator silently unequipped. Destroyed gear is
// cleared from its slot.
func (s *Session) applyInventoryChanges(newItems []domain.Item, removed []string) {
	removedNames := make(map[string]bool, len(removed))
	for _, name := range removed {
		removedNames[strings.ToLower(name)] = true
	}

	inv := append(append([]domain.Item(nil), s.state.Inventory...), newItems...)
	inv = filterItems(inv, func(it domain.Item) bool {
		return !removedNames[strings.ToLower(it.Name)]
	})

	if len(inv) > domain.InventoryCap {
		s.logf("error", "Inventory overflow! Some items were discarded.")
		inv = inv[:domain.InventoryCap]
	}

	equippedIDs := make(map[string]bool)
	for _, it := range s.state.Equipped.Items() {
		equippedIDs[it.ID] = true
	}
	inv = filterItems(inv, func(it domain.Item) bool {
		return !equippedIDs[it.ID]
	})

	for _, slot := range domain.AllSlots {
		item := s.state.Equipped.Get(slot)
		if item != nil && removedNames[strings.ToLower(item.Name)] {
			s.state.Equipped.Set(slot, nil)
		}
	}

	s.state.Inventory = inv
}

// advanceCampaign counts the turn against the active act and handles
// act completion, the finale hand-off, and the final victory.
func (s *Session) advanceCampaign(actCompleted bool, status domain.GameStatus, questText string) (domain.GameStatus, string) {
	arc := s.state.MainStoryArc
	if arc == nil {
		return status, questText
	}

	active := arc.ActiveQuest()
	if active == nil {
		if arc.AllActsCompleted() && actCompleted {
			status = domain.StatusWon
		}
		return status, questText
	}

	active.TurnCount++
	if !actCompleted {
		return status, questText
	}

	arc.AdvanceAct()
	if next := arc.ActiveQuest(); next != nil {
		next.TurnCount = 0
		questText = next.Description
		s.logf("info", "Act Completed! Starting: "+next.Title)
	} else {
		questText = "Finale: " + arc.FinalObjective
		s.logf("info", "All Acts Completed! Final Objective: "+arc.FinalObjective)
	}
	return status, questText
}

// applyNPCChanges edits the character roster: adds get fresh ids,
// updates match by case-insensitive name, removals match exactly.
func (s *Session) applyNPCChanges(changes *narrative.NPCChanges) error {
	if changes == nil {
		return nil
	}

	for _, add := range changes.Add {
		npcID, err := id.NewID()
		if err != nil {
			return err
		}
		s.state.NPCs = append(s.state.NPCs, domain.NPC{
			ID:          npcID,
			Name:        add.Name,
			Description: add.Description,
			Type:        add.Type,
			Condition:   add.Condition,
		})
	}

	for _, upd := range changes.Update {
		for i := range s.state.NPCs {
			if !strings.EqualFold(s.state.NPCs[i].Name, upd.Name) {
				continue
			}
			s.state.NPCs[i].Condition = upd.Condition
			if upd.Status != "" {
				s.state.NPCs[i].Type = domain.NPCDisposition(upd.Status)
			}
			break
		}
	}

	if len(changes.Remove) > 0 {
		gone := make(map[string]bool, len(changes.Remove))
		for _, name := range changes.Remove {
			gone[name] = true
		}
		kept := s.state.NPCs[:0]
		for _, n := range s.state.NPCs {
			if !gone[n.Name] {
				kept = append(kept, n)
			}
		}
		s.state.NPCs = kept
	}
	return nil
}

// checkSideQuests advances quest progress against the completed turn
// cycle and rotates unaccepted offers. Progress is judged on the
// player's roll turn when there is one, so roll-based quests see the
// roll and the rest see the settled state.
func (s *Session) checkSideQuests() error {
	n := len(s.state.History)
	if n == 0 {
		return nil
	}
	turn := s.state.History[n-1]
	if n >= 2 && s.state.History[n-2].IsUserTurn {
		turn = s.state.History[n-2]
	}
	quests.Track(s.state, turn)

	pool, err := quests.RefreshPool(s.rng, s.state.SideQuests)
	if err != nil {
		return err
	}
	s.state.SideQuests = pool
	return nil
}

func filterItems(items []domain.Item, keep func(domain.Item) bool) []domain.Item {
	out := items[:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
