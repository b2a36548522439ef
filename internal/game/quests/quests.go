// Package quests generates the side quest pool, tracks progress as
// turns resolve, and pays out rewards.
package quests

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/louisbranch/fabled/internal/core/check"
	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/game/itemfactory"
	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
	"github.com/louisbranch/fabled/internal/platform/id"
)

type template struct {
	title       string
	description string
	questType   domain.QuestType
	targetMin   int
	targetMax   int
	reward      domain.QuestRewardType
	rewardValue int
	statTarget  domain.StatType
}

var baseTemplates = []template{
	{
		title:       "Lucky Streak",
		description: "Succeed on {target} dice rolls in a row.",
		questType:   domain.QuestRollStreak,
		targetMin:   2, targetMax: 3,
		reward: domain.RewardLevelUp,
	},
	{
		title:       "Survivor",
		description: "Survive {target} turns with less than 50% HP.",
		questType:   domain.QuestHPThreshold,
		targetMin:   2, targetMax: 3,
		reward: domain.RewardHealHP, rewardValue: 25,
	},
	{
		title:       "Hoarder",
		description: "Have {target} items in your inventory.",
		questType:   domain.QuestInventoryCount,
		targetMin:   3, targetMax: 5,
		reward: domain.RewardRestoreHeroic, rewardValue: 1,
	},
	{
		title:       "Veteran",
		description: "Complete {target} turns in this adventure.",
		questType:   domain.QuestTurnCount,
		targetMin:   3, targetMax: 5,
		reward: domain.RewardLevelUp,
	},
	{
		title:       "Skill Master",
		description: "Succeed on {target} skill checks of any kind.",
		questType:   domain.QuestAnySuccess,
		targetMin:   2, targetMax: 4,
		reward: domain.RewardLevelUp,
	},
	{
		title:       "Natural Talent",
		description: "Roll a Natural 20 on any check.",
		questType:   domain.QuestNatural20,
		targetMin:   1, targetMax: 1,
		reward: domain.RewardHeroicRefill,
	},
	{
		title:       "By a Thread",
		description: "Succeed on a check by exactly matching the DC or by 1 point.",
		questType:   domain.QuestCloseCall,
		targetMin:   1, targetMax: 1,
		reward: domain.RewardRerollToken,
	},
	{
		title:       "Fully Kitted",
		description: "Have a Weapon, Armor, and Accessory equipped simultaneously.",
		questType:   domain.QuestFullyEquipped,
		targetMin:   1, targetMax: 1,
		reward: domain.RewardMaxHPBoost, rewardValue: 10,
	},
	{
		title:       "Legendary Feat",
		description: "Succeed on {target} difficult checks (DC 15+).",
		questType:   domain.QuestAnySuccess,
		targetMin:   4, targetMax: 5,
		reward: domain.RewardLegendaryItem,
	},
	{
		title:       "Weapon Master",
		description: "Succeed on {target} checks using your main stat.",
		questType:   domain.QuestStatSuccess,
		targetMin:   3, targetMax: 4,
		reward: domain.RewardUpgradeEquipped,
	},
	{
		title:       "Gambler's Challenge",
		description: "Succeed on {target} risky checks (Chance < 50%).",
		questType:   domain.QuestAnySuccess,
		targetMin:   2, targetMax: 3,
		reward: domain.RewardRerollToken, rewardValue: 1,
	},
}

func allTemplates() []template {
	out := make([]template, 0, len(baseTemplates)+len(domain.AllStats))
	out = append(out, baseTemplates...)
	for _, stat := range domain.AllStats {
		out = append(out, template{
			title:       string(stat) + " Training",
			description: "Succeed on {target} " + string(stat) + " checks.",
			questType:   domain.QuestStatSuccess,
			targetMin:   2, targetMax: 3,
			reward:     domain.RewardStatBoost,
			statTarget: stat,
		})
	}
	return out
}

// Refill tops the pool up to the standard size with quests whose
// titles are not already present. The pool can come back short when
// nearly every template is in play.
func Refill(rng *rand.Rand, current []domain.SideQuest) ([]domain.SideQuest, error) {
	needed := domain.QuestPoolSize - len(current)
	if needed <= 0 {
		return current, nil
	}

	taken := make(map[string]bool, len(current))
	for _, q := range current {
		taken[q.Title] = true
	}

	templates := allTemplates()
	out := append([]domain.SideQuest{}, current...)
	for i := 0; i < needed; i++ {
		var available []template
		for _, t := range templates {
			if !taken[t.title] {
				available = append(available, t)
			}
		}
		if len(available) == 0 {
			break
		}

		t := available[rng.Intn(len(available))]
		target := t.targetMin
		if t.targetMax > t.targetMin {
			target += rng.Intn(t.targetMax - t.targetMin + 1)
		}

		questID, err := id.NewID()
		if err != nil {
			return nil, err
		}
		quest := domain.SideQuest{
			ID:          questID,
			Title:       t.title,
			Description: strings.ReplaceAll(t.description, "{target}", strconv.Itoa(target)),
			Type:        t.questType,
			Target:      target,
			Progress:    0,
			Reward:      t.reward,
			RewardValue: t.rewardValue,
			StatTarget:  t.statTarget,
			Status:      domain.QuestAvailable,
		}
		out = append(out, quest)
		taken[quest.Title] = true
	}
	return out, nil
}

// RefreshPool drops quests the player never accepted and refills the
// pool, so untaken offers rotate every turn.
func RefreshPool(rng *rand.Rand, current []domain.SideQuest) ([]domain.SideQuest, error) {
	kept := current[:0:0]
	for _, q := range current {
		if q.Status != domain.QuestAvailable {
			kept = append(kept, q)
		}
	}
	return Refill(rng, kept)
}

// Track advances every active quest against the turn that just
// resolved, flipping finished ones to completed. Progress rules vary
// by quest type: streaks reset on failure, threshold quests reset when
// the condition lapses, and count quests only ever grow.
func Track(s *domain.State, lastTurn domain.StoryTurn) {
	for i := range s.SideQuests {
		quest := &s.SideQuests[i]
		if quest.Status != domain.QuestActive {
			continue
		}

		roll := lastTurn.RollResult
		switch quest.Type {
		case domain.QuestRollStreak:
			if roll != nil {
				if roll.Success {
					quest.Progress++
				} else {
					quest.Progress = 0
				}
			}
		case domain.QuestAnySuccess:
			if roll != nil && roll.Success {
				quest.Progress++
			}
		case domain.QuestStatSuccess:
			if roll != nil && roll.Success && roll.Stat == quest.StatTarget {
				quest.Progress++
			}
		case domain.QuestNatural20:
			if roll != nil && check.IsNatural20(roll.Base) {
				quest.Progress = quest.Target
			}
		case domain.QuestCloseCall:
			if roll != nil && check.IsCloseCall(check.Result{
				Total:      roll.Total,
				Difficulty: roll.Difficulty,
				Success:    roll.Success,
				Margin:     check.Margin(roll.Total, roll.Difficulty),
			}) {
				quest.Progress++
			}
		case domain.QuestFullyEquipped:
			if s.Equipped.FullyEquipped() {
				quest.Progress = quest.Target
			} else {
				quest.Progress = 0
			}
		case domain.QuestTurnCount:
			quest.Progress++
		case domain.QuestHPThreshold:
			if s.HP*2 < s.MaxHP {
				quest.Progress++
			} else {
				quest.Progress = 0
			}
		case domain.QuestInventoryCount:
			quest.Progress = len(s.Inventory)
		}

		if quest.Progress >= quest.Target {
			quest.Status = domain.QuestCompleted
		}
	}
}

// Collect pays out a completed quest's reward and removes the quest.
// It returns human-readable log lines describing what was granted.
func Collect(rng *rand.Rand, s *domain.State, questID string) ([]string, error) {
	idx := -1
	for i, q := range s.SideQuests {
		if q.ID == questID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.New(apperrors.CodeQuestNotFound, "quest not found")
	}
	quest := s.SideQuests[idx]
	if quest.Status != domain.QuestCompleted {
		return nil, apperrors.New(apperrors.CodeQuestNotCompleted, "quest is not completed")
	}

	var logs []string
	switch quest.Reward {
	case domain.RewardHealHP:
		amount := valueOr(quest.RewardValue, 20)
		s.ApplyHPChange(amount)
		logs = append(logs, fmt.Sprintf("Reward: Healed %d HP!", amount))
	case domain.RewardRestoreHeroic:
		amount := valueOr(quest.RewardValue, 1)
		s.HeroicActionsRemaining += amount
		logs = append(logs, fmt.Sprintf("Reward: Restored %d Heroic Action(s)!", amount))
	case domain.RewardLevelUp:
		s.PendingLevelUps++
		logs = append(logs, "Reward: Level Up!")
	case domain.RewardStatBoost:
		if quest.StatTarget != "" {
			s.Stats.Add(quest.StatTarget, 1)
			if quest.StatTarget == domain.StatCON {
				s.RecalculateMaxHP()
			}
			logs = append(logs, fmt.Sprintf("Reward: +1 %s!", quest.StatTarget))
		}
	case domain.RewardItem:
		if quest.RewardItem != nil {
			if err := s.AddItem(*quest.RewardItem); err != nil {
				logs = append(logs, "Inventory full! Item lost.")
			} else {
				logs = append(logs, fmt.Sprintf("Reward: Received %s!", quest.RewardItem.Name))
			}
		}
	case domain.RewardHeroicRefill:
		s.HP = s.MaxHP
		s.HeroicActionsRemaining += 3
		logs = append(logs, "Reward: Heroic Refill! HP restored and +3 Heroic Actions.")
	case domain.RewardMaxHPBoost:
		amount := valueOr(quest.RewardValue, 10)
		s.MaxHP += amount
		s.HP += amount
		logs = append(logs, fmt.Sprintf("Reward: Max HP Increased by %d!", amount))
	case domain.RewardRerollToken:
		amount := valueOr(quest.RewardValue, 1)
		s.RerollTokens += amount
		logs = append(logs, fmt.Sprintf("Reward: Received %d Reroll Token(s)!", amount))
	case domain.RewardUpgradeEquipped:
		if s.Equipped.Weapon == nil {
			logs = append(logs, "Reward: No weapon equipped to upgrade.")
			break
		}
		weapon := s.Equipped.Weapon
		best := domain.StatSTR
		for _, stat := range domain.AllStats {
			if weapon.Bonuses[stat] > weapon.Bonuses[best] {
				best = stat
			}
		}
		if weapon.Bonuses == nil {
			weapon.Bonuses = make(map[domain.StatType]int)
		}
		weapon.Bonuses[best]++
		logs = append(logs, fmt.Sprintf("Reward: Upgraded %s!", weapon.Name))
	case domain.RewardLegendaryItem:
		item, err := itemfactory.FromName(rng, "Legendary Artifact")
		if err != nil {
			return nil, err
		}
		item.Bonuses = map[domain.StatType]int{
			domain.StatSTR: 2, domain.StatDEX: 2, domain.StatCON: 2,
			domain.StatINT: 2, domain.StatCHA: 2, domain.StatPER: 2,
			domain.StatLUK: 2,
		}
		if err := s.AddItem(item); err == nil {
			logs = append(logs, "Reward: Received Legendary Artifact!")
		}
	}

	s.SideQuests = append(s.SideQuests[:idx], s.SideQuests[idx+1:]...)
	return logs, nil
}

func valueOr(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
