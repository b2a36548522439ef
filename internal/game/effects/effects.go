// Package effects derives status effects from combat outcomes: injuries
// when the character takes meaningful damage, hot streaks when the
// same attribute succeeds twice in a row.
package effects

import (
	"fmt"
	"math/rand"

	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/platform/id"
)

// injury candidates are the physical attributes.
var injuryCandidates = []domain.StatType{domain.StatSTR, domain.StatDEX, domain.StatCON}

// Injury rolls an injury debuff for hpLoss points of damage. Heavy
// hits (more than 10) cost two points of a physical stat, lighter ones
// cost one, in either case for one or two turns. Stats already
// suffering a debuff are skipped; if every candidate is taken, no new
// injury is applied and Injury returns nil.
func Injury(rng *rand.Rand, hpLoss int, current []domain.StatusEffect) (*domain.StatusEffect, error) {
	if hpLoss <= 0 {
		return nil, nil
	}

	magnitude := -1
	if hpLoss > 10 {
		magnitude = -2
	}
	duration := rng.Intn(2) + 1

	var available []domain.StatType
	for _, stat := range injuryCandidates {
		if !hasDebuffOn(current, stat) {
			available = append(available, stat)
		}
	}
	if len(available) == 0 {
		return nil, nil
	}

	target := available[rng.Intn(len(available))]
	effectID, err := id.NewID()
	if err != nil {
		return nil, err
	}

	name := "Minor Injury"
	if magnitude == -2 {
		name = "Major Injury"
	}
	return &domain.StatusEffect{
		ID:            effectID,
		Name:          name,
		Description:   fmt.Sprintf("Took %d damage. %s reduced by %d.", hpLoss, target, -magnitude),
		Type:          domain.EffectDebuff,
		Duration:      duration,
		StatModifiers: map[domain.StatType]int{target: magnitude},
	}, nil
}

func hasDebuffOn(effects []domain.StatusEffect, stat domain.StatType) bool {
	for _, e := range effects {
		if e.Type == domain.EffectDebuff && e.StatModifiers[stat] < 0 {
			return true
		}
	}
	return false
}

// HotStreak rewards consecutive successful checks on the same
// attribute with a short +1 or +2 buff. The history is searched
// backwards for the most recent player turn that rolled; nil is
// returned when the current roll failed or the streak is broken.
func HotStreak(rng *rand.Rand, history []domain.StoryTurn, current domain.RollResult) (*domain.StatusEffect, error) {
	if !current.Success {
		return nil, nil
	}

	var prev *domain.RollResult
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsUserTurn && history[i].RollResult != nil {
			prev = history[i].RollResult
			break
		}
	}
	if prev == nil || !prev.Success || prev.Stat != current.Stat {
		return nil, nil
	}

	bonus := rng.Intn(2) + 1
	duration := rng.Intn(2) + 1
	effectID, err := id.NewID()
	if err != nil {
		return nil, err
	}

	return &domain.StatusEffect{
		ID:            effectID,
		Name:          "Hot Streak",
		Description:   fmt.Sprintf("Consecutive successes on %s!", current.Stat),
		Type:          domain.EffectBuff,
		Duration:      duration,
		StatModifiers: map[domain.StatType]int{current.Stat: bonus},
	}, nil
}
