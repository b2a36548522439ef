// Package dice provides seeded die rolls for the adventure engine.
//
// All rolls are driven by an explicit *rand.Rand so callers control
// determinism: the same seed and the same call sequence always produce
// the same values.
package dice

import (
	"errors"
	"math/rand"
)

// ErrInvalidSides is returned when a roll requests a die with fewer
// than one side.
var ErrInvalidSides = errors.New("dice: sides must be positive")

// New returns a random source seeded with the provided value.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Roll rolls a single die with the provided number of sides, returning
// a value in [1, sides].
func Roll(rng *rand.Rand, sides int) (int, error) {
	if sides <= 0 {
		return 0, ErrInvalidSides
	}
	return rng.Intn(sides) + 1, nil
}

// D20 rolls a twenty-sided die.
func D20(rng *rand.Rand) int {
	return rng.Intn(20) + 1
}

// Between returns a uniformly random value in [min, max]. When
// max <= min it returns min.
func Between(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}
