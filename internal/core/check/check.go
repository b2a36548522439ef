// Package check resolves d20 skill checks against difficulty classes.
package check

// MeetsDifficulty returns true if total >= difficulty.
func MeetsDifficulty(total, difficulty int) bool {
	return total >= difficulty
}

// Margin calculates the margin of success or failure.
// Positive values indicate success, negative indicate failure.
func Margin(total, difficulty int) int {
	return total - difficulty
}

// Result represents the outcome of a difficulty check.
type Result struct {
	BaseRoll   int
	Modifier   int
	Total      int
	Difficulty int
	Success    bool
	Margin     int
}

// Resolve applies a stat modifier to a base roll and checks the total
// against the difficulty class.
func Resolve(baseRoll, modifier, difficulty int) Result {
	total := baseRoll + modifier
	return Result{
		BaseRoll:   baseRoll,
		Modifier:   modifier,
		Total:      total,
		Difficulty: difficulty,
		Success:    MeetsDifficulty(total, difficulty),
		Margin:     Margin(total, difficulty),
	}
}

// IsNatural20 reports whether the base roll was a natural 20,
// independent of modifiers.
func IsNatural20(baseRoll int) bool {
	return baseRoll == 20
}

// IsCloseCall reports whether a successful check squeaked by with a
// margin of at most one.
func IsCloseCall(r Result) bool {
	return r.Success && r.Margin <= 1
}
