package check

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		baseRoll   int
		modifier   int
		difficulty int
		wantTotal  int
		wantOK     bool
		wantMargin int
	}{
		{name: "clear success", baseRoll: 15, modifier: 2, difficulty: 12, wantTotal: 17, wantOK: true, wantMargin: 5},
		{name: "exact meet succeeds", baseRoll: 10, modifier: 2, difficulty: 12, wantTotal: 12, wantOK: true, wantMargin: 0},
		{name: "one short fails", baseRoll: 9, modifier: 2, difficulty: 12, wantTotal: 11, wantOK: false, wantMargin: -1},
		{name: "negative modifier", baseRoll: 12, modifier: -2, difficulty: 11, wantTotal: 10, wantOK: false, wantMargin: -1},
		{name: "natural one can still pass", baseRoll: 1, modifier: 8, difficulty: 8, wantTotal: 9, wantOK: true, wantMargin: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.baseRoll, tt.modifier, tt.difficulty)
			if got.Total != tt.wantTotal {
				t.Errorf("Resolve(%d, %d, %d).Total = %d, want %d", tt.baseRoll, tt.modifier, tt.difficulty, got.Total, tt.wantTotal)
			}
			if got.Success != tt.wantOK {
				t.Errorf("Resolve(%d, %d, %d).Success = %v, want %v", tt.baseRoll, tt.modifier, tt.difficulty, got.Success, tt.wantOK)
			}
			if got.Margin != tt.wantMargin {
				t.Errorf("Resolve(%d, %d, %d).Margin = %d, want %d", tt.baseRoll, tt.modifier, tt.difficulty, got.Margin, tt.wantMargin)
			}
		})
	}
}

func TestIsNatural20(t *testing.T) {
	if !IsNatural20(20) {
		t.Error("IsNatural20(20) = false, want true")
	}
	if IsNatural20(19) {
		t.Error("IsNatural20(19) = true, want false")
	}
}

func TestIsCloseCall(t *testing.T) {
	tests := []struct {
		name       string
		baseRoll   int
		modifier   int
		difficulty int
		want       bool
	}{
		{name: "margin zero success", baseRoll: 10, modifier: 0, difficulty: 10, want: true},
		{name: "margin one success", baseRoll: 11, modifier: 0, difficulty: 10, want: true},
		{name: "margin two success", baseRoll: 12, modifier: 0, difficulty: 10, want: false},
		{name: "narrow failure does not count", baseRoll: 9, modifier: 0, difficulty: 10, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsCloseCall(Resolve(tt.baseRoll, tt.modifier, tt.difficulty))
			if got != tt.want {
				t.Errorf("IsCloseCall(roll %d vs DC %d) = %v, want %v", tt.baseRoll, tt.difficulty, got, tt.want)
			}
		})
	}
}
