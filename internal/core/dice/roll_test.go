package dice

import "testing"

func TestRollBounds(t *testing.T) {
	rng := New(42)
	for i := 0; i < 1000; i++ {
		v, err := Roll(rng, 6)
		if err != nil {
			t.Fatalf("Roll(6): %v", err)
		}
		if v < 1 || v > 6 {
			t.Fatalf("Roll(6) = %d, want value in [1, 6]", v)
		}
	}
}

func TestRollInvalidSides(t *testing.T) {
	tests := []struct {
		name  string
		sides int
	}{
		{name: "zero sides", sides: 0},
		{name: "negative sides", sides: -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := New(1)
			if _, err := Roll(rng, tt.sides); err != ErrInvalidSides {
				t.Errorf("Roll(%d) error = %v, want %v", tt.sides, err, ErrInvalidSides)
			}
		})
	}
}

func TestRollDeterministic(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 100; i++ {
		va := D20(a)
		vb := D20(b)
		if va != vb {
			t.Fatalf("roll %d: got %d and %d from identical seeds", i, va, vb)
		}
	}
}

func TestD20Bounds(t *testing.T) {
	rng := New(3)
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		v := D20(rng)
		if v < 1 || v > 20 {
			t.Fatalf("D20() = %d, want value in [1, 20]", v)
		}
		seen[v] = true
	}
	for face := 1; face <= 20; face++ {
		if !seen[face] {
			t.Errorf("face %d never rolled in 2000 attempts", face)
		}
	}
}

func TestBetween(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
	}{
		{name: "normal range", min: 8, max: 12},
		{name: "single value", min: 5, max: 5},
		{name: "inverted range", min: 9, max: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := New(11)
			for i := 0; i < 500; i++ {
				v := Between(rng, tt.min, tt.max)
				lo, hi := tt.min, tt.max
				if hi < lo {
					hi = lo
				}
				if v < lo || v > hi {
					t.Fatalf("Between(%d, %d) = %d, want value in [%d, %d]", tt.min, tt.max, v, lo, hi)
				}
			}
		})
	}
}
