package domain

import "testing"

func TestModifier(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{score: 10, want: 0},
		{score: 11, want: 0},
		{score: 12, want: 1},
		{score: 13, want: 1},
		{score: 14, want: 2},
		{score: 20, want: 5},
		{score: 9, want: -1},
		{score: 8, want: -1},
		{score: 7, want: -2},
		{score: 1, want: -5},
	}

	for _, tt := range tests {
		if got := Modifier(tt.score); got != tt.want {
			t.Errorf("Modifier(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestMaxHPFor(t *testing.T) {
	tests := []struct {
		constitution int
		want         int
	}{
		{constitution: 10, want: 100},
		{constitution: 12, want: 110},
		{constitution: 14, want: 120},
		{constitution: 8, want: 90},
	}

	for _, tt := range tests {
		if got := MaxHPFor(tt.constitution); got != tt.want {
			t.Errorf("MaxHPFor(%d) = %d, want %d", tt.constitution, got, tt.want)
		}
	}
}

func TestCharacterStatsGetSet(t *testing.T) {
	var c CharacterStats
	for i, stat := range AllStats {
		c.Set(stat, 10+i)
	}
	for i, stat := range AllStats {
		if got := c.Get(stat); got != 10+i {
			t.Errorf("Get(%s) = %d, want %d", stat, got, 10+i)
		}
	}

	c.Add(StatLUK, -3)
	if got := c.Get(StatLUK); got != 13 {
		t.Errorf("after Add(LUK, -3): Get(LUK) = %d, want 13", got)
	}
}

func TestDefaultStats(t *testing.T) {
	stats := DefaultStats()
	for _, stat := range AllStats {
		if got := stats.Get(stat); got != DefaultStatValue {
			t.Errorf("DefaultStats().Get(%s) = %d, want %d", stat, got, DefaultStatValue)
		}
	}
}
