package domain

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
)

// SaveVersion is written into every save envelope. Loaders accept any
// save with the same major version, filling defaults for fields older
// minors did not record.
const SaveVersion = "1.5"

// SaveData is the persisted envelope for one adventure.
type SaveData struct {
	GameState      *State   `json:"gameState"`
	CurrentChoices []Choice `json:"currentChoices"`
	Settings       Settings `json:"settings"`
	Timestamp      int64    `json:"timestamp"`
	Version        string   `json:"version"`
}

// NewSaveData wraps the current game in a versioned envelope.
func NewSaveData(state *State, choices []Choice, settings Settings, now time.Time) SaveData {
	return SaveData{
		GameState:      state,
		CurrentChoices: choices,
		Settings:       settings,
		Timestamp:      now.UnixMilli(),
		Version:        SaveVersion,
	}
}

// Marshal encodes the envelope as JSON.
func (d SaveData) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// ParseSaveData decodes a save envelope, rejecting saves from a
// different major version and backfilling defaults for fields that
// older saves within the same major did not carry.
func ParseSaveData(raw []byte) (SaveData, error) {
	var data SaveData
	if err := json.Unmarshal(raw, &data); err != nil {
		return SaveData{}, apperrors.Wrap(apperrors.CodeSaveMalformed, "decode save", err)
	}
	if data.GameState == nil {
		return SaveData{}, apperrors.New(apperrors.CodeSaveMalformed, "save has no game state")
	}
	if majorVersion(data.Version) != majorVersion(SaveVersion) {
		return SaveData{}, apperrors.WithMetadata(apperrors.CodeSaveUnsupported, "unsupported save version",
			map[string]string{"version": data.Version})
	}

	backfill(data.GameState)
	if data.Settings == (Settings{}) {
		data.Settings = DefaultSettings()
	}
	return data, nil
}

func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// backfill fills fields introduced after the earliest 1.x saves.
func backfill(s *State) {
	if s.StatExperience == nil {
		s.StatExperience = make(map[StatType]int)
	}
	if s.SideQuests == nil {
		s.SideQuests = []SideQuest{}
	}
	if s.NPCs == nil {
		s.NPCs = []NPC{}
	}
	if s.ActiveEffects == nil {
		s.ActiveEffects = []StatusEffect{}
	}
	if s.Inventory == nil {
		s.Inventory = []Item{}
	}
	if s.HPHistory == nil {
		s.HPHistory = []int{s.HP}
	}
	if s.StatHistory == nil {
		s.StatHistory = []CharacterStats{s.Stats}
	}
	if s.MaxHP == 0 {
		s.MaxHP = BaseHP
	}
	if s.GameStatus == "" {
		s.GameStatus = StatusOngoing
	}
	if s.GameLength == "" {
		s.GameLength = LengthMedium
	}
	if s.StartingStats == (CharacterStats{}) {
		s.StartingStats = s.Stats
	}
}
