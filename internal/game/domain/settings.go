package domain

// ImageSize selects the resolution for generated storyboard images.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
	ImageSize4K ImageSize = "4K"
)

// Settings are per-player preferences persisted alongside saves.
type Settings struct {
	ImageSize       ImageSize `json:"imageSize"`
	StoryModel      string    `json:"storyModel"`
	UIScale         float64   `json:"uiScale"`
	EnableDiceRolls bool      `json:"enableDiceRolls"`
}

// DefaultSettings returns the preferences used before a player changes
// anything.
func DefaultSettings() Settings {
	return Settings{
		ImageSize:       ImageSize1K,
		StoryModel:      "gemini-2.5-pro",
		UIScale:         1.0,
		EnableDiceRolls: true,
	}
}
