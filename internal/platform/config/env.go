// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime configuration for the Fabled server.
type Config struct {
	// HTTPAddr is the listen address for the web server.
	HTTPAddr string `env:"FABLED_HTTP_ADDR" envDefault:":8080"`
	// DBPath is the path to the SQLite database file.
	DBPath string `env:"FABLED_DB_PATH" envDefault:"fabled.db"`
	// GeminiAPIKey authenticates narrative generation calls.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	// StoryModel is the model used for story steps and campaign outlines.
	StoryModel string `env:"FABLED_STORY_MODEL" envDefault:"gemini-2.5-pro"`
	// SummaryModel is the cheaper model used for end-of-game summaries.
	SummaryModel string `env:"FABLED_SUMMARY_MODEL" envDefault:"gemini-2.5-flash"`
	// ImageModel renders the end-of-game storyboard.
	ImageModel string `env:"FABLED_IMAGE_MODEL" envDefault:"gemini-3-pro-image-preview"`
	// SessionSecret signs session tokens. Required in production.
	SessionSecret string `env:"FABLED_SESSION_SECRET"`
	// StartingCredits is the credit balance granted to new users.
	StartingCredits int64 `env:"FABLED_STARTING_CREDITS" envDefault:"200"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the full server configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
