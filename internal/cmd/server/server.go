// Package server parses server command flags and starts the application.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/fabled/internal/auth"
	"github.com/louisbranch/fabled/internal/narrative/gemini"
	entrypoint "github.com/louisbranch/fabled/internal/platform/cmd"
	"github.com/louisbranch/fabled/internal/platform/config"
	"github.com/louisbranch/fabled/internal/storage/sqlite"
	"github.com/louisbranch/fabled/internal/telemetry"
	"github.com/louisbranch/fabled/internal/web"
)

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	var cfg config.Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return config.Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "The web server listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Run starts the application server.
func Run(ctx context.Context, cfg config.Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	if cfg.SessionSecret == "" {
		return fmt.Errorf("FABLED_SESSION_SECRET is required")
	}
	authSvc, err := auth.NewService(store, auth.Config{
		Secret:          []byte(cfg.SessionSecret),
		StartingCredits: cfg.StartingCredits,
	})
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	gen, err := gemini.New(ctx, gemini.Config{
		APIKey:       cfg.GeminiAPIKey,
		StoryModel:   cfg.StoryModel,
		SummaryModel: cfg.SummaryModel,
		ImageModel:   cfg.ImageModel,
	})
	if err != nil {
		return fmt.Errorf("build narrator: %w", err)
	}
	defer func() {
		if err := gen.Close(); err != nil {
			log.Printf("close narrator: %v", err)
		}
	}()

	emitter := telemetry.NewEmitter(store)
	handler := web.NewHandler(web.HandlerConfig{
		Auth:     authSvc,
		Store:    store,
		Sessions: web.NewSessions(gen, emitter),
		Emitter:  emitter,
	})

	srv, err := web.NewServer(web.Config{HTTPAddr: cfg.HTTPAddr, Handler: handler})
	if err != nil {
		return fmt.Errorf("build web server: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	return group.Wait()
}
