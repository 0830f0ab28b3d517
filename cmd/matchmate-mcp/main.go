package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/matchmate/internal/biz"
	"github.com/DevRickLin/matchmate/internal/conf"
	"github.com/DevRickLin/matchmate/internal/data"
	"github.com/DevRickLin/matchmate/internal/logging"
	"github.com/DevRickLin/matchmate/internal/mcpserver"
)

const version = "v1.0.0"

func main() {
	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	logging.SetOutput(os.Stderr)

	_ = godotenv.Load()

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if _, err := logging.Setup(cfg.LogDir, cfg.Debug); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	repos, err := data.NewRepositories(data.Options{
		SettingsPath: cfg.Store.SettingsPath,
		DedupDBPath:  cfg.Store.DedupDBPath,
		Generation: data.GenerationConfig{
			BaseURL: cfg.Generation.BaseURL,
			Path:    cfg.Generation.Path,
			Model:   cfg.Generation.Model,
		},
		CalendarBaseURL: cfg.Calendar.BaseURL,
		Tokens: data.TokenBrokerConfig{
			ClientSecret: cfg.Calendar.ClientSecret,
			CachePath:    cfg.Calendar.TokenCachePath,
		},
	})
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ucs := biz.NewUsecases(repos.Generation, repos.Calendar, repos.Notifier, cfg.ToPromptConfig())
	server := mcpserver.NewServer(ucs.DateCheck, repos.Credentials, repos.Dedup, version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("MCP server error: %v", err)
	}
}
