package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/matchmate/internal/api"
	"github.com/DevRickLin/matchmate/internal/biz"
	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/bus"
	"github.com/DevRickLin/matchmate/internal/conf"
	"github.com/DevRickLin/matchmate/internal/data"
	"github.com/DevRickLin/matchmate/internal/executor"
	"github.com/DevRickLin/matchmate/internal/infra/browser"
	"github.com/DevRickLin/matchmate/internal/infra/feishu"
	"github.com/DevRickLin/matchmate/internal/logging"
	"github.com/DevRickLin/matchmate/internal/observer"
	"github.com/DevRickLin/matchmate/internal/server"
	"github.com/DevRickLin/matchmate/internal/service"
)

const (
	eventBuffer     = 64
	commandBuffer   = 16
	shutdownTimeout = 5 * time.Second
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()
	logger := logging.New("Main")
	logger.Infof("Starting matchmate, run %s", logging.RunID())

	manager, err := browser.NewManager(browser.Config{
		TargetURL:   cfg.Browser.TargetURL,
		UserDataDir: cfg.Browser.UserDataDir,
		Headless:    cfg.Browser.Headless,
	})
	if err != nil {
		log.Fatalf("Invalid browser config: %v", err)
	}

	// Feishu notifications are optional
	var chat data.PostSender
	if cfg.Feishu.Enabled() {
		chat = feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		logger.Infof("Feishu notifications enabled for chat %s", cfg.Feishu.NotifyChatID)
	}

	// Initialize repository layer
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
			Opener:       manager.OpenConsent,
		},
		Chat:       chat,
		ChatTarget: cfg.Feishu.NotifyChatID,
	})
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	if cfg.Store.DedupDBPath != "" {
		logger.Infof("Dedup DB: %s", cfg.Store.DedupDBPath)
	}

	// Initialize usecase layer
	prompts := cfg.ToPromptConfig()
	selectors := cfg.ToSelectorConfig()
	compiled, err := selectors.Compile()
	if err != nil {
		log.Fatalf("Invalid selectors: %v", err)
	}

	ucs := biz.NewUsecases(repos.Generation, repos.Calendar, repos.Notifier, prompts)

	// Initialize service layer
	events := bus.NewChannel[domain.Event](eventBuffer)
	commands := bus.NewHub[domain.SendGreetingCommand](commandBuffer)
	orch := service.NewOrchestrator(ucs.Greeting, ucs.DateCheck, repos.Credentials, commands)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}
	orchDone := make(chan struct{})
	go func() {
		defer close(orchDone)
		orch.Run(ctx, events)
	}()

	// Initialize servers
	srv := server.NewBrowserServer(manager, repos.Dedup, events, commands, server.Options{
		Observer: observer.Config{
			Selectors:   compiled,
			AttachRetry: cfg.Agent.AttachRetry,
		},
		Executor: executor.Config{
			Selectors:   selectors,
			SettleDelay: cfg.Agent.SettleDelay,
		},
		AutoSwipe:     cfg.Agent.AutoSwipe,
		SwipeInterval: cfg.Agent.SwipeInterval,
	})

	apiServer := api.NewServer(repos.Credentials, orch, repos.Dedup, srv, cfg.API.Port)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Errorf("API server error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Browser error: %v", err)
	}
	logger.Infof("Watching %s", cfg.Browser.TargetURL)

	// Graceful shutdown
	<-ctx.Done()
	logger.Infof("Shutting down...")

	srv.Stop()
	commands.Close()
	events.Close()
	<-orchDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warnf("API server shutdown: %v", err)
	}
}
