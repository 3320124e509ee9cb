package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/batch"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/config"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/crawler"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/handler"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/history"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/knowledge"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/llm"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/lock"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/metering"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/notify"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/repository"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/server"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/service"
)

func main() {
	defaultPath := os.Getenv("WORKMATE_CONFIG")
	if defaultPath == "" {
		defaultPath = "configs/config.yml"
	}
	configPath := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting WorkMate...", zap.String("config", *configPath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := repository.Open(ctx, cfg.Database.Type, cfg.Database.Path, cfg.Database.Migrations, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	store := repository.NewStore(db, logger)
	defer store.Close()

	// Initialize LLM client (multi-provider with rate limiting)
	llmClient, err := llm.NewMultiProviderClient(ctx, llm.MultiProviderConfig{
		Providers:   cfg.Providers,
		MaxFailures: cfg.MaxFailuresBeforeSwitch,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize LLM providers", zap.Error(err))
	}
	defer llmClient.Close()

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.Redis.URL != "" {
		redisLocker, err := lock.NewRedisLocker(ctx, cfg.Redis.URL, cfg.Redis.LockTTL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn("Telegram notifications disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	var fetcher crawler.Fetcher = crawler.NewHTTPFetcher(cfg.Crawler.UserAgent, cfg.Crawler.Timeout)
	if cfg.Crawler.Browser {
		browser := crawler.NewBrowserFetcher(cfg.Crawler.UserAgent, cfg.Crawler.Headless, cfg.Crawler.Timeout, logger)
		defer browser.Close()
		fetcher = browser
	}

	// Initialize services
	hist := history.NewStore(store, logger)
	responder := service.NewResponder(
		store,
		hist,
		knowledge.NewAssembler(store.Training, cfg.Generation.KnowledgeRows, logger),
		llmClient,
		locker,
		service.ResponderConfig{
			ChatMaxTokens:     cfg.Generation.ChatMaxTokens,
			VoiceMaxTokens:    cfg.Generation.VoiceMaxTokens,
			SummaryMaxTokens:  cfg.Generation.SummaryMaxTokens,
			DefaultPrompt:     cfg.Generation.DefaultPrompt,
			VoiceHistoryLimit: cfg.Voice.HistoryLimit,
			VoiceTimeout:      cfg.Voice.Timeout,
			Batch: batch.Options{
				Concurrency: cfg.Batch.Concurrency,
				Retries:     cfg.Batch.Retries,
				MinTimeout:  cfg.Batch.MinTimeout,
				MaxTimeout:  cfg.Batch.MaxTimeout,
			},
		},
		logger,
	)
	streamOpts := batch.Options{
		Concurrency: 1,
		Retries:     cfg.Batch.StreamRetries,
		MinTimeout:  cfg.Batch.StreamMinTimeout,
		MaxTimeout:  cfg.Batch.StreamMaxTimeout,
		Logger:      logger,
	}
	auth := service.NewAuthService(store.Businesses, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)

	apiHandler := handler.NewHandler(handler.Services{
		Businesses:    service.NewBusinessService(store.Businesses, logger),
		Auth:          auth,
		Agents:        service.NewAgentService(store, logger),
		Conversations: service.NewConversationService(store, hist, locker, logger),
		Training:      service.NewTrainingService(store, crawler.New(fetcher, logger), streamOpts, logger),
		Usage:         service.NewUsageService(metering.NewMeter(store, logger), store.Businesses, logger),
		Phones:        service.NewPhoneService(store, logger),
		Responder:     responder,
		Webhooks:      service.NewWebhookService(store, hist, responder, notifier, logger),
	}, store, cfg.Server.PublicURL, logger)

	rate := ""
	if cfg.RateLimit.Enabled {
		rate = cfg.RateLimit.Rate
	}
	srv, err := server.NewServer(apiHandler, auth, server.Options{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       rate,
		Release:         !cfg.Log.Development,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}

	modelName := "unknown"
	if m, ok := llmClient.GetModelInfo()["model"].(string); ok {
		modelName = m
	}
	logger.Info("WorkMate is running",
		zap.String("port", cfg.Server.Port),
		zap.String("model", modelName))

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server exited")
}
