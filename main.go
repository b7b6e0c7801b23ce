package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"three-card-game/bot"
	"three-card-game/config"
	"three-card-game/handlers"
	"three-card-game/models"
	"three-card-game/services"
	"three-card-game/utils"
	"three-card-game/workers"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ invalid configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("❌ failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	stats := services.NewStatsService(db, logger)

	// Match history archive is optional
	var archive workers.Archiver
	if cfg.R2().Enabled() {
		a, err := utils.NewArchive(ctx, cfg.R2())
		if err != nil {
			logger.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		archive = a
	} else {
		logger.Warn("⚠️  R2 bucket not configured, match history archive disabled")
	}

	var (
		identity services.IdentityPolicy = services.NewBlocklistPolicy(cfg.DisallowedUserIDs)
		listener services.ExpiryListener
		profiles services.ProfileLookup
		discord  *bot.Bot
	)
	if cfg.DiscordEnabled() {
		discord, err = bot.New(bot.Options{
			Token:           cfg.DiscordToken,
			AppID:           cfg.DiscordAppID,
			GuildID:         cfg.DiscordGuildID,
			Blocklist:       cfg.DisallowedUserIDs,
			MaxRounds:       cfg.MaxRounds,
			ChallengeTTL:    cfg.ChallengeTTL,
			LeaderboardSize: cfg.LeaderboardSize,
			Logger:          logger,
		})
		if err != nil {
			logger.Fatal("failed to create discord bot", zap.Error(err))
		}
		identity, listener, profiles = discord, discord, discord
	} else {
		logger.Warn("⚠️  DISCORD_TOKEN not set, running the HTTP API only")
		if cfg.ProfileServiceURL != "" {
			profiles = services.NewProfileServiceClient(cfg.ProfileServiceURL, cfg.GameServiceToken)
		}
	}

	finalizer := workers.NewFinalizeWorker(stats, workers.FinalizeOptions{
		QueueSize: cfg.FinalizeQueueSize,
		Timeout:   cfg.FinalizeTimeout,
		Profiles:  profiles,
		Archive:   archive,
		Logger:    logger,
	})

	expiry, err := services.NewChallengeExpiry(logger)
	if err != nil {
		logger.Fatal("failed to start expiry scheduler", zap.Error(err))
	}

	sessions, err := services.NewSessionService(services.SessionOptions{
		MaxRounds:    cfg.MaxRounds,
		ChallengeTTL: cfg.ChallengeTTL,
		Identity:     identity,
		Expiry:       expiry,
		Sink:         finalizer,
		Listener:     listener,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("failed to create session registry", zap.Error(err))
	}

	// The finalizer outlives the signal context so matches finished while
	// requests drain are still recorded.
	finalizeCtx, stopFinalizer := context.WithCancel(context.Background())
	finalizer.Start(finalizeCtx)
	go workers.PollActiveMatches(ctx, sessions, time.Minute, logger, nil)

	if discord != nil {
		discord.Bind(sessions, stats)
		if err := discord.Open(); err != nil {
			logger.Fatal("failed to connect discord bot", zap.Error(err))
		}
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	app := handlers.NewApp(handlers.Deps{
		Sessions:        sessions,
		Stats:           stats,
		GatewayToken:    cfg.GameServiceToken,
		AllowedOrigins:  origins,
		LeaderboardSize: cfg.LeaderboardSize,
		Logger:          logger,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	logger.Info("✅ Server running", zap.String("addr", "http://localhost:"+cfg.Port))
	logger.Info("✅ GatewayAuthMiddleware enforced on every route but /healthz")
	logger.Info("✅ Finalize worker running", zap.Int("queue_size", cfg.FinalizeQueueSize))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if discord != nil {
		if err := discord.Close(); err != nil {
			logger.Warn("discord shutdown", zap.Error(err))
		}
	}
	sessions.Shutdown()
	if err := expiry.Shutdown(); err != nil {
		logger.Warn("expiry scheduler shutdown", zap.Error(err))
	}

	stopFinalizer()
	select {
	case <-finalizer.Done():
	case <-time.After(shutdownTimeout):
		logger.Warn("finalize worker did not drain in time")
	}
	logger.Info("👋 Bye")
}
