package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/artur/slide-bot/internal/bot"
	"github.com/artur/slide-bot/internal/broadcast"
	"github.com/artur/slide-bot/internal/config"
	"github.com/artur/slide-bot/internal/database"
	"github.com/artur/slide-bot/internal/database/repository"
	"github.com/artur/slide-bot/internal/export"
	"github.com/artur/slide-bot/internal/handler"
	"github.com/artur/slide-bot/internal/logging"
	"github.com/artur/slide-bot/internal/onboarding"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		if errors.Is(err, config.ErrMissingToken) {
			slog.Error("set BOT_TOKEN before starting the bot")
		}
		os.Exit(1)
	}

	logger, closer := logging.New(logging.Options{File: cfg.LogFile, Level: slog.LevelInfo})
	defer closer.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("bot stopped with error", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database initialized", "path", cfg.DBPath)

	deck := onboarding.DefaultDeck(cfg.SlidePhoto)
	if err := deck.Validate(); err != nil {
		// Telegram will reject the photo as well; keep running so admin commands work
		logger.Warn("onboarding deck is invalid", "error", err)
	}

	userRepo := repository.NewUserRepository(db.DB)
	statsRepo := repository.NewStatsRepository(db.DB)
	exporter := export.NewExporter(userRepo, afero.NewOsFs(), cfg.ExportDir)

	b, err := bot.New(cfg.Token, cfg.AdminID, logger)
	if err != nil {
		return err
	}

	gate := handler.NewAdminGate(cfg.AdminID)
	sessions := handler.NewSessions()
	engine := broadcast.NewEngine(userRepo, bot.NewSender(b.API()), cfg.BroadcastDelay, logger)
	flow := onboarding.NewFlow(userRepo, deck, logger)

	// order matters: the content step catches any other admin message
	b.RegisterHandler(handler.NewStartHandler(flow))
	b.RegisterHandler(handler.NewStatsHandler(gate, exporter, userRepo, statsRepo, logger))
	b.RegisterHandler(handler.NewPushHandler(gate, sessions, logger))
	b.RegisterHandler(handler.NewPushContentHandler(gate, sessions, engine, logger))

	b.SendStartupNotification()

	b.Run(ctx)
	return nil
}
