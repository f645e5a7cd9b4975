package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/afero"

	"github.com/artur/slide-bot/internal/bot"
	"github.com/artur/slide-bot/internal/database/models"
	"github.com/artur/slide-bot/internal/export"
)

type StatsExporter interface {
	Export(ctx context.Context) (string, error)
	Open(path string) (afero.File, error)
	Remove(path string) error
}

type UserCounter interface {
	GetTotalUsers(ctx context.Context) (int64, error)
}

type StatsReader interface {
	CountReachedEnd(ctx context.Context) (int64, error)
	RegistrationsByDay(ctx context.Context) ([]models.DayCount, error)
}

// StatsHandler sends the administrator a spreadsheet of all users.
type StatsHandler struct {
	gate     AdminGate
	exporter StatsExporter
	users    UserCounter
	stats    StatsReader
	logger   *slog.Logger
}

func NewStatsHandler(gate AdminGate, exporter StatsExporter, users UserCounter, stats StatsReader, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		gate:     gate,
		exporter: exporter,
		users:    users,
		stats:    stats,
		logger:   logger.With("component", "stats"),
	}
}

func (h *StatsHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "stats")
}

func (h *StatsHandler) Handle(ctx context.Context, api bot.API, update tgbotapi.Update) error {
	msg := update.Message
	if ok, err := h.gate.guard(api, msg, "stats", h.logger); !ok {
		return err
	}

	total, err := h.users.GetTotalUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	reachedEnd, err := h.stats.CountReachedEnd(ctx)
	if err != nil {
		return fmt.Errorf("failed to count completed users: %w", err)
	}

	path, err := h.exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("failed to export stats: %w", err)
	}
	defer func() {
		if err := h.exporter.Remove(path); err != nil {
			h.logger.Warn("failed to remove export", "path", path, "error", err)
		}
	}()

	file, err := h.exporter.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer file.Close()

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileReader{Name: "stats.xlsx", Reader: file})
	doc.Caption = formatStatsCaption(total, reachedEnd)
	if _, err := api.Send(doc); err != nil {
		return fmt.Errorf("failed to send stats document: %w", err)
	}

	h.sendChart(ctx, api, msg.Chat.ID)

	h.logger.Info("stats sent", "admin_id", msg.From.ID, "users", total)
	return nil
}

// sendChart attaches the registrations chart; failures are only logged.
func (h *StatsHandler) sendChart(ctx context.Context, api bot.API, chatID int64) {
	days, err := h.stats.RegistrationsByDay(ctx)
	if err != nil {
		h.logger.Error("failed to load registrations", "error", err)
		return
	}

	png, err := export.RenderRegistrationsChart(days)
	if errors.Is(err, export.ErrNoData) {
		return
	}
	if err != nil {
		h.logger.Error("failed to render chart", "error", err)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "registrations.png", Bytes: png})
	if _, err := api.Send(photo); err != nil {
		h.logger.Error("failed to send chart", "error", err)
	}
}

func formatStatsCaption(total, reachedEnd int64) string {
	return fmt.Sprintf("📊 Статистика пользователей\nВсего: %d\nДошли до конца: %d", total, reachedEnd)
}
