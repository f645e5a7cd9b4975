package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/slide-bot/internal/bot"
	"github.com/artur/slide-bot/internal/broadcast"
)

const (
	pushPromptText = "📢 Чтобы сделать рассылку, отправь текст и/или фото."
	pushEmptyText  = "❌ Добавь текст или фото для рассылки."
)

type Broadcaster interface {
	Run(ctx context.Context, content broadcast.Content) (broadcast.Report, error)
}

// PushHandler starts a broadcast: it puts the administrator into the
// waiting-for-content state.
type PushHandler struct {
	gate     AdminGate
	sessions *Sessions
	logger   *slog.Logger
}

func NewPushHandler(gate AdminGate, sessions *Sessions, logger *slog.Logger) *PushHandler {
	return &PushHandler{
		gate:     gate,
		sessions: sessions,
		logger:   logger.With("component", "push"),
	}
}

func (h *PushHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "push")
}

func (h *PushHandler) Handle(_ context.Context, api bot.API, update tgbotapi.Update) error {
	msg := update.Message
	if ok, err := h.gate.guard(api, msg, "push", h.logger); !ok {
		return err
	}

	h.sessions.Set(msg.From.ID, PushWaitingContent)
	h.logger.Info("broadcast requested", "admin_id", msg.From.ID)
	return reply(api, msg, pushPromptText)
}

// PushContentHandler takes the administrator's next message as the
// broadcast content and runs the broadcast.
type PushContentHandler struct {
	gate        AdminGate
	sessions    *Sessions
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewPushContentHandler(gate AdminGate, sessions *Sessions, broadcaster Broadcaster, logger *slog.Logger) *PushContentHandler {
	return &PushContentHandler{
		gate:        gate,
		sessions:    sessions,
		broadcaster: broadcaster,
		logger:      logger.With("component", "push"),
	}
}

func (h *PushContentHandler) CanHandle(update tgbotapi.Update) bool {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return false
	}
	return h.gate.Allow(msg.From.ID) && h.sessions.Get(msg.From.ID) == PushWaitingContent
}

func (h *PushContentHandler) Handle(ctx context.Context, api bot.API, update tgbotapi.Update) error {
	msg := update.Message

	report, err := h.broadcaster.Run(ctx, contentFrom(msg))
	if errors.Is(err, broadcast.ErrEmptyContent) {
		// stay in the waiting state so the admin can try again
		return reply(api, msg, pushEmptyText)
	}
	h.sessions.Clear(msg.From.ID)
	if err != nil {
		return fmt.Errorf("broadcast failed: %w", err)
	}

	return reply(api, msg, formatReport(report))
}

func contentFrom(msg *tgbotapi.Message) broadcast.Content {
	text := msg.Caption
	if text == "" {
		text = msg.Text
	}

	var photo string
	if n := len(msg.Photo); n > 0 {
		// sizes are ordered smallest first
		photo = msg.Photo[n-1].FileID
	}

	return broadcast.Content{Text: text, PhotoFileID: photo}
}

func formatReport(r broadcast.Report) string {
	return fmt.Sprintf("✅ Рассылка завершена!\n📤 Отправлено: %d\n❌ Ошибок: %d", r.Sent, r.Failed)
}
