package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Handler interface {
	CanHandle(update tgbotapi.Update) bool
	Handle(ctx context.Context, api API, update tgbotapi.Update) error
}

type Bot struct {
	api      *tgbotapi.BotAPI
	client   API
	handlers []Handler
	adminID  int64
	logger   *slog.Logger
}

func New(token string, adminID int64, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger = logger.With("component", "bot")
	logger.Info("authorized", "account", api.Self.UserName)

	return &Bot{
		api:      api,
		client:   api,
		handlers: make([]Handler, 0),
		adminID:  adminID,
		logger:   logger,
	}, nil
}

// API returns the Bot API client used to answer updates.
func (b *Bot) API() API {
	return b.client
}

func (b *Bot) RegisterHandler(h Handler) {
	b.handlers = append(b.handlers, h)
	b.logger.Info("registered handler", "handler", handlerName(h))
}

// SendStartupNotification tells the administrator that polling is about to start.
func (b *Bot) SendStartupNotification() {
	msg := tgbotapi.NewMessage(b.adminID, "🤖 Бот запущен")
	if _, err := b.client.Send(msg); err != nil {
		b.logger.Warn("failed to send startup notification", "admin_id", b.adminID, "error", err)
	}
}

// Run polls for updates until ctx is cancelled. Updates are handled one
// at a time in arrival order.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("starting bot", "handlers", len(b.handlers))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) bool {
	if update.Message != nil && update.Message.From != nil {
		b.logger.Info("message",
			"user_id", update.Message.From.ID,
			"username", update.Message.From.UserName,
			"text", update.Message.Text)
	}

	if update.Message == nil {
		b.logger.Debug("skipping update: no message")
		return false
	}

	for _, handler := range b.handlers {
		if !handler.CanHandle(update) {
			continue
		}
		if err := handler.Handle(ctx, b.client, update); err != nil {
			b.logger.Error("handler failed", "handler", handlerName(handler), "error", err)
		}
		return true
	}

	b.logger.Debug("no handler found for update")
	return false
}

func handlerName(h Handler) string {
	return fmt.Sprintf("%T", h)
}
