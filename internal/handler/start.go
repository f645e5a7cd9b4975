package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/slide-bot/internal/bot"
)

type Onboarder interface {
	Run(ctx context.Context, api bot.API, chatID int64, user *tgbotapi.User) error
}

type StartHandler struct {
	flow Onboarder
}

func NewStartHandler(flow Onboarder) *StartHandler {
	return &StartHandler{flow: flow}
}

func (h *StartHandler) CanHandle(update tgbotapi.Update) bool {
	return isCommand(update, "start")
}

func (h *StartHandler) Handle(ctx context.Context, api bot.API, update tgbotapi.Update) error {
	if update.Message.From == nil {
		return nil
	}
	return h.flow.Run(ctx, api, update.Message.Chat.ID, update.Message.From)
}
