package handler

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/slide-bot/internal/bot"
)

const refusalText = "⛔ У тебя нет прав."

// AdminGate admits a single configured administrator.
type AdminGate struct {
	adminID int64
}

func NewAdminGate(adminID int64) AdminGate {
	return AdminGate{adminID: adminID}
}

func (g AdminGate) Allow(userID int64) bool {
	return userID == g.adminID
}

// guard reports whether msg comes from the administrator. Anyone else
// gets the refusal reply and a warning in the log.
func (g AdminGate) guard(api bot.API, msg *tgbotapi.Message, command string, logger *slog.Logger) (bool, error) {
	if msg.From != nil && g.Allow(msg.From.ID) {
		return true, nil
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	logger.Warn("admin command denied", "command", command, "user_id", userID)
	return false, reply(api, msg, refusalText)
}

func reply(api bot.API, msg *tgbotapi.Message, text string) error {
	_, err := api.Send(tgbotapi.NewMessage(msg.Chat.ID, text))
	return err
}

func isCommand(update tgbotapi.Update, name string) bool {
	return update.Message != nil && update.Message.IsCommand() && update.Message.Command() == name
}
