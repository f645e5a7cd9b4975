package onboarding

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/slide-bot/internal/bot"
)

type Registry interface {
	Upsert(ctx context.Context, userID int64, username string) error
	MarkReachedEnd(ctx context.Context, userID int64) error
}

type Flow struct {
	users  Registry
	deck   Deck
	logger *slog.Logger
}

func NewFlow(users Registry, deck Deck, logger *slog.Logger) *Flow {
	return &Flow{
		users:  users,
		deck:   deck,
		logger: logger.With("component", "onboarding"),
	}
}

// Run registers user, shows the deck in chatID and marks the user as
// having reached the end. The mark is set even when a slide fails to
// send; storage errors abort the flow.
func (f *Flow) Run(ctx context.Context, api bot.API, chatID int64, user *tgbotapi.User) error {
	f.logger.Info("start", "user_id", user.ID, "username", user.UserName)

	if err := f.users.Upsert(ctx, user.ID, user.UserName); err != nil {
		return err
	}

	for i, slide := range f.deck {
		if err := sendSlide(api, chatID, slide); err != nil {
			f.logger.Error("failed to send slide", "chat_id", chatID, "slide", i, "error", err)
			continue
		}
		f.logger.Info("slide sent", "chat_id", chatID, "slide", i)
	}

	if err := f.users.MarkReachedEnd(ctx, user.ID); err != nil {
		return err
	}
	f.logger.Info("user reached end of slides", "user_id", user.ID)
	return nil
}

func sendSlide(api bot.API, chatID int64, slide Slide) error {
	// chat action failures are cosmetic
	_, _ = api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadPhoto))

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(slide.Photo))
	photo.Caption = slide.Caption
	photo.ParseMode = tgbotapi.ModeHTML
	if slide.ButtonText != "" {
		photo.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(slide.ButtonText, slide.URL)),
		)
	}

	_, err := api.Send(photo)
	return err
}
