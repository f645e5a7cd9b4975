// Package bottest provides an in-memory Bot API for handler tests.
package bottest

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// FakeAPI records every Chattable passed to Send or Request.
type FakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable

	// Err is returned by every call when FailFor is nil.
	Err error
	// FailFor returns a per-call error; it takes precedence over Err.
	FailFor func(c tgbotapi.Chattable) error
}

func (f *FakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, f.record(c)
}

func (f *FakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := f.record(c); err != nil {
		return nil, err
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *FakeAPI) record(c tgbotapi.Chattable) error {
	f.mu.Lock()
	f.sent = append(f.sent, c)
	f.mu.Unlock()

	if f.FailFor != nil {
		return f.FailFor(c)
	}
	return f.Err
}

// Sent returns a copy of everything recorded so far.
func (f *FakeAPI) Sent() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.sent...)
}

// Messages returns the recorded text messages.
func (f *FakeAPI) Messages() []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range f.Sent() {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

// Photos returns the recorded photo messages.
func (f *FakeAPI) Photos() []tgbotapi.PhotoConfig {
	var out []tgbotapi.PhotoConfig
	for _, c := range f.Sent() {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

// Documents returns the recorded document messages.
func (f *FakeAPI) Documents() []tgbotapi.DocumentConfig {
	var out []tgbotapi.DocumentConfig
	for _, c := range f.Sent() {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

// Command builds an update carrying a bot command from userID.
func Command(userID int64, command string) tgbotapi.Update {
	text := "/" + command
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			From: &tgbotapi.User{ID: userID, UserName: "user"},
			Chat: &tgbotapi.Chat{ID: userID},
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(text)},
			},
		},
	}
}

// Text builds a plain text update from userID.
func Text(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			From: &tgbotapi.User{ID: userID, UserName: "user"},
			Chat: &tgbotapi.Chat{ID: userID},
		},
	}
}
