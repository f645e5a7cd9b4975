package handler

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artur/slide-bot/internal/bot"
	"github.com/artur/slide-bot/internal/bot/bottest"
	"github.com/artur/slide-bot/internal/broadcast"
	"github.com/artur/slide-bot/internal/database"
	"github.com/artur/slide-bot/internal/database/repository"
	"github.com/artur/slide-bot/internal/export"
	"github.com/artur/slide-bot/internal/logging"
	"github.com/artur/slide-bot/internal/onboarding"
)

const adminID int64 = 100

type fixture struct {
	api      *bottest.FakeAPI
	users    *repository.UserRepository
	fs       afero.Fs
	exporter *countingExporter
	handlers []bot.Handler
}

// countingExporter counts Export calls on top of the real exporter.
type countingExporter struct {
	*export.Exporter
	calls int
}

func (c *countingExporter) Export(ctx context.Context) (string, error) {
	c.calls++
	return c.Exporter.Export(ctx)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, (&database.DB{DB: conn}).Migrate(context.Background()))

	log := logging.Discard()
	api := &bottest.FakeAPI{}
	users := repository.NewUserRepository(conn)
	stats := repository.NewStatsRepository(conn)
	fs := afero.NewMemMapFs()
	exporter := &countingExporter{Exporter: export.NewExporter(users, fs, "/exports")}

	gate := NewAdminGate(adminID)
	sessions := NewSessions()
	engine := broadcast.NewEngine(users, bot.NewSender(api), 0, log)
	flow := onboarding.NewFlow(users, onboarding.DefaultDeck("photos/foto.jpg"), log)

	return &fixture{
		api:      api,
		users:    users,
		fs:       fs,
		exporter: exporter,
		handlers: []bot.Handler{
			NewStartHandler(flow),
			NewStatsHandler(gate, exporter, users, stats, log),
			NewPushHandler(gate, sessions, log),
			NewPushContentHandler(gate, sessions, engine, log),
		},
	}
}

// send routes update through the handler chain the way the bot loop does.
func (f *fixture) send(t *testing.T, update tgbotapi.Update) error {
	t.Helper()
	for _, h := range f.handlers {
		if h.CanHandle(update) {
			return h.Handle(context.Background(), f.api, update)
		}
	}
	return nil
}

func (f *fixture) lastReply(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.api.Messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func TestStart_RegistersUserAndSendsSlide(t *testing.T) {
	f := newFixture(t)

	update := bottest.Command(42, "start")
	update.Message.From.UserName = "alice"
	require.NoError(t, f.send(t, update))

	user, err := f.users.GetByID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.ReachedEnd)
	assert.NotEmpty(t, user.DateAdded)

	photos := f.api.Photos()
	require.Len(t, photos, 1)
	assert.Equal(t, int64(42), photos[0].ChatID)
}

func TestStart_RepeatedContactKeepsSingleRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	update := bottest.Command(42, "start")
	update.Message.From.UserName = "first"
	require.NoError(t, f.send(t, update))
	first, err := f.users.GetByID(ctx, 42)
	require.NoError(t, err)

	update = bottest.Command(42, "start")
	update.Message.From.UserName = "renamed"
	require.NoError(t, f.send(t, update))
	second, err := f.users.GetByID(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, "renamed", second.Username)
	assert.Equal(t, first.DateAdded, second.DateAdded)

	total, err := f.users.GetTotalUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestStats_NonAdminRefused(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.send(t, bottest.Command(1, "stats")))

	assert.Equal(t, refusalText, f.lastReply(t).Text)
	assert.Zero(t, f.exporter.calls)
	assert.Empty(t, f.api.Documents())
}

func TestStats_AdminGetsSpreadsheet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.Upsert(ctx, 1, "a"))
	require.NoError(t, f.users.Upsert(ctx, 2, "b"))
	require.NoError(t, f.users.MarkReachedEnd(ctx, 2))

	require.NoError(t, f.send(t, bottest.Command(adminID, "stats")))

	docs := f.api.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, adminID, docs[0].ChatID)
	assert.Contains(t, docs[0].Caption, "Всего: 2")
	assert.Contains(t, docs[0].Caption, "Дошли до конца: 1")

	file, ok := docs[0].File.(tgbotapi.FileReader)
	require.True(t, ok, "expected FileReader, got %T", docs[0].File)
	assert.Equal(t, "stats.xlsx", file.Name)

	// registrations chart follows the document
	require.Len(t, f.api.Photos(), 1)

	// the temporary export is gone
	entries, err := afero.ReadDir(f.fs, "/exports")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStats_RemovesFileWhenSendFails(t *testing.T) {
	f := newFixture(t)
	f.api.FailFor = func(c tgbotapi.Chattable) error {
		if _, ok := c.(tgbotapi.DocumentConfig); ok {
			return errors.New("Request Entity Too Large")
		}
		return nil
	}

	err := f.send(t, bottest.Command(adminID, "stats"))
	require.Error(t, err)

	entries, err := afero.ReadDir(f.fs, "/exports")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPush_NonAdminRefused(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Upsert(context.Background(), 1, "a"))

	require.NoError(t, f.send(t, bottest.Command(1, "push")))
	assert.Equal(t, refusalText, f.lastReply(t).Text)

	// the follow-up message is not treated as broadcast content
	require.NoError(t, f.send(t, bottest.Text(1, "Hello")))
	assert.Len(t, f.api.Messages(), 1)
}

func TestPush_BroadcastReportsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, f.users.Upsert(ctx, id, ""))
	}
	f.api.FailFor = func(c tgbotapi.Chattable) error {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == 2 {
			return errors.New("Forbidden: bot was blocked by the user")
		}
		return nil
	}

	require.NoError(t, f.send(t, bottest.Command(adminID, "push")))
	assert.Equal(t, pushPromptText, f.lastReply(t).Text)

	require.NoError(t, f.send(t, bottest.Text(adminID, "Hello")))

	delivered := 0
	for _, m := range f.api.Messages() {
		if m.ChatID != adminID {
			assert.Equal(t, "Hello", m.Text)
			delivered++
		}
	}
	assert.Equal(t, 3, delivered)
	assert.Equal(t, "✅ Рассылка завершена!\n📤 Отправлено: 2\n❌ Ошибок: 1", f.lastReply(t).Text)

	// session is back to idle: the next message is not broadcast
	before := len(f.api.Sent())
	require.NoError(t, f.send(t, bottest.Text(adminID, "again")))
	assert.Len(t, f.api.Sent(), before)
}

func TestPush_PhotoBroadcast(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Upsert(context.Background(), 5, ""))

	require.NoError(t, f.send(t, bottest.Command(adminID, "push")))

	update := bottest.Text(adminID, "")
	update.Message.Caption = "New offer"
	update.Message.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}
	require.NoError(t, f.send(t, update))

	photos := f.api.Photos()
	require.Len(t, photos, 1)
	assert.Equal(t, int64(5), photos[0].ChatID)
	assert.Equal(t, tgbotapi.FileID("big"), photos[0].File)
	assert.Equal(t, "New offer", photos[0].Caption)
}

func TestPush_EmptyContentKeepsWaiting(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Upsert(context.Background(), 5, ""))

	require.NoError(t, f.send(t, bottest.Command(adminID, "push")))

	sticker := bottest.Text(adminID, "")
	sticker.Message.Sticker = &tgbotapi.Sticker{FileID: "sticker"}
	require.NoError(t, f.send(t, sticker))

	assert.Equal(t, pushEmptyText, f.lastReply(t).Text)
	for _, m := range f.api.Messages() {
		assert.NotEqual(t, int64(5), m.ChatID, "nothing must reach users")
	}

	require.NoError(t, f.send(t, bottest.Text(adminID, "Second try")))
	assert.Contains(t, f.lastReply(t).Text, "Отправлено: 1")
}

func TestPush_CommandsStillWorkWhileWaiting(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.send(t, bottest.Command(adminID, "push")))
	require.NoError(t, f.send(t, bottest.Command(adminID, "stats")))

	assert.Len(t, f.api.Documents(), 1)
	assert.Zero(t, len(f.api.Photos()))
}
