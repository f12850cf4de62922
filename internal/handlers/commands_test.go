package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tgbotapi "gopkg.in/telegram-bot-api.v4"

	"alert-relay-go/internal/alerts"
	"alert-relay-go/internal/metrics"
	"alert-relay-go/internal/router"
	"alert-relay-go/internal/silence"
	"alert-relay-go/internal/testutil"
)

// fakeAPI records outbound Telegram calls.
type fakeAPI struct {
	sent      []tgbotapi.Chattable
	callbacks []tgbotapi.CallbackConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) AnswerCallbackQuery(config tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error) {
	f.callbacks = append(f.callbacks, config)
	return tgbotapi.APIResponse{Ok: true}, nil
}

type botFixture struct {
	bot      *CommandBot
	api      *fakeAPI
	service  *alerts.Service
	silences *silence.Registry
	store    *testutil.MemStore
	notifier *testutil.FakeNotifier
	clock    *testutil.FakeClock
}

func newBotFixture() *botFixture {
	st := testutil.NewMemStore()
	clk := testutil.NewFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	m := metrics.New(prometheus.NewRegistry())
	silences := silence.NewRegistry(st, clk)
	rt := router.New(st, clk, m, primaryChat, databaseChat, 100)
	notifier := &testutil.FakeNotifier{}
	service := alerts.NewService(st, silences, rt, notifier, nil, clk, m, 100)
	api := &fakeAPI{}

	return &botFixture{
		bot: &CommandBot{
			api:      api,
			service:  service,
			silences: silences,
			router:   rt,
		},
		api:      api,
		service:  service,
		silences: silences,
		store:    st,
		notifier: notifier,
		clock:    clk,
	}
}

func (f *botFixture) command(t *testing.T, text string) string {
	t.Helper()
	before := len(f.api.sent)
	// Telegram marks the leading /command with a bot_command entity;
	// IsCommand and Command read it rather than the raw text.
	cmd := strings.Fields(text)[0]
	f.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Entities: &[]tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(cmd)},
		},
		Chat: &tgbotapi.Chat{ID: 42},
		From: &tgbotapi.User{UserName: "alice"},
	}})
	require.Len(t, f.api.sent, before+1)
	cfg, ok := f.api.sent[before].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), cfg.ChatID)
	return cfg.Text
}

func TestSilenceCommand(t *testing.T) {
	f := newBotFixture()

	reply := f.command(t, "/silence 30m disk")
	assert.Contains(t, reply, "created")
	assert.Contains(t, reply, "disk")

	active, err := f.silences.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "disk", active[0].Pattern)
	assert.Equal(t, "alice", active[0].CreatedBy)
}

func TestSilenceCommandInvalidDuration(t *testing.T) {
	f := newBotFixture()

	reply := f.command(t, "/silence 30x disk")
	assert.Contains(t, reply, "Invalid duration")

	active, err := f.silences.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSilenceCommandUsage(t *testing.T) {
	f := newBotFixture()

	reply := f.command(t, "/silence")
	assert.Contains(t, reply, "Usage:")
}

func TestSilencesCommand(t *testing.T) {
	f := newBotFixture()

	assert.Equal(t, "No active silences.", f.command(t, "/silences"))

	f.command(t, "/silence 1h")
	reply := f.command(t, "/silences")
	assert.Contains(t, reply, "(all alerts)")
	assert.Contains(t, reply, "alice")
}

func TestUnsilenceCommand(t *testing.T) {
	f := newBotFixture()

	sil, err := f.silences.Create(context.Background(), "disk", "1h", "ops")
	require.NoError(t, err)

	assert.Equal(t, "Silence deleted.", f.command(t, "/unsilence "+sil.ID))
	assert.Equal(t, "No active silence with that id.", f.command(t, "/unsilence "+sil.ID))
}

func TestAckCommandByID(t *testing.T) {
	f := newBotFixture()

	a, err := f.service.Ingest(context.Background(), map[string]any{"title": "High CPU", "service": "api"})
	require.NoError(t, err)

	reply := f.command(t, "/ack "+a.ID)
	assert.Contains(t, reply, "Acknowledged "+a.ID)

	stored, _ := f.store.StoredAlert(a.ID)
	assert.True(t, stored.Acknowledged)
	assert.Equal(t, "alice", stored.AcknowledgedBy)
}

func TestAckCommandAlreadyAcknowledged(t *testing.T) {
	f := newBotFixture()

	a, err := f.service.Ingest(context.Background(), map[string]any{"title": "x", "service": "api"})
	require.NoError(t, err)
	_, err = f.service.AcknowledgeByID(context.Background(), a.ID, "bob")
	require.NoError(t, err)

	reply := f.command(t, "/ack "+a.ID)
	assert.Contains(t, reply, "Already acknowledged by bob")
}

func TestAckCommandPatternFallback(t *testing.T) {
	f := newBotFixture()

	_, err := f.service.Ingest(context.Background(), map[string]any{"title": "disk a", "service": "api"})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.service.Ingest(context.Background(), map[string]any{"title": "disk b", "service": "api"})
	require.NoError(t, err)

	assert.Equal(t, "Acknowledged 2 alert(s).", f.command(t, "/ack disk"))
}

func TestAckCommandNoMatch(t *testing.T) {
	f := newBotFixture()

	assert.Equal(t, "No matching unacknowledged alerts.", f.command(t, "/ack nothing"))
}

func TestAckCallback(t *testing.T) {
	f := newBotFixture()

	a, err := f.service.Ingest(context.Background(), map[string]any{"title": "x", "service": "api"})
	require.NoError(t, err)

	f.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		Data: "ack:" + a.ID,
		From: &tgbotapi.User{UserName: "alice"},
	}})

	require.Len(t, f.api.callbacks, 1)
	assert.Equal(t, "cb1", f.api.callbacks[0].CallbackQueryID)
	assert.Equal(t, "Acknowledged", f.api.callbacks[0].Text)

	stored, _ := f.store.StoredAlert(a.ID)
	assert.True(t, stored.Acknowledged)
	assert.Equal(t, "alice", stored.AcknowledgedBy)
}

func TestAckCallbackUnknownAlert(t *testing.T) {
	f := newBotFixture()

	f.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb2",
		Data: "ack:no-such-id",
		From: &tgbotapi.User{UserName: "alice"},
	}})

	require.Len(t, f.api.callbacks, 1)
	assert.Equal(t, "Alert not found", f.api.callbacks[0].Text)
}

func TestAckCallbackForeignDataIgnored(t *testing.T) {
	f := newBotFixture()

	f.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb3",
		Data: "something-else",
	}})

	assert.Empty(t, f.api.callbacks)
}

func TestRecentCommand(t *testing.T) {
	f := newBotFixture()

	assert.Equal(t, "No recent alerts.", f.command(t, "/recent"))

	a, err := f.service.Ingest(context.Background(), map[string]any{"title": "cpu high", "service": "api"})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.silences.Create(context.Background(), "disk", "1h", "ops")
	require.NoError(t, err)
	silenced, err := f.service.Ingest(context.Background(), map[string]any{"title": "disk full"})
	require.NoError(t, err)
	_, err = f.service.AcknowledgeByID(context.Background(), a.ID, "bob")
	require.NoError(t, err)

	reply := f.command(t, "/recent")
	assert.Contains(t, reply, "✅ "+a.ID)
	assert.Contains(t, reply, "🔇 "+silenced.ID)
}

func TestStatsCommand(t *testing.T) {
	f := newBotFixture()

	_, err := f.service.Ingest(context.Background(), map[string]any{"title": "cpu", "service": "api"})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.service.Ingest(context.Background(), map[string]any{"title": "replication", "service": "database"})
	require.NoError(t, err)

	reply := f.command(t, "/stats")
	assert.Contains(t, reply, "Last 2 routing decisions:")
	assert.Contains(t, reply, "PASS: 1")
	assert.Contains(t, reply, "REDIRECT: 1")
}

func TestUnknownCommand(t *testing.T) {
	f := newBotFixture()

	assert.Equal(t, "Unknown command", f.command(t, "/bogus"))
}

func TestPlainMessageIgnored(t *testing.T) {
	f := newBotFixture()

	f.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "just chatting",
		Chat: &tgbotapi.Chat{ID: 42},
	}})
	assert.Empty(t, f.api.sent)
}
