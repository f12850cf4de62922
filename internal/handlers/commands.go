package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "gopkg.in/telegram-bot-api.v4"

	"alert-relay-go/internal/alerts"
	"alert-relay-go/internal/duration"
	"alert-relay-go/internal/match"
	"alert-relay-go/internal/models"
	"alert-relay-go/internal/router"
	"alert-relay-go/internal/silence"
	"alert-relay-go/internal/store"
)

// commandAPI is the slice of the Telegram client the command surface
// needs; narrowed for testing.
type commandAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	AnswerCallbackQuery(config tgbotapi.CallbackConfig) (tgbotapi.APIResponse, error)
}

// CommandBot serves the chat-invoked management commands and the
// Acknowledge button callbacks.
type CommandBot struct {
	bot      *tgbotapi.BotAPI
	api      commandAPI
	service  *alerts.Service
	silences *silence.Registry
	router   *router.Router
}

func NewCommandBot(bot *tgbotapi.BotAPI, service *alerts.Service, silences *silence.Registry, rt *router.Router) *CommandBot {
	return &CommandBot{
		bot:      bot,
		api:      bot,
		service:  service,
		silences: silences,
		router:   rt,
	}
}

// Run long-polls Telegram for updates until the stream closes.
func (b *CommandBot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.bot.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("failed to open update stream: %w", err)
	}

	for update := range updates {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *CommandBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *CommandBot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	actor := actorName(msg.From)
	args := strings.Fields(msg.CommandArguments())

	var reply string
	switch msg.Command() {
	case "silence":
		reply = b.cmdSilence(ctx, args, actor)
	case "silences":
		reply = b.cmdSilences(ctx)
	case "unsilence":
		reply = b.cmdUnsilence(ctx, args)
	case "ack":
		reply = b.cmdAck(ctx, args, actor)
	case "recent":
		reply = b.cmdRecent(ctx, args)
	case "stats":
		reply = b.cmdStats(ctx)
	default:
		reply = "Unknown command"
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		log.Printf("failed to send command reply: %v", err)
	}
}

func (b *CommandBot) cmdSilence(ctx context.Context, args []string, actor string) string {
	if len(args) < 1 {
		return "Usage: /silence <duration> [pattern]\nExample: /silence 30m disk"
	}

	pattern := strings.Join(args[1:], " ")
	sil, err := b.silences.Create(ctx, pattern, args[0], actor)
	switch {
	case errors.Is(err, duration.ErrInvalidDuration):
		return "Invalid duration format. Use e.g. 30s, 5m, 2h, 1d."
	case errors.Is(err, match.ErrInvalidPattern):
		return "Invalid pattern: not a valid regular expression."
	case err != nil:
		log.Printf("failed to create silence: %v", err)
		return "Failed to create silence."
	}

	shown := sil.Pattern
	if shown == "" {
		shown = "(all alerts)"
	}
	return fmt.Sprintf("Silence %s created for %s, expires %s", sil.ID, shown, formatMs(sil.ExpiresAtMs))
}

func (b *CommandBot) cmdSilences(ctx context.Context) string {
	silences, err := b.silences.ListActive(ctx)
	if err != nil {
		log.Printf("failed to list silences: %v", err)
		return "Failed to list silences."
	}
	if len(silences) == 0 {
		return "No active silences."
	}

	var lines []string
	for _, sil := range silences {
		pattern := sil.Pattern
		if pattern == "" {
			pattern = "(all alerts)"
		}
		lines = append(lines, fmt.Sprintf("%s — %s by %s, expires %s",
			sil.ID, pattern, sil.CreatedBy, formatMs(sil.ExpiresAtMs)))
	}
	return strings.Join(lines, "\n")
}

func (b *CommandBot) cmdUnsilence(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Usage: /unsilence <id>"
	}

	ok, err := b.silences.Delete(ctx, args[0])
	if err != nil {
		log.Printf("failed to delete silence: %v", err)
		return "Failed to delete silence."
	}
	if !ok {
		return "No active silence with that id."
	}
	return "Silence deleted."
}

func (b *CommandBot) cmdAck(ctx context.Context, args []string, actor string) string {
	if len(args) < 1 {
		return "Usage: /ack <alert-id or pattern>"
	}
	arg := strings.Join(args, " ")

	// Exact id first, pattern fallback.
	a, err := b.service.AcknowledgeByID(ctx, arg, actor)
	switch {
	case err == nil:
		return fmt.Sprintf("Acknowledged %s (%s)", a.ID, a.Title())
	case errors.Is(err, alerts.ErrAlreadyAcknowledged):
		return fmt.Sprintf("Already acknowledged by %s at %s", a.AcknowledgedBy, formatMs(a.AcknowledgedAtMs))
	case !errors.Is(err, store.ErrNotFound):
		log.Printf("failed to acknowledge %s: %v", arg, err)
		return "Failed to acknowledge."
	}

	acked, err := b.service.AcknowledgeByPattern(ctx, arg, actor)
	if errors.Is(err, match.ErrInvalidPattern) {
		return "Not an alert id and not a valid pattern."
	}
	if err != nil {
		log.Printf("failed to acknowledge by pattern %q: %v", arg, err)
		return "Failed to acknowledge."
	}
	if len(acked) == 0 {
		return "No matching unacknowledged alerts."
	}
	return fmt.Sprintf("Acknowledged %d alert(s).", len(acked))
}

func (b *CommandBot) cmdRecent(ctx context.Context, args []string) string {
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}

	recent, err := b.service.RecentAlerts(ctx, limit, true)
	if err != nil {
		log.Printf("failed to list recent alerts: %v", err)
		return "Failed to list recent alerts."
	}
	if len(recent) == 0 {
		return "No recent alerts."
	}

	var lines []string
	for _, a := range recent {
		lines = append(lines, fmt.Sprintf("%s %s — %s", alertMarker(a), a.ID, a.Title()))
	}
	return strings.Join(lines, "\n")
}

func (b *CommandBot) cmdStats(ctx context.Context) string {
	stats, err := b.router.Stats(ctx)
	if err != nil {
		log.Printf("failed to compute stats: %v", err)
		return "Failed to compute stats."
	}

	lines := []string{fmt.Sprintf("Last %d routing decisions:", stats.Total)}
	for _, action := range []string{models.ActionPass, models.ActionRedirect, models.ActionDrop, models.ActionEscalate} {
		if n := stats.ByAction[action]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %s: %d", action, n))
		}
	}
	for dest, n := range stats.ByDestination {
		lines = append(lines, fmt.Sprintf("  → %d: %d", dest, n))
	}
	return strings.Join(lines, "\n")
}

func (b *CommandBot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	id, ok := strings.CutPrefix(cb.Data, "ack:")
	if !ok {
		return
	}

	a, err := b.service.AcknowledgeByID(ctx, id, actorName(cb.From))
	var text string
	switch {
	case err == nil:
		text = "Acknowledged"
	case errors.Is(err, alerts.ErrAlreadyAcknowledged):
		text = "Already acknowledged by " + a.AcknowledgedBy
	case errors.Is(err, store.ErrNotFound):
		text = "Alert not found"
	default:
		log.Printf("failed to acknowledge %s from button: %v", id, err)
		text = "Acknowledge failed"
	}

	if _, err := b.api.AnswerCallbackQuery(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
}

func actorName(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}

func alertMarker(a models.Alert) string {
	switch {
	case a.Acknowledged:
		return "✅"
	case a.Silenced:
		return "🔇"
	default:
		return "🔔"
	}
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("Jan 02, 15:04:05 MST")
}
