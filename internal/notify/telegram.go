package notify

import (
	"context"
	"fmt"

	tgbotapi "gopkg.in/telegram-bot-api.v4"
)

const maxMsgLength = 4096

// Message is a formatted chat message ready to post or edit.
type Message struct {
	Text string
	// AlertID attaches an Acknowledge button carrying the alert id
	// as callback data. Empty means no button.
	AlertID string
}

// Notifier posts and edits chat messages. Both calls are best-effort
// network operations with a bounded timeout.
type Notifier interface {
	Post(ctx context.Context, chatID int64, msg Message) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, msg Message) error
}

// BotAPI is the slice of the Telegram client the notifier needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	Bot BotAPI
}

// NewTelegramNotifier wraps a Telegram client. The caller configures
// the client's HTTP timeout so outbound calls cannot hang an
// ingestion request.
func NewTelegramNotifier(bot BotAPI) *TelegramNotifier {
	return &TelegramNotifier{Bot: bot}
}

func (t *TelegramNotifier) Post(ctx context.Context, chatID int64, msg Message) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m := tgbotapi.NewMessage(chatID, clipMessage(msg.Text))
	if msg.AlertID != "" {
		m.ReplyMarkup = ackKeyboard(msg.AlertID)
	}

	sent, err := t.Bot.Send(m)
	if err != nil {
		return 0, fmt.Errorf("failed to post message: %w", err)
	}
	return sent.MessageID, nil
}

func (t *TelegramNotifier) Edit(ctx context.Context, chatID int64, messageID int, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Editing without a reply markup drops the Acknowledge button.
	edit := tgbotapi.NewEditMessageText(chatID, messageID, clipMessage(msg.Text))
	if msg.AlertID != "" {
		kb := ackKeyboard(msg.AlertID)
		edit.ReplyMarkup = &kb
	}

	if _, err := t.Bot.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func ackKeyboard(alertID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Acknowledge", "ack:"+alertID),
		),
	)
}

func clipMessage(text string) string {
	if len(text) <= maxMsgLength {
		return text
	}
	cut := maxMsgLength - 1
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut] + "…"
}
