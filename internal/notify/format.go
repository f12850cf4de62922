package notify

import (
	"fmt"
	"strings"
	"time"

	"alert-relay-go/internal/models"
)

const (
	criticalEmoji = "🔴"
	warningEmoji  = "🟡"
	infoEmoji     = "🔵"
	ackedEmoji    = "✅"
)

func severityEmoji(severity string) string {
	switch strings.ToLower(severity) {
	case "critical", "fatal", "error":
		return criticalEmoji
	case "warning", "warn":
		return warningEmoji
	default:
		return infoEmoji
	}
}

// FormatAlert renders the notification for a freshly routed alert,
// with an Acknowledge button attached.
func FormatAlert(a models.Alert) Message {
	severity := a.Severity()
	if severity == "" {
		severity = "info"
	}

	title := a.Title()
	if title == "" {
		title = "Alert"
	}

	lines := []string{
		fmt.Sprintf("%s %s — %s", severityEmoji(severity), strings.ToUpper(severity), title),
	}
	if v := a.Description(); v != "" {
		lines = append(lines, "📝 "+v)
	}
	if v := a.Service(); v != "" {
		lines = append(lines, "🔧 Service: "+v)
	}
	if v := a.Hostname(); v != "" {
		lines = append(lines, "🖥 Host: "+v)
	}
	if v := a.Source(); v != "" {
		lines = append(lines, "📡 Source: "+v)
	}
	if v := a.URL(); v != "" {
		lines = append(lines, "🔗 "+v)
	}
	lines = append(lines, "🕒 Received: "+a.ReceivedAt)

	return Message{Text: strings.Join(lines, "\n"), AlertID: a.ID}
}

// FormatAcknowledged re-renders a delivered alert after
// acknowledgment: success indicator, acknowledger and time appended,
// no button.
func FormatAcknowledged(a models.Alert) Message {
	title := a.Title()
	if title == "" {
		title = "Alert"
	}

	ackedAt := time.UnixMilli(a.AcknowledgedAtMs).UTC().Format("Jan 02, 15:04:05 MST")

	lines := []string{
		fmt.Sprintf("%s ACKNOWLEDGED — %s", ackedEmoji, title),
	}
	if v := a.Description(); v != "" {
		lines = append(lines, "📝 "+v)
	}
	if v := a.Service(); v != "" {
		lines = append(lines, "🔧 Service: "+v)
	}
	lines = append(lines,
		"🕒 Received: "+a.ReceivedAt,
		fmt.Sprintf("👤 Acknowledged by %s at %s", a.AcknowledgedBy, ackedAt),
	)

	return Message{Text: strings.Join(lines, "\n")}
}
