package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"alert-relay-go/internal/models"
)

func TestFormatAlertFullPayload(t *testing.T) {
	a := models.Alert{
		ID:         "a1",
		ReceivedAt: "Mar 14, 12:00:00 UTC",
		Payload: map[string]any{
			"title":       "DB disk full",
			"description": "Volume at 97%",
			"severity":    "critical",
			"service":     "postgres",
			"hostname":    "db-01",
			"source":      "node_exporter",
			"url":         "https://grafana.example.com/d/abc",
		},
	}

	msg := FormatAlert(a)

	assert.Equal(t, "a1", msg.AlertID)
	lines := strings.Split(msg.Text, "\n")
	assert.Equal(t, "🔴 CRITICAL — DB disk full", lines[0])
	assert.Contains(t, msg.Text, "📝 Volume at 97%")
	assert.Contains(t, msg.Text, "🔧 Service: postgres")
	assert.Contains(t, msg.Text, "🖥 Host: db-01")
	assert.Contains(t, msg.Text, "📡 Source: node_exporter")
	assert.Contains(t, msg.Text, "🔗 https://grafana.example.com/d/abc")
	assert.Contains(t, msg.Text, "🕒 Received: Mar 14, 12:00:00 UTC")
}

func TestFormatAlertDefaults(t *testing.T) {
	msg := FormatAlert(models.Alert{ID: "a2", Payload: map[string]any{}})

	lines := strings.Split(msg.Text, "\n")
	assert.Equal(t, "🔵 INFO — Alert", lines[0])
	assert.NotContains(t, msg.Text, "📝")
	assert.NotContains(t, msg.Text, "Service:")
}

func TestFormatAlertSeverityEmoji(t *testing.T) {
	cases := []struct {
		severity string
		emoji    string
	}{
		{"critical", "🔴"},
		{"FATAL", "🔴"},
		{"error", "🔴"},
		{"warning", "🟡"},
		{"warn", "🟡"},
		{"info", "🔵"},
		{"debug", "🔵"},
	}
	for _, tc := range cases {
		msg := FormatAlert(models.Alert{Payload: map[string]any{"severity": tc.severity}})
		assert.True(t, strings.HasPrefix(msg.Text, tc.emoji), "severity %q", tc.severity)
	}
}

func TestFormatAcknowledged(t *testing.T) {
	a := models.Alert{
		ID:               "a3",
		ReceivedAt:       "Mar 14, 12:00:00 UTC",
		Acknowledged:     true,
		AcknowledgedBy:   "alice",
		AcknowledgedAtMs: 1773500400000,
		Payload:          map[string]any{"title": "High CPU", "service": "api"},
	}

	msg := FormatAcknowledged(a)

	// No button on the re-rendered message.
	assert.Empty(t, msg.AlertID)
	lines := strings.Split(msg.Text, "\n")
	assert.Equal(t, "✅ ACKNOWLEDGED — High CPU", lines[0])
	assert.Contains(t, msg.Text, "👤 Acknowledged by alice at ")
	assert.Contains(t, msg.Text, "🕒 Received: Mar 14, 12:00:00 UTC")
}
