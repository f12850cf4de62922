package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alert-relay-go/internal/models"
)

func alertWith(payload map[string]any) models.Alert {
	return models.Alert{ID: "a1", Payload: payload}
}

func TestSearchTextPrecedence(t *testing.T) {
	a := alertWith(map[string]any{
		"title":       "DB disk full",
		"subject":     "ignored",
		"message":     "volume at 98%",
		"description": "disk almost out of space",
		"level":       "critical",
		"service":     "database",
		"host":        "db-01",
		"source":      "node-exporter",
	})
	got := SearchText(a)
	assert.Equal(t, "DB disk full disk almost out of space critical database db-01 node-exporter", got)
}

func TestSearchTextFallbackKeys(t *testing.T) {
	a := alertWith(map[string]any{
		"subject": "backup failed",
		"body":    "nightly job",
		"level":   "warning",
	})
	assert.Equal(t, "backup failed nightly job warning", SearchText(a))
}

func TestSearchTextEmptyPayload(t *testing.T) {
	assert.Equal(t, "", SearchText(alertWith(map[string]any{})))
}

func TestMatchesCaseInsensitive(t *testing.T) {
	a := alertWith(map[string]any{"title": "Disk Full on db-01"})

	ok, err := Matches("disk", a)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches("DISK FULL", a)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches("network", a)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesEmptyPatternMatchesAll(t *testing.T) {
	ok, err := Matches("", alertWith(map[string]any{"title": "anything"}))
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchesRegexSyntax(t *testing.T) {
	a := alertWith(map[string]any{"title": "latency p99 high", "service": "api"})
	ok, err := Matches(`p9[59]\s+high`, a)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestCompileInvalidPattern(t *testing.T) {
	_, err := Compile("[unclosed")
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Matches("(bad", alertWith(nil))
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
