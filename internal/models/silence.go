package models

import "time"

// Silence is a time-bounded suppression rule. Deactivation is soft so
// expired and deleted silences stay visible for audit.
type Silence struct {
	ID          string `json:"id"`
	Pattern     string `json:"pattern"`
	CreatedBy   string `json:"created_by"`
	CreatedAtMs int64  `json:"created_at_ms"`
	ExpiresAtMs int64  `json:"expires_at_ms"`
	Active      bool   `json:"active"`
}

// Expired reports whether the silence has passed its expiration,
// regardless of the stored active flag.
func (s Silence) Expired(now time.Time) bool {
	return s.ExpiresAtMs <= now.UnixMilli()
}
