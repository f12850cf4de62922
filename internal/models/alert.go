package models

import "strconv"

// Alert is the durable record of one ingested webhook payload.
// Core fields are set once at ingestion; only acknowledgment mutates
// the record afterwards.
type Alert struct {
	ID          string         `json:"id"`
	CreatedAtMs int64          `json:"created_at_ms"`
	ReceivedAt  string         `json:"received_at"`
	Payload     map[string]any `json:"payload"`

	Silenced  bool   `json:"silenced"`
	SilenceID string `json:"silence_id,omitempty"`

	Acknowledged     bool   `json:"acknowledged"`
	AcknowledgedBy   string `json:"acknowledged_by,omitempty"`
	AcknowledgedAtMs int64  `json:"acknowledged_at_ms,omitempty"`

	// Delivery metadata, set only when a chat message was actually posted.
	MessageID int   `json:"message_id,omitempty"`
	ChannelID int64 `json:"channel_id,omitempty"`

	// Routing decision snapshot, empty when the alert was silenced.
	RouteAction      string `json:"route_action,omitempty"`
	RouteDestination int64  `json:"route_destination,omitempty"`
	RouteReason      string `json:"route_reason,omitempty"`
	RoutedAtMs       int64  `json:"routed_at_ms,omitempty"`
}

// Candidate payload keys per logical attribute, in precedence order.
// Sources disagree on field names; the first non-empty candidate wins.
var (
	TitleKeys       = []string{"title", "subject"}
	DescriptionKeys = []string{"description", "message", "body"}
	SeverityKeys    = []string{"severity", "level"}
	ServiceKeys     = []string{"service"}
	HostnameKeys    = []string{"hostname", "host"}
	SourceKeys      = []string{"source"}
	URLKeys         = []string{"url"}
)

// Field resolves the first non-empty candidate key from the payload.
func (a Alert) Field(candidates ...string) string {
	for _, key := range candidates {
		if v, ok := a.Payload[key]; ok {
			if s := payloadString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func (a Alert) Title() string       { return a.Field(TitleKeys...) }
func (a Alert) Description() string { return a.Field(DescriptionKeys...) }
func (a Alert) Severity() string    { return a.Field(SeverityKeys...) }
func (a Alert) Service() string     { return a.Field(ServiceKeys...) }
func (a Alert) Hostname() string    { return a.Field(HostnameKeys...) }
func (a Alert) Source() string      { return a.Field(SourceKeys...) }
func (a Alert) URL() string         { return a.Field(URLKeys...) }

func payloadString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		// json numbers
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
