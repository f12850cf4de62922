package models

// Routing actions.
const (
	ActionPass     = "PASS"
	ActionDrop     = "DROP"
	ActionRedirect = "REDIRECT"
	// ActionEscalate is reserved for paging integration; no rule
	// produces it yet.
	ActionEscalate = "ESCALATE"
)

// RoutingDecision is the immutable audit record of one routing
// evaluation. Destination is zero for DROP.
type RoutingDecision struct {
	ID          int64  `json:"id"`
	AlertID     string `json:"alert_id"`
	Action      string `json:"action"`
	Destination int64  `json:"destination,omitempty"`
	Reason      string `json:"reason"`
	DecidedAtMs int64  `json:"decided_at_ms"`
}

// RouteStats aggregates recent decisions by action and destination.
type RouteStats struct {
	Total         int            `json:"total"`
	ByAction      map[string]int `json:"by_action"`
	ByDestination map[int64]int  `json:"by_destination"`
}
