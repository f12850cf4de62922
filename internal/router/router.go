package router

import (
	"context"
	"strings"

	"alert-relay-go/internal/clock"
	"alert-relay-go/internal/metrics"
	"alert-relay-go/internal/models"
	"alert-relay-go/internal/store"
)

// DefaultRecentWindow bounds decision-log scans for stats and listings.
const DefaultRecentWindow = 100

type rule struct {
	name string
	eval func(a models.Alert) (models.RoutingDecision, bool)
}

// Router computes a routing decision per alert from an ordered rule
// set. Evaluation is a pure function of the alert and configuration;
// every decision is persisted to the audit log.
type Router struct {
	store        store.DecisionStore
	clock        clock.Clock
	metrics      *metrics.Metrics
	primaryChat  int64
	databaseChat int64
	recentWindow int
	rules        []rule
}

func New(s store.DecisionStore, c clock.Clock, m *metrics.Metrics, primaryChat, databaseChat int64, recentWindow int) *Router {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	r := &Router{
		store:        s,
		clock:        c,
		metrics:      m,
		primaryChat:  primaryChat,
		databaseChat: databaseChat,
		recentWindow: recentWindow,
	}
	r.rules = []rule{
		{name: "database-category", eval: r.databaseCategory},
	}
	return r
}

// Route evaluates rules in order; the first match wins, otherwise the
// alert passes to the primary channel. The decision is persisted
// before it is returned.
func (r *Router) Route(ctx context.Context, a models.Alert) (models.RoutingDecision, error) {
	d := models.RoutingDecision{
		AlertID:     a.ID,
		Action:      models.ActionPass,
		Destination: r.primaryChat,
		Reason:      "no rule matched, default route",
	}

	for _, rl := range r.rules {
		if dec, ok := rl.eval(a); ok {
			d = dec
			d.AlertID = a.ID
			break
		}
	}
	d.DecidedAtMs = r.clock.Now().UnixMilli()

	if err := r.store.SaveDecision(ctx, d); err != nil {
		return models.RoutingDecision{}, err
	}
	r.metrics.RoutingDecisions.WithLabelValues(d.Action).Inc()
	return d, nil
}

// databaseCategory redirects database-related alerts to the dedicated
// database channel.
func (r *Router) databaseCategory(a models.Alert) (models.RoutingDecision, bool) {
	service := strings.ToLower(a.Service())
	title := strings.ToLower(a.Title())

	if service == "db" || strings.Contains(service, "database") || strings.Contains(title, "database") {
		return models.RoutingDecision{
			Action:      models.ActionRedirect,
			Destination: r.databaseChat,
			Reason:      "database-category alert",
		}, true
	}
	return models.RoutingDecision{}, false
}

// RecentDecisions returns the latest n decisions, capped at the
// configured window.
func (r *Router) RecentDecisions(ctx context.Context, n int) ([]models.RoutingDecision, error) {
	if n <= 0 || n > r.recentWindow {
		n = r.recentWindow
	}
	return r.store.ListRecentDecisions(ctx, n)
}

// Stats aggregates the most recent decisions by action and
// destination.
func (r *Router) Stats(ctx context.Context) (models.RouteStats, error) {
	decisions, err := r.store.ListRecentDecisions(ctx, r.recentWindow)
	if err != nil {
		return models.RouteStats{}, err
	}

	stats := models.RouteStats{
		Total:         len(decisions),
		ByAction:      make(map[string]int),
		ByDestination: make(map[int64]int),
	}
	for _, d := range decisions {
		stats.ByAction[d.Action]++
		if d.Destination != 0 {
			stats.ByDestination[d.Destination]++
		}
	}
	return stats, nil
}
