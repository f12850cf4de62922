package alerts

import (
	"context"
	"log"

	"alert-relay-go/internal/clock"
	"alert-relay-go/internal/metrics"
	"alert-relay-go/internal/models"
	"alert-relay-go/internal/notify"
	"alert-relay-go/internal/silence"
	"alert-relay-go/internal/store"
)

// DefaultRecentWindow bounds pattern-based acknowledgment scans.
const DefaultRecentWindow = 100

// receivedAtFormat is the human-readable received time recorded next
// to the numeric ingestion timestamp.
const receivedAtFormat = "Jan 02, 15:04:05 MST"

// EventPublisher pushes lifecycle events onto the live feed. May be
// nil when no feed is configured.
type EventPublisher interface {
	Publish(ctx context.Context, ev store.Event) error
}

// Router decides the action and destination for one alert.
type Router interface {
	Route(ctx context.Context, a models.Alert) (models.RoutingDecision, error)
}

// Service owns the alert lifecycle: ingestion through silencing,
// routing, delivery and acknowledgment. All state lives in the store;
// the service holds no mutable state of its own.
type Service struct {
	store        store.Store
	silences     *silence.Registry
	router       Router
	notifier     notify.Notifier
	events       EventPublisher
	clock        clock.Clock
	metrics      *metrics.Metrics
	recentWindow int
}

func NewService(st store.Store, silences *silence.Registry, rt Router, n notify.Notifier, events EventPublisher, c clock.Clock, m *metrics.Metrics, recentWindow int) *Service {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	return &Service{
		store:        st,
		silences:     silences,
		router:       rt,
		notifier:     n,
		events:       events,
		clock:        c,
		metrics:      m,
		recentWindow: recentWindow,
	}
}

// Ingest runs one payload through the full lifecycle: silence check,
// routing, delivery, persistence. Delivery failures are logged and the
// alert is kept without delivery metadata; only store failures abort.
func (s *Service) Ingest(ctx context.Context, payload map[string]any) (models.Alert, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	now := s.clock.Now()
	a := models.Alert{
		ID:          models.NewID(now),
		CreatedAtMs: now.UnixMilli(),
		ReceivedAt:  now.Format(receivedAtFormat),
		Payload:     payload,
	}

	sil, err := s.silences.Match(ctx, a)
	if err != nil {
		return models.Alert{}, err
	}

	var decision models.RoutingDecision
	if sil != nil {
		// Silenced alerts skip routing and delivery entirely.
		a.Silenced = true
		a.SilenceID = sil.ID
	} else {
		decision, err = s.router.Route(ctx, a)
		if err != nil {
			return models.Alert{}, err
		}
		a.RouteAction = decision.Action
		a.RouteDestination = decision.Destination
		a.RouteReason = decision.Reason
		a.RoutedAtMs = decision.DecidedAtMs
	}

	// Phase one: the record exists before any delivery attempt, so a
	// crash mid-delivery leaves a recorded alert without metadata.
	if err := s.store.SaveAlert(ctx, a); err != nil {
		return models.Alert{}, err
	}

	outcome := metrics.OutcomeSilenced
	switch {
	case sil != nil:
	case decision.Action == models.ActionDrop:
		outcome = metrics.OutcomeDropped
	default:
		messageID, err := s.notifier.Post(ctx, decision.Destination, notify.FormatAlert(a))
		if err != nil {
			log.Printf("failed to deliver alert %s: %v", a.ID, err)
			s.metrics.DeliveryFailures.Inc()
			outcome = metrics.OutcomeDeliveryFailed
			break
		}

		a.MessageID = messageID
		a.ChannelID = decision.Destination

		// Phase two: record where the message landed.
		if _, err := s.store.UpdateAlert(ctx, a.ID, map[string]any{
			"message_id": messageID,
			"channel_id": decision.Destination,
		}); err != nil {
			return models.Alert{}, err
		}
		outcome = metrics.OutcomeDelivered
	}

	s.metrics.AlertsIngested.WithLabelValues(outcome).Inc()
	s.publish(ctx, store.EventIngested, a)
	return a, nil
}

func (s *Service) publish(ctx context.Context, eventType string, a models.Alert) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, store.Event{Type: eventType, Alert: a}); err != nil {
		log.Printf("failed to publish %s event: %v", eventType, err)
	}
}

// RecentAlerts exposes the bounded recent listing for the command
// surface.
func (s *Service) RecentAlerts(ctx context.Context, limit int, includeAcked bool) ([]models.Alert, error) {
	if limit <= 0 || limit > s.recentWindow {
		limit = s.recentWindow
	}
	return s.store.ListRecentAlerts(ctx, limit, includeAcked)
}
