package alerts

import (
	"context"
	"errors"
	"log"

	"alert-relay-go/internal/match"
	"alert-relay-go/internal/models"
	"alert-relay-go/internal/notify"
	"alert-relay-go/internal/store"
)

// ErrAlreadyAcknowledged is returned when an alert is already in its
// terminal acknowledged state. Re-acknowledging is a no-op.
var ErrAlreadyAcknowledged = errors.New("already acknowledged")

// AcknowledgeByID marks one alert as handled, attributing actor and
// time, and re-renders its chat message. Returns store.ErrNotFound for
// unknown ids.
func (s *Service) AcknowledgeByID(ctx context.Context, id, actor string) (models.Alert, error) {
	a, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return models.Alert{}, err
	}
	if a.Acknowledged {
		return a, ErrAlreadyAcknowledged
	}

	ackedAt := s.clock.Now().UnixMilli()
	ok, err := s.store.AcknowledgeAlert(ctx, id, actor, ackedAt)
	if err != nil {
		return models.Alert{}, err
	}
	if !ok {
		// Lost the race against a concurrent acknowledger; return the
		// winner's record.
		a, err = s.store.GetAlert(ctx, id)
		if err != nil {
			return models.Alert{}, err
		}
		return a, ErrAlreadyAcknowledged
	}

	a.Acknowledged = true
	a.AcknowledgedBy = actor
	a.AcknowledgedAtMs = ackedAt
	s.metrics.Acknowledgments.Inc()

	if a.MessageID != 0 && a.ChannelID != 0 {
		if err := s.notifier.Edit(ctx, a.ChannelID, a.MessageID, notify.FormatAcknowledged(a)); err != nil {
			log.Printf("failed to re-render alert %s: %v", a.ID, err)
			s.metrics.DeliveryFailures.Inc()
		}
	}

	s.publish(ctx, store.EventAcknowledged, a)
	return a, nil
}

// AcknowledgeByPattern acknowledges every unacknowledged alert in the
// recent window whose search text matches the pattern. Per-alert
// failures are logged and do not stop the scan.
func (s *Service) AcknowledgeByPattern(ctx context.Context, pattern, actor string) ([]models.Alert, error) {
	re, err := match.Compile(pattern)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListRecentAlerts(ctx, s.recentWindow, false)
	if err != nil {
		return nil, err
	}

	var acked []models.Alert
	for _, a := range recent {
		if !re.MatchString(match.SearchText(a)) {
			continue
		}
		updated, err := s.AcknowledgeByID(ctx, a.ID, actor)
		if err != nil {
			// Raced with a concurrent acknowledgment; nothing to do.
			if errors.Is(err, ErrAlreadyAcknowledged) {
				continue
			}
			log.Printf("failed to acknowledge alert %s: %v", a.ID, err)
			continue
		}
		acked = append(acked, updated)
	}
	return acked, nil
}
