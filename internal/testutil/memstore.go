// Package testutil provides in-memory fakes for store, clock and
// notifier dependencies so component tests run without Postgres,
// Redis or Telegram.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"alert-relay-go/internal/models"
	"alert-relay-go/internal/notify"
	"alert-relay-go/internal/store"
)

// MemStore is an in-memory store.Store with the same partial-update
// and lazy-expiry semantics as the Postgres implementation.
type MemStore struct {
	mu sync.Mutex

	alerts     map[string]models.Alert
	alertOrder []string
	silences   map[string]models.Silence
	silOrder   []string
	decisions  []models.RoutingDecision
	nextDecID  int64

	// Failure injection.
	SaveAlertErr    error
	SaveSilenceErr  error
	SaveDecisionErr error
	ListAlertsErr   error
	UpdateErrFor    map[string]error
}

func NewMemStore() *MemStore {
	return &MemStore{
		alerts:       make(map[string]models.Alert),
		silences:     make(map[string]models.Silence),
		UpdateErrFor: make(map[string]error),
	}
}

func (m *MemStore) SaveAlert(ctx context.Context, a models.Alert) error {
	if m.SaveAlertErr != nil {
		return m.SaveAlertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[a.ID] = a
	m.alertOrder = append(m.alertOrder, a.ID)
	return nil
}

func (m *MemStore) UpdateAlert(ctx context.Context, id string, fields map[string]any) (bool, error) {
	if err := m.UpdateErrFor[id]; err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok {
		return false, nil
	}
	for name, value := range fields {
		switch name {
		case "silenced":
			a.Silenced = value.(bool)
		case "silence_id":
			a.SilenceID = value.(string)
		case "acknowledged":
			a.Acknowledged = value.(bool)
		case "acknowledged_by":
			a.AcknowledgedBy = value.(string)
		case "acknowledged_at_ms":
			a.AcknowledgedAtMs = value.(int64)
		case "message_id":
			a.MessageID = value.(int)
		case "channel_id":
			a.ChannelID = value.(int64)
		case "route_action":
			a.RouteAction = value.(string)
		case "route_destination":
			a.RouteDestination = value.(int64)
		case "route_reason":
			a.RouteReason = value.(string)
		case "routed_at_ms":
			a.RoutedAtMs = value.(int64)
		default:
			return false, fmt.Errorf("unknown alert field %q", name)
		}
	}
	m.alerts[id] = a
	return true, nil
}

func (m *MemStore) AcknowledgeAlert(ctx context.Context, id, actor string, atMs int64) (bool, error) {
	if err := m.UpdateErrFor[id]; err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok || a.Acknowledged {
		return false, nil
	}
	a.Acknowledged = true
	a.AcknowledgedBy = actor
	a.AcknowledgedAtMs = atMs
	m.alerts[id] = a
	return true, nil
}

func (m *MemStore) GetAlert(ctx context.Context, id string) (models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return models.Alert{}, store.ErrNotFound
	}
	return a, nil
}

func (m *MemStore) ListRecentAlerts(ctx context.Context, limit int, includeAcked bool) ([]models.Alert, error) {
	if m.ListAlertsErr != nil {
		return nil, m.ListAlertsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var alerts []models.Alert
	// Newest insertion first, then stable sort by timestamp.
	for i := len(m.alertOrder) - 1; i >= 0; i-- {
		a, ok := m.alerts[m.alertOrder[i]]
		if !ok {
			continue
		}
		if !includeAcked && a.Acknowledged {
			continue
		}
		alerts = append(alerts, a)
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].CreatedAtMs > alerts[j].CreatedAtMs
	})
	if len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

func (m *MemStore) DeleteAlertsBefore(ctx context.Context, cutoffMs int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, a := range m.alerts {
		if a.CreatedAtMs < cutoffMs {
			delete(m.alerts, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemStore) SaveSilence(ctx context.Context, s models.Silence) error {
	if m.SaveSilenceErr != nil {
		return m.SaveSilenceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.silences[s.ID] = s
	m.silOrder = append(m.silOrder, s.ID)
	return nil
}

func (m *MemStore) ListActiveSilences(ctx context.Context, nowMs int64) ([]models.Silence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var silences []models.Silence
	for i := len(m.silOrder) - 1; i >= 0; i-- {
		s := m.silences[m.silOrder[i]]
		if s.Active && s.ExpiresAtMs > nowMs {
			silences = append(silences, s)
		}
	}
	sort.SliceStable(silences, func(i, j int) bool {
		return silences[i].CreatedAtMs > silences[j].CreatedAtMs
	})
	return silences, nil
}

func (m *MemStore) DeactivateSilence(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.silences[id]
	if !ok || !s.Active {
		return false, nil
	}
	s.Active = false
	m.silences[id] = s
	return true, nil
}

func (m *MemStore) DeactivateExpiredSilences(ctx context.Context, nowMs int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var flipped int64
	for id, s := range m.silences {
		if s.Active && s.ExpiresAtMs <= nowMs {
			s.Active = false
			m.silences[id] = s
			flipped++
		}
	}
	return flipped, nil
}

func (m *MemStore) SaveDecision(ctx context.Context, d models.RoutingDecision) error {
	if m.SaveDecisionErr != nil {
		return m.SaveDecisionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextDecID++
	d.ID = m.nextDecID
	m.decisions = append(m.decisions, d)
	return nil
}

func (m *MemStore) ListRecentDecisions(ctx context.Context, limit int) ([]models.RoutingDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var decisions []models.RoutingDecision
	for i := len(m.decisions) - 1; i >= 0 && len(decisions) < limit; i-- {
		decisions = append(decisions, m.decisions[i])
	}
	return decisions, nil
}

func (m *MemStore) DeleteDecisionsBefore(ctx context.Context, cutoffMs int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []models.RoutingDecision
	var deleted int64
	for _, d := range m.decisions {
		if d.DecidedAtMs < cutoffMs {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	m.decisions = kept
	return deleted, nil
}

// Snapshot accessors for assertions.

func (m *MemStore) AlertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

func (m *MemStore) StoredAlert(id string) (models.Alert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	return a, ok
}

func (m *MemStore) StoredSilence(id string) (models.Silence, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.silences[id]
	return s, ok
}

func (m *MemStore) Decisions() []models.RoutingDecision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RoutingDecision(nil), m.decisions...)
}

var _ store.Store = (*MemStore)(nil)
var _ notify.Notifier = (*FakeNotifier)(nil)
