package silence

import (
	"context"
	"fmt"
	"log"

	"alert-relay-go/internal/clock"
	"alert-relay-go/internal/duration"
	"alert-relay-go/internal/match"
	"alert-relay-go/internal/models"
	"alert-relay-go/internal/store"
)

// Registry manages time-bounded suppression rules. Expiry is lazy:
// the active set excludes expired silences on every query, the sweep
// flips their stored flag later.
type Registry struct {
	store store.SilenceStore
	clock clock.Clock
}

func NewRegistry(s store.SilenceStore, c clock.Clock) *Registry {
	return &Registry{store: s, clock: c}
}

// Create validates pattern and duration up front, then persists a new
// silence expiring durationStr from now.
func (r *Registry) Create(ctx context.Context, pattern, durationStr, actor string) (models.Silence, error) {
	if _, err := match.Compile(pattern); err != nil {
		return models.Silence{}, err
	}

	ms, err := duration.Parse(durationStr)
	if err != nil {
		return models.Silence{}, fmt.Errorf("%w: %q", duration.ErrInvalidDuration, durationStr)
	}

	now := r.clock.Now()
	sil := models.Silence{
		ID:          models.NewID(now),
		Pattern:     pattern,
		CreatedBy:   actor,
		CreatedAtMs: now.UnixMilli(),
		ExpiresAtMs: now.UnixMilli() + ms,
		Active:      true,
	}

	if err := r.store.SaveSilence(ctx, sil); err != nil {
		return models.Silence{}, err
	}
	return sil, nil
}

// ListActive returns unexpired active silences, most recent first.
func (r *Registry) ListActive(ctx context.Context) ([]models.Silence, error) {
	return r.store.ListActiveSilences(ctx, r.clock.Now().UnixMilli())
}

// Delete soft-deactivates a silence. Returns false when no active
// silence had that id.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.DeactivateSilence(ctx, id)
}

// Match returns the first active silence whose pattern matches the
// alert's search text, or nil. Most recently created silences are
// consulted first; first match wins.
func (r *Registry) Match(ctx context.Context, a models.Alert) (*models.Silence, error) {
	silences, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	for i := range silences {
		ok, err := match.Matches(silences[i].Pattern, a)
		if err != nil {
			// Stored pattern no longer compiles; skip rather than
			// block ingestion.
			log.Printf("silence %s has unusable pattern: %v", silences[i].ID, err)
			continue
		}
		if ok {
			return &silences[i], nil
		}
	}
	return nil, nil
}
