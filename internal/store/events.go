package store

import (
	"context"
	"encoding/json"
	"fmt"

	"alert-relay-go/internal/models"

	"github.com/redis/go-redis/v9"
)

const eventChannel = "alert_events"

// Event types published on the live feed.
const (
	EventIngested     = "ingested"
	EventAcknowledged = "acknowledged"
)

// Event is one entry on the live alert feed.
type Event struct {
	Type  string       `json:"type"`
	Alert models.Alert `json:"alert"`
}

// EventStore publishes alert lifecycle events over Redis pub/sub for
// the SSE feed. Best-effort: consumers may miss events, the Postgres
// store stays the source of truth.
type EventStore struct {
	client *redis.Client
}

func NewEventStore(opts *redis.Options) *EventStore {
	rdb := redis.NewClient(opts)
	return &EventStore{client: rdb}
}

func (s *EventStore) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return s.client.Publish(ctx, eventChannel, data).Err()
}

func (s *EventStore) Subscribe(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, eventChannel)
}
