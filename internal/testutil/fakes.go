package testutil

import (
	"context"
	"sync"
	"time"

	"alert-relay-go/internal/notify"
	"alert-relay-go/internal/store"
)

// FakeClock returns a fixed time until advanced.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{t: t}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// PostCall records one Notifier.Post invocation.
type PostCall struct {
	ChatID int64
	Msg    notify.Message
}

// EditCall records one Notifier.Edit invocation.
type EditCall struct {
	ChatID    int64
	MessageID int
	Msg       notify.Message
}

// FakeNotifier records posted and edited messages.
type FakeNotifier struct {
	mu    sync.Mutex
	Posts []PostCall
	Edits []EditCall

	PostErr error
	EditErr error

	nextMessageID int
}

func (n *FakeNotifier) Post(ctx context.Context, chatID int64, msg notify.Message) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.PostErr != nil {
		return 0, n.PostErr
	}
	n.nextMessageID++
	n.Posts = append(n.Posts, PostCall{ChatID: chatID, Msg: msg})
	return 1000 + n.nextMessageID, nil
}

func (n *FakeNotifier) Edit(ctx context.Context, chatID int64, messageID int, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.EditErr != nil {
		return n.EditErr
	}
	n.Edits = append(n.Edits, EditCall{ChatID: chatID, MessageID: messageID, Msg: msg})
	return nil
}

// FakeEvents records published lifecycle events.
type FakeEvents struct {
	mu     sync.Mutex
	Events []store.Event
}

func (e *FakeEvents) Publish(ctx context.Context, ev store.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Events = append(e.Events, ev)
	return nil
}
