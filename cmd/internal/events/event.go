package events

import (
	"context"
	"sync"
	"time"

	"availability/cmd/internal/metrics"

	"github.com/labstack/gommon/log"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent describes one successful mutation of the store. Real-time
// delivery (WebSocket push and the like) consumes these from the broker.
type ChangeEvent struct {
	Entity     string    `json:"entity"`
	Action     Action    `json:"action"`
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

func (e ChangeEvent) RoutingKey() string {
	return e.Entity + "." + string(e.Action)
}

type Publisher interface {
	Publish(ctx context.Context, evt ChangeEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ChangeEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }

// MemoryPublisher keeps every event it receives.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (m *MemoryPublisher) Publish(_ context.Context, evt ChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

func (m *MemoryPublisher) Events() []ChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChangeEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Emitter stamps and publishes change events. Publishing is best effort:
// the mutation already committed, so a broker failure is only logged.
type Emitter struct {
	pub Publisher
	now func() time.Time
}

func NewEmitter(pub Publisher) *Emitter {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Emitter{pub: pub, now: time.Now}
}

func (e *Emitter) Emit(ctx context.Context, entity string, action Action, id string, data any) {
	evt := ChangeEvent{
		Entity:     entity,
		Action:     action,
		ID:         id,
		OccurredAt: e.now().UTC(),
		Data:       data,
	}
	if err := e.pub.Publish(ctx, evt); err != nil {
		metrics.IncEventPublished(entity, string(action), "failed")
		log.Errorf("failed to publish %s event for %s: %v", evt.RoutingKey(), id, err)
		return
	}
	metrics.IncEventPublished(entity, string(action), "published")
}
