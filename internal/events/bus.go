package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageEvent is one pipeline stage transition for an in-flight request.
type StageEvent struct {
	RequestID string    `json:"request_id"`
	OwnerID   string    `json:"owner_id"`
	DreamID   string    `json:"dream_id,omitempty"`
	Stage     string    `json:"stage"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	ownerID string
	ch      chan StageEvent
}

// Bus fans pipeline stage events out to per-owner subscribers. Publishing
// never blocks: a subscriber that cannot keep up drops events.
type Bus struct {
	logger *zap.Logger
	mu     sync.RWMutex
	subs   map[int]subscriber
	nextID int
}

// NewBus creates an event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[int]subscriber),
	}
}

// Subscribe registers a listener for one owner's events. The returned cancel
// function must be called to release the subscription.
func (b *Bus) Subscribe(ownerID string) (<-chan StageEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan StageEvent, 32)
	b.subs[id] = subscriber{ownerID: ownerID, ch: ch}

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its owner.
func (b *Bus) Publish(event StageEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.ownerID != event.OwnerID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.Warn("Subscriber channel full, dropping event",
				zap.String("ownerID", event.OwnerID),
				zap.String("stage", event.Stage))
		}
	}
}
