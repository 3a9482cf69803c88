package memory

import (
	"context"
	"sync"

	"github.com/aescanero/genflow/pkg/domain"
	"github.com/aescanero/genflow/pkg/ports"
	"go.uber.org/zap"
)

const defaultBuffer = 256

// subscription delivers events to one handler in publish order
type subscription struct {
	id      uint64
	handler ports.EventHandler
	events  chan domain.Event
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// InMemoryEventBus implements EventBus with per-subscriber queues.
// Each handler sees events in publish order; a subscriber that falls a full
// buffer behind misses events rather than blocking publishers.
type InMemoryEventBus struct {
	subscribers map[string][]*subscription
	nextID      uint64
	buffer      int
	logger      *zap.Logger
	mu          sync.RWMutex
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]*subscription),
		buffer:      defaultBuffer,
		logger:      logger,
	}
}

// Publish publishes an event to all subscribers of a topic
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, sub := range e.subscribers[topic] {
		select {
		case sub.events <- event:
		case <-sub.done:
		default:
			e.logger.Warn("subscriber is behind, event dropped",
				zap.String("topic", topic),
				zap.String("event_type", string(event.Type)))
		}
	}

	return nil
}

// Subscribe subscribes to events on a specific topic until ctx is cancelled
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	e.nextID++
	sub := &subscription{
		id:      e.nextID,
		handler: handler,
		events:  make(chan domain.Event, e.buffer),
		done:    make(chan struct{}),
	}
	e.subscribers[topic] = append(e.subscribers[topic], sub)
	e.mu.Unlock()

	go e.deliver(ctx, topic, sub)

	// Clean up the subscription on context cancellation
	go func() {
		select {
		case <-ctx.Done():
			e.unsubscribe(topic, sub.id)
		case <-sub.done:
		}
	}()

	return nil
}

func (e *InMemoryEventBus) deliver(ctx context.Context, topic string, sub *subscription) {
	for {
		select {
		case <-sub.done:
			return
		case event := <-sub.events:
			if err := sub.handler(ctx, event); err != nil {
				e.logger.Error("event handler failed",
					zap.String("topic", topic),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}
	}
}

// Unsubscribe removes all subscriptions from a topic
func (e *InMemoryEventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, sub := range e.subscribers[topic] {
		sub.stop()
	}
	delete(e.subscribers, topic)
	return nil
}

// Close closes the event bus and cleans up resources
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, subs := range e.subscribers {
		for _, sub := range subs {
			sub.stop()
		}
	}
	e.subscribers = make(map[string][]*subscription)
	return nil
}

// unsubscribe removes one subscription from a topic
func (e *InMemoryEventBus) unsubscribe(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, sub := range subs {
		if sub.id == id {
			sub.stop()
			e.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}
