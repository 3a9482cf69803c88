package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/genflow/pkg/domain"
)

type collector struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *collector) handle(_ context.Context, e domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collector) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.ID
	}
	return out
}

func TestInMemoryEventBus_DeliversInOrder(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	defer bus.Close()

	ctx := context.Background()
	a, b := &collector{}, &collector{}
	require.NoError(t, bus.Subscribe(ctx, domain.TopicGraph, a.handle))
	require.NoError(t, bus.Subscribe(ctx, domain.TopicGraph, b.handle))

	var want []string
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("e%d", i)
		want = append(want, id)
		require.NoError(t, bus.Publish(ctx, domain.TopicGraph, domain.Event{ID: id, Type: domain.EventTypeNodeAdded}))
	}

	assert.Eventually(t, func() bool { return len(a.ids()) == 50 && len(b.ids()) == 50 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, want, a.ids())
	assert.Equal(t, want, b.ids())
}

func TestInMemoryEventBus_TopicsAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	defer bus.Close()

	ctx := context.Background()
	runs := &collector{}
	require.NoError(t, bus.Subscribe(ctx, domain.TopicRuns, runs.handle))
	require.NoError(t, bus.Publish(ctx, domain.TopicGraph, domain.Event{ID: "g"}))
	require.NoError(t, bus.Publish(ctx, domain.TopicRuns, domain.Event{ID: "r"}))

	assert.Eventually(t, func() bool { return len(runs.ids()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"r"}, runs.ids())
}

func TestInMemoryEventBus_ContextCancelUnsubscribes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{}
	require.NoError(t, bus.Subscribe(ctx, domain.TopicGraph, c.handle))
	cancel()

	assert.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subscribers[domain.TopicGraph]) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	defer bus.Close()

	ctx := context.Background()
	var mu sync.Mutex
	calls := 0
	require.NoError(t, bus.Subscribe(ctx, domain.TopicGraph, func(context.Context, domain.Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("boom")
	}))

	require.NoError(t, bus.Publish(ctx, domain.TopicGraph, domain.Event{ID: "1"}))
	require.NoError(t, bus.Publish(ctx, domain.TopicGraph, domain.Event{ID: "2"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 10*time.Millisecond)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	defer bus.Close()

	ctx := context.Background()
	c := &collector{}
	require.NoError(t, bus.Subscribe(ctx, domain.TopicGraph, c.handle))
	require.NoError(t, bus.Unsubscribe(ctx, domain.TopicGraph))
	require.NoError(t, bus.Publish(ctx, domain.TopicGraph, domain.Event{ID: "late"}))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.ids())
}
