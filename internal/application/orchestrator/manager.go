package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/internal/application/nodes"
	"github.com/aescanero/genflow/internal/application/workers"
	"github.com/aescanero/genflow/pkg/domain"
	"github.com/aescanero/genflow/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoRunInFlight is returned when cancelling a node that is not running
var ErrNoRunInFlight = errors.New("no run in flight")

// Submitter queues jobs for background execution
type Submitter interface {
	Submit(ctx context.Context, job workers.Job) error
}

// Result is delivered once per run, after its derived fields have been written
type Result struct {
	NodeID   string          `json:"node_id"`
	State    domain.RunState `json:"state"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// inflight holds the cancel function of a running node
type inflight struct {
	cancel context.CancelFunc
}

// Manager coordinates node runs against the graph store
type Manager struct {
	store     *graph.Store
	registry  *nodes.Registry
	lifecycle *Lifecycle
	pool      Submitter
	eventBus  ports.EventBus
	metrics   ports.MetricsCollector
	validator *Validator
	logger    *zap.Logger

	// Track in-flight runs by node id
	runs sync.Map // map[string]*inflight

	nodeTimeout time.Duration
}

// NewManager creates a new orchestrator manager and subscribes it to the store
func NewManager(
	store *graph.Store,
	registry *nodes.Registry,
	pool Submitter,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	nodeTimeout time.Duration,
) *Manager {
	m := &Manager{
		store:       store,
		registry:    registry,
		lifecycle:   NewLifecycle(),
		pool:        pool,
		eventBus:    eventBus,
		metrics:     metrics,
		validator:   NewValidator(),
		logger:      logger,
		nodeTimeout: nodeTimeout,
	}
	store.Subscribe(m.onGraphChange)
	return m
}

// Lifecycle exposes the run state tracker
func (m *Manager) Lifecycle() *Lifecycle {
	return m.lifecycle
}

// Run starts a run of a triggerable node and returns immediately.
// The returned channel receives exactly one Result.
func (m *Manager) Run(ctx context.Context, nodeID string) (<-chan Result, error) {
	node, ok := m.store.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}

	behaviour, ok := m.registry.Triggerable(node.Kind)
	if !ok {
		m.metrics.RecordRunRejected(string(node.Kind), "not_triggerable")
		return nil, fmt.Errorf("%w: %s is a %s node", domain.ErrNotTriggerable, nodeID, node.Kind)
	}

	if err := m.lifecycle.Begin(nodeID); err != nil {
		m.metrics.RecordRunRejected(string(node.Kind), "already_running")
		return nil, err
	}

	if err := m.store.PatchNodeData(nodeID, behaviour.StartPatch()); err != nil {
		m.fail(nodeID)
		return nil, fmt.Errorf("failed to mark node running: %w", err)
	}

	// Read again so the run sees the cleared derived fields.
	if node, ok = m.store.Node(nodeID); !ok {
		m.fail(nodeID)
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	inputs := m.store.ConnectedInputs(nodeID)

	m.publish(domain.TopicRuns, domain.EventTypeRunStarted, nodeID, map[string]interface{}{
		"kind":   string(node.Kind),
		"inputs": len(inputs),
	})

	// The run is cancellable from here on, including while it waits in the queue.
	runCtx, cancel := context.WithCancel(context.Background())
	run := &inflight{cancel: cancel}
	m.runs.Store(nodeID, run)

	results := make(chan Result, 1)
	started := time.Now()
	job := workers.Job{
		ID: nodeID,
		Run: func(poolCtx context.Context) {
			defer m.runs.CompareAndDelete(nodeID, run)
			defer cancel()
			stop := context.AfterFunc(poolCtx, cancel)
			defer stop()

			results <- m.execute(runCtx, node, behaviour, inputs, started)
			close(results)
		},
	}

	if err := m.pool.Submit(ctx, job); err != nil {
		m.runs.CompareAndDelete(nodeID, run)
		cancel()
		m.complete(node, nodes.Outcome{}, err, started)
		return nil, fmt.Errorf("failed to submit run: %w", err)
	}

	m.logger.Info("run submitted",
		zap.String("node_id", nodeID),
		zap.String("kind", string(node.Kind)),
		zap.Int("inputs", len(inputs)))

	return results, nil
}

// Cancel aborts the in-flight run of a node
func (m *Manager) Cancel(nodeID string) error {
	val, ok := m.runs.Load(nodeID)
	if !ok {
		return fmt.Errorf("%w for node %s", ErrNoRunInFlight, nodeID)
	}
	val.(*inflight).cancel()
	m.logger.Info("run cancelled", zap.String("node_id", nodeID))
	return nil
}

// Import validates snap and replaces the live graph with it
func (m *Manager) Import(snap *graph.Snapshot) error {
	if err := m.validator.Validate(snap); err != nil {
		m.logger.Warn("graph import rejected", zap.Error(err))
		return fmt.Errorf("validation failed: %w", err)
	}
	// Nodes that disappear, or change kind, have their runs cancelled.
	return m.store.Replace(*snap)
}

// execute runs the behaviour in a worker and writes back its outcome.
// A run cancelled while queued fails without calling the behaviour.
func (m *Manager) execute(ctx context.Context, node domain.Node, behaviour nodes.Triggerable, inputs []domain.Input, started time.Time) Result {
	if err := ctx.Err(); err != nil {
		return m.complete(node, nodes.Outcome{}, err, started)
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if m.nodeTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, m.nodeTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	outcome, err := behaviour.Run(runCtx, nodes.RunRequest{
		Node:   node,
		Inputs: inputs,
		Graph:  m.store,
		Progress: func(p domain.Patch) {
			if perr := m.store.PatchNodeData(node.ID, p); perr != nil {
				m.logger.Warn("failed to apply progress",
					zap.String("node_id", node.ID),
					zap.Error(perr))
			}
		},
	})
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && err != nil {
		err = fmt.Errorf("execution timeout: %w", err)
	}

	return m.complete(node, outcome, err, started)
}

// complete writes the derived fields of a finished run and moves its state
func (m *Manager) complete(node domain.Node, outcome nodes.Outcome, runErr error, started time.Time) Result {
	duration := time.Since(started)
	result := Result{NodeID: node.ID, Duration: duration}

	patch := domain.Patch{domain.FieldIsLoading: false}
	if runErr != nil {
		patch[domain.FieldError] = runErr.Error()
		result.State = domain.RunStateFailed
		result.Error = runErr.Error()
	} else {
		for k, v := range outcome.Patch {
			patch[k] = v
		}
		result.State = domain.RunStateSucceeded
	}

	// A deleted node swallows the patch.
	if err := m.store.PatchNodeData(node.ID, patch); err != nil {
		m.logger.Error("failed to write run result",
			zap.String("node_id", node.ID),
			zap.Error(err))
	}

	if err := m.lifecycle.Transition(node.ID, result.State); err != nil {
		m.logger.Debug("run finished for removed node",
			zap.String("node_id", node.ID),
			zap.Error(err))
	}

	m.metrics.RecordRun(string(node.Kind), string(result.State), duration)

	eventType := domain.EventTypeRunSucceeded
	data := map[string]interface{}{"kind": string(node.Kind), "duration_ms": duration.Milliseconds()}
	if runErr != nil {
		eventType = domain.EventTypeRunFailed
		data["error"] = runErr.Error()
		m.logger.Warn("run failed",
			zap.String("node_id", node.ID),
			zap.String("kind", string(node.Kind)),
			zap.Duration("duration", duration),
			zap.Error(runErr))
	} else {
		m.logger.Info("run succeeded",
			zap.String("node_id", node.ID),
			zap.String("kind", string(node.Kind)),
			zap.Duration("duration", duration))
	}
	m.publish(domain.TopicRuns, eventType, node.ID, data)

	return result
}

func (m *Manager) fail(nodeID string) {
	_ = m.lifecycle.Transition(nodeID, domain.RunStateFailed)
}

// onGraphChange forwards store events to the bus and forgets removed nodes
func (m *Manager) onGraphChange(events []domain.Event) {
	for _, event := range events {
		if event.Type == domain.EventTypeNodeRemoved {
			if val, ok := m.runs.Load(event.NodeID); ok {
				val.(*inflight).cancel()
			}
			m.lifecycle.Forget(event.NodeID)
		}
		if err := m.eventBus.Publish(context.Background(), domain.TopicGraph, event); err != nil {
			m.logger.Error("failed to publish graph event",
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}

	snap := m.store.Snapshot()
	m.metrics.RecordGraphSize(len(snap.Nodes), len(snap.Edges))
}

// publish publishes an event to the event bus
func (m *Manager) publish(topic string, eventType domain.EventType, nodeID string, data map[string]interface{}) {
	event := domain.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		NodeID:    nodeID,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := m.eventBus.Publish(context.Background(), topic, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("event_type", string(eventType)),
			zap.String("node_id", nodeID),
			zap.Error(err))
	}
}

// Shutdown cancels every in-flight run
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestrator manager")

	m.runs.Range(func(key, value interface{}) bool {
		value.(*inflight).cancel()
		return true
	})

	m.logger.Info("orchestrator manager shut down complete")
	return nil
}
