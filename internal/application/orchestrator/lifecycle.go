package orchestrator

import (
	"fmt"
	"sync"

	"github.com/aescanero/genflow/pkg/domain"
)

// ValidRunTransitions lists the states each run state may move to
var ValidRunTransitions = map[domain.RunState][]domain.RunState{
	domain.RunStateIdle:      {domain.RunStateRunning},
	domain.RunStateRunning:   {domain.RunStateSucceeded, domain.RunStateFailed},
	domain.RunStateSucceeded: {domain.RunStateRunning},
	domain.RunStateFailed:    {domain.RunStateRunning},
}

// TransitionHook is called after a node changes state
type TransitionHook func(nodeID string, from, to domain.RunState)

// Lifecycle tracks the run state of every triggerable node.
// Nodes it has never seen are idle.
type Lifecycle struct {
	mu     sync.Mutex
	states map[string]domain.RunState
	hooks  []TransitionHook
}

// NewLifecycle creates an empty lifecycle tracker
func NewLifecycle() *Lifecycle {
	return &Lifecycle{states: make(map[string]domain.RunState)}
}

// OnTransition registers a hook called after every successful transition
func (l *Lifecycle) OnTransition(hook TransitionHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

// State returns the current state of a node
func (l *Lifecycle) State(nodeID string) domain.RunState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state(nodeID)
}

func (l *Lifecycle) state(nodeID string) domain.RunState {
	if s, ok := l.states[nodeID]; ok {
		return s
	}
	return domain.RunStateIdle
}

// Transition moves a node to the given state if the table allows it
func (l *Lifecycle) Transition(nodeID string, to domain.RunState) error {
	return l.transition(nodeID, to, nil)
}

// Begin moves a node to running, reporting ErrAlreadyRunning if it is already running
func (l *Lifecycle) Begin(nodeID string) error {
	return l.transition(nodeID, domain.RunStateRunning, func(from domain.RunState) error {
		if from == domain.RunStateRunning {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyRunning, nodeID)
		}
		return nil
	})
}

func (l *Lifecycle) transition(nodeID string, to domain.RunState, check func(from domain.RunState) error) error {
	l.mu.Lock()
	from := l.state(nodeID)
	if check != nil {
		if err := check(from); err != nil {
			l.mu.Unlock()
			return err
		}
	}
	if !isValidRunTransition(from, to) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s for node %s", domain.ErrInvalidTransition, from, to, nodeID)
	}
	l.states[nodeID] = to
	hooks := make([]TransitionHook, len(l.hooks))
	copy(hooks, l.hooks)
	l.mu.Unlock()

	for _, hook := range hooks {
		hook(nodeID, from, to)
	}
	return nil
}

// Forget drops a deleted node
func (l *Lifecycle) Forget(nodeID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.states, nodeID)
}

// Running returns the ids of nodes currently running
func (l *Lifecycle) Running() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []string
	for id, s := range l.states {
		if s == domain.RunStateRunning {
			ids = append(ids, id)
		}
	}
	return ids
}

func isValidRunTransition(from, to domain.RunState) bool {
	for _, a := range ValidRunTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}
