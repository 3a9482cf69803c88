package graph

import (
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/genflow/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reactive is implemented by node behaviours whose derived fields follow their
// inputs instead of being produced by an explicit run.
type Reactive interface {
	Refresh(node domain.Node, inputs []domain.Input) (domain.Patch, bool)
}

// ReactiveLookup returns the reactive behaviour of a kind, if it has one
type ReactiveLookup func(kind domain.Kind) (Reactive, bool)

// Listener receives the events produced by one committed mutation
type Listener func(events []domain.Event)

// Snapshot is a consistent copy of the whole graph
type Snapshot struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

// Store owns the canonical node and edge collections.
// Every operation runs under one lock, so no reader ever observes an edge
// whose endpoint has been deleted.
type Store struct {
	mu    sync.RWMutex
	nodes []domain.Node
	index map[string]int
	edges []domain.Edge

	reactive ReactiveLookup
	newID    func() string
	logger   *zap.Logger

	lmu       sync.RWMutex
	listeners []Listener

	// commit serializes mutations together with their notification, so
	// listeners see batches in commit order.
	commit sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithReactive installs the lookup used to settle reactive nodes after each mutation
func WithReactive(lookup ReactiveLookup) Option {
	return func(s *Store) { s.reactive = lookup }
}

// WithIDGenerator overrides edge and event id generation
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates an empty graph store
func NewStore(logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		index:  make(map[string]int),
		newID:  uuid.NewString,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetReactive installs the reactive lookup after construction
func (s *Store) SetReactive(lookup ReactiveLookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactive = lookup
}

// Subscribe registers a listener called after every committed mutation.
// Listeners are called in commit order and must not mutate the store.
func (s *Store) Subscribe(l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, l)
}

// AddNode inserts a node
func (s *Store) AddNode(node domain.Node) error {
	return s.mutate(func(t *tx) error {
		return t.addNode(node)
	})
}

// AddEdge wires two existing nodes and returns the stored edge.
// Connecting the same endpoints and handles twice returns the existing edge.
func (s *Store) AddEdge(conn domain.Connection) (domain.Edge, error) {
	var edge domain.Edge
	err := s.mutate(func(t *tx) error {
		var err error
		edge, err = t.addEdge(conn)
		return err
	})
	return edge, err
}

// DeleteNode removes a node and every edge touching it. Absent ids are ignored.
func (s *Store) DeleteNode(id string) {
	_ = s.mutate(func(t *tx) error {
		t.deleteNode(id)
		return nil
	})
}

// DeleteEdge removes one edge. Absent ids are ignored.
func (s *Store) DeleteEdge(id string) {
	_ = s.mutate(func(t *tx) error {
		t.deleteEdge(id)
		return nil
	})
}

// PatchNodeData shallow-merges patch into the node's payload.
// A missing node is a silent no-op: a late response for a deleted node must
// neither resurrect it nor fail.
func (s *Store) PatchNodeData(id string, patch domain.Patch) error {
	return s.mutate(func(t *tx) error {
		return t.patchNode(id, patch)
	})
}

// Replace swaps the whole graph for snap in one mutation.
// On error the previous graph is kept.
func (s *Store) Replace(snap Snapshot) error {
	return s.mutate(func(t *tx) error {
		oldNodes, oldEdges := t.s.nodes, t.s.edges
		oldIndex := t.s.index
		prev := len(t.events)

		t.s.nodes, t.s.edges = nil, nil
		t.s.index = make(map[string]int, len(snap.Nodes))

		err := func() error {
			for _, n := range snap.Nodes {
				if err := t.addNode(n); err != nil {
					return err
				}
			}
			for _, e := range snap.Edges {
				if err := t.insertEdge(e); err != nil {
					return err
				}
			}
			return nil
		}()
		t.events = t.events[:prev]
		if err != nil {
			t.s.nodes, t.s.edges, t.s.index = oldNodes, oldEdges, oldIndex
			return fmt.Errorf("failed to replace graph: %w", err)
		}
		t.emitReplaced(oldNodes, oldEdges, oldIndex)
		return nil
	})
}

// emitReplaced reports the difference between the previous graph and the
// current one. A node kept under the same id and kind is an update; one
// whose kind changed is removed and added again.
func (t *tx) emitReplaced(oldNodes []domain.Node, oldEdges []domain.Edge, oldIndex map[string]int) {
	newEdges := make(map[string]bool, len(t.s.edges))
	for _, e := range t.s.edges {
		newEdges[e.ID] = true
	}
	oldEdgeIDs := make(map[string]bool, len(oldEdges))
	for _, e := range oldEdges {
		oldEdgeIDs[e.ID] = true
		if !newEdges[e.ID] {
			t.emit(domain.EventTypeEdgeRemoved, "", e.ID, nil)
		}
	}

	kept := func(id string) bool {
		i, ok := t.s.index[id]
		if !ok {
			return false
		}
		j, ok := oldIndex[id]
		return ok && oldNodes[j].Kind == t.s.nodes[i].Kind
	}
	for _, n := range oldNodes {
		if !kept(n.ID) {
			t.emit(domain.EventTypeNodeRemoved, n.ID, "", nil)
		}
	}
	for _, n := range t.s.nodes {
		if kept(n.ID) {
			t.emit(domain.EventTypeNodeUpdated, n.ID, "", map[string]interface{}{"replaced": true})
			continue
		}
		t.emit(domain.EventTypeNodeAdded, n.ID, "", map[string]interface{}{"kind": string(n.Kind)})
	}
	for _, e := range t.s.edges {
		if oldEdgeIDs[e.ID] {
			t.emit(domain.EventTypeEdgeUpdated, "", e.ID, nil)
			continue
		}
		t.emit(domain.EventTypeEdgeAdded, "", e.ID, map[string]interface{}{
			"source": e.Source,
			"target": e.Target,
		})
	}
}

// Node returns a copy of one node
func (s *Store) Node(id string) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.node(id)
}

// Nodes returns the nodes in insertion order
func (s *Store) Nodes() []domain.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Edges returns the edges in insertion order
func (s *Store) Edges() []domain.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Snapshot returns nodes and edges read under the same lock
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Nodes: make([]domain.Node, len(s.nodes)),
		Edges: make([]domain.Edge, len(s.edges)),
	}
	copy(snap.Nodes, s.nodes)
	copy(snap.Edges, s.edges)
	return snap
}

// OutgoingEdges returns the edges whose source is id, in insertion order
func (s *Store) OutgoingEdges(id string) []domain.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Edge
	for _, e := range s.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// IncomingEdges returns the edges whose target is id, in insertion order
func (s *Store) IncomingEdges(id string) []domain.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.incoming(id)
}

func (s *Store) node(id string) (domain.Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Node{}, false
	}
	return s.nodes[i], true
}

func (s *Store) incoming(id string) []domain.Edge {
	var out []domain.Edge
	for _, e := range s.edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
}

// mutate runs fn under the write lock, settles reactive nodes and then
// notifies listeners outside the lock with everything that changed.
// The next mutation starts only after the listeners return.
func (s *Store) mutate(fn func(t *tx) error) error {
	s.commit.Lock()
	defer s.commit.Unlock()

	s.mu.Lock()
	t := &tx{s: s}
	err := fn(t)
	if len(t.events) > 0 {
		t.settle()
	}
	events := t.events
	s.mu.Unlock()

	if len(events) > 0 {
		s.notify(events)
	}
	return err
}

func (s *Store) notify(events []domain.Event) {
	s.lmu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.lmu.RUnlock()

	for _, l := range listeners {
		l(events)
	}
}

// tx is a mutation in progress; it holds the write lock
type tx struct {
	s      *Store
	events []domain.Event
}

func (t *tx) emit(typ domain.EventType, nodeID, edgeID string, data map[string]interface{}) {
	t.events = append(t.events, domain.Event{
		ID:        t.s.newID(),
		Type:      typ,
		NodeID:    nodeID,
		EdgeID:    edgeID,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (t *tx) addNode(node domain.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	if _, exists := t.s.index[node.ID]; exists {
		return fmt.Errorf("%w: node %s", domain.ErrDuplicateID, node.ID)
	}
	t.s.nodes = append(t.s.nodes, node)
	t.s.index[node.ID] = len(t.s.nodes) - 1
	t.emit(domain.EventTypeNodeAdded, node.ID, "", map[string]interface{}{"kind": string(node.Kind)})
	return nil
}

func (t *tx) addEdge(conn domain.Connection) (domain.Edge, error) {
	if _, ok := t.s.index[conn.Source]; !ok {
		return domain.Edge{}, fmt.Errorf("%w: source %s", domain.ErrDanglingEndpoint, conn.Source)
	}
	if _, ok := t.s.index[conn.Target]; !ok {
		return domain.Edge{}, fmt.Errorf("%w: target %s", domain.ErrDanglingEndpoint, conn.Target)
	}
	for _, e := range t.s.edges {
		if conn.ID != "" && e.ID == conn.ID {
			return domain.Edge{}, fmt.Errorf("%w: edge %s", domain.ErrDuplicateID, conn.ID)
		}
		if e.SameConnection(conn) {
			return e, nil
		}
	}

	id := conn.ID
	if id == "" {
		id = t.s.newID()
	}
	edge := domain.Edge{
		ID:           id,
		Source:       conn.Source,
		Target:       conn.Target,
		SourceHandle: conn.SourceHandle,
		TargetHandle: conn.TargetHandle,
		Animated:     true,
	}
	t.s.edges = append(t.s.edges, edge)
	t.emit(domain.EventTypeEdgeAdded, "", edge.ID, map[string]interface{}{
		"source": edge.Source,
		"target": edge.Target,
	})
	return edge, nil
}

func (t *tx) insertEdge(edge domain.Edge) error {
	if edge.ID == "" {
		return fmt.Errorf("edge id is required")
	}
	if _, ok := t.s.index[edge.Source]; !ok {
		return fmt.Errorf("%w: source %s", domain.ErrDanglingEndpoint, edge.Source)
	}
	if _, ok := t.s.index[edge.Target]; !ok {
		return fmt.Errorf("%w: target %s", domain.ErrDanglingEndpoint, edge.Target)
	}
	for _, e := range t.s.edges {
		if e.ID == edge.ID {
			return fmt.Errorf("%w: edge %s", domain.ErrDuplicateID, edge.ID)
		}
	}
	t.s.edges = append(t.s.edges, edge)
	t.emit(domain.EventTypeEdgeAdded, "", edge.ID, map[string]interface{}{
		"source": edge.Source,
		"target": edge.Target,
	})
	return nil
}

func (t *tx) deleteNode(id string) {
	if _, ok := t.s.index[id]; !ok {
		return
	}

	kept := t.s.edges[:0:0]
	for _, e := range t.s.edges {
		if e.Touches(id) {
			t.emit(domain.EventTypeEdgeRemoved, "", e.ID, map[string]interface{}{"cascade": id})
			continue
		}
		kept = append(kept, e)
	}
	t.s.edges = kept

	nodes := t.s.nodes[:0:0]
	for _, n := range t.s.nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	t.s.nodes = nodes
	t.s.reindex()
	t.emit(domain.EventTypeNodeRemoved, id, "", nil)
}

func (t *tx) deleteEdge(id string) {
	for i, e := range t.s.edges {
		if e.ID == id {
			t.s.edges = append(t.s.edges[:i:i], t.s.edges[i+1:]...)
			t.emit(domain.EventTypeEdgeRemoved, "", id, nil)
			return
		}
	}
}

func (t *tx) patchNode(id string, patch domain.Patch) error {
	i, ok := t.s.index[id]
	if !ok {
		t.s.logger.Debug("patch for missing node ignored", zap.String("node_id", id))
		return nil
	}
	node := t.s.nodes[i]
	data, err := domain.ApplyPatch(node.Data, patch)
	if err != nil {
		return fmt.Errorf("failed to patch node %s: %w", id, err)
	}
	node.Data = data
	t.s.nodes[i] = node

	fields := make([]string, 0, len(patch))
	for k := range patch {
		fields = append(fields, k)
	}
	t.emit(domain.EventTypeNodeUpdated, id, "", map[string]interface{}{"fields": fields})
	return nil
}

func (t *tx) replaceNode(id string, node domain.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	if node.ID != id {
		return fmt.Errorf("replacement id %s does not match %s", node.ID, id)
	}
	i, ok := t.s.index[id]
	if !ok {
		return nil
	}
	t.s.nodes[i] = node
	t.emit(domain.EventTypeNodeUpdated, id, "", map[string]interface{}{"replaced": true})
	return nil
}

func (t *tx) setPosition(id string, pos domain.Position) {
	i, ok := t.s.index[id]
	if !ok {
		return
	}
	t.s.nodes[i].Position = pos
	t.emit(domain.EventTypeNodeUpdated, id, "", map[string]interface{}{"position": pos})
}

func (t *tx) selectNode(id string, selected bool) {
	i, ok := t.s.index[id]
	if !ok {
		return
	}
	t.s.nodes[i].Selected = selected
	t.emit(domain.EventTypeNodeUpdated, id, "", map[string]interface{}{"selected": selected})
}

func (t *tx) replaceEdge(id string, edge domain.Edge) error {
	if edge.ID != id {
		return fmt.Errorf("replacement id %s does not match %s", edge.ID, id)
	}
	if _, ok := t.s.index[edge.Source]; !ok {
		return fmt.Errorf("%w: source %s", domain.ErrDanglingEndpoint, edge.Source)
	}
	if _, ok := t.s.index[edge.Target]; !ok {
		return fmt.Errorf("%w: target %s", domain.ErrDanglingEndpoint, edge.Target)
	}
	for i, e := range t.s.edges {
		if e.ID == id {
			t.s.edges[i] = edge
			t.emit(domain.EventTypeEdgeUpdated, "", id, nil)
			return nil
		}
	}
	return nil
}

func (t *tx) selectEdge(id string, selected bool) {
	for i, e := range t.s.edges {
		if e.ID == id {
			t.s.edges[i].Selected = selected
			t.emit(domain.EventTypeEdgeUpdated, "", id, map[string]interface{}{"selected": selected})
			return
		}
	}
}

// settle recomputes reactive nodes until none of them changes.
// Reactive values only copy upstream values, so the loop converges; the pass
// bound guards against a lookup that never reports a stable value.
func (t *tx) settle() {
	if t.s.reactive == nil {
		return
	}
	for pass := 0; pass <= len(t.s.nodes); pass++ {
		changed := false
		for _, n := range t.s.nodes {
			r, ok := t.s.reactive(n.Kind)
			if !ok {
				continue
			}
			patch, dirty := r.Refresh(n, t.s.connectedInputs(n.ID))
			if !dirty {
				continue
			}
			if err := t.patchNode(n.ID, patch); err != nil {
				t.s.logger.Warn("reactive refresh failed",
					zap.String("node_id", n.ID),
					zap.Error(err))
				continue
			}
			changed = true
		}
		if !changed {
			return
		}
	}
	t.s.logger.Warn("reactive nodes did not settle", zap.Int("nodes", len(t.s.nodes)))
}
