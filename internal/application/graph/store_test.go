package graph

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/genflow/pkg/domain"
)

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestStore(opts ...Option) *Store {
	opts = append([]Option{WithIDGenerator(seqIDs("id"))}, opts...)
	return NewStore(zap.NewNop(), opts...)
}

func promptNode(t *testing.T, id, text string) domain.Node {
	t.Helper()
	n, err := domain.NewNode(id, domain.KindPrompt, domain.Position{}, domain.PromptData{Label: "Prompt", Prompt: text})
	require.NoError(t, err)
	return n
}

func node(t *testing.T, id string, data domain.Payload) domain.Node {
	t.Helper()
	n, err := domain.NewNode(id, data.Kind(), domain.Position{}, data)
	require.NoError(t, err)
	return n
}

func connect(t *testing.T, s *Store, source, target string) domain.Edge {
	t.Helper()
	e, err := s.AddEdge(domain.Connection{Source: source, Target: target})
	require.NoError(t, err)
	return e
}

func TestStore_AddNodeDuplicateID(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))

	err := s.AddNode(promptNode(t, "a", "dog"))
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	n, ok := s.Node("a")
	require.True(t, ok)
	assert.Equal(t, "cat", n.Data.(domain.PromptData).Prompt)
}

func TestStore_AddNodeKindMismatch(t *testing.T) {
	s := newTestStore()
	err := s.AddNode(domain.Node{ID: "a", Kind: domain.KindDisplay, Data: domain.PromptData{}})
	require.ErrorIs(t, err, domain.ErrKindMismatch)
	assert.Empty(t, s.Nodes())
}

func TestStore_AddEdge(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))
	require.NoError(t, s.AddNode(node(t, "b", domain.DisplayData{})))

	t.Run("dangling source", func(t *testing.T) {
		_, err := s.AddEdge(domain.Connection{Source: "missing", Target: "b"})
		require.ErrorIs(t, err, domain.ErrDanglingEndpoint)
	})

	t.Run("dangling target", func(t *testing.T) {
		_, err := s.AddEdge(domain.Connection{Source: "a", Target: "missing"})
		require.ErrorIs(t, err, domain.ErrDanglingEndpoint)
	})

	t.Run("generated id and animated", func(t *testing.T) {
		e := connect(t, s, "a", "b")
		assert.NotEmpty(t, e.ID)
		assert.True(t, e.Animated)
		assert.Len(t, s.Edges(), 1)
	})

	t.Run("same connection returns existing edge", func(t *testing.T) {
		first := s.Edges()[0]
		again := connect(t, s, "a", "b")
		assert.Equal(t, first.ID, again.ID)
		assert.Len(t, s.Edges(), 1)
	})

	t.Run("explicit duplicate id", func(t *testing.T) {
		first := s.Edges()[0]
		_, err := s.AddEdge(domain.Connection{ID: first.ID, Source: "b", Target: "a"})
		require.ErrorIs(t, err, domain.ErrDuplicateID)
	})
}

func TestStore_DeleteEdgeDoesNotCascade(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))
	require.NoError(t, s.AddNode(node(t, "b", domain.DisplayData{})))
	e := connect(t, s, "a", "b")

	s.DeleteEdge(e.ID)
	s.DeleteEdge("missing")

	assert.Empty(t, s.Edges())
	assert.Len(t, s.Nodes(), 2)
}

func TestStore_DeleteNodeCascades(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 25; round++ {
		s := newTestStore()
		count := 2 + rng.Intn(8)
		for i := 0; i < count; i++ {
			require.NoError(t, s.AddNode(promptNode(t, fmt.Sprintf("n%d", i), "x")))
		}
		for i := 0; i < count*2; i++ {
			src := fmt.Sprintf("n%d", rng.Intn(count))
			dst := fmt.Sprintf("n%d", rng.Intn(count))
			connect(t, s, src, dst)
		}

		victim := fmt.Sprintf("n%d", rng.Intn(count))
		before := len(s.Edges())
		touching := 0
		for _, e := range s.Edges() {
			if e.Touches(victim) {
				touching++
			}
		}

		s.DeleteNode(victim)

		_, ok := s.Node(victim)
		assert.False(t, ok)
		assert.Len(t, s.Edges(), before-touching)
		for _, e := range s.Edges() {
			assert.False(t, e.Touches(victim), "edge %s still touches %s", e.ID, victim)
			_, srcOK := s.Node(e.Source)
			_, dstOK := s.Node(e.Target)
			assert.True(t, srcOK && dstOK, "edge %s is dangling", e.ID)
		}
	}
}

func TestStore_PatchMissingNodeIsNoop(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))
	require.NoError(t, s.AddNode(node(t, "b", domain.LLMData{Model: "openai"})))
	connect(t, s, "a", "b")

	var notified int
	s.Subscribe(func(events []domain.Event) { notified += len(events) })

	before := s.Snapshot()
	require.NoError(t, s.PatchNodeData("gone", domain.Patch{domain.FieldOutput: "late"}))
	after := s.Snapshot()

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("snapshot changed (-before +after):\n%s", diff)
	}
	assert.Zero(t, notified)
}

func TestStore_PatchMergesShallowly(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(node(t, "b", domain.LLMData{Model: "openai", UserMessage: "hi", Error: "old"})))

	require.NoError(t, s.PatchNodeData("b", domain.Patch{
		domain.FieldIsLoading: true,
		domain.FieldError:     nil,
	}))

	n, _ := s.Node("b")
	data := n.Data.(domain.LLMData)
	assert.Equal(t, "openai", data.Model)
	assert.Equal(t, "hi", data.UserMessage)
	assert.True(t, data.IsLoading)
	assert.Empty(t, data.Error)
}

func TestStore_PatchRejectsOtherVariant(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))

	err := s.PatchNodeData("a", domain.Patch{domain.FieldType: string(domain.KindDisplay)})
	require.ErrorIs(t, err, domain.ErrKindMismatch)

	n, _ := s.Node("a")
	assert.Equal(t, domain.KindPrompt, n.Data.Kind())
}

func TestStore_ListenerSeesCascade(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))
	require.NoError(t, s.AddNode(node(t, "b", domain.DisplayData{})))
	e := connect(t, s, "a", "b")

	var got []domain.Event
	s.Subscribe(func(events []domain.Event) { got = append(got, events...) })

	s.DeleteNode("a")

	require.Len(t, got, 2)
	assert.Equal(t, domain.EventTypeEdgeRemoved, got[0].Type)
	assert.Equal(t, e.ID, got[0].EdgeID)
	assert.Equal(t, domain.EventTypeNodeRemoved, got[1].Type)
	assert.Equal(t, "a", got[1].NodeID)
}

// mirror copies the last input into a display's content, like the display behaviour.
type mirror struct{}

func (mirror) Refresh(n domain.Node, inputs []domain.Input) (domain.Patch, bool) {
	want := ""
	if last, ok := Last(inputs); ok {
		want = last.Value
	}
	if n.Data.(domain.DisplayData).Content == want {
		return nil, false
	}
	return domain.Patch{domain.FieldContent: want}, true
}

func TestStore_SettlesReactiveChains(t *testing.T) {
	s := newTestStore(WithReactive(func(k domain.Kind) (Reactive, bool) {
		if k == domain.KindDisplay {
			return mirror{}, true
		}
		return nil, false
	}))

	// d2 is inserted before d1 so one pass in insertion order is not enough.
	require.NoError(t, s.AddNode(node(t, "d2", domain.DisplayData{})))
	require.NoError(t, s.AddNode(node(t, "d1", domain.DisplayData{})))
	require.NoError(t, s.AddNode(promptNode(t, "p", "cat")))
	connect(t, s, "d1", "d2")
	connect(t, s, "p", "d1")

	v, ok := s.EmittedValue("d2")
	require.True(t, ok)
	assert.Equal(t, "cat", v)

	require.NoError(t, s.PatchNodeData("p", domain.Patch{domain.FieldPrompt: "dog"}))
	v, _ = s.EmittedValue("d2")
	assert.Equal(t, "dog", v)

	s.DeleteNode("p")
	_, ok = s.EmittedValue("d2")
	assert.False(t, ok)
}

func TestStore_Replace(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "old", "x")))

	next := Snapshot{
		Nodes: []domain.Node{promptNode(t, "a", "cat"), node(t, "b", domain.DisplayData{})},
		Edges: []domain.Edge{{ID: "e1", Source: "a", Target: "b", Animated: true}},
	}
	require.NoError(t, s.Replace(next))
	if diff := cmp.Diff(next, s.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	t.Run("invalid snapshot keeps previous graph", func(t *testing.T) {
		var notified int
		s.Subscribe(func(events []domain.Event) { notified += len(events) })

		err := s.Replace(Snapshot{
			Nodes: []domain.Node{promptNode(t, "c", "dog")},
			Edges: []domain.Edge{{ID: "e2", Source: "c", Target: "missing"}},
		})
		require.ErrorIs(t, err, domain.ErrDanglingEndpoint)
		if diff := cmp.Diff(next, s.Snapshot()); diff != "" {
			t.Errorf("graph changed (-want +got):\n%s", diff)
		}
		assert.Zero(t, notified)
	})
}

func TestStore_ListenersSeeCommitOrder(t *testing.T) {
	s := newTestStore()

	var mu sync.Mutex
	var got []domain.EventType
	entered := make(chan struct{})
	release := make(chan struct{})
	s.Subscribe(func(events []domain.Event) {
		if events[0].Type == domain.EventTypeNodeAdded {
			close(entered)
			<-release
		}
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			got = append(got, e.Type)
		}
	})

	x := promptNode(t, "x", "cat")
	added := make(chan error, 1)
	go func() { added <- s.AddNode(x) }()
	<-entered

	deleted := make(chan struct{})
	go func() {
		s.DeleteNode("x")
		close(deleted)
	}()

	select {
	case <-deleted:
		t.Fatal("delete committed while the previous batch was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-added)
	<-deleted

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EventType{domain.EventTypeNodeAdded, domain.EventTypeNodeRemoved}, got)
}

func TestStore_ReplaceReportsDifference(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))
	require.NoError(t, s.AddNode(node(t, "b", domain.DisplayData{})))
	require.NoError(t, s.AddNode(promptNode(t, "k", "x")))
	connect(t, s, "a", "b")

	var got []domain.Event
	s.Subscribe(func(events []domain.Event) { got = append(got, events...) })

	require.NoError(t, s.Replace(Snapshot{
		Nodes: []domain.Node{
			promptNode(t, "a", "dog"),
			node(t, "k", domain.DisplayData{}),
			promptNode(t, "c", "new"),
		},
	}))

	types := map[string][]domain.EventType{}
	for _, e := range got {
		key := e.NodeID
		if e.EdgeID != "" {
			key = "edge"
		}
		types[key] = append(types[key], e.Type)
	}
	assert.Equal(t, []domain.EventType{domain.EventTypeNodeUpdated}, types["a"])
	assert.Equal(t, []domain.EventType{domain.EventTypeNodeRemoved}, types["b"])
	assert.Equal(t, []domain.EventType{domain.EventTypeNodeRemoved, domain.EventTypeNodeAdded}, types["k"])
	assert.Equal(t, []domain.EventType{domain.EventTypeNodeAdded}, types["c"])
	assert.Equal(t, []domain.EventType{domain.EventTypeEdgeRemoved}, types["edge"])
}
