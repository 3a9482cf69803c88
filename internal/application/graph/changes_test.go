package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/genflow/pkg/domain"
)

func TestStore_BatchEqualsSequential(t *testing.T) {
	a := promptNode(t, "a", "cat")
	b := node(t, "b", domain.LLMData{Model: "openai"})
	c := node(t, "c", domain.DisplayData{InputType: domain.InputTypeAuto})
	moved := domain.Position{X: 40, Y: 80}

	batched := newTestStore()
	require.NoError(t, batched.ApplyNodeChanges([]NodeChange{
		{Type: ChangeAdd, Item: &a},
		{Type: ChangeAdd, Item: &b},
		{Type: ChangeAdd, Item: &c},
	}))
	require.NoError(t, batched.ApplyEdgeChanges([]EdgeChange{
		{Type: ChangeAdd, Item: &domain.Edge{ID: "e1", Source: "a", Target: "b"}},
		{Type: ChangeAdd, Item: &domain.Edge{ID: "e2", Source: "b", Target: "c"}},
		{Type: ChangeAdd, Item: &domain.Edge{ID: "e3", Source: "a", Target: "c"}},
	}))
	require.NoError(t, batched.ApplyNodeChanges([]NodeChange{
		{Type: ChangePosition, ID: "c", Position: &moved},
		{Type: ChangeSelect, ID: "a", Selected: true},
		{Type: ChangeRemove, ID: "b"},
		{Type: ChangeRemove, ID: "already-gone"},
	}))

	sequential := newTestStore()
	require.NoError(t, sequential.AddNode(a))
	require.NoError(t, sequential.AddNode(b))
	require.NoError(t, sequential.AddNode(c))
	for _, conn := range []domain.Connection{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
		{ID: "e3", Source: "a", Target: "c"},
	} {
		_, err := sequential.AddEdge(conn)
		require.NoError(t, err)
	}
	require.NoError(t, sequential.ApplyNodeChanges([]NodeChange{{Type: ChangePosition, ID: "c", Position: &moved}}))
	require.NoError(t, sequential.ApplyNodeChanges([]NodeChange{{Type: ChangeSelect, ID: "a", Selected: true}}))
	sequential.DeleteNode("b")
	sequential.DeleteNode("already-gone")

	if diff := cmp.Diff(sequential.Snapshot(), batched.Snapshot()); diff != "" {
		t.Errorf("batch differs from sequential application (-seq +batch):\n%s", diff)
	}

	edges := batched.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "e3", edges[0].ID)
}

func TestStore_BatchStopsAtFirstError(t *testing.T) {
	s := newTestStore()
	a := promptNode(t, "a", "cat")
	dup := promptNode(t, "a", "dog")
	d := node(t, "d", domain.DisplayData{})

	err := s.ApplyNodeChanges([]NodeChange{
		{Type: ChangeAdd, Item: &a},
		{Type: ChangeAdd, Item: &dup},
		{Type: ChangeAdd, Item: &d},
	})
	require.ErrorIs(t, err, domain.ErrDuplicateID)
	assert.Contains(t, err.Error(), "node change 1")

	nodes := s.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "a", nodes[0].ID)
}

func TestStore_EdgeBatchRejectsDanglingEdge(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))

	err := s.ApplyEdgeChanges([]EdgeChange{
		{Type: ChangeAdd, Item: &domain.Edge{ID: "e1", Source: "a", Target: "ghost"}},
	})
	require.ErrorIs(t, err, domain.ErrDanglingEndpoint)
	assert.Empty(t, s.Edges())
}

func TestStore_ReplaceAndSelectEdge(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))
	require.NoError(t, s.AddNode(node(t, "b", domain.DisplayData{})))
	require.NoError(t, s.AddNode(node(t, "c", domain.DisplayData{})))
	e := connect(t, s, "a", "b")

	require.NoError(t, s.ApplyEdgeChanges([]EdgeChange{
		{Type: ChangeReplace, Item: &domain.Edge{ID: e.ID, Source: "a", Target: "c", Animated: true}},
		{Type: ChangeSelect, ID: e.ID, Selected: true},
	}))

	edges := s.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "c", edges[0].Target)
	assert.True(t, edges[0].Selected)
}

func TestStore_EdgeBatchAddMatchesAddEdge(t *testing.T) {
	seed := func() *Store {
		s := newTestStore()
		require.NoError(t, s.AddNode(promptNode(t, "a", "cat")))
		require.NoError(t, s.AddNode(node(t, "b", domain.DisplayData{})))
		return s
	}

	sequential := seed()
	_, err := sequential.AddEdge(domain.Connection{ID: "e1", Source: "a", Target: "b"})
	require.NoError(t, err)
	existing, err := sequential.AddEdge(domain.Connection{ID: "e2", Source: "a", Target: "b"})
	require.NoError(t, err)
	assert.Equal(t, "e1", existing.ID)

	batched := seed()
	require.NoError(t, batched.ApplyEdgeChanges([]EdgeChange{
		{Type: ChangeAdd, Item: &domain.Edge{ID: "e1", Source: "a", Target: "b"}},
		{Type: ChangeAdd, Item: &domain.Edge{ID: "e2", Source: "a", Target: "b"}},
	}))

	if diff := cmp.Diff(sequential.Edges(), batched.Edges()); diff != "" {
		t.Errorf("batch add differs from AddEdge (-seq +batch):\n%s", diff)
	}
	edges := batched.Edges()
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Animated)
	assert.Len(t, batched.ConnectedInputs("b"), 1)
}
