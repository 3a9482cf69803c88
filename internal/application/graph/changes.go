package graph

import (
	"fmt"

	"github.com/aescanero/genflow/pkg/domain"
)

// ChangeType is the kind of a change descriptor sent by the canvas
type ChangeType string

const (
	ChangeAdd      ChangeType = "add"
	ChangeRemove   ChangeType = "remove"
	ChangeReplace  ChangeType = "replace"
	ChangePosition ChangeType = "position"
	ChangeSelect   ChangeType = "select"
)

// NodeChange describes one node edit in a batch
type NodeChange struct {
	Type     ChangeType       `json:"type"`
	ID       string           `json:"id,omitempty"`
	Item     *domain.Node     `json:"item,omitempty"`
	Position *domain.Position `json:"position,omitempty"`
	Selected bool             `json:"selected,omitempty"`
}

// EdgeChange describes one edge edit in a batch
type EdgeChange struct {
	Type     ChangeType   `json:"type"`
	ID       string       `json:"id,omitempty"`
	Item     *domain.Edge `json:"item,omitempty"`
	Selected bool         `json:"selected,omitempty"`
}

// ApplyNodeChanges applies a batch in order. Each change behaves exactly like
// the matching single operation; a node removal cascades to its edges.
// On error the changes before the failing one stay applied.
func (s *Store) ApplyNodeChanges(changes []NodeChange) error {
	return s.mutate(func(t *tx) error {
		for i, c := range changes {
			if err := t.applyNodeChange(c); err != nil {
				return fmt.Errorf("node change %d (%s): %w", i, c.Type, err)
			}
		}
		return nil
	})
}

// ApplyEdgeChanges applies a batch of edge changes in order
func (s *Store) ApplyEdgeChanges(changes []EdgeChange) error {
	return s.mutate(func(t *tx) error {
		for i, c := range changes {
			if err := t.applyEdgeChange(c); err != nil {
				return fmt.Errorf("edge change %d (%s): %w", i, c.Type, err)
			}
		}
		return nil
	})
}

func (t *tx) applyNodeChange(c NodeChange) error {
	switch c.Type {
	case ChangeAdd:
		if c.Item == nil {
			return fmt.Errorf("add requires an item")
		}
		return t.addNode(*c.Item)
	case ChangeRemove:
		t.deleteNode(c.ID)
		return nil
	case ChangeReplace:
		if c.Item == nil {
			return fmt.Errorf("replace requires an item")
		}
		id := c.ID
		if id == "" {
			id = c.Item.ID
		}
		return t.replaceNode(id, *c.Item)
	case ChangePosition:
		if c.Position != nil {
			t.setPosition(c.ID, *c.Position)
		}
		return nil
	case ChangeSelect:
		t.selectNode(c.ID, c.Selected)
		return nil
	default:
		return fmt.Errorf("unknown change type %q", c.Type)
	}
}

func (t *tx) applyEdgeChange(c EdgeChange) error {
	switch c.Type {
	case ChangeAdd:
		if c.Item == nil {
			return fmt.Errorf("add requires an item")
		}
		_, err := t.addEdge(domain.Connection{
			ID:           c.Item.ID,
			Source:       c.Item.Source,
			Target:       c.Item.Target,
			SourceHandle: c.Item.SourceHandle,
			TargetHandle: c.Item.TargetHandle,
		})
		return err
	case ChangeRemove:
		t.deleteEdge(c.ID)
		return nil
	case ChangeReplace:
		if c.Item == nil {
			return fmt.Errorf("replace requires an item")
		}
		id := c.ID
		if id == "" {
			id = c.Item.ID
		}
		return t.replaceEdge(id, *c.Item)
	case ChangeSelect:
		t.selectEdge(c.ID, c.Selected)
		return nil
	default:
		return fmt.Errorf("unknown change type %q", c.Type)
	}
}
