package domain

import (
	"encoding/json"
	"fmt"
)

// Position is owned by the rendering surface and opaque to the engine
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the generation graph
type Node struct {
	ID       string
	Kind     Kind
	Position Position
	Selected bool
	Data     Payload
}

// NewNode builds a node, rejecting a payload whose variant disagrees with kind
func NewNode(id string, kind Kind, pos Position, data Payload) (Node, error) {
	if id == "" {
		return Node{}, fmt.Errorf("node id is required")
	}
	if data == nil {
		var err error
		if data, err = NewPayload(kind); err != nil {
			return Node{}, err
		}
	}
	if data.Kind() != kind {
		return Node{}, fmt.Errorf("%w: %s payload on %s node", ErrKindMismatch, data.Kind(), kind)
	}
	return Node{ID: id, Kind: kind, Position: pos, Data: data}, nil
}

// Validate checks the node invariants
func (n Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node id is required")
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("unknown node kind: %q", n.Kind)
	}
	if n.Data == nil || n.Data.Kind() != n.Kind {
		return fmt.Errorf("%w: node %s", ErrKindMismatch, n.ID)
	}
	return nil
}

type nodeJSON struct {
	ID       string          `json:"id"`
	Type     Kind            `json:"type"`
	Position Position        `json:"position"`
	Selected bool            `json:"selected,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the node in the shape the canvas consumes
func (n Node) MarshalJSON() ([]byte, error) {
	var data []byte
	if n.Data != nil {
		fields, err := EncodePayload(n.Data)
		if err != nil {
			return nil, err
		}
		if data, err = json.Marshal(fields); err != nil {
			return nil, err
		}
	}
	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Type:     n.Kind,
		Position: n.Position,
		Selected: n.Selected,
		Data:     data,
	})
}

// UnmarshalJSON decodes a node, selecting the payload variant by its type
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("unknown node kind: %q", raw.Type)
	}
	data, err := DecodePayload(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	*n = Node{
		ID:       raw.ID,
		Kind:     raw.Type,
		Position: raw.Position,
		Selected: raw.Selected,
		Data:     data,
	}
	return nil
}
