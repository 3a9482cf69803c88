package orchestrator

import (
	"fmt"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/pkg/domain"
)

// Validator checks imported graphs before they replace the live one
type Validator struct{}

// NewValidator creates a new graph validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates a whole graph snapshot
func (v *Validator) Validate(snap *graph.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("graph is nil")
	}

	nodeIDs := make(map[string]bool, len(snap.Nodes))
	for i, node := range snap.Nodes {
		if err := node.Validate(); err != nil {
			return fmt.Errorf("invalid node %d: %w", i, err)
		}
		if nodeIDs[node.ID] {
			return fmt.Errorf("%w: node %s", domain.ErrDuplicateID, node.ID)
		}
		nodeIDs[node.ID] = true
	}

	edgeIDs := make(map[string]bool, len(snap.Edges))
	for i, edge := range snap.Edges {
		if edge.ID == "" {
			return fmt.Errorf("invalid edge %d: edge id is required", i)
		}
		if edgeIDs[edge.ID] {
			return fmt.Errorf("%w: edge %s", domain.ErrDuplicateID, edge.ID)
		}
		edgeIDs[edge.ID] = true

		if !nodeIDs[edge.Source] {
			return fmt.Errorf("%w: edge %s references source %s", domain.ErrDanglingEndpoint, edge.ID, edge.Source)
		}
		if !nodeIDs[edge.Target] {
			return fmt.Errorf("%w: edge %s references target %s", domain.ErrDanglingEndpoint, edge.ID, edge.Target)
		}
	}

	return nil
}
