package nodes

import (
	"context"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/pkg/domain"
	"github.com/aescanero/genflow/pkg/ports"
	"go.uber.org/zap"
)

// Graph is the slice of the graph store a running behaviour may touch
type Graph interface {
	Node(id string) (domain.Node, bool)
	OutgoingEdges(id string) []domain.Edge
	AddNode(node domain.Node) error
	AddEdge(conn domain.Connection) (domain.Edge, error)
	DeleteNode(id string)
}

// RunRequest carries everything a run needs
type RunRequest struct {
	Node   domain.Node
	Inputs []domain.Input
	Graph  Graph
	// Progress, when set, receives partial derived fields while the run is in flight.
	Progress func(domain.Patch)
}

// Outcome holds the derived fields a successful run writes back
type Outcome struct {
	Patch domain.Patch
}

// Triggerable is a node behaviour started by an explicit run
type Triggerable interface {
	// StartPatch returns the derived fields reset when a run begins.
	StartPatch() domain.Patch
	Run(ctx context.Context, req RunRequest) (Outcome, error)
}

// Registry maps each node kind to its behaviour
type Registry struct {
	triggerable map[domain.Kind]Triggerable
	reactive    map[domain.Kind]graph.Reactive
}

// NewRegistry wires the standard behaviours to a generation client
func NewRegistry(client ports.GenerationClient, logger *zap.Logger, opts ...ImageOption) *Registry {
	r := &Registry{
		triggerable: make(map[domain.Kind]Triggerable),
		reactive:    make(map[domain.Kind]graph.Reactive),
	}
	r.RegisterTriggerable(domain.KindLanguageModel, NewLanguageModel(client, logger))
	r.RegisterTriggerable(domain.KindImageGenerator, NewImageGenerator(client, logger, opts...))
	r.RegisterTriggerable(domain.KindVideoDirector, NewVideoDirector(client))
	r.RegisterReactive(domain.KindDisplay, Display{})
	return r
}

// RegisterTriggerable sets the run behaviour of a kind
func (r *Registry) RegisterTriggerable(kind domain.Kind, t Triggerable) {
	r.triggerable[kind] = t
}

// RegisterReactive sets the reactive behaviour of a kind
func (r *Registry) RegisterReactive(kind domain.Kind, re graph.Reactive) {
	r.reactive[kind] = re
}

// Triggerable returns the run behaviour of a kind
func (r *Registry) Triggerable(kind domain.Kind) (Triggerable, bool) {
	t, ok := r.triggerable[kind]
	return t, ok
}

// Reactive returns the reactive behaviour of a kind; it is a graph.ReactiveLookup
func (r *Registry) Reactive(kind domain.Kind) (graph.Reactive, bool) {
	re, ok := r.reactive[kind]
	return re, ok
}

// promptSources are the kinds whose value is read as a prompt
var promptSources = []domain.Kind{domain.KindPrompt, domain.KindLanguageModel}

// imageSources are the kinds whose value is read as an image URL
var imageSources = []domain.Kind{domain.KindImageOutput}

// preferConnected applies the local-input-wins-if-absent rule: the first
// connected input of the given kinds, else the node's own field.
func preferConnected(inputs []domain.Input, local string, kinds ...domain.Kind) string {
	if v, ok := graph.FirstOfKind(inputs, kinds...); ok {
		return v
	}
	return local
}
