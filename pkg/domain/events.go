package domain

import "time"

// EventType identifies a graph or run change
type EventType string

const (
	EventTypeNodeAdded    EventType = "node.added"
	EventTypeNodeRemoved  EventType = "node.removed"
	EventTypeNodeUpdated  EventType = "node.updated"
	EventTypeEdgeAdded    EventType = "edge.added"
	EventTypeEdgeRemoved  EventType = "edge.removed"
	EventTypeEdgeUpdated  EventType = "edge.updated"
	EventTypeRunStarted   EventType = "run.started"
	EventTypeRunSucceeded EventType = "run.succeeded"
	EventTypeRunFailed    EventType = "run.failed"
)

// Topics events are published on
const (
	TopicGraph = "graph.events"
	TopicRuns  = "run.events"
)

// Event is a notification about the graph, published on the event bus
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	NodeID    string                 `json:"node_id,omitempty"`
	EdgeID    string                 `json:"edge_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
