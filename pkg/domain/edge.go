package domain

// Connection is a request to wire two nodes, as emitted by a connect gesture
type Connection struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Edge is a directed link from a source node to a target node
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Animated     bool   `json:"animated,omitempty"`
	Selected     bool   `json:"selected,omitempty"`
}

// SameConnection reports whether e already wires what c asks for
func (e Edge) SameConnection(c Connection) bool {
	return e.Source == c.Source &&
		e.Target == c.Target &&
		e.SourceHandle == c.SourceHandle &&
		e.TargetHandle == c.TargetHandle
}

// Touches reports whether nodeID is either endpoint of e
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Input is a value resolved by following an incoming edge to its source
type Input struct {
	SourceID   string `json:"sourceId"`
	SourceKind Kind   `json:"type"`
	Value      string `json:"value"`
}
