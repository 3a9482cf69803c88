package graph

import "github.com/aescanero/genflow/pkg/domain"

// EmittedValue is the single value a node offers downstream. An empty string
// counts as no value.
func EmittedValue(n domain.Node) (string, bool) {
	var v string
	switch d := n.Data.(type) {
	case domain.PromptData:
		v = d.Prompt
	case domain.LLMData:
		// Partial streamed output is not offered while the run is in flight.
		if d.IsLoading || d.Error != "" {
			return "", false
		}
		v = d.Output
	case domain.ImageGeneratorData:
		// Fans out to ImageOutput nodes instead of emitting.
		return "", false
	case domain.ImageOutputData:
		v = d.ImageURL
	case domain.VideoDirectorData:
		v = d.OutputURL
	case domain.DisplayData:
		v = d.Content
	}
	return v, v != ""
}

// EmittedValue returns the current emitted value of a node
func (s *Store) EmittedValue(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.node(id)
	if !ok {
		return "", false
	}
	return EmittedValue(n)
}

// ConnectedInputs resolves the incoming edges of id in edge insertion order.
// Sources without a value are omitted, so the result is never longer than the
// node's in-degree.
func (s *Store) ConnectedInputs(id string) []domain.Input {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectedInputs(id)
}

func (s *Store) connectedInputs(id string) []domain.Input {
	var inputs []domain.Input
	for _, e := range s.incoming(id) {
		src, ok := s.node(e.Source)
		if !ok {
			continue
		}
		v, ok := EmittedValue(src)
		if !ok {
			continue
		}
		inputs = append(inputs, domain.Input{
			SourceID:   src.ID,
			SourceKind: src.Kind,
			Value:      v,
		})
	}
	return inputs
}

// FirstOfKind returns the value of the first input whose source is one of kinds
func FirstOfKind(inputs []domain.Input, kinds ...domain.Kind) (string, bool) {
	for _, in := range inputs {
		for _, k := range kinds {
			if in.SourceKind == k {
				return in.Value, true
			}
		}
	}
	return "", false
}

// Last returns the most recently connected input that currently has a value.
// This orders by edge insertion, not by when the value was last updated.
func Last(inputs []domain.Input) (domain.Input, bool) {
	if len(inputs) == 0 {
		return domain.Input{}, false
	}
	return inputs[len(inputs)-1], true
}
