package domain

import "fmt"

// Kind is the fixed category of a node
type Kind string

const (
	KindPrompt         Kind = "prompt"
	KindLanguageModel  Kind = "llm"
	KindImageGenerator Kind = "imageGenerator"
	KindImageOutput    Kind = "imageOutput"
	KindVideoDirector  Kind = "videoDirector"
	KindDisplay        Kind = "display"
)

// Kinds lists every node kind in palette order
var Kinds = []Kind{
	KindPrompt,
	KindLanguageModel,
	KindImageGenerator,
	KindImageOutput,
	KindVideoDirector,
	KindDisplay,
}

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown node kind: %q", s)
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}
