package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is the kind-specific data carried by a node.
// The set of implementations is closed: one struct per Kind.
type Payload interface {
	Kind() Kind
}

// Patch is a shallow partial update of a payload, keyed by JSON field name.
// A nil value resets the field to its zero value.
type Patch map[string]interface{}

// Payload field names used by patches.
const (
	FieldType      = "type"
	FieldLabel     = "label"
	FieldPrompt    = "prompt"
	FieldOutput    = "output"
	FieldOutputURL = "outputUrl"
	FieldImageURL  = "imageUrl"
	FieldContent   = "content"
	FieldIsLoading = "isLoading"
	FieldError     = "error"
	FieldSeed      = "seed"
	FieldIndex     = "index"
)

// InputType is the render hint of a Display node
type InputType string

const (
	InputTypeAuto  InputType = "auto"
	InputTypeText  InputType = "text"
	InputTypeImage InputType = "image"
	InputTypeVideo InputType = "video"
)

// PromptData is a static text source
type PromptData struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// LLMData configures a language model call and holds its last result
type LLMData struct {
	Label        string   `json:"label"`
	Model        string   `json:"model"`
	SystemPrompt string   `json:"systemPrompt"`
	UserMessage  string   `json:"userMessage"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Stream       bool     `json:"stream,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"maxTokens,omitempty"`

	Output    string `json:"output,omitempty"`
	IsLoading bool   `json:"isLoading,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ImageGeneratorData configures the fan-out image node
type ImageGeneratorData struct {
	Label      string `json:"label"`
	Model      string `json:"model"`
	Prompt     string `json:"prompt"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Seed       *int64 `json:"seed,omitempty"`
	ImageCount int    `json:"imageCount,omitempty"`

	IsLoading bool   `json:"isLoading,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ImageOutputData is one image spawned by an ImageGenerator run
type ImageOutputData struct {
	Label    string `json:"label"`
	ImageURL string `json:"imageUrl,omitempty"`
	Index    int    `json:"index"`
	Seed     *int64 `json:"seed,omitempty"`
}

// VideoDirectorData configures a video generation
type VideoDirectorData struct {
	Label    string `json:"label"`
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl,omitempty"`

	OutputURL string `json:"outputUrl,omitempty"`
	IsLoading bool   `json:"isLoading,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DisplayData is a sink that mirrors its latest input
type DisplayData struct {
	Label     string    `json:"label"`
	InputType InputType `json:"inputType"`
	Content   string    `json:"content,omitempty"`
}

func (PromptData) Kind() Kind         { return KindPrompt }
func (LLMData) Kind() Kind            { return KindLanguageModel }
func (ImageGeneratorData) Kind() Kind { return KindImageGenerator }
func (ImageOutputData) Kind() Kind    { return KindImageOutput }
func (VideoDirectorData) Kind() Kind  { return KindVideoDirector }
func (DisplayData) Kind() Kind        { return KindDisplay }

// NewPayload returns the zero payload for a kind
func NewPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindPrompt:
		return PromptData{}, nil
	case KindLanguageModel:
		return LLMData{}, nil
	case KindImageGenerator:
		return ImageGeneratorData{}, nil
	case KindImageOutput:
		return ImageOutputData{}, nil
	case KindVideoDirector:
		return VideoDirectorData{}, nil
	case KindDisplay:
		return DisplayData{}, nil
	default:
		return nil, fmt.Errorf("unknown node kind: %q", kind)
	}
}

// DefaultPayload returns the payload a palette-created node starts with
func DefaultPayload(kind Kind) (Payload, error) {
	switch kind {
	case KindPrompt:
		return PromptData{Label: "Prompt"}, nil
	case KindLanguageModel:
		return LLMData{Label: "LLM", Model: DefaultTextModel}, nil
	case KindImageGenerator:
		return ImageGeneratorData{Label: "Image Generator", Model: DefaultImageModel, Width: 512, Height: 512}, nil
	case KindImageOutput:
		return ImageOutputData{Label: "Image 1"}, nil
	case KindVideoDirector:
		return VideoDirectorData{Label: "Video Director", Model: DefaultVideoModel}, nil
	case KindDisplay:
		return DisplayData{Label: "Display", InputType: InputTypeAuto}, nil
	default:
		return nil, fmt.Errorf("unknown node kind: %q", kind)
	}
}

// DecodePayload decodes raw JSON into the payload variant for kind.
// A "type" field, if present, must name the same kind.
func DecodePayload(kind Kind, raw []byte) (Payload, error) {
	var fields map[string]interface{}
	if len(raw) > 0 {
		if err := unmarshalNumbers(raw, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
	}
	return decodeFields(kind, fields)
}

// DecodePatch decodes a JSON object into a Patch, keeping numbers exact
func DecodePatch(raw []byte) (Patch, error) {
	var patch Patch
	if err := unmarshalNumbers(raw, &patch); err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	return patch, nil
}

// unmarshalNumbers decodes numbers as json.Number so integers above 2^53
// survive a round trip through a generic map.
func unmarshalNumbers(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// EncodePayload flattens a payload into its JSON fields, including the "type" tag
func EncodePayload(p Payload) (map[string]interface{}, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	fields := make(map[string]interface{})
	if err := unmarshalNumbers(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	fields[FieldType] = string(p.Kind())
	return fields, nil
}

// ApplyPatch shallow-merges patch into p and returns the result.
// The variant never changes; a patch naming another type fails with ErrKindMismatch.
func ApplyPatch(p Payload, patch Patch) (Payload, error) {
	if len(patch) == 0 {
		return p, nil
	}
	fields, err := EncodePayload(p)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		fields[k] = v
	}
	return decodeFields(p.Kind(), fields)
}

func decodeFields(kind Kind, fields map[string]interface{}) (Payload, error) {
	if t, ok := fields[FieldType]; ok && t != nil {
		if s, _ := t.(string); s != string(kind) {
			return nil, fmt.Errorf("%w: %v is not %s", ErrKindMismatch, t, kind)
		}
	}
	delete(fields, FieldType)

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	switch kind {
	case KindPrompt:
		var v PromptData
		err = json.Unmarshal(data, &v)
		return v, wrapDecode(err)
	case KindLanguageModel:
		var v LLMData
		err = json.Unmarshal(data, &v)
		return v, wrapDecode(err)
	case KindImageGenerator:
		var v ImageGeneratorData
		err = json.Unmarshal(data, &v)
		return v, wrapDecode(err)
	case KindImageOutput:
		var v ImageOutputData
		err = json.Unmarshal(data, &v)
		return v, wrapDecode(err)
	case KindVideoDirector:
		var v VideoDirectorData
		err = json.Unmarshal(data, &v)
		return v, wrapDecode(err)
	case KindDisplay:
		var v DisplayData
		err = json.Unmarshal(data, &v)
		return v, wrapDecode(err)
	default:
		return nil, fmt.Errorf("unknown node kind: %q", kind)
	}
}

func wrapDecode(err error) error {
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}
