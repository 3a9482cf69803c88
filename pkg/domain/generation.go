package domain

import "encoding/json"

// Chat roles understood by the text endpoint
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ImageRef points a multimodal message part at an image
type ImageRef struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multimodal message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// TextPart builds a text content part
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image content part
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageRef{URL: url}}
}

// ChatMessage is a single message; Parts takes precedence over Text when set
type ChatMessage struct {
	Role  string
	Text  string
	Parts []ContentPart
}

// MarshalJSON encodes content as a plain string or as a parts array
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	var content interface{} = m.Text
	if len(m.Parts) > 0 {
		content = m.Parts
	}
	return json.Marshal(struct {
		Role    string      `json:"role"`
		Content interface{} `json:"content"`
	}{m.Role, content})
}

// TextRequest asks the service for a chat completion
type TextRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature *float64
	MaxTokens   int
}

// ImageRequest describes an image to be rendered from a URL
type ImageRequest struct {
	Prompt string
	Model  string
	Width  int
	Height int
	Seed   int64
}

// VideoRequest describes a video to be rendered from a URL
type VideoRequest struct {
	Prompt   string
	Model    string
	ImageURL string
}
