package nodes

import (
	"strings"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/pkg/domain"
)

// ContentType is how a display renders its content
type ContentType string

const (
	ContentText        ContentType = "text"
	ContentImage       ContentType = "image"
	ContentVideo       ContentType = "video"
	ContentPlaceholder ContentType = "placeholder"
)

// PlaceholderText is shown by a display with nothing to show
const PlaceholderText = "Connect a node to display output"

const urlPrefix = "http"

var (
	videoHints = []string{"video", "mp4", "webm"}
	imageHints = []string{"image", "png", "jpg", "jpeg", "gif"}
)

// Classify guesses how to render a string. Best effort: URLs without one of
// the hint substrings are treated as text.
func Classify(s string) ContentType {
	if !strings.HasPrefix(s, urlPrefix) {
		return ContentText
	}
	if containsAny(s, videoHints) {
		return ContentVideo
	}
	if containsAny(s, imageHints) {
		return ContentImage
	}
	return ContentText
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// View is what the canvas renders for a display node
type View struct {
	Type    ContentType `json:"type"`
	Content string      `json:"content"`
}

// Render picks the view for a display payload; an explicit input type wins over the heuristic
func Render(d domain.DisplayData) View {
	if d.Content == "" {
		return View{Type: ContentPlaceholder, Content: PlaceholderText}
	}
	switch d.InputType {
	case domain.InputTypeText:
		return View{Type: ContentText, Content: d.Content}
	case domain.InputTypeImage:
		return View{Type: ContentImage, Content: d.Content}
	case domain.InputTypeVideo:
		return View{Type: ContentVideo, Content: d.Content}
	default:
		return View{Type: Classify(d.Content), Content: d.Content}
	}
}

// Display mirrors the last connected input. It has no run, loading or error state.
type Display struct{}

// Refresh implements graph.Reactive
func (Display) Refresh(node domain.Node, inputs []domain.Input) (domain.Patch, bool) {
	data, ok := node.Data.(domain.DisplayData)
	if !ok {
		return nil, false
	}
	want := ""
	if last, ok := graph.Last(inputs); ok {
		want = last.Value
	}
	if data.Content == want {
		return nil, false
	}
	if want == "" {
		return domain.Patch{domain.FieldContent: nil}, true
	}
	return domain.Patch{domain.FieldContent: want}, true
}
