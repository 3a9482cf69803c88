package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/aescanero/genflow/pkg/domain"
	"github.com/aescanero/genflow/pkg/ports"
	"go.uber.org/zap"
)

// LanguageModel runs a chat completion.
// The message comes from the first connected Prompt or LanguageModel input,
// falling back to the local user message; the image likewise from the first
// connected ImageOutput, falling back to the local image URL.
type LanguageModel struct {
	client ports.GenerationClient
	logger *zap.Logger
}

// NewLanguageModel creates the LanguageModel behaviour
func NewLanguageModel(client ports.GenerationClient, logger *zap.Logger) *LanguageModel {
	return &LanguageModel{client: client, logger: logger}
}

// StartPatch also clears the previous output
func (l *LanguageModel) StartPatch() domain.Patch {
	return domain.Patch{
		domain.FieldIsLoading: true,
		domain.FieldError:     nil,
		domain.FieldOutput:    nil,
	}
}

// Run implements Triggerable
func (l *LanguageModel) Run(ctx context.Context, req RunRequest) (Outcome, error) {
	data, ok := req.Node.Data.(domain.LLMData)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: node %s", domain.ErrKindMismatch, req.Node.ID)
	}

	message := preferConnected(req.Inputs, data.UserMessage, promptSources...)
	image := preferConnected(req.Inputs, data.ImageURL, imageSources...)
	if message == "" {
		return Outcome{}, fmt.Errorf("%w: no message provided", domain.ErrMissingInput)
	}

	textReq := &domain.TextRequest{
		Model:       data.Model,
		Messages:    buildMessages(data.SystemPrompt, message, image),
		Temperature: data.Temperature,
		MaxTokens:   data.MaxTokens,
	}

	var output string
	if data.Stream {
		var sb strings.Builder
		err := l.client.StreamText(ctx, textReq, func(delta string) error {
			sb.WriteString(delta)
			if req.Progress != nil {
				req.Progress(domain.Patch{domain.FieldOutput: sb.String()})
			}
			return nil
		})
		if err != nil {
			return Outcome{}, err
		}
		output = sb.String()
	} else {
		var err error
		if output, err = l.client.GenerateText(ctx, textReq); err != nil {
			return Outcome{}, err
		}
	}

	l.logger.Debug("language model completed",
		zap.String("node_id", req.Node.ID),
		zap.String("model", data.Model),
		zap.Int("output_len", len(output)))

	return Outcome{Patch: domain.Patch{domain.FieldOutput: output}}, nil
}

func buildMessages(system, message, image string) []domain.ChatMessage {
	var messages []domain.ChatMessage
	if system != "" {
		messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Text: system})
	}
	if image != "" {
		messages = append(messages, domain.ChatMessage{
			Role:  domain.RoleUser,
			Parts: []domain.ContentPart{domain.TextPart(message), domain.ImagePart(image)},
		})
	} else {
		messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Text: message})
	}
	return messages
}
