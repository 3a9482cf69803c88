package pollinations

import (
	"github.com/openai/openai-go"

	"github.com/aescanero/genflow/pkg/domain"
)

// chatParams maps a text request onto the SDK's completion parameters
func chatParams(req *domain.TextRequest) openai.ChatCompletionNewParams {
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
		Temperature: openai.Float(temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	for _, m := range req.Messages {
		params.Messages = append(params.Messages, chatMessage(m))
	}
	return params
}

func chatMessage(m domain.ChatMessage) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case domain.RoleSystem:
		return openai.SystemMessage(m.Text)
	case domain.RoleAssistant:
		return openai.AssistantMessage(m.Text)
	}

	if len(m.Parts) == 0 {
		return openai.UserMessage(m.Text)
	}
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.ImageURL != nil {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: p.ImageURL.URL,
			}))
			continue
		}
		parts = append(parts, openai.TextContentPart(p.Text))
	}
	return openai.UserMessage(parts)
}
