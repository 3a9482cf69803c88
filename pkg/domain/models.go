package domain

// ModelTag is a capability label on a model
type ModelTag string

const (
	TagVision    ModelTag = "Vision"
	TagReasoning ModelTag = "Reasoning"
	TagSearch    ModelTag = "Search"
	TagCode      ModelTag = "Code"
	TagAudioIn   ModelTag = "Audio In"
	TagAudioOut  ModelTag = "Audio Out"
)

// ModelCategory groups models by what they generate
type ModelCategory string

const (
	CategoryText  ModelCategory = "text"
	CategoryImage ModelCategory = "image"
	CategoryVideo ModelCategory = "video"
)

// ModelInfo describes one selectable model
type ModelInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Pricing     string     `json:"pricing"`
	Tags        []ModelTag `json:"tags"`
	Description string     `json:"description,omitempty"`
}

const (
	DefaultTextModel  = "openai"
	DefaultImageModel = "flux"
	DefaultVideoModel = "veo"
)

var ImageModels = []ModelInfo{
	{ID: "flux", Name: "Flux Schnell", Pricing: "0.0002/img", Tags: []ModelTag{}, Description: "Fast and efficient image generation"},
	{ID: "zimage", Name: "Z-Image Turbo", Pricing: "0.0002/img", Tags: []ModelTag{}, Description: "Turbo speed image generation"},
	{ID: "turbo", Name: "SDXL Turbo", Pricing: "0.0003/img", Tags: []ModelTag{}, Description: "Stable Diffusion XL Turbo"},
	{ID: "gptimage", Name: "GPT Image 1 Mini", Pricing: "2.5/M img", Tags: []ModelTag{TagVision}, Description: "GPT-powered image generation"},
	{ID: "gptimage-large", Name: "GPT Image 1.5", Pricing: "8.0/M img", Tags: []ModelTag{TagVision}, Description: "High quality GPT image generation"},
	{ID: "seedream", Name: "Seedream 4.0", Pricing: "0.03/img", Tags: []ModelTag{TagVision}, Description: "Advanced image synthesis"},
	{ID: "kontext", Name: "FLUX.1 Kontext", Pricing: "0.04/img", Tags: []ModelTag{TagVision}, Description: "Contextual image generation"},
	{ID: "nanobanana", Name: "NanoBanana", Pricing: "0.3/M img", Tags: []ModelTag{TagVision}, Description: "Compact vision model"},
	{ID: "seedream-pro", Name: "Seedream 4.5 Pro", Pricing: "0.04/img", Tags: []ModelTag{TagVision}, Description: "Professional Seedream model"},
	{ID: "nanobanana-pro", Name: "NanoBanana Pro", Pricing: "1.25/M img", Tags: []ModelTag{TagVision}, Description: "Pro vision model"},
}

var VideoModels = []ModelInfo{
	{ID: "seedance-pro", Name: "Seedance Pro-Fast", Pricing: "1.0/M", Tags: []ModelTag{TagVision}, Description: "Fast video generation with image input"},
	{ID: "seedance", Name: "Seedance Lite", Pricing: "1.8/M", Tags: []ModelTag{TagVision}, Description: "Lightweight video generation"},
	{ID: "veo", Name: "Veo 3.1 Fast", Pricing: "0.150/sec", Tags: []ModelTag{TagVision}, Description: "Text-to-video generation"},
}

var TextModels = []ModelInfo{
	{ID: "nova-micro", Name: "Amazon Nova Micro", Pricing: "Low", Tags: []ModelTag{}, Description: "Fast lightweight model"},
	{ID: "qwen-coder", Name: "Qwen3 Coder 30B", Pricing: "Medium", Tags: []ModelTag{TagCode}, Description: "Code-focused model"},
	{ID: "mistral", Name: "Mistral Small 3.2 24B", Pricing: "Medium", Tags: []ModelTag{}, Description: "Balanced performance"},
	{ID: "gemini-fast", Name: "Google Gemini 2.5 Flash Lite", Pricing: "Low", Tags: []ModelTag{TagVision, TagSearch, TagCode, TagAudioIn}, Description: "Fast multimodal model"},
	{ID: "openai-fast", Name: "OpenAI GPT-5 Nano", Pricing: "Low", Tags: []ModelTag{TagVision, TagCode}, Description: "Fast GPT model"},
	{ID: "grok", Name: "xAI Grok 4 Fast", Pricing: "Medium", Tags: []ModelTag{TagCode}, Description: "xAI flagship fast"},
	{ID: "openai", Name: "OpenAI GPT-5 Mini", Pricing: "Medium", Tags: []ModelTag{TagVision, TagCode}, Description: "Balanced GPT model"},
	{ID: "perplexity-fast", Name: "Perplexity Sonar", Pricing: "Medium", Tags: []ModelTag{TagSearch}, Description: "Search-enabled model"},
	{ID: "gemini", Name: "Google Gemini 3 Flash", Pricing: "Medium", Tags: []ModelTag{TagVision, TagAudioIn, TagSearch, TagCode}, Description: "Powerful multimodal"},
	{ID: "gemini-search", Name: "Google Gemini 3 Flash Search", Pricing: "Medium", Tags: []ModelTag{TagSearch}, Description: "Search-optimized Gemini"},
	{ID: "chickytutor", Name: "ChickyTutor", Pricing: "Low", Tags: []ModelTag{}, Description: "Educational assistant"},
	{ID: "minimax", Name: "MiniMax M2.1", Pricing: "Medium", Tags: []ModelTag{TagReasoning}, Description: "Reasoning-focused model"},
	{ID: "claude-fast", Name: "Anthropic Claude Haiku 4.5", Pricing: "Medium", Tags: []ModelTag{TagVision}, Description: "Fast Claude model"},
	{ID: "deepseek", Name: "DeepSeek V3.2", Pricing: "Medium", Tags: []ModelTag{TagReasoning}, Description: "Deep reasoning model"},
	{ID: "glm", Name: "Z.ai GLM-4.7", Pricing: "Medium", Tags: []ModelTag{TagReasoning, TagCode}, Description: "GLM reasoning model"},
	{ID: "kimi-k2-thinking", Name: "Moonshot Kimi K2 Thinking", Pricing: "High", Tags: []ModelTag{TagReasoning}, Description: "Advanced reasoning"},
	{ID: "midijourney", Name: "MIDIjourney", Pricing: "Medium", Tags: []ModelTag{}, Description: "Audio/Music generation"},
	{ID: "claude", Name: "Anthropic Claude Sonnet 4.5", Pricing: "High", Tags: []ModelTag{TagVision}, Description: "Powerful Claude model"},
	{ID: "claude-large", Name: "Anthropic Claude Opus 4.5", Pricing: "High", Tags: []ModelTag{TagVision}, Description: "Most capable Claude"},
	{ID: "perplexity-reasoning", Name: "Perplexity Sonar Reasoning", Pricing: "High", Tags: []ModelTag{TagReasoning, TagSearch}, Description: "Reasoning with search"},
	{ID: "gemini-large", Name: "Google Gemini 3 Pro", Pricing: "High", Tags: []ModelTag{TagVision, TagAudioIn, TagReasoning, TagSearch}, Description: "Pro Gemini model"},
	{ID: "openai-large", Name: "OpenAI GPT-5.2", Pricing: "High", Tags: []ModelTag{TagVision, TagReasoning}, Description: "Top-tier GPT model"},
	{ID: "openai-audio", Name: "OpenAI GPT-4o Mini Audio", Pricing: "Medium", Tags: []ModelTag{TagVision, TagAudioIn, TagAudioOut}, Description: "Audio-capable GPT"},
}

// ModelsByCategory returns the catalogue for one category
func ModelsByCategory(c ModelCategory) []ModelInfo {
	switch c {
	case CategoryImage:
		return ImageModels
	case CategoryVideo:
		return VideoModels
	case CategoryText:
		return TextModels
	default:
		return nil
	}
}

// ModelByID looks a model up across all categories
func ModelByID(id string) (ModelInfo, bool) {
	for _, group := range [][]ModelInfo{TextModels, ImageModels, VideoModels} {
		for _, m := range group {
			if m.ID == id {
				return m, true
			}
		}
	}
	return ModelInfo{}, false
}
