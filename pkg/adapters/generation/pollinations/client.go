package pollinations

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/genflow/pkg/domain"
	"github.com/aescanero/genflow/pkg/ports"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public Pollinations gateway
const DefaultBaseURL = "https://gen.pollinations.ai"

const (
	defaultTemperature = 1.0
	dataPrefix         = "data: "
	doneMarker         = "[DONE]"
	maxLineSize        = 1 << 20
)

// Client talks to the Pollinations OpenAI-compatible API.
// It carries its own credential, set at construction or through SetAPIKey.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sdk        openai.Client
	logger     *zap.Logger
	metrics    ports.MetricsCollector

	mu     sync.RWMutex
	apiKey string
}

// Option configures the Client during construction
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets a timeout on the HTTP client
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

// WithAPIKey sets the initial API key
func WithAPIKey(key string) Option {
	return func(cl *Client) { cl.apiKey = key }
}

// WithMetrics records every remote call
func WithMetrics(m ports.MetricsCollector) Option {
	return func(cl *Client) { cl.metrics = m }
}

// NewClient creates a new Pollinations client
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sdk = openai.NewClient(
		option.WithBaseURL(c.baseURL+"/v1/"),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
		option.WithMiddleware(statusMiddleware),
	)
	return c, nil
}

// SetAPIKey replaces the credential used by subsequent calls
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

// IsConfigured reports whether an API key is set
func (c *Client) IsConfigured() bool {
	return c.key() != ""
}

func (c *Client) key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Stream      bool                 `json:"stream"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// GenerateText runs a chat completion and returns the first choice's content
func (c *Client) GenerateText(ctx context.Context, req *domain.TextRequest) (text string, err error) {
	start := time.Now()
	defer func() { c.record("text", req.Model, start, err) }()

	key := c.key()
	if key == "" {
		return "", ErrNoAPIKey
	}

	c.logger.Debug("API request",
		zap.String("operation", "generate text"),
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)))

	completion, err := c.sdk.Chat.Completions.New(ctx, chatParams(req), option.WithAPIKey(key))
	if err != nil {
		return "", sdkError("generate text", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

// StreamText runs a streaming chat completion, calling onDelta for every content fragment.
// Malformed event lines are skipped.
func (c *Client) StreamText(ctx context.Context, req *domain.TextRequest, onDelta func(string) error) (err error) {
	start := time.Now()
	defer func() { c.record("stream", req.Model, start, err) }()

	resp, err := c.postChat(ctx, "stream text", req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, dataPrefix)
		if data == doneMarker {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("skipping malformed stream chunk", zap.Error(err))
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onDelta(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return transportError("stream text", err)
	}
	return nil
}

// postChat sends a chat completion request and returns a successful response.
// Streaming bypasses the SDK because its stream decoder stops at the first
// malformed chunk, while malformed chunks must be skipped.
func (c *Client) postChat(ctx context.Context, operation string, req *domain.TextRequest, stream bool) (*http.Response, error) {
	key := c.key()
	if key == "" {
		return nil, ErrNoAPIKey
	}

	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Stream:      stream,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", operation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", operation, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("API request",
		zap.String("operation", operation),
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(operation, err)
	}

	if err := checkStatus(resp); err != nil {
		err.Operation = operation
		return nil, err
	}
	return resp, nil
}

// ImageURL builds the URL that renders an image; nothing is fetched
func (c *Client) ImageURL(req *domain.ImageRequest) string {
	params := url.Values{}
	if req.Model != "" {
		params.Set("model", req.Model)
	}
	if req.Width != 0 {
		params.Set("width", strconv.Itoa(req.Width))
	}
	if req.Height != 0 {
		params.Set("height", strconv.Itoa(req.Height))
	}
	if req.Seed != 0 {
		params.Set("seed", strconv.FormatInt(req.Seed, 10))
	}
	if key := c.key(); key != "" {
		params.Set("key", key)
	}
	return c.mediaURL(req.Prompt, params)
}

// VideoURL builds the URL that renders a video; nothing is fetched
func (c *Client) VideoURL(req *domain.VideoRequest) string {
	params := url.Values{}
	if req.Model != "" {
		params.Set("model", req.Model)
	}
	if req.ImageURL != "" {
		params.Set("image", req.ImageURL)
	}
	if key := c.key(); key != "" {
		params.Set("key", key)
	}
	return c.mediaURL(req.Prompt, params)
}

func (c *Client) mediaURL(prompt string, params url.Values) string {
	u := c.baseURL + "/image/" + escapePrompt(prompt)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// componentEscapes turns query escaping into URI component escaping:
// spaces become %20 and !'()* stay literal.
var componentEscapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapePrompt escapes a prompt as a single path segment
func escapePrompt(prompt string) string {
	return componentEscapes.Replace(url.QueryEscape(prompt))
}

// ValidateAPIKey probes the model listing with key. Any failure counts as invalid.
func (c *Client) ValidateAPIKey(ctx context.Context, key string) bool {
	start := time.Now()
	_, err := c.sdk.Models.List(ctx, option.WithAPIKey(key))
	if err != nil {
		err = sdkError("validate key", err)
		c.logger.Debug("API key probe failed", zap.Error(err))
	}
	c.record("validate", "", start, err)
	return err == nil
}

func (c *Client) record(operation, model string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.RecordGenerationCall(operation, model, time.Since(start), err)
	}
}
