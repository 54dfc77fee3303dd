package deepseek

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/providers"
)

const (
	defaultBaseURL = "https://api.deepseek.com"

	// DefaultModel is used when the provider spec has no model set
	DefaultModel = "deepseek-chat"

	defaultMaxTokens = 8192
)

// DeepSeekAdapter implements the Adapter interface for the OpenAI-compatible
// DeepSeek chat completions API. Attachments are not supported.
type DeepSeekAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDeepSeekAdapter creates a new DeepSeek adapter
func NewDeepSeekAdapter(config providers.ProviderConfig, logger *zap.Logger) *DeepSeekAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	return &DeepSeekAdapter{
		config:     config,
		httpClient: config.HTTPClient(),
		logger:     logger,
	}
}

// Builder adapts NewDeepSeekAdapter to providers.Builder
func Builder(config providers.ProviderConfig, logger *zap.Logger) providers.Adapter {
	return NewDeepSeekAdapter(config, logger)
}

// ID returns the provider id
func (a *DeepSeekAdapter) ID() string {
	return models.ProviderDeepSeek
}

// Name returns the vendor label
func (a *DeepSeekAdapter) Name() string {
	return "DeepSeek"
}

// Capabilities reports that attachments are not supported
func (a *DeepSeekAdapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		SupportsAttachments: false,
		UploadStyle:         providers.UploadStyleNone,
	}
}

// Generate performs a chat completion request
func (a *DeepSeekAdapter) Generate(ctx context.Context, req *providers.Request) (*providers.Completion, error) {
	headers := map[string]string{"Authorization": "Bearer " + req.APIKey}
	for k, v := range a.config.Headers {
		headers[k] = v
	}

	var resp ChatResponse
	if err := providers.PostJSON(ctx, a.httpClient, a.ID(), a.config.BaseURL+"/chat/completions", headers, a.buildRequest(req), &resp); err != nil {
		return nil, err
	}

	return &providers.Completion{
		Content: resp.Text(),
		Usage:   resp.TokenUsage(),
	}, nil
}

func (a *DeepSeekAdapter) buildRequest(req *providers.Request) *ChatRequest {
	maxTokens := req.MaxTokens(defaultMaxTokens)
	return &ChatRequest{
		Model:     req.Model(DefaultModel),
		Messages:  []ChatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: &maxTokens,
	}
}

// Text returns the first choice's message content
func (r *ChatResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// TokenUsage maps prompt/completion tokens
func (r *ChatResponse) TokenUsage() models.TokenUsage {
	if r.Usage == nil {
		return models.TokenUsage{}
	}
	return models.TokenUsage{
		PromptTokens:     providers.FirstPresent(r.Usage.PromptTokens),
		CompletionTokens: providers.FirstPresent(r.Usage.CompletionTokens),
	}
}

// DeepSeek-specific request/response types

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens *int          `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatUsage struct {
	PromptTokens     *int `json:"prompt_tokens"`
	CompletionTokens *int `json:"completion_tokens"`
	TotalTokens      *int `json:"total_tokens"`
}
