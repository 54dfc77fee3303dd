package anthropic

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/providers"
)

const (
	defaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is used when the provider spec has no model set
	DefaultModel = "claude-opus-4-1-20250805"

	defaultMaxTokens = 8192
	apiVersion       = "2023-06-01"
	filesBeta        = "files-api-2025-04-14"
)

// AnthropicAdapter implements the Adapter interface for the Messages API
type AnthropicAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAnthropicAdapter creates a new Anthropic adapter
func NewAnthropicAdapter(config providers.ProviderConfig, logger *zap.Logger) *AnthropicAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	return &AnthropicAdapter{
		config:     config,
		httpClient: config.HTTPClient(),
		logger:     logger,
	}
}

// Builder adapts NewAnthropicAdapter to providers.Builder
func Builder(config providers.ProviderConfig, logger *zap.Logger) providers.Adapter {
	return NewAnthropicAdapter(config, logger)
}

// ID returns the provider id
func (a *AnthropicAdapter) ID() string {
	return models.ProviderAnthropic
}

// Name returns the vendor label
func (a *AnthropicAdapter) Name() string {
	return "Anthropic"
}

// Capabilities reports upload-then-reference attachment support
func (a *AnthropicAdapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		SupportsAttachments: true,
		UploadStyle:         providers.UploadStyleReference,
	}
}

// Generate uploads the attachments through the Files API, then sends one
// user message referencing them
func (a *AnthropicAdapter) Generate(ctx context.Context, req *providers.Request) (*providers.Completion, error) {
	scope := providers.NewTempScope(a.config.TempDir, a.logger)
	defer scope.Release()

	fileIDs, err := a.uploadAttachments(ctx, scope, req)
	if err != nil {
		return nil, err
	}

	var resp MessagesResponse
	if err := providers.PostJSON(ctx, a.httpClient, a.ID(), a.config.BaseURL+"/v1/messages", a.headers(req.APIKey, len(fileIDs) > 0), a.buildRequest(req, fileIDs), &resp); err != nil {
		return nil, err
	}

	if resp.Type == "error" && resp.Error != nil {
		return nil, providers.NewProviderError(a.ID(), resp.Error.Type, resp.Error.Message, http.StatusOK, nil)
	}

	return &providers.Completion{
		Content: resp.Text(),
		Usage:   resp.TokenUsage(),
	}, nil
}

func (a *AnthropicAdapter) uploadAttachments(ctx context.Context, scope *providers.TempScope, req *providers.Request) ([]string, error) {
	var fileIDs []string
	for _, att := range req.Attachments {
		if !att.IsPDF() {
			continue
		}

		path, err := scope.Write(att.Name, att.Data)
		if err != nil {
			return nil, err
		}

		var file FileMetadata
		if err := providers.UploadFile(ctx, a.httpClient, a.ID(), a.config.BaseURL+"/v1/files", a.headers(req.APIKey, true), nil, path, att.Name, models.PDFMimeType, &file); err != nil {
			return nil, err
		}
		if file.ID == "" {
			return nil, providers.NewProviderError(a.ID(), "UPLOAD_ERROR", fmt.Sprintf("upload of %s returned no file id", att.Name), http.StatusOK, nil)
		}

		fileIDs = append(fileIDs, file.ID)
	}
	return fileIDs, nil
}

func (a *AnthropicAdapter) buildRequest(req *providers.Request, fileIDs []string) *MessagesRequest {
	out := &MessagesRequest{
		Model:     req.Model(DefaultModel),
		MaxTokens: req.MaxTokens(defaultMaxTokens),
	}

	if len(fileIDs) == 0 {
		out.Messages = []Message{{Role: "user", Content: req.Prompt}}
		return out
	}

	blocks := make([]ContentBlock, 0, len(fileIDs)+1)
	for _, id := range fileIDs {
		blocks = append(blocks, ContentBlock{
			Type:   "document",
			Source: &DocumentSource{Type: "file", FileID: id},
		})
	}
	blocks = append(blocks, ContentBlock{Type: "text", Text: providers.Instruction(req.Prompt)})

	out.Messages = []Message{{Role: "user", Content: blocks}}
	return out
}

func (a *AnthropicAdapter) headers(apiKey string, files bool) map[string]string {
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": apiVersion,
	}
	if files {
		headers["anthropic-beta"] = filesBeta
	}
	for k, v := range a.config.Headers {
		headers[k] = v
	}
	return headers
}

// Text joins every text content block with newlines
func (r *MessagesResponse) Text() string {
	var segments []string
	for _, block := range r.Content {
		if block.Type == "text" {
			segments = append(segments, block.Text)
		}
	}
	return providers.JoinText(segments)
}

// TokenUsage maps input/output tokens
func (r *MessagesResponse) TokenUsage() models.TokenUsage {
	if r.Usage == nil {
		return models.TokenUsage{}
	}
	return models.TokenUsage{
		PromptTokens:     providers.FirstPresent(r.Usage.InputTokens),
		CompletionTokens: providers.FirstPresent(r.Usage.OutputTokens),
	}
}

// Anthropic-specific request/response types

type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

// Message content is either a string or a list of ContentBlock
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *DocumentSource `json:"source,omitempty"`
}

type DocumentSource struct {
	Type   string `json:"type"`
	FileID string `json:"file_id"`
}

type FileMetadata struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

type MessagesResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Model      string          `json:"model"`
	Content    []ResponseBlock `json:"content"`
	StopReason string          `json:"stop_reason"`
	Usage      *Usage          `json:"usage"`
	Error      *APIError       `json:"error"`
}

type ResponseBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Usage struct {
	InputTokens  *int `json:"input_tokens"`
	OutputTokens *int `json:"output_tokens"`
}

type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
