package openai

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/providers"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when the provider spec has no model set
	DefaultModel = "gpt-5"

	defaultMaxTokens = 8192
	filePurpose      = "user_data"
)

// OpenAIAdapter implements the Adapter interface for the OpenAI Responses API
type OpenAIAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(config providers.ProviderConfig, logger *zap.Logger) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	return &OpenAIAdapter{
		config:     config,
		httpClient: config.HTTPClient(),
		logger:     logger,
	}
}

// Builder adapts NewOpenAIAdapter to providers.Builder
func Builder(config providers.ProviderConfig, logger *zap.Logger) providers.Adapter {
	return NewOpenAIAdapter(config, logger)
}

// ID returns the provider id
func (a *OpenAIAdapter) ID() string {
	return models.ProviderOpenAI
}

// Name returns the vendor label
func (a *OpenAIAdapter) Name() string {
	return "OpenAI"
}

// Capabilities reports upload-then-reference attachment support
func (a *OpenAIAdapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		SupportsAttachments: true,
		UploadStyle:         providers.UploadStyleReference,
	}
}

// Generate uploads the attachments, then asks the Responses API for a completion
func (a *OpenAIAdapter) Generate(ctx context.Context, req *providers.Request) (*providers.Completion, error) {
	scope := providers.NewTempScope(a.config.TempDir, a.logger)
	defer scope.Release()

	fileIDs, err := a.uploadAttachments(ctx, scope, req)
	if err != nil {
		return nil, err
	}

	var resp ResponsesResponse
	if err := providers.PostJSON(ctx, a.httpClient, a.ID(), a.config.BaseURL+"/responses", a.headers(req.APIKey), a.buildRequest(req, fileIDs), &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil && resp.Error.Message != "" {
		return nil, providers.NewProviderError(a.ID(), resp.Error.Code, resp.Error.Message, http.StatusOK, nil)
	}

	return &providers.Completion{
		Content: resp.Text(),
		Usage:   resp.TokenUsage(),
	}, nil
}

// uploadAttachments writes each PDF to a scoped temp file and uploads it.
// Non-PDF attachments are skipped; any failure aborts the call.
func (a *OpenAIAdapter) uploadAttachments(ctx context.Context, scope *providers.TempScope, req *providers.Request) ([]string, error) {
	var fileIDs []string
	for _, att := range req.Attachments {
		if !att.IsPDF() {
			continue
		}

		path, err := scope.Write(att.Name, att.Data)
		if err != nil {
			return nil, err
		}

		var file FileObject
		fields := map[string]string{"purpose": filePurpose}
		if err := providers.UploadFile(ctx, a.httpClient, a.ID(), a.config.BaseURL+"/files", a.headers(req.APIKey), fields, path, att.Name, models.PDFMimeType, &file); err != nil {
			return nil, err
		}
		if file.ID == "" {
			return nil, providers.NewProviderError(a.ID(), "UPLOAD_ERROR", fmt.Sprintf("upload of %s returned no file id", att.Name), http.StatusOK, nil)
		}

		fileIDs = append(fileIDs, file.ID)
	}
	return fileIDs, nil
}

func (a *OpenAIAdapter) buildRequest(req *providers.Request, fileIDs []string) *ResponsesRequest {
	out := &ResponsesRequest{
		Model:           req.Model(DefaultModel),
		MaxOutputTokens: req.MaxTokens(defaultMaxTokens),
	}

	if len(fileIDs) == 0 {
		out.Input = req.Prompt
		return out
	}

	content := make([]InputContent, 0, len(fileIDs)+1)
	for _, id := range fileIDs {
		content = append(content, InputContent{Type: "input_file", FileID: id})
	}
	content = append(content, InputContent{Type: "input_text", Text: providers.Instruction(req.Prompt)})

	out.Input = []InputMessage{{Role: "user", Content: content}}
	return out
}

func (a *OpenAIAdapter) headers(apiKey string) map[string]string {
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	for k, v := range a.config.Headers {
		headers[k] = v
	}
	return headers
}

// Text returns output_text when present, otherwise the output_text
// segments of every output item joined by newlines
func (r *ResponsesResponse) Text() string {
	if r.OutputText != "" {
		return r.OutputText
	}

	var segments []string
	for _, item := range r.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" {
				segments = append(segments, c.Text)
			}
		}
	}
	return providers.JoinText(segments)
}

// TokenUsage maps input/output tokens, falling back to the chat-style names
func (r *ResponsesResponse) TokenUsage() models.TokenUsage {
	if r.Usage == nil {
		return models.TokenUsage{}
	}
	return models.TokenUsage{
		PromptTokens:     providers.FirstPresent(r.Usage.InputTokens, r.Usage.PromptTokens),
		CompletionTokens: providers.FirstPresent(r.Usage.OutputTokens, r.Usage.CompletionTokens),
	}
}

// OpenAI-specific request/response types

type ResponsesRequest struct {
	Model           string      `json:"model"`
	Input           interface{} `json:"input"`
	MaxOutputTokens int         `json:"max_output_tokens,omitempty"`
}

type InputMessage struct {
	Role    string         `json:"role"`
	Content []InputContent `json:"content"`
}

type InputContent struct {
	Type   string `json:"type"`
	FileID string `json:"file_id,omitempty"`
	Text   string `json:"text,omitempty"`
}

type FileObject struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Filename string `json:"filename"`
	Purpose  string `json:"purpose"`
}

type ResponsesResponse struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Model      string          `json:"model"`
	OutputText string          `json:"output_text"`
	Output     []OutputItem    `json:"output"`
	Usage      *ResponsesUsage `json:"usage"`
	Error      *APIError       `json:"error"`
}

type OutputItem struct {
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content []OutputContent `json:"content"`
}

type OutputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ResponsesUsage struct {
	InputTokens      *int `json:"input_tokens"`
	OutputTokens     *int `json:"output_tokens"`
	PromptTokens     *int `json:"prompt_tokens"`
	CompletionTokens *int `json:"completion_tokens"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
