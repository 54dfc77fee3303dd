package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/providers"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is used when the provider spec has no model set
	DefaultModel = "gemini-2.5-pro"

	defaultMaxTokens = 8192
)

// GoogleAdapter implements the Adapter interface for the Gemini generateContent API
type GoogleAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGoogleAdapter creates a new Google adapter
func NewGoogleAdapter(config providers.ProviderConfig, logger *zap.Logger) *GoogleAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	return &GoogleAdapter{
		config:     config,
		httpClient: config.HTTPClient(),
		logger:     logger,
	}
}

// Builder adapts NewGoogleAdapter to providers.Builder
func Builder(config providers.ProviderConfig, logger *zap.Logger) providers.Adapter {
	return NewGoogleAdapter(config, logger)
}

// ID returns the provider id
func (a *GoogleAdapter) ID() string {
	return models.ProviderGoogle
}

// Name returns the vendor label
func (a *GoogleAdapter) Name() string {
	return "Google"
}

// Capabilities reports inline attachment support
func (a *GoogleAdapter) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		SupportsAttachments: true,
		UploadStyle:         providers.UploadStyleInline,
	}
}

// Generate sends the prompt with attachments embedded as inline data parts
func (a *GoogleAdapter) Generate(ctx context.Context, req *providers.Request) (*providers.Completion, error) {
	model := req.Model(DefaultModel)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.config.BaseURL, url.PathEscape(model))

	headers := map[string]string{"x-goog-api-key": req.APIKey}
	for k, v := range a.config.Headers {
		headers[k] = v
	}

	var resp GenerateContentResponse
	if err := providers.PostJSON(ctx, a.httpClient, a.ID(), endpoint, headers, a.buildRequest(req), &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil && resp.Error.Message != "" {
		return nil, providers.NewProviderError(a.ID(), resp.Error.Status, resp.Error.Message, http.StatusOK, nil)
	}

	return &providers.Completion{
		Content: resp.Text(),
		Usage:   resp.TokenUsage(),
	}, nil
}

func (a *GoogleAdapter) buildRequest(req *providers.Request) *GenerateContentRequest {
	parts := make([]Part, 0, len(req.Attachments)+1)
	for _, att := range req.Attachments {
		if !att.IsPDF() {
			continue
		}
		parts = append(parts, Part{InlineData: &Blob{
			MimeType: models.PDFMimeType,
			Data:     base64.StdEncoding.EncodeToString(att.Data),
		}})
	}

	text := req.Prompt
	if len(parts) > 0 {
		text = providers.Instruction(req.Prompt)
	}
	parts = append(parts, Part{Text: text})

	return &GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: parts}},
		GenerationConfig: &GenerationConfig{
			MaxOutputTokens: req.MaxTokens(defaultMaxTokens),
		},
	}
}

// Text joins the text parts of the first candidate with newlines
func (r *GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}

	var segments []string
	for _, part := range r.Candidates[0].Content.Parts {
		if part.Text != "" {
			segments = append(segments, part.Text)
		}
	}
	return providers.JoinText(segments)
}

// TokenUsage prefers a flat usage block, then usageMetadata
func (r *GenerateContentResponse) TokenUsage() models.TokenUsage {
	var usage models.TokenUsage
	var input, output *int
	if r.Usage != nil {
		input, output = r.Usage.InputTokens, r.Usage.OutputTokens
	}

	var prompt, candidates *int
	if r.UsageMetadata != nil {
		prompt, candidates = r.UsageMetadata.PromptTokenCount, r.UsageMetadata.CandidatesTokenCount
	}

	usage.PromptTokens = providers.FirstPresent(input, prompt)
	usage.CompletionTokens = providers.FirstPresent(output, candidates)
	return usage
}

// Gemini-specific request/response types

type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata"`
	Usage         *Usage         `json:"usage"`
	Error         *APIError      `json:"error"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type UsageMetadata struct {
	PromptTokenCount     *int `json:"promptTokenCount"`
	CandidatesTokenCount *int `json:"candidatesTokenCount"`
	TotalTokenCount      *int `json:"totalTokenCount"`
}

type Usage struct {
	InputTokens  *int `json:"input_tokens"`
	OutputTokens *int `json:"output_tokens"`
}

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
