package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/upb/cognate/models"
)

// DefaultInstruction replaces an empty prompt when attachments are sent
const DefaultInstruction = "Analyze the attached PDFs."

// UploadStyle describes how an adapter delivers attachments
type UploadStyle string

const (
	// UploadStyleReference uploads each file first and references it by id
	UploadStyleReference UploadStyle = "reference"

	// UploadStyleInline embeds base64 encoded bytes in the request
	UploadStyleInline UploadStyle = "inline"

	// UploadStyleNone means attachments are not supported
	UploadStyleNone UploadStyle = "none"
)

// Capabilities is the flat capability table entry of an adapter
type Capabilities struct {
	SupportsAttachments bool        `json:"supports_attachments"`
	UploadStyle         UploadStyle `json:"upload_style"`
}

// Adapter translates a canonical request into one provider's native call
type Adapter interface {
	// ID returns the provider identifier (e.g., "openai", "anthropic")
	ID() string

	// Name returns the vendor label used in user facing messages (e.g., "OpenAI")
	Name() string

	// Capabilities returns the attachment capabilities of the provider
	Capabilities() Capabilities

	// Generate performs the provider call. Errors are returned as-is and
	// converted into an error outcome by Call.
	Generate(ctx context.Context, req *Request) (*Completion, error)
}

// Request is the canonical per-provider request
type Request struct {
	// Spec carries the model and token budget to use
	Spec models.ProviderSpec

	// Prompt is the user's prompt text
	Prompt string

	// APIKey is the resolved credential for the provider
	APIKey string

	// Attachments are only set for attachment capable adapters
	Attachments []models.Attachment
}

// Model returns the configured model, or fallback when none is set
func (r *Request) Model(fallback string) string {
	if r.Spec.Settings.Model != "" {
		return r.Spec.Settings.Model
	}
	return fallback
}

// MaxTokens returns the configured token budget, or fallback when unset
func (r *Request) MaxTokens(fallback int) int {
	if r.Spec.Settings.MaxTokens > 0 {
		return r.Spec.Settings.MaxTokens
	}
	return fallback
}

// Instruction returns the prompt, substituting DefaultInstruction when it is empty
func Instruction(prompt string) string {
	if prompt == "" {
		return DefaultInstruction
	}
	return prompt
}

// Completion is what a successful provider call produces
type Completion struct {
	Content string
	Usage   models.TokenUsage
}

// ProviderConfig holds common configuration for adapters
type ProviderConfig struct {
	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// TempDir holds attachment bytes while they are uploaded
	TempDir string

	// Additional headers
	Headers map[string]string
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 120 * time.Second,
		Headers: make(map[string]string),
	}
}

// HTTPClient builds the http client an adapter uses for its calls
func (c ProviderConfig) HTTPClient() *http.Client {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultProviderConfig().Timeout
	}
	return &http.Client{Timeout: timeout}
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the structured API error message, when the provider sent one
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Body is the raw response body of a failed HTTP call
	Body []byte

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		if e.StatusCode != 0 {
			msg = fmt.Sprintf("%s request failed with status %d", e.Provider, e.StatusCode)
		} else {
			msg = fmt.Sprintf("%s request failed", e.Provider)
		}
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewHTTPError creates a provider error for a non-2xx response
func NewHTTPError(provider string, statusCode int, body []byte) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       fmt.Sprintf("HTTP_%d", statusCode),
		StatusCode: statusCode,
		Body:       body,
	}
}
