package models

import (
	"github.com/google/uuid"
)

// ResultStatus represents the lifecycle state of a provider result
type ResultStatus string

const (
	ResultStatusPending ResultStatus = "pending"
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusError   ResultStatus = "error"
)

// TokenUsage holds prompt and completion token counts
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Total returns the sum of prompt and completion tokens
func (u TokenUsage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Outcome is what a single provider call resolves to
type Outcome struct {
	Status        ResultStatus `json:"status"`
	Content       string       `json:"content"`
	ElapsedMillis int64        `json:"elapsed_ms"`
	TokenUsage    TokenUsage   `json:"token_usage"`
	Error         string       `json:"error,omitempty"`
}

// SuccessOutcome builds a successful outcome
func SuccessOutcome(content string, elapsedMillis int64, usage TokenUsage) Outcome {
	return Outcome{
		Status:        ResultStatusSuccess,
		Content:       content,
		ElapsedMillis: elapsedMillis,
		TokenUsage:    usage,
	}
}

// ErrorOutcome builds a failed outcome. Elapsed time is always zero for errors.
func ErrorOutcome(message string) Outcome {
	return Outcome{
		Status: ResultStatusError,
		Error:  message,
	}
}

// Result is the canonical per-provider entry of a dispatch round
type Result struct {
	ID            uuid.UUID    `json:"id"`
	ProviderID    string       `json:"provider_id"`
	Status        ResultStatus `json:"status"`
	Content       string       `json:"content"`
	ElapsedMillis int64        `json:"elapsed_ms"`
	TokenUsage    TokenUsage   `json:"token_usage"`
	Error         string       `json:"error,omitempty"`
}

// NewPendingResult creates a pending result for a provider
func NewPendingResult(providerID string) Result {
	return Result{
		ID:         uuid.New(),
		ProviderID: providerID,
		Status:     ResultStatusPending,
	}
}

// IsTerminal reports whether the result has left the pending state
func (r Result) IsTerminal() bool {
	return r.Status == ResultStatusSuccess || r.Status == ResultStatusError
}

// Apply merges an outcome into the result, keeping its ID and provider
func (r Result) Apply(o Outcome) Result {
	r.Status = o.Status
	r.Content = o.Content
	r.ElapsedMillis = o.ElapsedMillis
	r.TokenUsage = o.TokenUsage
	r.Error = o.Error
	return r
}
