package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/cognate/models"
)

// FallbackErrorMessage is reported when no message can be extracted from an error
const FallbackErrorMessage = "An unexpected error occurred."

// Call runs one adapter invocation and converts every failure into an
// error outcome. It never returns a Go error and never panics.
func Call(ctx context.Context, adapter Adapter, req *Request, logger *zap.Logger) (outcome models.Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			outcome = failure(adapter, err, logger)
		}
	}()

	call := *req
	if !adapter.Capabilities().SupportsAttachments {
		call.Attachments = nil
	}

	completion, err := adapter.Generate(ctx, &call)
	if err != nil {
		return failure(adapter, err, logger)
	}
	if completion == nil {
		return failure(adapter, errors.New("empty completion"), logger)
	}

	return models.SuccessOutcome(completion.Content, time.Since(start).Milliseconds(), completion.Usage)
}

func failure(adapter Adapter, err error, logger *zap.Logger) models.Outcome {
	msg := ErrorMessage(err)
	logger.Error("provider call failed",
		zap.String("provider", adapter.ID()),
		zap.String("message", msg),
		zap.Error(err),
	)
	return models.ErrorOutcome(msg)
}

// messageExtractor returns a human readable message for err, or "" when it has none
type messageExtractor func(err error) string

// errorMessageChain is tried in order; the first non-empty message wins
var errorMessageChain = []messageExtractor{
	apiErrorMessage,
	responseBodyMessage,
	genericErrorMessage,
}

// ErrorMessage extracts a user facing message from an adapter error
func ErrorMessage(err error) string {
	if err == nil {
		return FallbackErrorMessage
	}
	for _, extract := range errorMessageChain {
		if msg := strings.TrimSpace(extract(err)); msg != "" {
			return msg
		}
	}
	return FallbackErrorMessage
}

func apiErrorMessage(err error) string {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Message
	}
	return ""
}

func responseBodyMessage(err error) string {
	var provErr *ProviderError
	if !errors.As(err, &provErr) || len(provErr.Body) == 0 {
		return ""
	}
	return BodyErrorMessage(provErr.Body)
}

func genericErrorMessage(err error) string {
	return err.Error()
}

type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// BodyErrorMessage extracts an error message from a provider error body.
// It understands {"error":{"message"}}, {"error":"..."}, {"message"} and
// the array form [{"error":{"message"}}].
func BodyErrorMessage(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		return envelope.message()
	}

	var envelopes []errorEnvelope
	if err := json.Unmarshal(body, &envelopes); err == nil {
		for _, e := range envelopes {
			if msg := e.message(); msg != "" {
				return msg
			}
		}
	}
	return ""
}

func (e errorEnvelope) message() string {
	if len(e.Error) > 0 {
		var detail struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(e.Error, &detail); err == nil && detail.Message != "" {
			return detail.Message
		}
		var text string
		if err := json.Unmarshal(e.Error, &text); err == nil && text != "" {
			return text
		}
	}
	return e.Message
}

// JoinText concatenates text segments in order, separated by newlines
func JoinText(segments []string) string {
	return strings.Join(segments, "\n")
}

// FirstPresent returns the first non-nil count, or zero
func FirstPresent(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
