package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name:    "error with wrapped error",
			err:     &DomainError{Type: ErrorTypeNotFound, Message: "history entry not found", Err: errors.New("db error")},
			wantMsg: "not_found: history entry not found (db error)",
		},
		{
			name:    "error without wrapped error",
			err:     &DomainError{Type: ErrorTypeValidation, Message: "invalid input"},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", ErrEmptyPrompt)

	assert.True(t, errors.Is(wrapped, ErrEmptyPrompt))
	assert.False(t, errors.Is(wrapped, ErrNoProvidersSelected))
	assert.False(t, errors.Is(errors.New("plain"), ErrEmptyPrompt))
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeNotFound, "unknown provider", nil).WithDetail("provider", "mistral")

	assert.Equal(t, "mistral", err.Details["provider"])
	assert.Equal(t, "mistral", GetErrorDetails(err)["provider"])
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", ErrHistoryNotFound, IsNotFoundError},
		{"validation", ErrEmptyPrompt, IsValidationError},
		{"unauthorized", ErrUnauthorized, IsUnauthorizedError},
		{"configuration", ErrCredentialNotSet, IsConfigurationError},
		{"internal", WrapInternal("boom", errors.New("x")), IsInternalError},
		{"external", WrapExternal("upstream", errors.New("x")), IsExternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}

	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}
