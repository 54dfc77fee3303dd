package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/cognate/middleware"
	"github.com/upb/cognate/models"
	"github.com/upb/cognate/utils"
)

// PromptSender performs one provider call and reports its outcome
type PromptSender interface {
	SendPrompt(ctx context.Context, spec models.ProviderSpec, prompt string, attachments []models.Attachment) models.Outcome
}

// InlineAttachment is an attachment carried in the request body.
// Data is standard base64 in JSON.
type InlineAttachment struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type"`
	Data []byte `json:"data" validate:"required"`
}

// SendPromptRequest is a single-provider call
type SendPromptRequest struct {
	Provider    models.ProviderSpec `json:"provider"`
	Prompt      string              `json:"prompt"`
	Attachments []InlineAttachment  `json:"attachments,omitempty" validate:"omitempty,dive"`
}

// SendPromptHandler exposes the single-provider entry point. Provider
// failures are reported in the outcome with status 200, never as HTTP errors.
type SendPromptHandler struct {
	sender PromptSender
	logger *zap.Logger
}

// NewSendPromptHandler creates a new SendPromptHandler
func NewSendPromptHandler(sender PromptSender, logger *zap.Logger) *SendPromptHandler {
	return &SendPromptHandler{
		sender: sender,
		logger: logger,
	}
}

// HandleSendPrompt handles POST /send-prompt
func (h *SendPromptHandler) HandleSendPrompt(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	var req SendPromptRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	attachments := make([]models.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, models.NewAttachment(a.Name, a.Type, a.Data))
	}

	outcome := h.sender.SendPrompt(r.Context(), req.Provider, req.Prompt, attachments)

	h.logger.Debug("send prompt finished",
		zap.String("request_id", requestID),
		zap.String("provider", req.Provider.ID),
		zap.String("status", string(outcome.Status)))
	_ = utils.WriteOK(w, outcome)
}
