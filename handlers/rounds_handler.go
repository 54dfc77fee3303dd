package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/cognate/middleware"
	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/dispatch"
	"github.com/upb/cognate/utils"
)

// Workspace is the prompt and round state the rounds endpoints drive
type Workspace interface {
	Prompt() string
	SetPrompt(text string)
	Send(ctx context.Context) (*dispatch.Round, error)
	Current() *dispatch.Round
}

// SetPromptRequest replaces the prompt text. An empty text is allowed;
// it is rejected only when a round is started.
type SetPromptRequest struct {
	Text string `json:"text" validate:"max=200000"`
}

// PromptResponse is the current prompt text
type PromptResponse struct {
	Text string `json:"text"`
}

// RoundResponse is a point-in-time view of a dispatch round
type RoundResponse struct {
	ID              uuid.UUID       `json:"id"`
	Prompt          string          `json:"prompt"`
	StartedAt       time.Time       `json:"started_at"`
	AttachmentNames []string        `json:"attachment_names"`
	Pending         int             `json:"pending"`
	Results         []models.Result `json:"results"`
}

// RoundsHandler handles the prompt and dispatch round endpoints
type RoundsHandler struct {
	workspace Workspace
	logger    *zap.Logger
}

// NewRoundsHandler creates a new RoundsHandler
func NewRoundsHandler(workspace Workspace, logger *zap.Logger) *RoundsHandler {
	return &RoundsHandler{
		workspace: workspace,
		logger:    logger,
	}
}

// HandleGetPrompt handles GET /prompt
func (h *RoundsHandler) HandleGetPrompt(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, PromptResponse{Text: h.workspace.Prompt()})
}

// HandleSetPrompt handles PUT /prompt
func (h *RoundsHandler) HandleSetPrompt(w http.ResponseWriter, r *http.Request) {
	var req SetPromptRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	h.workspace.SetPrompt(req.Text)
	_ = utils.WriteOK(w, PromptResponse{Text: req.Text})
}

// HandleStart handles POST /rounds. It responds 202 with the pending
// results, or with ?wait=true blocks until every provider has finished
// and responds 200 with the final results.
func (h *RoundsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	wait := false
	if raw := r.URL.Query().Get("wait"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "wait must be a boolean", map[string]interface{}{"wait": raw})
			return
		}
		wait = parsed
	}

	round, err := h.workspace.Send(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("round started",
		zap.String("request_id", requestID),
		zap.String("round_id", round.ID.String()),
		zap.Strings("providers", round.ProviderIDs()),
		zap.Bool("wait", wait))

	if !wait {
		_ = utils.WriteAccepted(w, newRoundResponse(round, round.Snapshot()))
		return
	}

	results, err := round.Wait(r.Context())
	if err != nil {
		// Client gave up; the round keeps running
		h.logger.Debug("stopped waiting for round", zap.String("round_id", round.ID.String()), zap.Error(err))
		_ = utils.WriteAccepted(w, newRoundResponse(round, results))
		return
	}
	_ = utils.WriteOK(w, newRoundResponse(round, results))
}

// HandleCurrent handles GET /rounds/current
func (h *RoundsHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	round := h.workspace.Current()
	if round == nil {
		_ = utils.WriteNotFound(w, "No round has been started")
		return
	}
	_ = utils.WriteOK(w, newRoundResponse(round, round.Snapshot()))
}

func newRoundResponse(round *dispatch.Round, results []models.Result) RoundResponse {
	pending := 0
	for _, res := range results {
		if !res.IsTerminal() {
			pending++
		}
	}
	names := round.AttachmentNames
	if names == nil {
		names = []string{}
	}
	return RoundResponse{
		ID:              round.ID,
		Prompt:          round.Prompt,
		StartedAt:       round.StartedAt,
		AttachmentNames: names,
		Pending:         pending,
		Results:         results,
	}
}
