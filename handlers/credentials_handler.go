package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/cognate/middleware"
	"github.com/upb/cognate/services"
	"github.com/upb/cognate/services/credentials"
	"github.com/upb/cognate/utils"
)

// CredentialStatus is the masked view of one stored credential
type CredentialStatus struct {
	Set    bool   `json:"set"`
	Masked string `json:"masked,omitempty"`
}

// CredentialsHandler handles reading and replacing provider API keys.
// Stored keys are never returned in clear text.
type CredentialsHandler struct {
	store  credentials.Store
	logger *zap.Logger
}

// NewCredentialsHandler creates a new CredentialsHandler
func NewCredentialsHandler(store credentials.Store, logger *zap.Logger) *CredentialsHandler {
	return &CredentialsHandler{
		store:  store,
		logger: logger,
	}
}

// HandleGet handles GET /credentials
func (h *CredentialsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	status, err := h.status(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, status)
}

// HandlePut handles PUT /credentials. The body maps provider ids to keys;
// blank keys delete the stored credential and unknown ids are ignored.
func (h *CredentialsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	var values map[string]string
	if err := utils.DecodeJSON(r, &values); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	if err := credentials.SetAll(r.Context(), h.store, values); err != nil {
		HandleServiceError(w, services.NewDomainError(services.ErrorTypeInternal, services.ErrCredentialsStore.Message, err), h.logger)
		return
	}

	h.logger.Info("credentials updated",
		zap.String("request_id", requestID),
		zap.Int("count", len(values)))

	status, err := h.status(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, status)
}

func (h *CredentialsHandler) status(r *http.Request) (map[string]CredentialStatus, error) {
	values, err := credentials.GetAll(r.Context(), h.store)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeInternal, services.ErrCredentialsStore.Message, err)
	}

	out := make(map[string]CredentialStatus, len(values))
	for id, value := range values {
		out[id] = CredentialStatus{Set: value != "", Masked: credentials.Mask(value)}
	}
	return out, nil
}
