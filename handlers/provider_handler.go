package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/cognate/middleware"
	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services/catalog"
	"github.com/upb/cognate/services/providers"
	"github.com/upb/cognate/utils"
)

// CapabilitySource exposes the capability table of the registered adapters
type CapabilitySource interface {
	Capabilities() map[string]providers.Capabilities
}

// ProviderView is a catalog entry together with its adapter capabilities
type ProviderView struct {
	models.ProviderSpec
	Supported    bool                    `json:"supported"`
	Capabilities *providers.Capabilities `json:"capabilities,omitempty"`
}

// UpdateSettingsRequest is a partial settings update; omitted fields are kept
type UpdateSettingsRequest struct {
	Model     *string `json:"model,omitempty" validate:"omitempty,max=200"`
	MaxTokens *int    `json:"max_tokens,omitempty" validate:"omitempty,gte=0"`
}

// ProviderHandler handles the provider catalog endpoints
type ProviderHandler struct {
	catalog      *catalog.Catalog
	capabilities CapabilitySource
	logger       *zap.Logger
}

// NewProviderHandler creates a new ProviderHandler
func NewProviderHandler(cat *catalog.Catalog, capabilities CapabilitySource, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		catalog:      cat,
		capabilities: capabilities,
		logger:       logger,
	}
}

// HandleList handles GET /providers
func (h *ProviderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	specs := h.catalog.List()
	views := make([]ProviderView, 0, len(specs))
	for _, spec := range specs {
		views = append(views, h.view(spec))
	}
	_ = utils.WriteOK(w, views)
}

// HandleUpdateSettings handles PATCH /providers/{id}
func (h *ProviderHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req UpdateSettingsRequest
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

	spec, err := h.catalog.UpdateSettings(id, catalog.SettingsUpdate{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("provider settings updated",
		zap.String("request_id", requestID),
		zap.String("provider", id),
		zap.String("model", spec.Settings.Model),
		zap.Int("max_tokens", spec.Settings.MaxTokens))
	_ = utils.WriteOK(w, h.view(spec))
}

// HandleToggle handles POST /providers/{id}/toggle
func (h *ProviderHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	spec, err := h.catalog.Toggle(id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("provider toggled", zap.String("provider", id), zap.Bool("selected", spec.Selected))
	_ = utils.WriteOK(w, h.view(spec))
}

func (h *ProviderHandler) view(spec models.ProviderSpec) ProviderView {
	v := ProviderView{ProviderSpec: spec}
	if h.capabilities == nil {
		return v
	}
	if caps, ok := h.capabilities.Capabilities()[spec.ID]; ok {
		v.Supported = true
		v.Capabilities = &caps
	}
	return v
}
