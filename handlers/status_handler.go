package handlers

import (
	"net/http"

	"github.com/upb/cognate/utils"
)

// Version is reported by the status endpoint
const Version = "0.1.0"

// AdapterLister lists the registered provider ids
type AdapterLister interface {
	List() []string
}

// StatusResponse describes the running service
type StatusResponse struct {
	Version     string   `json:"version"`
	Environment string   `json:"environment"`
	Providers   []string `json:"providers"`
}

// StatusHandler reports version and provider information
type StatusHandler struct {
	environment string
	adapters    AdapterLister
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(environment string, adapters AdapterLister) *StatusHandler {
	return &StatusHandler{environment: environment, adapters: adapters}
}

// HandleStatus handles GET /api/v1/status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ids := []string{}
	if h.adapters != nil {
		ids = h.adapters.List()
	}
	_ = utils.WriteJSON(w, http.StatusOK, StatusResponse{
		Version:     Version,
		Environment: h.environment,
		Providers:   ids,
	})
}
