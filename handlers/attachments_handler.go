package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/cognate/middleware"
	"github.com/upb/cognate/models"
	"github.com/upb/cognate/services"
	"github.com/upb/cognate/services/attachments"
	"github.com/upb/cognate/utils"
)

const (
	maxUploadBytes = 64 << 20
	maxMemoryBytes = 32 << 20

	// FilesField is the multipart field carrying uploaded files
	FilesField = "files"
)

// AddAttachmentsResponse lists the accepted files and per-file read errors.
// Non-PDF files are skipped and appear in neither list.
type AddAttachmentsResponse struct {
	Added  []models.Attachment `json:"added"`
	Errors []string            `json:"errors,omitempty"`
}

// AttachmentsHandler manages the pending attachment set
type AttachmentsHandler struct {
	set    *attachments.Set
	logger *zap.Logger
}

// NewAttachmentsHandler creates a new AttachmentsHandler
func NewAttachmentsHandler(set *attachments.Set, logger *zap.Logger) *AttachmentsHandler {
	return &AttachmentsHandler{
		set:    set,
		logger: logger,
	}
}

// HandleAdd handles POST /attachments (multipart, field "files")
func (h *AttachmentsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		h.logger.Warn("failed to parse multipart form",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid multipart form", nil)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File[FilesField]
	if len(headers) == 0 {
		_ = utils.WriteBadRequest(w, "No files provided", map[string]interface{}{
			"field": FilesField,
		})
		return
	}

	files := make([]attachments.File, 0, len(headers))
	for _, header := range headers {
		files = append(files, attachments.MultipartFile(header))
	}

	added, err := h.set.Add(files)
	response := AddAttachmentsResponse{Added: added}
	if response.Added == nil {
		response.Added = []models.Attachment{}
	}
	if err != nil {
		response.Errors = splitErrors(err)
	}

	h.logger.Info("attachments added",
		zap.String("request_id", requestID),
		zap.Int("received", len(files)),
		zap.Int("added", len(added)),
		zap.Int("failed", len(response.Errors)))

	_ = utils.WriteCreated(w, response)
}

// HandleList handles GET /attachments
func (h *AttachmentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list := h.set.List()
	if list == nil {
		list = []models.Attachment{}
	}
	_ = utils.WriteOK(w, list)
}

// HandleRemove handles DELETE /attachments/{id}
func (h *AttachmentsHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	found := false
	for _, a := range h.set.List() {
		if a.ID == id {
			found = true
			break
		}
	}
	if !found {
		HandleServiceError(w, services.ErrAttachmentNotFound, h.logger)
		return
	}

	h.set.Remove(id)
	utils.WriteNoContent(w)
}

// HandleClear handles DELETE /attachments
func (h *AttachmentsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.set.Clear()
	utils.WriteNoContent(w)
}

// splitErrors flattens a joined error into its messages
func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		out := make([]string, 0, len(errs))
		for _, e := range errs {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
