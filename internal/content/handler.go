package content

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GyroZepelix/mithril-admin/internal/auth"
	"github.com/GyroZepelix/mithril-admin/internal/database"
	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
	"github.com/GyroZepelix/mithril-admin/internal/server"
)

// Handler provides HTTP handlers for content entries and entry forms.
type Handler struct {
	service *Service
}

// NewHandler creates a new content Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// validateRequest is the body of POST /admin/api/entries/validate.
type validateRequest struct {
	ContentModelID string                  `json:"content_model_id"`
	Fields         map[string]dynval.Value `json:"fields"`
}

// handleServiceError writes the appropriate error response for service errors.
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		server.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", valErr.Fields)
	case errors.Is(err, ErrNotFound):
		server.Error(w, http.StatusNotFound, "NOT_FOUND", "entry not found", nil)
	case errors.Is(err, ErrModelNotFound):
		server.Error(w, http.StatusNotFound, "NOT_FOUND", "content model not found", nil)
	case errors.Is(err, database.ErrNotConfigured):
		server.Error(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Storage is not configured", nil)
	default:
		slog.Error("content service error", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
	}
}

// pathID returns the {id} URL parameter. It writes a 400 and returns false
// when the id is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !schema.IsUUID(id) {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", nil)
		return "", false
	}
	return id, true
}

// List handles GET /admin/api/entries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := ParseListQuery(r)
	if err != nil {
		server.Error(w, http.StatusBadRequest, "INVALID_PARAMS", err.Error(), nil)
		return
	}

	entries, total, err := h.service.List(r.Context(), f)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.Paginated(w, entries, server.NewPaginationMeta(f.Page, f.PerPage, total))
}

// Create handles POST /admin/api/entries.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in NewEntry
	if !server.DecodeJSON(w, r, &in) {
		return
	}

	entry, err := h.service.Create(r.Context(), in, auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusCreated, entry)
}

// Get handles GET /admin/api/entries/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, entry)
}

// Update handles PUT /admin/api/entries/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch EntryPatch
	if !server.DecodeJSON(w, r, &patch) {
		return
	}

	entry, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /admin/api/entries/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Validate handles POST /admin/api/entries/validate. Nothing is stored; an
// invalid entry is a successful response with valid=false.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !server.DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Validate(r.Context(), req.ContentModelID, req.Fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, res)
}

// Export handles GET /admin/api/entries/{id}/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Export(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, entry)
}

// EntryForm handles GET /admin/api/entries/{id}/form.
func (h *Handler) EntryForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f, err := h.service.EntryForm(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, f)
}

// ModelForm handles GET /admin/api/models/{id}/form, the form of a new entry.
func (h *Handler) ModelForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f, err := h.service.NewEntryForm(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, f)
}

// ReferenceOptions handles GET /admin/api/models/{id}/reference-options?field=.
func (h *Handler) ReferenceOptions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	field := r.URL.Query().Get("field")
	if field == "" {
		server.Error(w, http.StatusBadRequest, "INVALID_PARAMS", "field is required", nil)
		return
	}

	opts, err := h.service.ReferenceOptions(r.Context(), id, field)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, opts)
}
