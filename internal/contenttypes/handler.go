package contenttypes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GyroZepelix/mithril-admin/internal/auth"
	"github.com/GyroZepelix/mithril-admin/internal/database"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
	"github.com/GyroZepelix/mithril-admin/internal/server"
)

// Handler provides HTTP handlers for content model authoring.
type Handler struct {
	service *Service
}

// NewHandler creates a new content model Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// fieldOrderRequest is the body of PUT /admin/api/models/{id}/field-order.
type fieldOrderRequest struct {
	Order []string `json:"order"`
}

// handleServiceError writes the appropriate error response for service errors.
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *schema.ModelValidationError
	switch {
	case errors.As(err, &valErr):
		server.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Content model is invalid", valErr.Problems)
	case errors.Is(err, ErrNotFound):
		server.Error(w, http.StatusNotFound, "NOT_FOUND", "content model not found", nil)
	case errors.Is(err, ErrConflict):
		server.Error(w, http.StatusConflict, "SAVE_FAILED", "The content model could not be saved", nil)
	case errors.Is(err, database.ErrNotConfigured):
		server.Error(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Storage is not configured", nil)
	default:
		slog.Error("content model service error", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
	}
}

// List handles GET /admin/api/models.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, models)
}

// Create handles POST /admin/api/models.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in ModelInput
	if !server.DecodeJSON(w, r, &in) {
		return
	}

	m, err := h.service.Create(r.Context(), in, auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusCreated, m)
}

// Get handles GET /admin/api/models/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !schema.IsUUID(id) {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", nil)
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, m)
}

// GetByIdentifier handles GET /admin/api/models/by-identifier/{apiIdentifier}.
func (h *Handler) GetByIdentifier(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetByAPIIdentifier(r.Context(), chi.URLParam(r, "apiIdentifier"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, m)
}

// Update handles PUT /admin/api/models/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !schema.IsUUID(id) {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", nil)
		return
	}
	var patch ModelPatch
	if !server.DecodeJSON(w, r, &patch) {
		return
	}

	m, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, m)
}

// Delete handles DELETE /admin/api/models/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !schema.IsUUID(id) {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", nil)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderFields handles PUT /admin/api/models/{id}/field-order.
func (h *Handler) ReorderFields(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !schema.IsUUID(id) {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", nil)
		return
	}
	var req fieldOrderRequest
	if !server.DecodeJSON(w, r, &req) {
		return
	}

	m, err := h.service.ReorderFields(r.Context(), id, req.Order)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	server.JSON(w, http.StatusOK, m)
}
