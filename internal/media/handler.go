package media

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GyroZepelix/mithril-admin/internal/auth"
	"github.com/GyroZepelix/mithril-admin/internal/database"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
	"github.com/GyroZepelix/mithril-admin/internal/server"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Handler provides HTTP handlers for upload grants and the media library.
type Handler struct {
	grants  *GrantService
	service *Service
}

// NewHandler creates a new media Handler.
func NewHandler(grants *GrantService, service *Service) *Handler {
	return &Handler{grants: grants, service: service}
}

// handleServiceError writes the appropriate error response for service errors.
func handleServiceError(w http.ResponseWriter, err error, invalidMessage string) {
	if details, ok := server.ValidationDetails(err); ok {
		server.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", invalidMessage, details)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		server.Error(w, http.StatusNotFound, "NOT_FOUND", "media not found", nil)
	case errors.Is(err, database.ErrNotConfigured):
		server.Error(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Storage is not configured", nil)
	default:
		slog.Error("media service error", "error", err)
		server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
	}
}

// Grant handles POST /admin/api/uploads/grant.
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if !server.DecodeJSON(w, r, &req) {
		return
	}
	g, err := h.grants.Issue(r.Context(), req)
	if err != nil {
		handleServiceError(w, err, "Upload request is invalid")
		return
	}
	server.JSON(w, http.StatusOK, g)
}

// Create handles POST /admin/api/media.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in RecordInput
	if !server.DecodeJSON(w, r, &in) {
		return
	}
	rec, err := h.service.Record(r.Context(), in, auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err, "Media metadata is invalid")
		return
	}
	server.JSON(w, http.StatusCreated, rec)
}

// List handles GET /admin/api/media.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)
	recs, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		handleServiceError(w, err, "")
		return
	}
	server.Paginated(w, recs, server.NewPaginationMeta(page, perPage, total))
}

// Delete handles DELETE /admin/api/media/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !schema.IsUUID(id) {
		server.Error(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", nil)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parsePagination extracts page and per_page query parameters with defaults.
// Invalid values fall back to the defaults and per_page is capped.
func parsePagination(r *http.Request) (page, perPage int) {
	page = 1
	perPage = defaultPerPage

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			perPage = min(n, maxPerPage)
		}
	}
	return page, perPage
}
