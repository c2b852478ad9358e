package auth

import (
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/GyroZepelix/mithril-admin/internal/database"
	"github.com/GyroZepelix/mithril-admin/internal/server"
)

// Handler provides the login and provisioning endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// loginRequest is the expected JSON body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !server.DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		details, _ := server.ValidationDetails(err)
		server.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required", details)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
		case errors.Is(err, database.ErrNotConfigured):
			server.Error(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Storage is not configured", nil)
		default:
			slog.Error("login failed", "error", err)
			server.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
		}
		return
	}

	server.JSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(accessTokenExpiry.Seconds()),
	})
}

// Provision handles POST /admin/api/provision. Existing accounts answer 200
// with created=false; new accounts answer 201.
func (h *Handler) Provision(w http.ResponseWriter, r *http.Request) {
	var req ProvisionRequest
	if !server.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Provision(r.Context(), req)
	if err != nil {
		if details, ok := server.ValidationDetails(err); ok {
			server.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Provisioning request is invalid", details)
			return
		}
		if errors.Is(err, database.ErrNotConfigured) {
			server.Error(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Storage is not configured", nil)
			return
		}
		slog.Error("admin provisioning failed", "error", err)
		server.Error(w, http.StatusInternalServerError, "PROVISION_FAILED", "The admin account could not be created", nil)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	server.JSON(w, status, result)
}
