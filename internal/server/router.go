package server

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GyroZepelix/mithril-admin/internal/database"
	"github.com/GyroZepelix/mithril-admin/internal/metrics"
)

// ModelHandler serves content model authoring routes.
type ModelHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	GetByIdentifier(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	ReorderFields(w http.ResponseWriter, r *http.Request)
}

// EntryHandler serves content entry routes, including the form descriptors
// and reference picker options derived from a model.
type EntryHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	EntryForm(w http.ResponseWriter, r *http.Request)
	ModelForm(w http.ResponseWriter, r *http.Request)
	ReferenceOptions(w http.ResponseWriter, r *http.Request)
}

// MediaHandler serves upload grants and the media library.
type MediaHandler interface {
	Grant(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

// ObjectHandler accepts signed uploads and serves stored objects. It is only
// mounted when the local object store is in use.
type ObjectHandler interface {
	Put(w http.ResponseWriter, r *http.Request)
	Serve(w http.ResponseWriter, r *http.Request)
}

// AuthHandler issues bearer tokens.
type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
}

// ProvisionHandler creates admin accounts under the service role.
type ProvisionHandler interface {
	Provision(w http.ResponseWriter, r *http.Request)
}

// Dependencies holds all injectable dependencies used by route handlers.
// Nil handlers leave their routes unmounted.
type Dependencies struct {
	DB      *database.DB
	DevMode bool
	AdminFS fs.FS

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	// UploadRatePerMinute throttles the grant and provisioning routes.
	UploadRatePerMinute int

	Models    ModelHandler
	Entries   EntryHandler
	Media     MediaHandler
	Objects   ObjectHandler
	Auth      AuthHandler
	Provision ProvisionHandler

	AuthMiddleware        func(http.Handler) http.Handler
	ServiceRoleMiddleware func(http.Handler) http.Handler
}

// NewRouter builds the chi router with the full route tree and middleware
// stack.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(deps.DevMode))

	r.Get("/health", healthHandler(deps))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	if deps.Auth != nil {
		r.With(requireJSON).Post("/auth/login", deps.Auth.Login)
	}

	uploadLimit := rateLimit(deps.UploadRatePerMinute)

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(requireJSON)

		if deps.Provision != nil && deps.ServiceRoleMiddleware != nil {
			r.With(uploadLimit, deps.ServiceRoleMiddleware).Post("/provision", deps.Provision.Provision)
		}

		r.Group(func(r chi.Router) {
			if deps.AuthMiddleware != nil {
				r.Use(deps.AuthMiddleware)
			}

			if h := deps.Models; h != nil {
				r.Route("/models", func(r chi.Router) {
					r.Get("/", h.List)
					r.Post("/", h.Create)
					r.Get("/by-identifier/{apiIdentifier}", h.GetByIdentifier)
					r.Get("/{id}", h.Get)
					r.Put("/{id}", h.Update)
					r.Delete("/{id}", h.Delete)
					r.Put("/{id}/field-order", h.ReorderFields)
					if e := deps.Entries; e != nil {
						r.Get("/{id}/form", e.ModelForm)
						r.Get("/{id}/reference-options", e.ReferenceOptions)
					}
				})
			}

			if h := deps.Entries; h != nil {
				r.Route("/entries", func(r chi.Router) {
					r.Get("/", h.List)
					r.Post("/", h.Create)
					r.Post("/validate", h.Validate)
					r.Get("/{id}", h.Get)
					r.Put("/{id}", h.Update)
					r.Delete("/{id}", h.Delete)
					r.Get("/{id}/export", h.Export)
					r.Get("/{id}/form", h.EntryForm)
				})
			}

			if h := deps.Media; h != nil {
				r.With(uploadLimit).Post("/uploads/grant", h.Grant)
				r.Route("/media", func(r chi.Router) {
					r.Get("/", h.List)
					r.Post("/", h.Create)
					r.Delete("/{id}", h.Delete)
				})
			}
		})
	})

	if h := deps.Objects; h != nil {
		r.Put("/uploads/media/{filename}", h.Put)
		r.Get("/media/{filename}", h.Serve)
	}

	// SPA catch-all (must be last).
	r.NotFound(newSPAHandler(deps.DevMode, deps.AdminFS))

	return r
}

// corsMiddleware returns a CORS middleware configured for the application.
// In dev mode the Vite dev server origin is allowed; in production only
// same-origin requests are permitted.
func corsMiddleware(devMode bool) func(http.Handler) http.Handler {
	var allowedOrigins []string
	if devMode {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// healthHandler reports process health together with the database state.
// A missing database is reported as degraded, not as a failure.
func healthHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.DB.Health(r.Context())
		switch {
		case errors.Is(err, database.ErrNotConfigured):
			JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "not_configured"})
		case err != nil:
			Error(w, http.StatusServiceUnavailable, "DB_UNHEALTHY", "database health check failed", nil)
		default:
			JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
		}
	}
}
