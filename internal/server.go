package internal

import (
	"context"
	"embed"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"label-intake-api/internal/auth"
	"label-intake-api/internal/config"
	"label-intake-api/internal/handlers"
	"label-intake-api/internal/models"
)

//go:embed openapi
var openapiFS embed.FS

// Service is the intake behaviour exposed over HTTP.
type Service interface {
	handlers.EntryService
	CheckEntry(ctx context.Context, req models.TargetRequest) (*models.AssetRecord, error)
	ChangeLocation(ctx context.Context, req models.ChangeLocationRequest) (*models.ActionResult, error)
	ChangeUser(ctx context.Context, req models.ChangeUserRequest) (*models.ActionResult, error)
}

type Server struct {
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Service    Service
	Entries    *handlers.EntriesHandler

	cfg    *config.Config
	logger *zap.Logger
}

// NewServer mounts every route. JWTManager stays nil when authentication
// is disabled.
func NewServer(cfg *config.Config, svc Service, metrics *Metrics, logger *zap.Logger) (*Server, error) {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		Router:  chi.NewRouter(),
		Metrics: metrics,
		Service: svc,
		Entries: handlers.NewEntriesHandler(svc, cfg.MaxUploadBytes),
		cfg:     cfg,
		logger:  logger,
	}

	if cfg.AuthEnabled {
		s.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
		if err := s.JWTManager.ValidateConfig(); err != nil {
			return nil, fmt.Errorf("jwt configuration: %w", err)
		}
	}

	s.Router.Use(middleware.RealIP)
	s.Router.Use(RequestLogger(logger))
	s.Router.Use(middleware.Recoverer)

	// Mount metrics if enabled
	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Mount public routes FIRST
	s.Router.Get("/health", s.health)
	s.Router.Get("/api/health", s.health)
	s.Router.Get("/api/config", s.publicConfig)
	s.mountDocs(s.Router)

	s.Router.Group(func(r chi.Router) {
		if s.JWTManager != nil {
			r.Use(auth.AuthMiddleware(s.JWTManager))
		}
		s.mountProtectedRoutes(r)
	})

	return s, nil
}

// Close flushes buffered log entries.
func (s *Server) Close(ctx context.Context) error {
	_ = s.logger.Sync()
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) publicConfig(w http.ResponseWriter, _ *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]any{
		"glpi_enabled":      s.cfg.GLPIEnabled(),
		"default_item_type": s.cfg.DefaultItemType,
		"auth_enabled":      s.cfg.AuthEnabled,
	})
}

// guard applies role checks when authentication is enabled.
func (s *Server) guard(h http.HandlerFunc, roles ...string) http.HandlerFunc {
	if s.JWTManager == nil {
		return h
	}
	return auth.MustRole(roles...)(h).(http.HandlerFunc)
}

// mountProtectedRoutes mounts all routes that require authentication
func (s *Server) mountProtectedRoutes(r chi.Router) {
	// Lookups - viewers and operators
	r.Post("/api/check_entry", s.guard(s.checkEntry, auth.RoleOperator, auth.RoleViewer))
	r.Post("/api/scan_qr", s.guard(s.Entries.ScanQR, auth.RoleOperator, auth.RoleViewer))

	// Mutations - operators only
	r.Post("/api/add_entry", s.guard(s.Entries.AddEntry, auth.RoleOperator))
	r.Post("/api/change_location", s.guard(s.changeLocation, auth.RoleOperator))
	r.Post("/api/change_user", s.guard(s.changeUser, auth.RoleOperator))
}

// mountDocs serves the OpenAPI document and Swagger UI
func (s *Server) mountDocs(mux *chi.Mux) {
	if !s.cfg.EnableSwagger {
		return
	}

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		data, err := openapiFS.ReadFile("openapi/openapi.yaml")
		if err != nil {
			http.Error(w, "Failed to read OpenAPI spec", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		if _, err := w.Write(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<!doctype html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Label Intake API - Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: '/openapi.yaml',
                dom_id: '#swagger-ui',
                deepLinking: true,
                tryItOutEnabled: true
            });
        };
    </script>
</body>
</html>`))
	})
}
