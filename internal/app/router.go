package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/facturio/facturio/internal/auth"
	"github.com/facturio/facturio/internal/catalog"
	"github.com/facturio/facturio/internal/clients"
	"github.com/facturio/facturio/internal/dashboard"
	"github.com/facturio/facturio/internal/documents"
	"github.com/facturio/facturio/internal/notifications"
	"github.com/facturio/facturio/internal/observability"
	"github.com/facturio/facturio/internal/settings"
	"github.com/facturio/facturio/internal/shares"
	"github.com/facturio/facturio/internal/templates"
	"github.com/facturio/facturio/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthService *auth.Service

	AuthHandler          *auth.Handler
	ClientsHandler       *clients.Handler
	CatalogHandler       *catalog.Handler
	UsersHandler         *users.Handler
	DocumentsHandler     *documents.Handler
	TemplatesHandler     *templates.Handler
	SharesHandler        *shares.Handler
	SettingsHandler      *settings.Handler
	DashboardHandler     *dashboard.Handler
	NotificationsHandler *notifications.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with the full route table.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Public surface: login and share links opened by clients.
	params.AuthHandler.MountPublicRoutes(r)
	params.SharesHandler.MountPublicRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthService.Middleware)

		params.AuthHandler.MountRoutes(r)
		params.ClientsHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)
		params.UsersHandler.MountRoutes(r)
		params.DocumentsHandler.MountRoutes(r)
		params.TemplatesHandler.MountRoutes(r)
		params.SharesHandler.MountRoutes(r)
		params.SettingsHandler.MountRoutes(r)
		params.DashboardHandler.MountRoutes(r)
		params.NotificationsHandler.MountRoutes(r)
	})

	return r
}
