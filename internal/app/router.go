package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/notify"
	"github.com/meridianhq/meridian/internal/observability"
	"github.com/meridianhq/meridian/internal/users"
)

// UserRouterParams groups dependencies for the user service router.
type UserRouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	Gate         *auth.Gate
	UsersHandler *users.Handler
	Metrics      *observability.Metrics
}

// NewUserRouter constructs the user service router. The auth gate runs once
// per request, after the common stack and before every route's access
// requirement.
func NewUserRouter(params UserRouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	r.Use(params.Gate.Middleware)

	r.Get("/healthz", handleHealthz)
	r.Route("/user", params.UsersHandler.MountRoutes)
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// NotifyRouterParams groups dependencies for the notify service router.
type NotifyRouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	NotifyHandler *notify.Handler
	Metrics       *observability.Metrics
}

// NewNotifyRouter constructs the notify service router.
func NewNotifyRouter(params NotifyRouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", handleHealthz)
	r.Route("/notify", params.NotifyHandler.MountRoutes)
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
