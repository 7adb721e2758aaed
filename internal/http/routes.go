package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/observability/metrics"
	"github.com/target/admin-console/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     SessionManager
	Profiles *service.ProfileService
	Tasks    *service.TaskService
	// Optional: legacy demo endpoints are only mounted when set.
	Demo *service.DemoUsers

	CookieName   string
	CookieDomain string

	// Optional: nil disables login throttling.
	LoginLimit *LoginRateLimit
	// Optional: Prometheus recorder and handler.
	Metrics        metrics.Recorder
	MetricsPath    string
	MetricsHandler http.Handler

	// DebugConfig is served at /debug/config in development mode.
	DebugConfig map[string]string
	IsDev       bool
	Logger      *slog.Logger
}

// NewRouter creates the API router wrapped in logging and recovery middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	guard := sessionGuard{lookup: services.Auth, cookie: services.CookieName}

	registerAuthRoutes(mux, &AuthHandlers{
		Svc:          services.Auth,
		CookieName:   services.CookieName,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}, guard, services.LoginLimit)
	if services.Profiles != nil {
		registerProfileRoutes(mux, &ProfileHandlers{Svc: services.Profiles}, guard)
	}
	if services.Tasks != nil {
		registerTaskRoutes(mux, &TaskHandlers{Svc: services.Tasks}, guard)
	}
	if services.Demo != nil {
		registerDemoRoutes(mux, &DemoHandlers{Users: services.Demo}, services.LoginLimit)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.MetricsHandler != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, services.MetricsHandler)
	}
	if services.IsDev && services.DebugConfig != nil {
		mux.Handle("GET /debug/config", debugConfigHandler(services.DebugConfig))
	}

	return Recover(logger)(Logging(logger, services.Metrics)(mux))
}

func limited(l *LoginRateLimit, h http.HandlerFunc) http.Handler {
	if l == nil {
		return h
	}
	return l.Middleware(h)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, g sessionGuard, l *LoginRateLimit) {
	mux.Handle("POST /auth/login", limited(l, h.Login))
	mux.Handle("POST /auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /auth/status", http.HandlerFunc(h.Status))
	mux.Handle("POST /auth/token", g.RequireAuth(http.HandlerFunc(h.Token)))
}

func registerProfileRoutes(mux *http.ServeMux, h *ProfileHandlers, g sessionGuard) {
	admin := g.RequireRole(domainauth.RoleAdmin)
	mux.Handle("GET /api/profiles", g.RequireAuth(http.HandlerFunc(h.Team)))
	mux.Handle("GET /api/profiles/{uid}", g.RequireAuth(http.HandlerFunc(h.Get)))
	mux.Handle("POST /api/profiles", admin(http.HandlerFunc(h.Create)))
	mux.Handle("PATCH /api/profiles/{uid}", admin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/profiles/{uid}", admin(http.HandlerFunc(h.Delete)))
}

func registerTaskRoutes(mux *http.ServeMux, h *TaskHandlers, g sessionGuard) {
	mux.Handle("GET /api/tasks", g.RequireAuth(http.HandlerFunc(h.Board)))
	mux.Handle("GET /api/tasks/{id}", g.RequireAuth(http.HandlerFunc(h.Get)))
	mux.Handle("GET /api/tasks/assigned/{uid}", g.RequireAuth(http.HandlerFunc(h.Assigned)))
	mux.Handle("POST /api/tasks", g.RequireAuth(http.HandlerFunc(h.Create)))
	mux.Handle("PATCH /api/tasks/{id}", g.RequireAuth(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/tasks/{id}", g.RequireRole(domainauth.RoleCore)(http.HandlerFunc(h.Delete)))
}

func registerDemoRoutes(mux *http.ServeMux, h *DemoHandlers, l *LoginRateLimit) {
	mux.Handle("POST /api/users/login", limited(l, h.Login))
	mux.Handle("POST /api/users/register", http.HandlerFunc(h.Register))
}
