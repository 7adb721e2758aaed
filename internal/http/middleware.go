package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/observability/metrics"
)

// DefaultSessionCookie is the cookie carrying the session id.
const DefaultSessionCookie = "session_id"

// SessionLookup resolves a session id to a live, authenticated session.
type SessionLookup interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// Logging returns a middleware that logs HTTP requests and responses.
// When rec is non-nil, request durations are recorded under the matched route pattern.
func Logging(logger *slog.Logger, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", elapsed),
			)
			if rec != nil {
				rec.RecordHTTPRequest(r.Method, routeLabel(r), ww.status, elapsed)
			}
		})
	}
}

// routeLabel returns the ServeMux pattern that matched r, keeping label cardinality bounded.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteError(w, ErrorParams{
						Code:    http.StatusInternalServerError,
						ErrCode: "internal_error",
						Err:     errors.New("internal server error"),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// sessionGuard authenticates requests from the session cookie.
type sessionGuard struct {
	lookup SessionLookup
	cookie string
}

func (g sessionGuard) cookieName() string {
	if g.cookie == "" {
		return DefaultSessionCookie
	}
	return g.cookie
}

// session retrieves and validates the session named by the request cookie.
func (g sessionGuard) session(r *http.Request) *domainauth.Session {
	c, err := r.Cookie(g.cookieName())
	if err != nil || c.Value == "" {
		return nil
	}
	s, err := g.lookup.GetSession(r.Context(), c.Value)
	if err != nil {
		return nil
	}
	return s
}

// RequireAuth returns a middleware that requires an authenticated session.
func (g sessionGuard) RequireAuth(next http.Handler) http.Handler {
	return g.RequireRole(domainauth.RoleIntern)(next)
}

// RequireRole returns a middleware that requires a role at or above minRole.
func (g sessionGuard) RequireRole(minRole domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := g.session(r)
			if s == nil {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}
			if !s.Role.AtLeast(minRole) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), s)))
		})
	}
}
