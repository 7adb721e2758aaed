package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/target/admin-console/internal/domain/auth"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/service"
)

// SessionManager is the slice of AuthService the HTTP layer uses.
type SessionManager interface {
	SessionLookup
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentToken(ctx context.Context, sessionID string) string
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          SessionManager
	CookieName   string
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookieName() string {
	if h.CookieName == "" {
		return DefaultSessionCookie
	}
	return h.CookieName
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login signs the caller in and sets the session cookie.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperrors.IsNotFound(err) {
			WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "profile_not_found", Err: err})
			return
		}
		writeServiceError(w, r, err, "login_failed")
		return
	}

	h.setSessionCookie(w, r, res.Session)
	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": res.Token,
		"user":         res.Profile,
		"expires_at":   res.Session.ExpiresAt,
	})
}

// Logout ends the session. The cookie is always cleared, even when the
// identity provider could not be reached.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "success"}
	if c, err := r.Cookie(h.cookieName()); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), c.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
			body["warning"] = apperrors.UserMessage(logoutErr)
		}
	}
	h.clearCookie(w, r)
	WriteJSON(w, http.StatusOK, body)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(h.cookieName())
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	s, err := h.Svc.GetSession(r.Context(), c.Value)
	if err != nil {
		// Session is invalid or expired, clear the cookie
		h.clearCookie(w, r)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"uid":      s.UserID,
			"id":       s.DisplayID,
			"username": s.Username,
			"email":    s.Email,
			"role":     s.Role,
		},
		"expires_at": s.ExpiresAt,
	})
}

// Token refreshes and returns the session's identity token.
// POST /auth/token.
func (h *AuthHandlers) Token(w http.ResponseWriter, r *http.Request) {
	s, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: errors.New("authentication required")})
		return
	}
	tok := h.Svc.CurrentToken(r.Context(), s.ID)
	if tok == "" {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "token_unavailable", Err: errors.New("token could not be refreshed")})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"access_token": tok})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// clearCookie expires the session cookie, mirroring the attributes used to set it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
