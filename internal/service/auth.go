package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/target/admin-console/internal/core"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/ports"
	"golang.org/x/sync/singleflight"
)

// ErrProfileNotFound is the terminal login failure for an identity with no profile.
const ErrProfileNotFound = "User data not found in database. Please contact support."

const defaultSessionTTL = 12 * time.Hour

// refreshTimeout bounds a shared refresh once it no longer follows any caller's context.
const refreshTimeout = 15 * time.Second

// ProfileReconciler decides whether a signed-in identity without a profile may
// have one created on the spot, and with which fields.
type ProfileReconciler interface {
	Reconcile(identity domainauth.Identity, email string) (*model.CreateProfileRequest, bool)
}

// TransitionObserver is notified of every session manager state change.
type TransitionObserver interface {
	Observe(ctx context.Context, t domainauth.Transition)
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.IdentityProvider
	Sessions ports.SessionStore
	Profiles core.ProfileRepository
	Config   AuthServiceConfig
}

// AuthServiceConfig holds the optional collaborators of AuthService.
type AuthServiceConfig struct {
	Reconciler ProfileReconciler  // Optional: no self-healing when nil
	Observer   TransitionObserver // Optional
	SessionTTL time.Duration      // default 12h
}

// AuthService is the session manager: it signs users in against the identity
// provider, attaches their profile, caches the session, and keeps its token fresh.
type AuthService struct {
	provider   ports.IdentityProvider
	sessions   ports.SessionStore
	profiles   core.ProfileRepository
	reconciler ProfileReconciler
	observer   TransitionObserver
	ttl        time.Duration
	now        func() time.Time

	refreshes singleflight.Group
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Provider == nil {
		panic("IdentityProvider is required")
	}
	if opts.Sessions == nil {
		panic("SessionStore is required")
	}
	if opts.Profiles == nil {
		panic("ProfileRepository is required")
	}
	ttl := opts.Config.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &AuthService{
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		profiles:   opts.Profiles,
		reconciler: opts.Config.Reconciler,
		observer:   opts.Config.Observer,
		ttl:        ttl,
		now:        time.Now,
	}
}

// LoginResult is the combined outcome of a successful login.
type LoginResult struct {
	Token   string
	Profile *model.Profile
	Session domainauth.Session
}

// attempt walks one login or logout through the state machine.
type attempt struct {
	svc   *AuthService
	ctx   context.Context
	email string
	state domainauth.LoginState
}

func (a *attempt) move(to domainauth.LoginState) { a.moveErr(to, nil) }

func (a *attempt) fail(err error) { a.moveErr(domainauth.StateFailed, err) }

func (a *attempt) moveErr(to domainauth.LoginState, cause error) {
	t := domainauth.Transition{From: a.state, To: to, Email: a.email, Err: cause}
	if err := t.Validate(); err != nil {
		// Programming error; keep going so the caller still gets a result.
		slog.ErrorContext(a.ctx, "session manager", "error", err)
	}
	a.state = to
	if a.svc.observer != nil {
		a.svc.observer.Observe(a.ctx, t)
	}
}

// Login signs in, caches the token, and resolves the caller's profile,
// repairing a missing profile when the reconciler allows it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	a := &attempt{svc: s, ctx: ctx, email: email, state: domainauth.StateAnonymous}
	a.move(domainauth.StateAuthenticating)

	cred, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		err = signInError(err)
		a.fail(err)
		return nil, err
	}

	sess := domainauth.Session{
		ID:           uuid.NewString(),
		Token:        cred.Token,
		RefreshToken: cred.RefreshToken,
		UserID:       cred.Identity.ID,
		Email:        email,
		ExpiresAt:    s.now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		err = fmt.Errorf("cache session: %w", err)
		a.fail(err)
		return nil, err
	}

	profile, err := s.resolveProfile(a, cred.Identity)
	if err != nil {
		a.fail(err)
		if delErr := s.sessions.Delete(ctx, sess.ID); delErr != nil {
			return nil, errors.Join(err, fmt.Errorf("discard session: %w", delErr))
		}
		return nil, err
	}

	sess.DisplayID = profile.DisplayID
	sess.Username = profile.Username
	sess.Role = profile.Role
	if err := s.sessions.Save(ctx, sess); err != nil {
		err = fmt.Errorf("cache session: %w", err)
		a.fail(err)
		return nil, err
	}

	a.move(domainauth.StateAuthenticated)
	return &LoginResult{Token: sess.Token, Profile: profile, Session: sess}, nil
}

// resolveProfile looks the profile up by email and runs the self-healing repair.
func (s *AuthService) resolveProfile(a *attempt, identity domainauth.Identity) (*model.Profile, error) {
	profile, err := s.profiles.GetByEmail(a.ctx, a.email)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	if s.reconciler == nil {
		return nil, apperrors.NotFound(ErrProfileNotFound)
	}
	req, ok := s.reconciler.Reconcile(identity, a.email)
	if !ok {
		return nil, apperrors.NotFound(ErrProfileNotFound)
	}

	a.move(domainauth.StateRepairing)
	slog.WarnContext(a.ctx, "profile missing for bootstrap account, recreating", "email", a.email, "uid", identity.ID)
	if _, err := s.profiles.Create(a.ctx, identity.ID, req); err != nil {
		return nil, fmt.Errorf("repair profile: %w", err)
	}

	profile, err = s.profiles.GetByEmail(a.ctx, a.email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.NotFound(ErrProfileNotFound)
	}
	return profile, nil
}

func signInError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.MapContextError(err)
	case errors.Is(err, ports.ErrInvalidCredentials):
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, providerMessage(err, "Invalid email or password"))
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, providerMessage(err, "Failed to login"))
	}
}

// providerMessage is the user-facing text of a provider failure: the provider's own
// message, or fallback when it gave none.
func providerMessage(err error, fallback string) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

// Logout signs the session's credential out at the provider and always drops
// the cached session. A remote failure is returned after the local state is cleared.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	remoteErr := s.provider.SignOut(ctx, sess.Credential())

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return errors.Join(fmt.Errorf("delete session: %w", err), wrapSignOut(remoteErr))
	}

	a := &attempt{svc: s, ctx: ctx, email: sess.Email, state: domainauth.StateAuthenticated}
	a.move(domainauth.StateAnonymous)

	return wrapSignOut(remoteErr)
}

func wrapSignOut(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(err, apperrors.ErrCodeAuth, "Logout failed")
}

// CurrentToken refreshes the session's token through the provider and caches
// the new value. It returns "" when there is no session or the refresh fails.
// Concurrent calls for the same session share one provider round trip, so the
// refresh runs detached from the first caller's cancellation. Each caller still
// stops waiting when its own ctx ends.
func (s *AuthService) CurrentToken(ctx context.Context, sessionID string) string {
	if sessionID == "" {
		return ""
	}
	ch := s.refreshes.DoChan(sessionID, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refresh(rctx, sessionID)
	})
	select {
	case res := <-ch:
		tok, _ := res.Val.(string)
		return tok
	case <-ctx.Done():
		return ""
	}
}

func (s *AuthService) refresh(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	cred, err := s.provider.Refresh(ctx, sess.Credential())
	if err != nil {
		slog.InfoContext(ctx, "token refresh failed", "session_id", sessionID, "error", err)
		return "", err
	}
	sess.Token = cred.Token
	if cred.RefreshToken != "" {
		sess.RefreshToken = cred.RefreshToken
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		slog.WarnContext(ctx, "cache refreshed token", "session_id", sessionID, "error", err)
		return "", err
	}
	return sess.Token, nil
}

// GetSession returns the cached session. Unknown and expired sessions are Auth errors.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.Auth("not authenticated")
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeAuth, "not authenticated")
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s.now().After(sess.ExpiresAt) || !sess.HasProfile() {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, apperrors.Auth("session expired")
	}
	return &sess, nil
}

// State reports whether sessionID names a live, fully authenticated session.
func (s *AuthService) State(ctx context.Context, sessionID string) domainauth.LoginState {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return domainauth.StateAnonymous
	}
	return domainauth.StateAuthenticated
}
