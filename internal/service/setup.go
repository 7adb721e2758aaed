package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/admin-console/internal/core"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/ports"
)

// SetupServiceOptions groups dependencies for SetupService.
type SetupServiceOptions struct {
	Provider ports.IdentityProvider
	Profiles core.ProfileRepository
	Logger   *slog.Logger // Optional
}

// SetupService provisions the bootstrap administrator.
type SetupService struct {
	provider ports.IdentityProvider
	profiles core.ProfileRepository
	logger   *slog.Logger
}

// NewSetupService constructs a new SetupService.
func NewSetupService(opts SetupServiceOptions) *SetupService {
	if opts.Provider == nil {
		panic("IdentityProvider is required")
	}
	if opts.Profiles == nil {
		panic("ProfileRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SetupService{provider: opts.Provider, profiles: opts.Profiles, logger: logger.With("component", "setup")}
}

// BootstrapAdminRequest names the administrator account to ensure.
type BootstrapAdminRequest struct {
	Email    string
	Password string
	Username string
}

// BootstrapAdminResult reports what EnsureBootstrapAdmin did.
type BootstrapAdminResult struct {
	UID            string
	Email          string
	Registered     bool // a new identity account was created
	ProfileCreated bool
}

// EnsureBootstrapAdmin registers the administrator account, falling back to a
// sign-in when registration fails, then creates the admin profile if it is missing.
func (s *SetupService) EnsureBootstrapAdmin(ctx context.Context, req BootstrapAdminRequest) (*BootstrapAdminResult, error) {
	email, err := model.NormalizeEmail(req.Email)
	if err != nil {
		return nil, apperrors.ValidationField("email", err.Error())
	}
	if req.Password == "" {
		return nil, apperrors.ValidationField("password", "password is required")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = "Admin"
	}

	res := &BootstrapAdminResult{Email: email}
	cred, regErr := s.provider.Register(ctx, email, req.Password)
	if regErr == nil {
		res.Registered = true
		s.logger.InfoContext(ctx, "registered bootstrap admin", "email", email, "uid", cred.Identity.ID)
	} else {
		s.logger.WarnContext(ctx, "registration failed, trying sign-in", "email", email, "error", regErr)
		var loginErr error
		cred, loginErr = s.provider.SignIn(ctx, email, req.Password)
		if loginErr != nil {
			if errors.Is(regErr, ports.ErrAccountExists) || errors.Is(regErr, ports.ErrInvalidCredentials) {
				return nil, apperrors.Wrap(loginErr, apperrors.ErrCodeAuth,
					"account exists but login failed; check the password or provider settings")
			}
			return nil, registerError(regErr)
		}
	}
	res.UID = cred.Identity.ID

	existing, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup profile: %w", err)
	}
	if existing != nil {
		s.logger.InfoContext(ctx, "bootstrap admin profile present", "email", email, "uid", existing.UID)
		return res, nil
	}

	if _, err := s.profiles.Create(ctx, cred.Identity.ID, &model.CreateProfileRequest{
		Username: username,
		Email:    email,
		Role:     domainauth.RoleAdmin,
	}); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	res.ProfileCreated = true
	s.logger.InfoContext(ctx, "created bootstrap admin profile", "email", email, "uid", cred.Identity.ID)
	return res, nil
}
