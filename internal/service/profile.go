package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/admin-console/internal/core"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/ports"
)

// ErrSelfDelete is returned when an admin tries to delete their own profile.
var ErrSelfDelete = apperrors.Forbidden("You cannot delete your own account")

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Repo     core.ProfileRepository
	Provider ports.IdentityProvider // Optional: Provision is unavailable when nil
}

// ProfileService manages team members.
type ProfileService struct {
	repo     core.ProfileRepository
	provider ports.IdentityProvider
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	if opts.Repo == nil {
		panic("ProfileRepository is required")
	}
	return &ProfileService{repo: opts.Repo, provider: opts.Provider}
}

// TeamView is the filtered member list plus role counts over the whole team.
type TeamView struct {
	Profiles []*model.Profile  `json:"profiles"`
	Stats    model.ProfileStats `json:"stats"`
}

// ProvisionRequest creates an identity account and its profile in one step.
type ProvisionRequest struct {
	model.CreateProfileRequest
	Password string `json:"password"`
}

// Team lists members matching opts. Stats always cover every member.
func (s *ProfileService) Team(ctx context.Context, opts model.ProfileListOptions) (*TeamView, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]*model.Profile, 0, len(all))
	for _, p := range all {
		if opts.Matches(p) {
			filtered = append(filtered, p)
		}
	}
	return &TeamView{Profiles: filtered, Stats: model.CountProfiles(all)}, nil
}

// List returns all profiles ordered by display id, or only those with opts.Role when set.
func (s *ProfileService) List(ctx context.Context, opts model.ProfileListOptions) ([]*model.Profile, error) {
	if opts.Role != "" && opts.Q == "" {
		return s.repo.ListByRole(ctx, opts.Role)
	}
	view, err := s.Team(ctx, opts)
	if err != nil {
		return nil, err
	}
	return view.Profiles, nil
}

// Get returns the profile for uid or a NotFound error.
func (s *ProfileService) Get(ctx context.Context, uid string) (*model.Profile, error) {
	p, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.NotFoundf("profile %s not found", uid)
	}
	return p, nil
}

// Provision registers a new identity account and creates its profile.
func (s *ProfileService) Provision(ctx context.Context, req ProvisionRequest) (*model.Profile, error) {
	if s.provider == nil {
		return nil, apperrors.Internal("identity provider not configured")
	}
	if req.Password == "" {
		return nil, apperrors.ValidationField("password", "Password is required for new users")
	}
	if err := req.CreateProfileRequest.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	cred, err := s.provider.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, registerError(err)
	}

	profile, err := s.repo.Create(ctx, cred.Identity.ID, &req.CreateProfileRequest)
	if err != nil {
		// The identity account now exists without a profile; login will report it.
		slog.WarnContext(ctx, "profile create failed after registration", "email", req.Email, "uid", cred.Identity.ID, "error", err)
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

func registerError(err error) error {
	var rejected *ports.RejectedError
	switch {
	case errors.As(err, &rejected):
		e := apperrors.Wrap(err, apperrors.ErrCodeValidation, providerMessage(err, "Invalid account details"))
		e.Field = rejected.Field
		return e
	case errors.Is(err, ports.ErrAccountExists):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, providerMessage(err, "An account with this email already exists"))
	case errors.Is(err, ports.ErrRegistrationUnsupported):
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, providerMessage(err, "The identity provider does not allow registration"))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.MapContextError(err)
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeAuth, providerMessage(err, "Failed to create account"))
	}
}

// Update applies a partial update to the profile for uid.
func (s *ProfileService) Update(ctx context.Context, uid string, req model.UpdateProfileRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	return s.repo.Update(ctx, uid, req)
}

// Delete removes the profile for uid. The identity account is left in place.
func (s *ProfileService) Delete(ctx context.Context, actorUID, uid string) error {
	if uid == "" {
		return apperrors.ValidationField("uid", "uid is required")
	}
	if actorUID == uid {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, uid)
}

// Stats counts members per role.
func (s *ProfileService) Stats(ctx context.Context) (model.ProfileStats, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return model.ProfileStats{}, err
	}
	return model.CountProfiles(all), nil
}
