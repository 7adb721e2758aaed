package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/target/admin-console/internal/data/pgxutil"
	"github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
)

const profileColumns = `uid, display_id, username, email, role, created_at, updated_at`

// SQL query constants for static profile queries.
const (
	profileGetByUIDQuery   = `SELECT ` + profileColumns + ` FROM profiles WHERE uid = $1`
	profileGetByEmailQuery = `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1) ORDER BY display_id LIMIT 1`
	profileListQuery       = `SELECT ` + profileColumns + ` FROM profiles ORDER BY display_id ASC`
	profileListByRoleQuery = `SELECT ` + profileColumns + ` FROM profiles WHERE role = $1 ORDER BY display_id ASC`
	profileInsertQuery     = `
		INSERT INTO profiles (uid, username, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + profileColumns
)

// ProfileRepo stores team member profiles in PostgreSQL.
// Display ids come from the profile_display_id_seq sequence, so concurrent creates never collide.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a new ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// Create inserts a profile keyed by uid.
func (r *ProfileRepo) Create(ctx context.Context, uid string, req *model.CreateProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, errNilRequest
	}
	if strings.TrimSpace(uid) == "" {
		return nil, apperrors.ValidationField("uid", "uid is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	now := r.timeProvider.Now().UTC()
	p, err := pgxutil.QueryOne[model.Profile](ctx, r.DB, profileInsertQuery, uid, req.Username, req.Email, req.Role, now)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return p, nil
}

// List returns every profile ordered by display id.
func (r *ProfileRepo) List(ctx context.Context) ([]*model.Profile, error) {
	out, err := pgxutil.QueryAll[model.Profile](ctx, r.DB, profileListQuery)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// ListByRole returns profiles holding role, ordered by display id.
func (r *ProfileRepo) ListByRole(ctx context.Context, role auth.Role) ([]*model.Profile, error) {
	out, err := pgxutil.QueryAll[model.Profile](ctx, r.DB, profileListByRoleQuery, role)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByUID returns the profile for an identity account, or nil when absent.
func (r *ProfileRepo) GetByUID(ctx context.Context, uid string) (*model.Profile, error) {
	return absentOrErr(pgxutil.QueryOne[model.Profile](ctx, r.DB, profileGetByUIDQuery, uid))
}

// GetByEmail returns the first profile with the email (case-insensitive), or nil when absent.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return absentOrErr(pgxutil.QueryOne[model.Profile](ctx, r.DB, profileGetByEmailQuery, strings.TrimSpace(email)))
}

// Update applies a partial update and stamps updated_at.
func (r *ProfileRepo) Update(ctx context.Context, uid string, req model.UpdateProfileRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	setParts := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(col string, v any) {
		args = append(args, v)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if req.Username != nil {
		add("username", *req.Username)
	}
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.Role != nil {
		add("role", *req.Role)
	}
	add("updated_at", r.timeProvider.Now().UTC())
	args = append(args, uid)

	query := fmt.Sprintf("UPDATE profiles SET %s WHERE uid = $%d RETURNING %s",
		strings.Join(setParts, ", "), len(args), profileColumns)
	p, err := pgxutil.QueryOne[model.Profile](ctx, r.DB, query, args...)
	if err != nil {
		return nil, notFoundOr(err, "profile not found")
	}
	return p, nil
}

// Delete removes the profile. Deleting a missing profile is not an error.
func (r *ProfileRepo) Delete(ctx context.Context, uid string) error {
	if _, err := pgxutil.Exec(ctx, r.DB, `DELETE FROM profiles WHERE uid = $1`, uid); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
