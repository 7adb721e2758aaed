package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/target/admin-console/internal/data/pgxutil"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/ports"
)

const accountColumns = `id, email, password_hash, token_version, created_at, updated_at`

// AccountRepo stores self-hosted identity accounts.
type AccountRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAccountRepo creates a new AccountRepo with real time provider.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Create inserts the account. A duplicate email wraps ports.ErrAccountExists.
func (r *AccountRepo) Create(ctx context.Context, acc *model.Account) (*model.Account, error) {
	if acc == nil {
		return nil, errNilRequest
	}
	now := r.timeProvider.Now().UTC()
	out, err := pgxutil.QueryOne[model.Account](ctx, r.DB, `
		INSERT INTO accounts (id, email, password_hash, token_version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		RETURNING `+accountColumns,
		acc.ID, strings.ToLower(strings.TrimSpace(acc.Email)), acc.PasswordHash, now,
	)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ports.ErrAccountExists, acc.Email)
		}
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByEmail returns the account or nil when absent.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return absentOrErr(pgxutil.QueryOne[model.Account](ctx, r.DB,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

// GetByID returns the account or nil when absent.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return absentOrErr(pgxutil.QueryOne[model.Account](ctx, r.DB,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// BumpTokenVersion increments the account's token version and returns the new value.
func (r *AccountRepo) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	var v int
	err := r.DB.QueryRowContext(ctx,
		`UPDATE accounts SET token_version = token_version + 1, updated_at = $2 WHERE id = $1 RETURNING token_version`,
		id, r.timeProvider.Now().UTC(),
	).Scan(&v)
	if err != nil {
		return 0, notFoundOr(err, "account not found")
	}
	return v, nil
}
