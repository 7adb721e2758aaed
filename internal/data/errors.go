package data

import (
	"errors"

	apperrors "github.com/target/admin-console/internal/errors"
)

// absentOrErr converts pgx.ErrNoRows into a (nil, nil) lookup result and maps other errors.
func absentOrErr[T any](v *T, err error) (*T, error) {
	if err == nil {
		return v, nil
	}
	mapped := apperrors.MapDBError(err)
	if apperrors.IsNotFound(mapped) {
		return nil, nil
	}
	return nil, mapped
}

// notFoundOr maps a write error, replacing the generic not-found message with msg.
func notFoundOr(err error, msg string) error {
	mapped := apperrors.MapDBError(err)
	if apperrors.IsNotFound(mapped) {
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, msg)
	}
	return mapped
}

var errNilRequest = errors.New("request is required")
