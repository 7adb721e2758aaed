package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name: "unique violation with column",
			err: &pgconn.PgError{
				Code:       pgerrcode.UniqueViolation,
				ColumnName: "email",
			},
			wantCode:  ErrCodeConflict,
			wantField: "email",
		},
		{
			name: "unique violation parsed from detail",
			err: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (uid)=(abc) already exists.",
			},
			wantCode:  ErrCodeConflict,
			wantField: "uid",
		},
		{
			name:     "check violation",
			err:      &pgconn.PgError{Code: pgerrcode.CheckViolation},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "unhandled pg error",
			err:      &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
			wantCode: ErrCodeStore,
		},
		{
			name:     "transport error",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: ErrCodeStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", got, tt.wantField)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("expected cause to be preserved")
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation})) {
		t.Fatal("expected unique violation")
	}
	if IsUniqueViolation(errors.New("other")) {
		t.Fatal("unexpected unique violation")
	}
}
