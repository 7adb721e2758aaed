package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/ports"
	"github.com/target/admin-console/internal/service"
)

func errNotFoundForTest() error { return apperrors.NotFound("profile not found") }

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errCode string
	}{
		{"validation", apperrors.Validation("bad"), http.StatusBadRequest, "validation_failed"},
		{"auth", apperrors.Auth("nope"), http.StatusUnauthorized, "auth_failed"},
		{"not found", errNotFoundForTest(), http.StatusNotFound, "not_found"},
		{"conflict", apperrors.Conflict("dup"), http.StatusConflict, "conflict"},
		{"store", apperrors.Store(errors.New("io"), "down"), http.StatusBadGateway, "store_unavailable"},
		{"timeout", apperrors.MapContextError(context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{"self delete", service.ErrSelfDelete, http.StatusForbidden, "self_delete_forbidden"},
		{"account exists", apperrors.Wrap(fmt.Errorf("%w: x", ports.ErrAccountExists), apperrors.ErrCodeAuth, "exists"), http.StatusConflict, "account_exists"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := errorMapping(tt.err, "fallback")
			assert.Equal(t, tt.status, p.Code)
			assert.Equal(t, tt.errCode, p.ErrCode)
		})
	}
}

func TestWriteServiceError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)

	writeServiceError(rec, req, errors.New("dial tcp 10.0.0.1:5432: refused"), "list_failed")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"list_failed","message":"internal server error"}`, rec.Body.String())
}

func TestWriteError_UsesUserMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "auth_failed",
		Err:     apperrors.Wrap(ports.ErrInvalidCredentials, apperrors.ErrCodeAuth, "Invalid email or password"),
	})
	assert.JSONEq(t, `{"error":"auth_failed","message":"Invalid email or password"}`, rec.Body.String())
}
