package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/ports"
	"github.com/target/admin-console/internal/service"
)

// errorMapping resolves an application error to a status and a stable error code.
// fallback is used for errors that carry no AppError code.
func errorMapping(err error, fallback string) ErrorParams {
	switch {
	case errors.Is(err, service.ErrSelfDelete):
		return ErrorParams{Code: http.StatusForbidden, ErrCode: "self_delete_forbidden", Err: err}
	case errors.Is(err, ports.ErrAccountExists):
		return ErrorParams{Code: http.StatusConflict, ErrCode: "account_exists", Err: err}
	case errors.Is(err, ports.ErrRegistrationUnsupported):
		return ErrorParams{Code: http.StatusNotImplemented, ErrCode: "registration_unsupported", Err: err}
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err}
	case apperrors.ErrCodeAuth:
		return ErrorParams{Code: http.StatusUnauthorized, ErrCode: "auth_failed", Err: err}
	case apperrors.ErrCodeForbidden:
		return ErrorParams{Code: http.StatusForbidden, ErrCode: "forbidden", Err: err}
	case apperrors.ErrCodeNotFound:
		return ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err}
	case apperrors.ErrCodeConflict:
		return ErrorParams{Code: http.StatusConflict, ErrCode: "conflict", Err: err}
	case apperrors.ErrCodeTimeout:
		return ErrorParams{Code: http.StatusGatewayTimeout, ErrCode: "timeout", Err: err}
	case apperrors.ErrCodeCanceled:
		// Client went away; the status is never seen.
		return ErrorParams{Code: 499, ErrCode: "canceled", Err: err}
	case apperrors.ErrCodeStore:
		return ErrorParams{Code: http.StatusBadGateway, ErrCode: "store_unavailable", Err: err}
	}
	return ErrorParams{Code: http.StatusInternalServerError, ErrCode: fallback, Err: errors.New("internal server error")}
}

// writeServiceError maps err and writes it. 5xx causes are logged since the
// response body hides them.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	p := errorMapping(err, fallback)
	if p.Code >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error_code", p.ErrCode, "error", err)
	}
	WriteError(w, p)
}
