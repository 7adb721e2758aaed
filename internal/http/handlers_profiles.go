package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/ports"
	"github.com/target/admin-console/internal/service"
)

// ProfileHandlers serves team management endpoints.
type ProfileHandlers struct {
	Svc *service.ProfileService
}

// Team lists members with optional ?q= and ?role= filters plus role counts.
// GET /api/profiles.
func (h *ProfileHandlers) Team(w http.ResponseWriter, r *http.Request) {
	opts := model.ProfileListOptions{Q: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, ok := domainauth.ParseRole(raw)
		if !ok {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: apperrors.ValidationField("role", "invalid role")})
			return
		}
		opts.Role = role
	}
	view, err := h.Svc.Team(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err, "list_failed")
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Get returns one member.
// GET /api/profiles/{uid}.
func (h *ProfileHandlers) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Get(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeServiceError(w, r, err, "get_failed")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// Create provisions an identity account and its profile.
// POST /api/profiles.
func (h *ProfileHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ProvisionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Svc.Provision(r.Context(), req)
	if err != nil {
		// The caller is already authenticated; a provider refusal here is upstream trouble.
		if apperrors.IsAuth(err) && !errors.Is(err, ports.ErrRegistrationUnsupported) {
			slog.ErrorContext(r.Context(), "provision failed", "error", err)
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "identity_provider_error", Err: err})
			return
		}
		writeServiceError(w, r, err, "create_failed")
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

// Update applies a partial update.
// PATCH /api/profiles/{uid}.
func (h *ProfileHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Svc.Update(r.Context(), r.PathValue("uid"), req)
	if err != nil {
		writeServiceError(w, r, err, "update_failed")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// Delete removes a member other than the caller.
// DELETE /api/profiles/{uid}.
func (h *ProfileHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), currentUID(r.Context()), r.PathValue("uid")); err != nil {
		writeServiceError(w, r, err, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
