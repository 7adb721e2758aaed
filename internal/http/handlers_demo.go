package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/target/admin-console/internal/service"
)

// DemoHandlers serves the legacy in-memory /api/users endpoints.
// Responses keep the legacy body shapes rather than ErrorParams.
type DemoHandlers struct {
	Users *service.DemoUsers
}

// Login checks the demo list.
// POST /api/users/login.
func (h *DemoHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	res, err := h.Users.Login(req.Email, req.Password)
	if errors.Is(err, service.ErrDemoInvalidCredentials) {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Register appends to the demo list.
// POST /api/users/register.
func (h *DemoHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req service.DemoRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error"})
		return
	}
	u, err := h.Users.Register(req)
	if errors.Is(err, service.ErrDemoUserExists) {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "User with this email already exists"})
		return
	}
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error"})
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}
