package httpx

import (
	"net/http"

	"github.com/target/admin-console/internal/domain/model"
	"github.com/target/admin-console/internal/service"
)

// TaskHandlers serves the task board endpoints.
type TaskHandlers struct {
	Svc *service.TaskService
}

// Board returns tasks grouped into columns.
// GET /api/tasks.
func (h *TaskHandlers) Board(w http.ResponseWriter, r *http.Request) {
	b, err := h.Svc.Board(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list_failed")
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

// Get returns one task.
// GET /api/tasks/{id}.
func (h *TaskHandlers) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "get_failed")
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

// Assigned lists tasks for one assignee ordered by due date.
// GET /api/tasks/assigned/{uid}.
func (h *TaskHandlers) Assigned(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Svc.ListByAssignee(r.Context(), r.PathValue("uid"))
	if err != nil {
		writeServiceError(w, r, err, "list_failed")
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	WriteJSON(w, http.StatusOK, tasks)
}

// Create adds a task owned by the caller.
// POST /api/tasks.
func (h *TaskHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaskRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	t, err := h.Svc.Create(r.Context(), currentUID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, err, "create_failed")
		return
	}
	WriteJSON(w, http.StatusCreated, t)
}

// Update applies a partial update, typically a status move.
// PATCH /api/tasks/{id}.
func (h *TaskHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTaskRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	t, err := h.Svc.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, r, err, "update_failed")
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

// Delete removes a task.
// DELETE /api/tasks/{id}.
func (h *TaskHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
