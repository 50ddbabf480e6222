package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maumercado/task-queue-go/internal/host"
	"github.com/maumercado/task-queue-go/internal/logger"
	"github.com/maumercado/task-queue-go/internal/scheduler"
	"github.com/maumercado/task-queue-go/internal/task"
)

// TaskHandler handles task lifecycle HTTP requests against the scheduler
// driver, replacing the queue-backed CRUD surface of the original
// taskqueue API with spawn/list/kill/pause/resume over live tasks.
type TaskHandler struct {
	driver   *host.Driver
	registry *scheduler.Registry
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(driver *host.Driver, registry *scheduler.Registry) *TaskHandler {
	return &TaskHandler{driver: driver, registry: registry}
}

// CreateTaskRequest is the body of POST /api/v1/tasks.
type CreateTaskRequest struct {
	Factory string         `json:"factory"`
	Label   string         `json:"label"`
	Payload map[string]any `json:"payload"`
}

// TaskResponse is the serialized view of a live task.
type TaskResponse struct {
	TID   string `json:"tid"`
	Label string `json:"label"`
	State string `json:"state"`
}

// Create handles POST /api/v1/tasks: builds a computation from a
// registered factory and spawns it.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Factory == "" {
		h.respondError(w, http.StatusBadRequest, "factory is required")
		return
	}

	fn, err := h.registry.Build(req.Factory, req.Payload)
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	label := req.Label
	if label == "" {
		label = req.Factory
	}

	tid := h.driver.NewTask(label, fn)

	logger.Info().Int64("tid", int64(tid)).Str("label", label).Msg("task spawned via control API")
	h.respondJSON(w, http.StatusCreated, h.toResponse(tid))
}

// Get handles GET /api/v1/tasks/{tid}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.parseTID(w, r)
	if !ok {
		return
	}

	if h.driver.TaskState(tid) == scheduler.StateUnknown {
		h.respondError(w, http.StatusNotFound, "task not found")
		return
	}

	h.respondJSON(w, http.StatusOK, h.toResponse(tid))
}

// Kill handles DELETE /api/v1/tasks/{tid}.
func (h *TaskHandler) Kill(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.parseTID(w, r)
	if !ok {
		return
	}

	if err := h.driver.KillTaskErr(tid); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrUnknownTask):
			h.respondError(w, http.StatusNotFound, "task not found")
		default:
			h.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Info().Int64("tid", int64(tid)).Msg("task killed via control API")
	w.WriteHeader(http.StatusNoContent)
}

// Pause handles POST /api/v1/tasks/{tid}/pause.
func (h *TaskHandler) Pause(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.parseTID(w, r)
	if !ok {
		return
	}
	if err := h.driver.PauseTaskErr(tid); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrUnknownTask):
			h.respondError(w, http.StatusNotFound, "task not found")
		case errors.Is(err, scheduler.ErrAlreadyPaused):
			h.respondError(w, http.StatusConflict, "task already paused")
		case errors.Is(err, scheduler.ErrCannotPauseCurrent):
			h.respondError(w, http.StatusConflict, "task cannot be paused")
		default:
			h.respondError(w, http.StatusConflict, err.Error())
		}
		return
	}
	h.respondJSON(w, http.StatusOK, h.toResponse(tid))
}

// Resume handles POST /api/v1/tasks/{tid}/resume.
func (h *TaskHandler) Resume(w http.ResponseWriter, r *http.Request) {
	tid, ok := h.parseTID(w, r)
	if !ok {
		return
	}
	if err := h.driver.ResumeTaskErr(tid); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrUnknownTask):
			h.respondError(w, http.StatusNotFound, "task not found")
		case errors.Is(err, scheduler.ErrNotPaused):
			h.respondError(w, http.StatusConflict, "task is not paused")
		default:
			h.respondError(w, http.StatusConflict, err.Error())
		}
		return
	}
	h.respondJSON(w, http.StatusOK, h.toResponse(tid))
}

// List handles GET /api/v1/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tids := h.driver.ListAllTIDs()

	tasks := make([]TaskResponse, 0, len(tids))
	for _, tid := range tids {
		tasks = append(tasks, h.toResponse(tid))
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"tasks":       tasks,
		"total_count": len(tasks),
	})
}

func (h *TaskHandler) toResponse(tid task.TID) TaskResponse {
	return TaskResponse{
		TID:   tid.String(),
		Label: h.driver.Label(tid),
		State: h.driver.TaskState(tid).String(),
	}
}

func (h *TaskHandler) parseTID(w http.ResponseWriter, r *http.Request) (task.TID, bool) {
	raw := chi.URLParam(r, "tid")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid tid")
		return 0, false
	}
	return task.TID(n), true
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *TaskHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
