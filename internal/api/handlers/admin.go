package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/maumercado/task-queue-go/internal/events"
	"github.com/maumercado/task-queue-go/internal/host"
	"github.com/maumercado/task-queue-go/internal/logger"
	"github.com/maumercado/task-queue-go/internal/task"
)

// AdminHandler handles operator-facing control endpoints: scheduler
// lifecycle (pause/resume/stats), bulk task operations, and the durable
// event stream's tail.
type AdminHandler struct {
	driver *host.Driver
	stream *events.Stream
}

// NewAdminHandler creates a new admin handler. stream may be nil if no
// durable event log is configured.
func NewAdminHandler(driver *host.Driver, stream *events.Stream) *AdminHandler {
	return &AdminHandler{driver: driver, stream: stream}
}

// HealthCheck handles GET /admin/health.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"scheduler_state": h.driver.State().String(),
	})
}

// Stats handles GET /admin/stats: a snapshot of the scheduler's
// internal sizes, for dashboards and the Prometheus-absent health page.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	tids := h.driver.ListAllTIDs()

	counts := map[string]int{}
	for _, tid := range tids {
		counts[h.driver.TaskState(tid).String()]++
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"scheduler_state": h.driver.State().String(),
		"total_tasks":     len(tids),
		"by_state":        counts,
	})
}

// Pause handles POST /admin/pause: stops the driver's loop from
// advancing without tearing anything down.
func (h *AdminHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.driver.Pause()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"scheduler_state": h.driver.State().String()})
}

// Resume handles POST /admin/resume.
func (h *AdminHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.driver.Resume()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"scheduler_state": h.driver.State().String()})
}

// KillAllRequest is the body of POST /admin/tasks/kill-all-except.
type KillAllRequest struct {
	Except []string `json:"except"`
}

// KillAllExcept handles POST /admin/tasks/kill-all-except.
func (h *AdminHandler) KillAllExcept(w http.ResponseWriter, r *http.Request) {
	var req KillAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	except, err := parseTIDs(req.Except)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	killed := h.driver.KillAllTasksExcept(except)
	logger.Info().Int("count", len(killed)).Msg("tasks killed via admin API")

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"killed_count": len(killed),
		"killed":       tidStrings(killed),
	})
}

// Events handles GET /admin/events?after=<id>&count=<n>: tails the
// durable event stream.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		h.respondError(w, http.StatusServiceUnavailable, "durable event stream not configured")
		return
	}

	after := r.URL.Query().Get("after")
	count := int64(100)
	if raw := r.URL.Query().Get("count"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			count = n
		}
	}

	entries, err := h.stream.Tail(r.Context(), after, count)
	if err != nil {
		logger.Error().Err(err).Msg("failed to tail event stream")
		h.respondError(w, http.StatusInternalServerError, "failed to tail event stream")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func parseTIDs(raw []string) ([]task.TID, error) {
	tids := make([]task.TID, 0, len(raw))
	for _, s := range raw {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		tids = append(tids, task.TID(n))
	}
	return tids, nil
}

func tidStrings(tids []task.TID) []string {
	out := make([]string, len(tids))
	for i, tid := range tids {
		out[i] = tid.String()
	}
	return out
}

func (h *AdminHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *AdminHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}
