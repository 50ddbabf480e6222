package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maumercado/task-queue-go/internal/host"
	"github.com/maumercado/task-queue-go/internal/scheduler"
)

func newTestAdminHandler(t *testing.T) *AdminHandler {
	t.Helper()
	sched := scheduler.New(host.RealClock{}, nil)
	driver := host.NewDriver(sched, host.RealClock{}, time.Millisecond)
	return NewAdminHandler(driver, nil)
}

func TestAdminHandler_respondJSON(t *testing.T) {
	h := newTestAdminHandler(t)

	w := httptest.NewRecorder()
	data := map[string]string{"status": "ok"}

	h.respondJSON(w, http.StatusOK, data)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
}

func TestAdminHandler_respondError(t *testing.T) {
	h := newTestAdminHandler(t)

	w := httptest.NewRecorder()
	h.respondError(w, http.StatusNotFound, "task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "Not Found", response["error"])
	assert.Equal(t, "task not found", response["message"])
}

func TestAdminHandler_HealthCheck(t *testing.T) {
	h := newTestAdminHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/health", nil)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "healthy", response["status"])
}

func TestAdminHandler_Stats_Empty(t *testing.T) {
	h := newTestAdminHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	h.Stats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, float64(0), response["total_tasks"])
}

func TestAdminHandler_PauseResume(t *testing.T) {
	h := newTestAdminHandler(t)

	w := httptest.NewRecorder()
	h.Pause(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/pause", nil))
	h.Resume(w, httptest.NewRequest(http.MethodPost, "/admin/resume", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminHandler_KillAllExcept_InvalidBody(t *testing.T) {
	h := newTestAdminHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/tasks/kill-all-except", nil)
	w := httptest.NewRecorder()

	h.KillAllExcept(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_Events_NoStreamConfigured(t *testing.T) {
	h := newTestAdminHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
	w := httptest.NewRecorder()

	h.Events(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestParseTIDs(t *testing.T) {
	tids, err := parseTIDs([]string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Len(t, tids, 3)

	_, err = parseTIDs([]string{"not-a-number"})
	assert.Error(t, err)
}
