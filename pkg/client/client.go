package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client is a thin wrapper over net/http for the scheduler's HTTP control
// API. There is no generated client here: the control API is small and
// hand-rolling the handful of calls keeps the SDK dependency-free beyond
// the WebSocket event stream.
type Client struct {
	baseURL string
	opts    *options
	ws      *WebSocketClient
}

// New creates a new Client pointed at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Client{baseURL: baseURL, opts: o}, nil
}

// CreateTaskRequest is the body of a task spawn request.
type CreateTaskRequest struct {
	Factory string         `json:"factory"`
	Label   string         `json:"label,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// TaskResponse describes a live task.
type TaskResponse struct {
	TID   string `json:"tid"`
	Label string `json:"label"`
	State string `json:"state"`
}

// TaskListResponse is the body of a task listing.
type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	TotalCount int            `json:"total_count"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *ErrorResponse) String() string {
	return fmt.Sprintf("%s: %s", e.Error, e.Message)
}

// SubmitTask spawns a task from a registered factory.
func (c *Client) SubmitTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error) {
	var out TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTask retrieves a task by TID.
func (c *Client) GetTask(ctx context.Context, tid string) (*TaskResponse, error) {
	var out TaskResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+tid, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KillTask kills a live task by TID.
func (c *Client) KillTask(ctx context.Context, tid string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tasks/"+tid, nil, nil)
}

// PauseTask pauses a live task by TID.
func (c *Client) PauseTask(ctx context.Context, tid string) (*TaskResponse, error) {
	var out TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks/"+tid+"/pause", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResumeTask resumes a paused task by TID.
func (c *Client) ResumeTask(ctx context.Context, tid string) (*TaskResponse, error) {
	var out TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks/"+tid+"/resume", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks lists every live task.
func (c *Client) ListTasks(ctx context.Context) (*TaskListResponse, error) {
	var out TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckHealth checks the scheduler's health.
func (c *Client) CheckHealth(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/admin/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the scheduler's internal-size snapshot.
func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PauseScheduler pauses the scheduler's driver loop.
func (c *Client) PauseScheduler(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/pause", nil, nil)
}

// ResumeScheduler resumes the scheduler's driver loop.
func (c *Client) ResumeScheduler(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/resume", nil, nil)
}

// KillAllExcept kills every task except the TIDs named in except.
func (c *Client) KillAllExcept(ctx context.Context, except []string) (map[string]interface{}, error) {
	var out map[string]interface{}
	body := map[string]interface{}{"except": except}
	if err := c.do(ctx, http.MethodPost, "/admin/tasks/kill-all-except", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConnectWebSocket establishes a WebSocket connection for real-time events.
func (c *Client) ConnectWebSocket(ctx context.Context) error {
	if c.ws != nil && c.ws.IsConnected() {
		return nil
	}
	c.ws = newWebSocketClient(c.baseURL, c.opts.apiKey)
	return c.ws.Connect(ctx)
}

// Events returns a channel that receives WebSocket events. Must call
// ConnectWebSocket first.
func (c *Client) Events() <-chan *Event {
	if c.ws == nil {
		ch := make(chan *Event)
		close(ch)
		return ch
	}
	return c.ws.Events()
}

// CloseWebSocket closes the WebSocket connection.
func (c *Client) CloseWebSocket() error {
	if c.ws == nil {
		return nil
	}
	return c.ws.Close()
}

// SubscribeEvents subscribes to specific event types over the WebSocket.
func (c *Client) SubscribeEvents(eventTypes ...EventType) error {
	if c.ws == nil {
		return fmt.Errorf("websocket not connected")
	}
	return c.ws.Subscribe(eventTypes...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = *bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.opts.applyHeaders()(ctx, req); err != nil {
		return fmt.Errorf("client: apply headers: %w", err)
	}

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("client: %s %s returned %d: %s", method, path, resp.StatusCode, errResp.String())
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
