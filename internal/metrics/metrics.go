package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Task lifecycle metrics
	TasksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coroutine_tasks_created_total",
			Help: "Total number of tasks spawned",
		},
		[]string{"label"},
	)

	TasksTerminated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coroutine_tasks_terminated_total",
			Help: "Total number of tasks terminated, by reason",
		},
		[]string{"label", "reason"},
	)

	TaskLifetime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coroutine_task_lifetime_seconds",
			Help:    "Wall-clock time from task creation to termination",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"label"},
	)

	// Ready-queue and wait-set depth gauges
	ReadyQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coroutine_ready_queue_depth",
			Help: "Current number of tasks in the ready queue",
		},
	)

	WaitSetDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coroutine_wait_set_depth",
			Help: "Current number of tasks blocked in each wait set",
		},
		[]string{"wait_set"}, // timer, condition, exit, paused_in_ready, paused_in_syscall
	)

	TimerHeapDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coroutine_timer_heap_depth",
			Help: "Current number of pending timer entries",
		},
	)

	// Step-loop metrics
	StepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coroutine_step_duration_seconds",
			Help:    "Time spent draining the ready queue in one Step call",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15), // 10us to ~160ms
		},
	)

	ConditionWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coroutine_condition_writes_total",
			Help: "Total number of condition variable writes",
		},
		[]string{"name"},
	)

	// HTTP control API metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coroutine_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coroutine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Redis metrics (event stream + pub/sub)
	RedisOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coroutine_redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~200ms
		},
		[]string{"operation"},
	)

	RedisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coroutine_redis_errors_total",
			Help: "Total number of Redis errors",
		},
		[]string{"operation"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coroutine_websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WebSocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coroutine_websocket_messages_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"type"},
	)
)

// RecordTaskCreated records a task spawn.
func RecordTaskCreated(label string) {
	TasksCreated.WithLabelValues(label).Inc()
}

// RecordTaskTerminated records a task termination and its lifetime.
func RecordTaskTerminated(label, reason string, lifetime float64) {
	TasksTerminated.WithLabelValues(label, reason).Inc()
	TaskLifetime.WithLabelValues(label).Observe(lifetime)
}

// SetReadyQueueDepth updates the ready-queue depth gauge.
func SetReadyQueueDepth(depth float64) {
	ReadyQueueDepth.Set(depth)
}

// SetWaitSetDepth updates a named wait-set depth gauge.
func SetWaitSetDepth(waitSet string, depth float64) {
	WaitSetDepth.WithLabelValues(waitSet).Set(depth)
}

// SetTimerHeapDepth updates the timer-heap depth gauge.
func SetTimerHeapDepth(depth float64) {
	TimerHeapDepth.Set(depth)
}

// RecordStepDuration records the wall-clock time one Step call took.
func RecordStepDuration(seconds float64) {
	StepDuration.Observe(seconds)
}

// RecordConditionWrite records a write to a named condition variable.
func RecordConditionWrite(name string) {
	ConditionWrites.WithLabelValues(name).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRedisOperation records a Redis operation.
func RecordRedisOperation(operation string, duration float64) {
	RedisOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordRedisError records a Redis error.
func RecordRedisError(operation string) {
	RedisErrors.WithLabelValues(operation).Inc()
}

// SetWebSocketConnections sets the WebSocket connections gauge.
func SetWebSocketConnections(count float64) {
	WebSocketConnections.Set(count)
}

// RecordWebSocketMessage records a WebSocket message.
func RecordWebSocketMessage(msgType string) {
	WebSocketMessages.WithLabelValues(msgType).Inc()
}
