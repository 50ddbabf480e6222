package metrics

import (
	"testing"
)

func TestMetricsRegistration(t *testing.T) {
	// promauto already registers these at package init; just verify they
	// exist so a nil pointer doesn't slip through a refactor unnoticed.
	if TasksCreated == nil || TasksTerminated == nil || TaskLifetime == nil {
		t.Fatal("task lifecycle metrics not registered")
	}
	if ReadyQueueDepth == nil || WaitSetDepth == nil || TimerHeapDepth == nil {
		t.Fatal("queue/wait-set depth metrics not registered")
	}
	if StepDuration == nil || ConditionWrites == nil {
		t.Fatal("step-loop metrics not registered")
	}
	if HTTPRequestDuration == nil || HTTPRequestsTotal == nil {
		t.Fatal("HTTP metrics not registered")
	}
	if RedisOperationDuration == nil || RedisErrors == nil {
		t.Fatal("Redis metrics not registered")
	}
	if WebSocketConnections == nil || WebSocketMessages == nil {
		t.Fatal("WebSocket metrics not registered")
	}
}

func TestRecordTaskCreated(t *testing.T) {
	TasksCreated.Reset()
	RecordTaskCreated("greeter")
	RecordTaskCreated("greeter")
	RecordTaskCreated("mission")
}

func TestRecordTaskTerminated(t *testing.T) {
	TasksTerminated.Reset()
	TaskLifetime.Reset()

	RecordTaskTerminated("greeter", "completed", 1.5)
	RecordTaskTerminated("greeter", "killed", 0.5)
}

func TestSetReadyQueueDepth(t *testing.T) {
	SetReadyQueueDepth(0)
	SetReadyQueueDepth(12)
}

func TestSetWaitSetDepth(t *testing.T) {
	WaitSetDepth.Reset()
	SetWaitSetDepth("timer", 3)
	SetWaitSetDepth("condition", 1)
	SetWaitSetDepth("paused_in_syscall", 0)
}

func TestSetTimerHeapDepth(t *testing.T) {
	SetTimerHeapDepth(0)
	SetTimerHeapDepth(5)
}

func TestRecordStepDuration(t *testing.T) {
	RecordStepDuration(0.0001)
	RecordStepDuration(0.01)
}

func TestRecordConditionWrite(t *testing.T) {
	ConditionWrites.Reset()
	RecordConditionWrite("ready")
	RecordConditionWrite("ready")
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestDuration.Reset()
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("GET", "/api/v1/tasks", "200", 0.05)
	RecordHTTPRequest("POST", "/api/v1/tasks", "201", 0.1)
	RecordHTTPRequest("GET", "/api/v1/tasks/123", "404", 0.01)
}

func TestRecordRedisOperation(t *testing.T) {
	RedisOperationDuration.Reset()

	RecordRedisOperation("ZADD", 0.001)
	RecordRedisOperation("ZRANGEBYSCORE", 0.005)
	RecordRedisOperation("XADD", 0.0001)
}

func TestRecordRedisError(t *testing.T) {
	RedisErrors.Reset()

	RecordRedisError("ZADD")
	RecordRedisError("XADD")
}

func TestSetWebSocketConnections(t *testing.T) {
	SetWebSocketConnections(0)
	SetWebSocketConnections(10)
	SetWebSocketConnections(5)
}

func TestRecordWebSocketMessage(t *testing.T) {
	WebSocketMessages.Reset()

	RecordWebSocketMessage("task.created")
	RecordWebSocketMessage("task.terminated")
	RecordWebSocketMessage("condition.written")
}
