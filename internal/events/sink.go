package events

import (
	"context"
	"time"

	"github.com/maumercado/task-queue-go/internal/logger"
	"github.com/maumercado/task-queue-go/internal/metrics"
	"github.com/maumercado/task-queue-go/internal/scheduler"
	"github.com/maumercado/task-queue-go/internal/task"
)

// SchedulerSink implements scheduler.EventSink, fanning each scheduler
// lifecycle notification out to the live pub/sub channel (for WebSocket
// subscribers), the durable stream (for replay), and the Prometheus
// counters, so the scheduler core itself never imports any of the three.
type SchedulerSink struct {
	pubsub *RedisPubSub
	stream *Stream
	births map[task.TID]time.Time
}

// NewSchedulerSink returns a sink publishing through pubsub (may be nil)
// and appending to stream (may be nil).
func NewSchedulerSink(pubsub *RedisPubSub, stream *Stream) *SchedulerSink {
	return &SchedulerSink{pubsub: pubsub, stream: stream, births: make(map[task.TID]time.Time)}
}

func (s *SchedulerSink) publish(ctx context.Context, eventType EventType, data map[string]interface{}) {
	event := NewEvent(eventType, data)

	if s.pubsub != nil {
		if err := s.pubsub.Publish(ctx, event); err != nil {
			logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish event")
		}
	}
	if s.stream != nil {
		if _, err := s.stream.Append(ctx, event); err != nil {
			logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to append event to stream")
		}
	}
}

// TaskCreated implements scheduler.EventSink.
func (s *SchedulerSink) TaskCreated(tid task.TID, label string) {
	s.births[tid] = time.Now()
	metrics.RecordTaskCreated(label)
	s.publish(context.Background(), EventTaskCreated, TaskEventData(tid.String(), label, nil))
}

// TaskTerminated implements scheduler.EventSink.
func (s *SchedulerSink) TaskTerminated(tid task.TID, label string, reason scheduler.TermReason) {
	lifetime := 0.0
	if born, ok := s.births[tid]; ok {
		lifetime = time.Since(born).Seconds()
		delete(s.births, tid)
	}
	metrics.RecordTaskTerminated(label, string(reason), lifetime)
	s.publish(context.Background(), EventTaskTerminated, TaskEventData(tid.String(), label, map[string]interface{}{
		"reason": string(reason),
	}))
}

// TaskPaused implements scheduler.EventSink.
func (s *SchedulerSink) TaskPaused(tid task.TID) {
	s.publish(context.Background(), EventTaskPaused, TaskEventData(tid.String(), "", nil))
}

// TaskResumed implements scheduler.EventSink.
func (s *SchedulerSink) TaskResumed(tid task.TID) {
	s.publish(context.Background(), EventTaskResumed, TaskEventData(tid.String(), "", nil))
}

// ConditionWritten implements scheduler.EventSink.
func (s *SchedulerSink) ConditionWritten(name string) {
	metrics.RecordConditionWrite(name)
	s.publish(context.Background(), EventConditionWritten, ConditionEventData(name))
}
