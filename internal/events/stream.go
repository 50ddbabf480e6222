package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/maumercado/task-queue-go/internal/logger"
)

// Stream is a durable, append-only record of every event, backed by one
// Redis Stream. Unlike RedisPubSub, a subscriber that connects late can
// still read everything it missed by offset. Simplified from
// internal/queue/redis_streams.go's four-priority, multiple-consumer-group
// design (XADD per priority stream, XREADGROUP with XACK) down to a
// single stream with plain XRANGE reads, since there is no
// competing-consumers problem here: every reader wants every event, not a
// shard of them (see DESIGN.md).
type Stream struct {
	client *redis.Client
	name   string
	maxLen int64
}

// NewStream returns a Stream backed by client, retaining at most maxLen
// entries (approximately — XAdd trims with MAXLEN ~, matching the
// teacher's own approximate-trim usage).
func NewStream(client *redis.Client, name string, maxLen int64) *Stream {
	return &Stream{client: client, name: name, maxLen: maxLen}
}

// Append writes event to the stream and returns its assigned entry ID.
func (s *Stream) Append(ctx context.Context, event *Event) (string, error) {
	data, err := event.ToJSON()
	if err != nil {
		return "", fmt.Errorf("events: serialize: %w", err)
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.name,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{"event": data},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("events: append to %s: %w", s.name, err)
	}

	logger.Debug().Str("stream", s.name).Str("event_type", string(event.Type)).Str("id", id).Msg("event appended")
	return id, nil
}

// Tail returns every event with an ID greater than afterID (use "0" for
// the whole stream), grounded on the DLQ's ID-ordered list-from-offset
// idiom, adapted from an in-memory slice to XRANGE.
func (s *Stream) Tail(ctx context.Context, afterID string, count int64) ([]StreamEntry, error) {
	from := "(" + afterID
	if afterID == "" {
		from = "-"
	}

	msgs, err := s.client.XRangeN(ctx, s.name, from, "+", count).Result()
	if err != nil {
		return nil, fmt.Errorf("events: tail %s: %w", s.name, err)
	}

	entries := make([]StreamEntry, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["event"].(string)
		if !ok {
			continue
		}
		event, err := FromJSON([]byte(raw))
		if err != nil {
			logger.Warn().Err(err).Str("id", msg.ID).Msg("skipping malformed stream entry")
			continue
		}
		entries = append(entries, StreamEntry{ID: msg.ID, Event: event})
	}
	return entries, nil
}

// Len reports the stream's current entry count.
func (s *Stream) Len(ctx context.Context) (int64, error) {
	return s.client.XLen(ctx, s.name).Result()
}

// StreamEntry pairs a durable entry ID with the event it carries.
type StreamEntry struct {
	ID    string
	Event *Event
}
