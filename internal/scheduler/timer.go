package scheduler

import (
	"container/heap"
	"time"
)

// timerEntry is one pending wake-up. cancelled entries are left in the
// heap and skipped when popped rather than removed eagerly — container/heap
// has no O(log n) arbitrary delete, and callbacks already guard against
// firing for a task that no longer exists.
type timerEntry struct {
	fireAt    time.Time
	seq       int64
	cancelled bool
	fn        func()
}

// timerHeap is a min-heap of timerEntry ordered by (fireAt, seq), grounded
// on MongooseMoo-barn's TaskQueue container/heap.Interface implementation.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*timerEntry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func (h timerHeap) Peek() *timerEntry {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// pushTimer schedules fn to run at or after fireAt.
func (s *Scheduler) pushTimer(fireAt time.Time, fn func()) {
	s.seq++
	heap.Push(&s.timers, &timerEntry{fireAt: fireAt, seq: s.seq, fn: fn})
}

// popDueTimers pops and returns every timer entry due at or before now,
// in fire order.
func (s *Scheduler) popDueTimers(now time.Time) []*timerEntry {
	var due []*timerEntry
	for s.timers.Peek() != nil && !s.timers.Peek().fireAt.After(now) {
		entry := heap.Pop(&s.timers).(*timerEntry)
		due = append(due, entry)
	}
	return due
}
