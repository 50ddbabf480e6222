package scheduler

import (
	"fmt"
	"sync"

	"github.com/maumercado/task-queue-go/internal/task"
)

// Factory builds a task computation from a JSON-decoded payload. Mission
// scripts register a Factory under a name so the control API's spawn
// endpoint (SPEC_FULL.md §13) can create tasks by name instead of requiring
// a Go closure literal at the call site.
//
// This plays the role the teacher's worker.Executor handler registry
// played for task-queue handlers (internal/worker/executor.go), adapted
// from "execute a task of this type" to "spawn a task computation of this
// name" — see DESIGN.md.
type Factory func(payload map[string]any) task.Func

// Registry is a concurrency-safe map of named task factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name, overwriting any existing one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build looks up name and constructs a task.Func from payload.
func (r *Registry) Build(name string, payload map[string]any) (task.Func, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("scheduler: no task factory registered under %q", name)
	}
	return f(payload), nil
}

// Names returns every registered factory name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	return names
}
