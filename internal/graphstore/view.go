package graphstore

import (
	"time"

	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Node is the scheduling-relevant summary of a task.
type Node struct {
	ID             string
	Status         task.Status
	Priority       task.Priority
	CreatedAt      time.Time
	BlockedByCount int
}

// View is a consistent read-only window onto the store. It is valid only
// inside the callback passed to Store.View.
type View struct {
	s *Store
}

// View runs fn under the read lock. Everything fn observes through v
// belongs to one consistent state of the graph.
func (s *Store) View(fn func(v View)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(View{s: s})
}

// Range calls fn for every task, in no particular order, until fn returns
// false.
func (v View) Range(fn func(n Node) bool) {
	for id, t := range v.s.tasks {
		n := Node{
			ID:             id,
			Status:         t.Status,
			Priority:       t.Priority,
			CreatedAt:      t.CreatedAt,
			BlockedByCount: len(v.s.rdeps[id]),
		}
		if !fn(n) {
			return
		}
	}
}

// DependenciesDone reports whether every dependency of id is done. A task
// with no dependencies trivially satisfies this.
func (v View) DependenciesDone(id string) bool {
	for dep := range v.s.deps[id] {
		if t, ok := v.s.tasks[dep]; !ok || t.Status != task.StatusDone {
			return false
		}
	}
	return true
}

// Task returns a copy of id.
func (v View) Task(id string) (task.Task, bool) {
	if _, ok := v.s.tasks[id]; !ok {
		return task.Task{}, false
	}
	return v.s.copyLocked(id), true
}
