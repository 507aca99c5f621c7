package graphstore

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Verify checks every graph invariant against the current state and
// returns a description of the first violation found, or nil.
func (s *Store) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifyLocked()
}

func (s *Store) verifyLocked() error {
	for id, ds := range s.deps {
		rec, ok := s.tasks[id]
		if !ok {
			return fmt.Errorf("dependency index holds unknown task %s", id)
		}
		for dep := range ds {
			if _, ok := s.tasks[dep]; !ok {
				return fmt.Errorf("task %s depends on unknown task %s", id, dep)
			}
			if _, ok := s.rdeps[dep][id]; !ok {
				return fmt.Errorf("blocked_by of %s is missing %s", dep, id)
			}
			if dep == rec.ParentTaskID {
				return fmt.Errorf("task %s depends on its parent %s", id, dep)
			}
		}
	}
	for id, rs := range s.rdeps {
		if _, ok := s.tasks[id]; !ok {
			return fmt.Errorf("reverse index holds unknown task %s", id)
		}
		for dependent := range rs {
			if _, ok := s.deps[dependent][id]; !ok {
				return fmt.Errorf("blocked_by of %s lists %s, which does not depend on it", id, dependent)
			}
		}
	}
	for id, t := range s.tasks {
		if t.ID != id {
			return fmt.Errorf("task stored under %s has id %s", id, t.ID)
		}
		if t.ParentTaskID != "" {
			parent, ok := s.tasks[t.ParentTaskID]
			if !ok {
				return fmt.Errorf("task %s has unknown parent %s", id, t.ParentTaskID)
			}
			if !slices.Contains(parent.Subtasks, id) {
				return fmt.Errorf("parent %s does not list subtask %s", t.ParentTaskID, id)
			}
		}
		for _, c := range t.Subtasks {
			child, ok := s.tasks[c]
			if !ok || child.ParentTaskID != id {
				return fmt.Errorf("task %s lists %s as a subtask but it is not its child", id, c)
			}
		}
		if (t.Status == task.StatusDone) != (t.CompletedAt != nil) {
			return fmt.Errorf("task %s has status %s but completed_at=%v", id, t.Status, t.CompletedAt)
		}
	}
	if path := findAnyCycle(s.tasks, s.deps); path != nil {
		return fmt.Errorf("dependency cycle %s", strings.Join(path, " -> "))
	}
	return nil
}
