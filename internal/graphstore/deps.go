package graphstore

import (
	"slices"
	"time"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// SetDependencies replaces the full dependency set of id with deps.
//
// The replacement is atomic. Every proposed id must exist, must not be id
// itself and must not be id's parent. The cycle check runs against the
// graph as it would look after the replacement, before anything is
// mutated; on CircularDependency the store is left exactly as it was.
//
// On success, id is removed from the blocked_by of every dropped
// dependency, added to the blocked_by of every new one, and updated_at is
// refreshed on id and on each of those partners. Replacing a set with an
// identical one touches nothing.
func (s *Store) SetDependencies(id string, deps []string) (task.Task, error) {
	s.mu.Lock()

	now := s.clock()
	added, removed, err := s.setDependenciesLocked(id, deps, now)
	if err != nil {
		s.mu.Unlock()
		return task.Task{}, s.rejected("set_dependencies", id, err)
	}
	s.checkLocked()
	result := s.copyLocked(id)
	s.mu.Unlock()

	if len(added)+len(removed) > 0 {
		s.logger.WithOperation("set_dependencies").WithTask(id).Debug("dependencies replaced",
			"added", added, "removed", removed)
		s.publish([]event.Event{event.NewDependenciesChangedEvent(id, added, removed, now)})
	}
	return result, nil
}

// setDependenciesLocked validates and commits a dependency replacement.
// It returns the ids added and removed, sorted. On error nothing has been
// mutated. The caller must hold the write lock.
func (s *Store) setDependenciesLocked(id string, proposed []string, now time.Time) (added, removed []string, err error) {
	rec, ok := s.tasks[id]
	if !ok {
		return nil, nil, errors.NewNotFoundError(id)
	}

	next := task.NormalizeSet(proposed)
	for _, dep := range next {
		if dep == id {
			return nil, nil, errors.NewCycleError([]string{id, id})
		}
		if !s.existsLocked(dep) {
			return nil, nil, errors.NewNotFoundError(dep)
		}
		if rec.ParentTaskID != "" && dep == rec.ParentTaskID {
			return nil, nil, errors.NewDependencyError(id, dep, "a subtask cannot depend on its own parent")
		}
	}

	current := s.deps[id]
	nextSet := toSet(next)
	for _, dep := range next {
		if _, had := current[dep]; !had {
			added = append(added, dep)
		}
	}
	for dep := range current {
		if _, keep := nextSet[dep]; !keep {
			removed = append(removed, dep)
		}
	}
	if len(added) == 0 && len(removed) == 0 {
		return nil, nil, nil
	}
	slices.SortFunc(removed, task.CompareIDs)

	if path := s.findCycleLocked(id, added); path != nil {
		return nil, nil, errors.NewCycleError(path)
	}

	for _, dep := range removed {
		delete(s.rdeps[dep], id)
		if len(s.rdeps[dep]) == 0 {
			delete(s.rdeps, dep)
		}
		s.touchLocked(dep, now)
	}
	for _, dep := range added {
		if s.rdeps[dep] == nil {
			s.rdeps[dep] = make(set)
		}
		s.rdeps[dep][id] = struct{}{}
		s.touchLocked(dep, now)
	}
	if len(nextSet) == 0 {
		delete(s.deps, id)
	} else {
		s.deps[id] = nextSet
	}
	rec.UpdatedAt = now

	return added, removed, nil
}

// findCycleLocked reports whether making id depend on each of targets would
// close a cycle. It searches depth-first from every target along existing
// dependency edges; reaching id means a cycle. Edges out of id are never
// followed, so the search sees the proposed graph rather than the current
// one. The returned path starts and ends with id.
func (s *Store) findCycleLocked(id string, targets []string) []string {
	visited := make(set)
	for _, start := range targets {
		if tail := s.reach(start, id, visited); tail != nil {
			return append([]string{id}, tail...)
		}
	}
	return nil
}

// reach returns the path from "from" to goal, inclusive, or nil. Nodes
// already in visited are known not to reach goal.
func (s *Store) reach(from, goal string, visited set) []string {
	type frame struct {
		id   string
		next []string
	}

	if from == goal {
		return []string{goal}
	}
	visited[from] = struct{}{}
	stack := []frame{{id: from, next: sortedKeys(s.deps[from])}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.next) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		n := top.next[0]
		top.next = top.next[1:]

		if n == goal {
			path := make([]string, 0, len(stack)+1)
			for _, f := range stack {
				path = append(path, f.id)
			}
			return append(path, goal)
		}
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		stack = append(stack, frame{id: n, next: sortedKeys(s.deps[n])})
	}
	return nil
}
