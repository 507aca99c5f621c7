package graphstore

import (
	"fmt"
	"slices"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Load replaces the store's contents with tasks, a flat list such as one
// returned by Snapshot.
//
// Every record is validated and the whole graph is checked before anything
// is swapped in: ids must be valid and unique, parent links must match the
// id hierarchy, dependencies must exist and must not include the task
// itself or its parent, and the dependency relation must be acyclic.
// blocked_by is recomputed from dependencies and ignored on input. Subtask
// lists keep their given order, with unknown ids dropped and missing
// children appended in id order.
func (s *Store) Load(tasks []task.Task) error {
	next, err := buildState(tasks)
	if err != nil {
		return s.rejected("load", "", err)
	}

	s.mu.Lock()
	s.tasks, s.deps, s.rdeps = next.tasks, next.deps, next.rdeps
	s.checkLocked()
	n := len(s.tasks)
	s.mu.Unlock()

	now := s.clock()
	s.logger.WithOperation("load").Info("store loaded", "tasks", n)
	s.publish([]event.Event{event.NewStoreLoadedEvent(n, now)})
	return nil
}

// Snapshot returns copies of every task in natural id order.
func (s *Store) Snapshot() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, task.CompareIDs)

	out := make([]task.Task, len(ids))
	for i, id := range ids {
		out[i] = s.copyLocked(id)
	}
	return out
}

// Reset removes every task.
func (s *Store) Reset() {
	s.mu.Lock()
	s.tasks = make(map[string]*task.Task)
	s.deps = make(map[string]set)
	s.rdeps = make(map[string]set)
	s.mu.Unlock()

	s.logger.WithOperation("reset").Info("store cleared")
	s.publish([]event.Event{event.NewStoreLoadedEvent(0, s.clock())})
}

type state struct {
	tasks map[string]*task.Task
	deps  map[string]set
	rdeps map[string]set
}

func buildState(in []task.Task) (*state, error) {
	st := &state{
		tasks: make(map[string]*task.Task, len(in)),
		deps:  make(map[string]set),
		rdeps: make(map[string]set),
	}

	for i := range in {
		t := in[i].Clone()
		if err := task.ValidateID(t.ID); err != nil {
			return nil, err
		}
		if _, dup := st.tasks[t.ID]; dup {
			return nil, errors.NewAlreadyExistsError(t.ID)
		}
		if err := validateRecord(&t); err != nil {
			return nil, err
		}
		t.Dependencies = nil
		t.BlockedBy = nil
		st.tasks[t.ID] = &t
	}

	for _, t := range in {
		rec := st.tasks[t.ID]
		if rec.ParentTaskID != "" {
			if _, ok := st.tasks[rec.ParentTaskID]; !ok {
				return nil, errors.NewNotFoundError(rec.ParentTaskID)
			}
		}
		for _, dep := range task.NormalizeSet(t.Dependencies) {
			switch {
			case dep == t.ID:
				return nil, errors.NewCycleError([]string{t.ID, t.ID})
			case dep == rec.ParentTaskID:
				return nil, errors.NewDependencyError(t.ID, dep, "a subtask cannot depend on its own parent")
			}
			if _, ok := st.tasks[dep]; !ok {
				return nil, errors.NewNotFoundError(dep)
			}
			if st.deps[t.ID] == nil {
				st.deps[t.ID] = make(set)
			}
			st.deps[t.ID][dep] = struct{}{}
			if st.rdeps[dep] == nil {
				st.rdeps[dep] = make(set)
			}
			st.rdeps[dep][t.ID] = struct{}{}
		}
	}

	st.rebuildSubtasks()

	if path := findAnyCycle(st.tasks, st.deps); path != nil {
		return nil, errors.NewCycleError(path)
	}
	return st, nil
}

// validateRecord checks the enums and the parent link of a loaded record,
// filling empty enums with their defaults.
func validateRecord(t *task.Task) error {
	if t.Status == "" {
		t.Status = task.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if !t.Status.IsValid() {
		return errors.NewValidationError("unknown status").WithField("status").WithValue(t.Status)
	}
	if !t.Priority.IsValid() {
		return errors.NewValidationError("unknown priority").WithField("priority").WithValue(t.Priority)
	}
	if t.Complexity == "" {
		t.Complexity = task.ComplexityMedium
	} else if !t.Complexity.IsValid() {
		return errors.NewValidationError("unknown complexity").WithField("complexity").WithValue(t.Complexity)
	}
	if want := task.ParentOf(t.ID); t.ParentTaskID != want {
		return errors.NewInvalidIDError(t.ID,
			fmt.Sprintf("parent_task_id %q does not match the id hierarchy (want %q)", t.ParentTaskID, want))
	}
	if t.Status == task.StatusDone && t.CompletedAt == nil {
		done := t.UpdatedAt
		t.CompletedAt = &done
	}
	if t.Status != task.StatusDone {
		t.CompletedAt = nil
	}
	return nil
}

// rebuildSubtasks makes each subtask list hold exactly the task's children,
// keeping the recorded order and appending any missing child in id order.
func (st *state) rebuildSubtasks() {
	children := make(map[string][]string)
	for id, t := range st.tasks {
		if t.ParentTaskID != "" {
			children[t.ParentTaskID] = append(children[t.ParentTaskID], id)
		}
	}

	for id, t := range st.tasks {
		kids := toSet(children[id])
		ordered := make([]string, 0, len(kids))
		for _, c := range t.Subtasks {
			if _, ok := kids[c]; ok {
				ordered = append(ordered, c)
				delete(kids, c)
			}
		}
		ordered = append(ordered, sortedKeys(kids)...)
		t.Subtasks = ordered
	}
}

// findAnyCycle runs a three-color depth-first search over the whole graph
// and returns one cycle as a closed path, or nil.
func findAnyCycle(tasks map[string]*task.Task, deps map[string]set) []string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(tasks))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range sortedKeys(deps[id]) {
			switch color[dep] {
			case gray:
				start := slices.Index(stack, dep)
				cycle := append([]string{}, stack[start:]...)
				return append(cycle, dep)
			case white:
				if c := visit(dep); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, task.CompareIDs)
	for _, id := range ids {
		if color[id] == white {
			if c := visit(id); c != nil {
				return c
			}
		}
	}
	return nil
}
