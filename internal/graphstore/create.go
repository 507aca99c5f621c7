package graphstore

import (
	"strconv"
	"time"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Create inserts a top-level task.
//
// If d.ID is empty the next free top-level integer id is assigned: one more
// than the largest numeric top-level id in the store. A supplied id must be
// a valid single-segment id that is not taken; subtask ids are only
// allocated by Expand. Dependencies in the draft are applied through the
// same path as SetDependencies, and the insert is undone if they are
// rejected.
func (s *Store) Create(d task.Draft) (task.Task, error) {
	if err := d.Validate(); err != nil {
		return task.Task{}, s.rejected("create", d.ID, err)
	}
	d = d.WithDefaults()

	s.mu.Lock()

	now := s.clock()
	id := d.ID
	if id == "" {
		id = s.nextTopLevelIDLocked()
	} else if err := s.checkNewTopLevelIDLocked(id); err != nil {
		s.mu.Unlock()
		return task.Task{}, s.rejected("create", id, err)
	}

	s.insertLocked(id, "", d, now)
	if len(d.Dependencies) > 0 {
		if _, _, err := s.setDependenciesLocked(id, d.Dependencies, now); err != nil {
			s.removeLocked(id)
			s.mu.Unlock()
			return task.Task{}, s.rejected("create", id, err)
		}
	}
	s.checkLocked()
	result := s.copyLocked(id)
	s.mu.Unlock()

	s.logger.WithOperation("create").WithTask(id).Debug("task created",
		"status", string(result.Status), "dependencies", result.Dependencies)
	s.publish([]event.Event{event.NewTaskCreatedEvent(result, now)})
	return result, nil
}

func (s *Store) checkNewTopLevelIDLocked(id string) error {
	if err := task.ValidateID(id); err != nil {
		return err
	}
	if task.Depth(id) > 1 {
		return errors.NewInvalidIDError(id, "subtask ids are allocated by expand")
	}
	if s.existsLocked(id) {
		return errors.NewAlreadyExistsError(id)
	}
	return nil
}

// nextTopLevelIDLocked returns max(numeric top-level id) + 1, or "1".
func (s *Store) nextTopLevelIDLocked() string {
	highest := 0
	for id := range s.tasks {
		if n, ok := task.TopLevelNumber(id); ok && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// insertLocked adds a record with no dependencies. The draft must already
// have defaults applied.
func (s *Store) insertLocked(id, parentID string, d task.Draft, now time.Time) *task.Task {
	rec := &task.Task{
		ID:             id,
		Name:           d.Name,
		Description:    d.Description,
		Status:         d.Status,
		Priority:       d.Priority,
		Complexity:     d.Complexity,
		ParentTaskID:   parentID,
		Subtasks:       []string{},
		Tags:           d.Tags,
		AssignedTo:     d.AssignedTo,
		EstimatedHours: d.EstimatedHours,
		CodeReferences: d.CodeReferences,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if rec.EstimatedHours != nil {
		h := *rec.EstimatedHours
		rec.EstimatedHours = &h
	}
	if rec.Status == task.StatusDone {
		done := now
		rec.CompletedAt = &done
	}
	s.tasks[id] = rec
	return rec
}

// removeLocked deletes a record and every edge that touches it. It exists
// to undo inserts within a failed operation; tasks are never deleted
// otherwise.
func (s *Store) removeLocked(id string) {
	for dep := range s.deps[id] {
		delete(s.rdeps[dep], id)
		if len(s.rdeps[dep]) == 0 {
			delete(s.rdeps, dep)
		}
	}
	for dependent := range s.rdeps[id] {
		delete(s.deps[dependent], id)
		if len(s.deps[dependent]) == 0 {
			delete(s.deps, dependent)
		}
	}
	delete(s.deps, id)
	delete(s.rdeps, id)
	delete(s.tasks, id)
}
