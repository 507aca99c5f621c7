package graphstore

import (
	"slices"
	"time"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/statussync"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// UpdateFields applies a partial update to id. Fields that already hold the
// requested value are ignored; if nothing changes, nothing is touched.
//
// A status change is applied to the task first and then handed to the
// status synchronizer, which recomputes the task's ancestors. All of it
// happens under one write lock.
func (s *Store) UpdateFields(id string, f task.Fields) (task.Task, error) {
	if err := f.Validate(); err != nil {
		return task.Task{}, s.rejected("update_fields", id, err)
	}

	s.mu.Lock()

	rec, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return task.Task{}, s.rejected("update_fields", id, errors.NewNotFoundError(id))
	}

	now := s.clock()
	changed := applyFields(rec, f)

	var events []event.Event
	var propagated []statussync.Change
	if f.Status != nil && *f.Status != rec.Status {
		from := rec.Status
		rec.SetStatus(*f.Status, now)
		changed = append(changed, "status")
		events = append(events, event.NewTaskStatusChangedEvent(id, from, rec.Status, false, now))

		propagated = statussync.Propagate(statusView{s}, id, now)
		for _, c := range propagated {
			events = append(events, event.NewTaskStatusChangedEvent(c.ID, c.From, c.To, true, now))
		}
	}
	if len(changed) > 0 {
		rec.UpdatedAt = now
		events = append([]event.Event{event.NewTaskUpdatedEvent(id, changed, now)}, events...)
	}
	s.checkLocked()
	result := s.copyLocked(id)
	s.mu.Unlock()

	if len(changed) > 0 {
		log := s.logger.WithOperation("update_fields").WithTask(id)
		log.Debug("task updated", "fields", changed)
		for _, c := range propagated {
			log.Debug("parent status recomputed", "parent_id", c.ID, "from", string(c.From), "to", string(c.To))
		}
	}
	s.publish(events)
	return result, nil
}

// applyFields copies every non-status field of f that differs into rec and
// returns the names of the fields it changed.
func applyFields(rec *task.Task, f task.Fields) []string {
	var changed []string

	setString := func(name string, dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = append(changed, name)
		}
	}
	setList := func(name string, dst *[]string, v *[]string) {
		if v == nil {
			return
		}
		next := task.NormalizeList(*v)
		if !slices.Equal(*dst, next) {
			*dst = next
			changed = append(changed, name)
		}
	}
	setHours := func(name string, dst **float64, v *float64) {
		if v == nil || (*dst != nil && **dst == *v) {
			return
		}
		h := *v
		*dst = &h
		changed = append(changed, name)
	}

	setString("name", &rec.Name, f.Name)
	setString("description", &rec.Description, f.Description)
	setString("assigned_to", &rec.AssignedTo, f.AssignedTo)
	if f.Priority != nil && rec.Priority != *f.Priority {
		rec.Priority = *f.Priority
		changed = append(changed, "priority")
	}
	if f.Complexity != nil && rec.Complexity != *f.Complexity {
		rec.Complexity = *f.Complexity
		changed = append(changed, "complexity")
	}
	setList("tags", &rec.Tags, f.Tags)
	setList("code_references", &rec.CodeReferences, f.CodeReferences)
	setHours("estimated_hours", &rec.EstimatedHours, f.EstimatedHours)
	setHours("actual_hours", &rec.ActualHours, f.ActualHours)

	return changed
}

// statusView exposes the store's records to the status synchronizer. It is
// only used while the write lock is held.
type statusView struct{ s *Store }

func (v statusView) Parent(id string) string {
	return v.s.tasks[id].ParentTaskID
}

func (v statusView) Children(id string) []string {
	return v.s.tasks[id].Subtasks
}

func (v statusView) Status(id string) task.Status {
	return v.s.tasks[id].Status
}

func (v statusView) SetStatus(id string, st task.Status, now time.Time) {
	v.s.tasks[id].SetStatus(st, now)
}
