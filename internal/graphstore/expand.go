package graphstore

import (
	"time"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/statussync"
	"github.com/Iron-Ham/taskgraph/internal/subtask"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Expand creates children under parentID, in input order.
//
// Ids are allocated as {parentID}.{n} with the next unused n. Each child's
// dependencies are sanitized: the parent id is dropped, a sibling's Ref (or
// draft ID when no Ref is given) is rewritten to that sibling's allocated
// id, and anything that is neither a sibling nor an existing task rejects
// the whole expansion with InvalidDependency. Children are inserted and
// wired through the same path as Create and SetDependencies, then appended
// to the parent's subtasks.
//
// Children start in the status their draft carries, todo by default. When
// every child starts todo the parent keeps its status; otherwise the status
// synchronizer recomputes the parent and its ancestors. If any step fails,
// every child and edge created so far is removed and the touched tasks get
// their previous updated_at back.
func (s *Store) Expand(parentID string, children []task.ChildDraft) ([]task.Task, error) {
	if len(children) == 0 {
		return nil, s.rejected("expand", parentID, errors.NewValidationError("expansion needs at least one child").WithField("children"))
	}
	drafts := make([]task.ChildDraft, len(children))
	for i, c := range children {
		if err := c.Validate(); err != nil {
			return nil, s.rejected("expand", parentID, err)
		}
		if c.Ref == "" {
			c.Ref = c.ID
		}
		c.Draft = c.WithDefaults()
		drafts[i] = c
	}

	s.mu.Lock()

	parent, ok := s.tasks[parentID]
	if !ok {
		s.mu.Unlock()
		return nil, s.rejected("expand", parentID, errors.NewNotFoundError(parentID))
	}
	if parent.Status == task.StatusCancelled {
		s.mu.Unlock()
		return nil, s.rejected("expand", parentID, errors.Wrapf(errors.ErrTaskCancelled, "cannot expand %s", parentID))
	}

	plan, err := subtask.NewPlan(parentID, drafts, s.existsLocked)
	if err != nil {
		s.mu.Unlock()
		return nil, s.rejected("expand", parentID, err)
	}

	now := s.clock()
	if err := s.applyPlanLocked(parent, plan, drafts, now); err != nil {
		s.mu.Unlock()
		return nil, s.rejected("expand", parentID, err)
	}

	var propagated []statussync.Change
	for _, d := range drafts {
		if d.Status != task.StatusTodo {
			propagated = statussync.Propagate(statusView{s}, plan.IDs[0], now)
			break
		}
	}
	s.checkLocked()

	created := make([]task.Task, len(plan.IDs))
	events := make([]event.Event, 0, len(plan.IDs)+len(propagated)+1)
	for i, id := range plan.IDs {
		created[i] = s.copyLocked(id)
		events = append(events, event.NewTaskCreatedEvent(created[i], now))
	}
	s.mu.Unlock()

	events = append(events, event.NewTaskExpandedEvent(parentID, plan.IDs, now))
	for _, c := range propagated {
		events = append(events, event.NewTaskStatusChangedEvent(c.ID, c.From, c.To, true, now))
	}
	s.logger.WithOperation("expand").WithTask(parentID).Debug("task expanded", "children", plan.IDs)
	s.publish(events)
	return created, nil
}

// applyPlanLocked inserts the planned children, wires their dependencies
// and links them to the parent, rolling everything back on failure.
func (s *Store) applyPlanLocked(parent *task.Task, plan *subtask.Plan, drafts []task.ChildDraft, now time.Time) error {
	// Remember updated_at of every existing task this expansion can touch.
	prior := map[string]time.Time{parent.ID: parent.UpdatedAt}
	for _, deps := range plan.Dependencies {
		for _, dep := range deps {
			if t, ok := s.tasks[dep]; ok {
				prior[dep] = t.UpdatedAt
			}
		}
	}

	rollback := func(inserted []string) {
		for i := len(inserted) - 1; i >= 0; i-- {
			s.removeLocked(inserted[i])
		}
		for id, ts := range prior {
			if t, ok := s.tasks[id]; ok {
				t.UpdatedAt = ts
			}
		}
	}

	for i, id := range plan.IDs {
		s.insertLocked(id, parent.ID, drafts[i].Draft, now)
	}
	for i, id := range plan.IDs {
		if len(plan.Dependencies[i]) == 0 {
			continue
		}
		if _, _, err := s.setDependenciesLocked(id, plan.Dependencies[i], now); err != nil {
			rollback(plan.IDs)
			return err
		}
	}

	parent.Subtasks = append(parent.Subtasks, plan.IDs...)
	parent.UpdatedAt = now
	return nil
}
