// Package statussync keeps a parent task's status coherent with the statuses
// of its subtasks.
//
// After a task's status changes, Propagate recomputes its parent from the full
// set of the parent's children, then moves one level up and repeats while the
// recomputation keeps changing something. The walk is an explicit loop bounded
// by the depth of the changed id, so it always terminates.
//
// Precedence, first match wins:
//
//  1. any child blocked      -> blocked
//  2. any child in_progress  -> in_progress
//  3. every child done       -> done
//  4. otherwise              -> todo
//
// A mix of done and todo children yields todo. Cancelled children count as
// not done. A cancelled parent is left alone and stops the walk.
package statussync

import (
	"time"

	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Graph is the view of the store the synchronizer needs. The store
// implements it over its own state while holding its write lock.
type Graph interface {
	// Parent returns the parent id of id, or "" for a top-level task.
	Parent(id string) string
	// Children returns the subtask ids of id.
	Children(id string) []string
	// Status returns the current status of id.
	Status(id string) task.Status
	// SetStatus moves id to s, stamping or clearing completed_at.
	SetStatus(id string, s task.Status, now time.Time)
}

// Change records one status transition applied by Propagate.
type Change struct {
	ID   string
	From task.Status
	To   task.Status
}

// Derive computes a parent's status from its children's statuses. It returns
// false when there are no children to derive from.
func Derive(children []task.Status) (task.Status, bool) {
	if len(children) == 0 {
		return "", false
	}
	var blocked, inProgress bool
	allDone := true
	for _, s := range children {
		switch s {
		case task.StatusBlocked:
			blocked = true
		case task.StatusInProgress:
			inProgress = true
		}
		if s != task.StatusDone {
			allDone = false
		}
	}
	switch {
	case blocked:
		return task.StatusBlocked, true
	case inProgress:
		return task.StatusInProgress, true
	case allDone:
		return task.StatusDone, true
	default:
		return task.StatusTodo, true
	}
}

// Propagate walks up from changedID, recomputing each ancestor until a level
// does not change. It returns the transitions it applied, nearest ancestor
// first. The changed task itself is never modified.
func Propagate(g Graph, changedID string, now time.Time) []Change {
	var changes []Change

	id := changedID
	for steps := task.Depth(changedID) - 1; steps > 0; steps-- {
		parent := g.Parent(id)
		if parent == "" {
			break
		}
		current := g.Status(parent)
		if current == task.StatusCancelled {
			break
		}

		children := g.Children(parent)
		statuses := make([]task.Status, len(children))
		for i, c := range children {
			statuses[i] = g.Status(c)
		}
		next, ok := Derive(statuses)
		if !ok || next == current {
			break
		}

		g.SetStatus(parent, next, now)
		changes = append(changes, Change{ID: parent, From: current, To: next})
		id = parent
	}
	return changes
}
