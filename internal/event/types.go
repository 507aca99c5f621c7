package event

import (
	"time"

	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeTaskCreated         = "task.created"
	TypeTaskUpdated         = "task.updated"
	TypeTaskStatusChanged   = "task.status_changed"
	TypeDependenciesChanged = "task.dependencies_changed"
	TypeTaskExpanded        = "task.expanded"
	TypeStoreLoaded         = "store.loaded"
	TypeSnapshotSaved       = "snapshot.saved"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent stamps an event with the mutation time supplied by the
// store's clock, or the current time when at is zero.
func newBaseEvent(eventType string, at time.Time) baseEvent {
	if at.IsZero() {
		at = time.Now()
	}
	return baseEvent{eventType: eventType, timestamp: at}
}

// -----------------------------------------------------------------------------
// Task Events
// -----------------------------------------------------------------------------

// TaskCreatedEvent is emitted when a task is inserted, directly or as part of
// an expansion.
type TaskCreatedEvent struct {
	baseEvent
	Task task.Task
}

// NewTaskCreatedEvent creates a TaskCreatedEvent.
func NewTaskCreatedEvent(t task.Task, at time.Time) TaskCreatedEvent {
	return TaskCreatedEvent{baseEvent: newBaseEvent(TypeTaskCreated, at), Task: t}
}

// TaskUpdatedEvent is emitted when non-graph fields of a task change.
type TaskUpdatedEvent struct {
	baseEvent
	TaskID string
	Fields []string // names of the changed fields
}

// NewTaskUpdatedEvent creates a TaskUpdatedEvent.
func NewTaskUpdatedEvent(taskID string, fields []string, at time.Time) TaskUpdatedEvent {
	return TaskUpdatedEvent{baseEvent: newBaseEvent(TypeTaskUpdated, at), TaskID: taskID, Fields: fields}
}

// TaskStatusChangedEvent is emitted for every status transition. Propagated
// is true when the status synchronizer made the change.
type TaskStatusChangedEvent struct {
	baseEvent
	TaskID     string
	From       task.Status
	To         task.Status
	Propagated bool
}

// NewTaskStatusChangedEvent creates a TaskStatusChangedEvent.
func NewTaskStatusChangedEvent(taskID string, from, to task.Status, propagated bool, at time.Time) TaskStatusChangedEvent {
	return TaskStatusChangedEvent{
		baseEvent:  newBaseEvent(TypeTaskStatusChanged, at),
		TaskID:     taskID,
		From:       from,
		To:         to,
		Propagated: propagated,
	}
}

// DependenciesChangedEvent is emitted when a task's dependency set is
// replaced with a different one.
type DependenciesChangedEvent struct {
	baseEvent
	TaskID  string
	Added   []string
	Removed []string
}

// NewDependenciesChangedEvent creates a DependenciesChangedEvent.
func NewDependenciesChangedEvent(taskID string, added, removed []string, at time.Time) DependenciesChangedEvent {
	return DependenciesChangedEvent{
		baseEvent: newBaseEvent(TypeDependenciesChanged, at),
		TaskID:    taskID,
		Added:     added,
		Removed:   removed,
	}
}

// TaskExpandedEvent is emitted once per successful expansion, after the
// created events of its children.
type TaskExpandedEvent struct {
	baseEvent
	ParentID string
	ChildIDs []string
}

// NewTaskExpandedEvent creates a TaskExpandedEvent.
func NewTaskExpandedEvent(parentID string, childIDs []string, at time.Time) TaskExpandedEvent {
	return TaskExpandedEvent{baseEvent: newBaseEvent(TypeTaskExpanded, at), ParentID: parentID, ChildIDs: childIDs}
}

// -----------------------------------------------------------------------------
// Store Events
// -----------------------------------------------------------------------------

// StoreLoadedEvent is emitted when the store's contents are replaced
// wholesale, by a load or a reset.
type StoreLoadedEvent struct {
	baseEvent
	TaskCount int
}

// NewStoreLoadedEvent creates a StoreLoadedEvent.
func NewStoreLoadedEvent(count int, at time.Time) StoreLoadedEvent {
	return StoreLoadedEvent{baseEvent: newBaseEvent(TypeStoreLoaded, at), TaskCount: count}
}

// SnapshotSavedEvent is emitted after a snapshot file is written.
type SnapshotSavedEvent struct {
	baseEvent
	Path      string
	Revision  string
	TaskCount int
}

// NewSnapshotSavedEvent creates a SnapshotSavedEvent.
func NewSnapshotSavedEvent(path, revision string, count int, at time.Time) SnapshotSavedEvent {
	return SnapshotSavedEvent{
		baseEvent: newBaseEvent(TypeSnapshotSaved, at),
		Path:      path,
		Revision:  revision,
		TaskCount: count,
	}
}
