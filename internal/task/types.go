package task

import (
	"slices"
	"strings"
	"time"
)

// Status represents the execution state of a task.
type Status string

const (
	// StatusTodo indicates the task has not been started.
	StatusTodo Status = "todo"

	// StatusInProgress indicates the task is actively being worked on.
	StatusInProgress Status = "in_progress"

	// StatusDone indicates the task is finished.
	StatusDone Status = "done"

	// StatusBlocked indicates work on the task is stuck on something outside
	// the dependency graph.
	StatusBlocked Status = "blocked"

	// StatusCancelled marks a task as removed. Tasks are never deleted.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked, StatusCancelled:
		return true
	}
	return false
}

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone, StatusBlocked, StatusCancelled}
}

// ParseStatus normalizes user input ("In_Progress", " done ") into a Status.
// The boolean is false if the value is not a known status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// Priority is an ordinal urgency level; critical is highest.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// Rank returns the ordinal of the priority, higher is more urgent.
// Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Priorities returns every priority from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// ParsePriority normalizes user input into a Priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.IsValid()
}

// Complexity is an informational size estimate. Scheduling ignores it.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// IsValid reports whether c is one of the known complexities.
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	}
	return false
}

// ParseComplexity normalizes user input into a Complexity.
func ParseComplexity(s string) (Complexity, bool) {
	c := Complexity(strings.ToLower(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// Task is a snapshot of a work item. Values handed out by the store are
// copies; mutating them has no effect on stored state.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status     `json:"status" yaml:"status"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	Complexity  Complexity `json:"complexity" yaml:"complexity"`

	// Dependencies are the ids this task requires to be done first.
	// Always sorted in natural id order.
	Dependencies []string `json:"dependencies" yaml:"dependencies"`

	// BlockedBy is the reverse index of Dependencies: the ids of tasks that
	// depend on this one. Always sorted in natural id order.
	BlockedBy []string `json:"blocked_by" yaml:"blocked_by"`

	ParentTaskID string `json:"parent_task_id,omitempty" yaml:"parent_task_id,omitempty"`

	// Subtasks lists child ids in creation order.
	Subtasks []string `json:"subtasks" yaml:"subtasks"`

	Tags           []string `json:"tags" yaml:"tags"`
	AssignedTo     string   `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty"`
	ActualHours    *float64 `json:"actual_hours,omitempty" yaml:"actual_hours,omitempty"`
	CodeReferences []string `json:"code_references" yaml:"code_references"`

	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// IsTopLevel reports whether the task has no parent.
func (t *Task) IsTopLevel() bool {
	return t.ParentTaskID == ""
}

// HasTag reports whether the task carries the given tag.
func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	t.Dependencies = cloneStrings(t.Dependencies)
	t.BlockedBy = cloneStrings(t.BlockedBy)
	t.Subtasks = cloneStrings(t.Subtasks)
	t.Tags = cloneStrings(t.Tags)
	t.CodeReferences = cloneStrings(t.CodeReferences)
	if t.EstimatedHours != nil {
		v := *t.EstimatedHours
		t.EstimatedHours = &v
	}
	if t.ActualHours != nil {
		v := *t.ActualHours
		t.ActualHours = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		t.CompletedAt = &v
	}
	return t
}

// SetStatus moves the task to status s at time now, maintaining CompletedAt:
// it is stamped when the task enters done and cleared when it leaves done.
// Returns false if the status did not change.
func (t *Task) SetStatus(s Status, now time.Time) bool {
	if t.Status == s {
		return false
	}
	prev := t.Status
	t.Status = s
	t.UpdatedAt = now
	switch {
	case s == StatusDone:
		done := now
		t.CompletedAt = &done
	case prev == StatusDone:
		t.CompletedAt = nil
	}
	return true
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
