package task

import (
	"slices"
	"strings"

	"github.com/Iron-Ham/taskgraph/internal/errors"
)

// Draft holds the caller-supplied fields of a task to be created. Zero values
// take defaults: status todo, priority medium, complexity medium.
type Draft struct {
	// ID is optional; when empty the store assigns the next free top-level
	// integer id.
	ID             string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status         Status     `json:"status,omitempty" yaml:"status,omitempty"`
	Priority       Priority   `json:"priority,omitempty" yaml:"priority,omitempty"`
	Complexity     Complexity `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Dependencies   []string   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Tags           []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	AssignedTo     string     `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty"`
	CodeReferences []string   `json:"code_references,omitempty" yaml:"code_references,omitempty"`
}

// ChildDraft is one child handed to an expansion. Ref is the id the
// generator used for this child, if any; sibling dependencies that name a
// Ref are rewritten to the id the allocator assigns.
type ChildDraft struct {
	Draft `yaml:",inline"`
	Ref   string `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// WithDefaults returns a copy of d with zero-valued enums set to their
// defaults and list fields normalized.
func (d Draft) WithDefaults() Draft {
	if d.Status == "" {
		d.Status = StatusTodo
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Complexity == "" {
		d.Complexity = ComplexityMedium
	}
	d.Dependencies = NormalizeSet(d.Dependencies)
	d.Tags = NormalizeList(d.Tags)
	d.CodeReferences = NormalizeList(d.CodeReferences)
	return d
}

// Fields is a partial update. Nil fields are left unchanged. Dependencies
// are not patchable here; they go through the store's dependency
// replacement so the graph invariants are checked.
type Fields struct {
	Name           *string
	Description    *string
	Status         *Status
	Priority       *Priority
	Complexity     *Complexity
	Tags           *[]string
	AssignedTo     *string
	EstimatedHours *float64
	ActualHours    *float64
	CodeReferences *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (f Fields) IsEmpty() bool {
	return f == Fields{}
}

// NormalizeSet trims, drops empties and duplicates, and sorts ids in natural
// order.
func NormalizeSet(ids []string) []string {
	out := NormalizeList(ids)
	slices.SortFunc(out, CompareIDs)
	return slices.Compact(out)
}

// SplitList parses a comma-separated list as supplied on the command line.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeList(strings.Split(s, ","))
}

// NormalizeList trims entries and drops empties and repeats, keeping first-seen
// order.
func NormalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Validate checks the draft's name and any enum values it sets.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.NewValidationError("name is required").WithField("name")
	}
	if d.Status != "" && !d.Status.IsValid() {
		return errors.NewValidationError("unknown status").WithField("status").WithValue(d.Status)
	}
	if d.Priority != "" && !d.Priority.IsValid() {
		return errors.NewValidationError("unknown priority").WithField("priority").WithValue(d.Priority)
	}
	if d.Complexity != "" && !d.Complexity.IsValid() {
		return errors.NewValidationError("unknown complexity").WithField("complexity").WithValue(d.Complexity)
	}
	if d.EstimatedHours != nil && *d.EstimatedHours < 0 {
		return errors.NewValidationError("hours must not be negative").WithField("estimated_hours").WithValue(*d.EstimatedHours)
	}
	return nil
}

// Validate checks the values the patch sets.
func (f Fields) Validate() error {
	if f.Name != nil && strings.TrimSpace(*f.Name) == "" {
		return errors.NewValidationError("name must not be empty").WithField("name")
	}
	if f.Status != nil && !f.Status.IsValid() {
		return errors.NewValidationError("unknown status").WithField("status").WithValue(*f.Status)
	}
	if f.Priority != nil && !f.Priority.IsValid() {
		return errors.NewValidationError("unknown priority").WithField("priority").WithValue(*f.Priority)
	}
	if f.Complexity != nil && !f.Complexity.IsValid() {
		return errors.NewValidationError("unknown complexity").WithField("complexity").WithValue(*f.Complexity)
	}
	if f.EstimatedHours != nil && *f.EstimatedHours < 0 {
		return errors.NewValidationError("hours must not be negative").WithField("estimated_hours").WithValue(*f.EstimatedHours)
	}
	if f.ActualHours != nil && *f.ActualHours < 0 {
		return errors.NewValidationError("hours must not be negative").WithField("actual_hours").WithValue(*f.ActualHours)
	}
	return nil
}
