package graphstore

import (
	"slices"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Filter selects tasks for ListByFilter. Zero-valued fields match
// everything; set fields are AND-combined.
type Filter struct {
	Status     task.Status
	Priority   task.Priority
	Tag        string
	AssignedTo string

	// TagGlob matches when any tag matches the pattern, e.g. "api/*".
	TagGlob string
	// ParentTaskID keeps only direct subtasks of this id.
	ParentTaskID string
	// TopLevelOnly keeps only tasks without a parent.
	TopLevelOnly bool
}

type compiledFilter struct {
	Filter
	tagGlob glob.Glob
}

func (f Filter) compile() (*compiledFilter, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, errors.NewValidationError("unknown status").WithField("status").WithValue(f.Status)
	}
	if f.Priority != "" && !f.Priority.IsValid() {
		return nil, errors.NewValidationError("unknown priority").WithField("priority").WithValue(f.Priority)
	}
	cf := &compiledFilter{Filter: f}
	if f.TagGlob != "" {
		g, err := glob.Compile(f.TagGlob, '/')
		if err != nil {
			return nil, errors.NewValidationError("invalid tag pattern").
				WithField("tag_glob").WithValue(f.TagGlob).WithCause(errors.Join(errors.ErrInvalidInput, err))
		}
		cf.tagGlob = g
	}
	return cf, nil
}

func (f *compiledFilter) matches(t *task.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.ParentTaskID != "" && t.ParentTaskID != f.ParentTaskID {
		return false
	}
	if f.TopLevelOnly && !t.IsTopLevel() {
		return false
	}
	if f.tagGlob != nil && !slices.ContainsFunc(t.Tags, f.tagGlob.Match) {
		return false
	}
	return true
}

// ListByFilter returns one page of the tasks matching f, in natural id
// order, and the total number of matches.
//
// Pages are 1-indexed; page < 1 is rejected. pageSize <= 0 selects the
// configured default and values above the configured maximum are clamped.
// A page past the end returns no items with the correct total.
func (s *Store) ListByFilter(f Filter, page, pageSize int) ([]task.Task, int, error) {
	if page < 1 {
		return nil, 0, errors.NewValidationError("page must be >= 1").WithField("page").WithValue(page)
	}
	switch {
	case pageSize <= 0:
		pageSize = s.defaultPageSize
	case pageSize > s.maxPageSize:
		pageSize = s.maxPageSize
	}
	cf, err := f.compile()
	if err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.tasks))
	for id, t := range s.tasks {
		if cf.matches(t) {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, task.CompareIDs)

	total := len(ids)
	start := (page - 1) * pageSize
	if start >= total {
		return []task.Task{}, total, nil
	}
	end := min(start+pageSize, total)

	items := make([]task.Task, 0, end-start)
	for _, id := range ids[start:end] {
		items = append(items, s.copyLocked(id))
	}
	return items, total, nil
}

// CountByStatus returns the number of tasks in each status. Every status is
// present in the result, with zero where no task has it.
func (s *Store) CountByStatus() map[task.Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[task.Status]int, len(task.Statuses()))
	for _, st := range task.Statuses() {
		counts[st] = 0
	}
	for _, t := range s.tasks {
		counts[t.Status]++
	}
	return counts
}
