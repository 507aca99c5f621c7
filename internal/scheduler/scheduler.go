// Package scheduler answers which task should be worked on next.
//
// Selection runs in two pools. Tasks already in progress are always
// preferred over starting new work; only when none is eligible are todo
// tasks considered. In both pools a task is eligible only when every one of
// its dependencies is done, so a returned task never has unmet
// prerequisites. Within a pool candidates are ranked by priority, then by
// how many tasks they unblock, then by age, with the natural id order as a
// final tie-break so the answer is deterministic.
package scheduler

import (
	"cmp"
	"slices"

	"github.com/Iron-Ham/taskgraph/internal/graphstore"
	"github.com/Iron-Ham/taskgraph/internal/logging"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// DefaultCandidateLimit is used when Next is called with limit <= 0.
const DefaultCandidateLimit = 5

// Options configures a Scheduler.
type Options struct {
	// CandidateLimit replaces DefaultCandidateLimit.
	CandidateLimit int
	Logger         *logging.Logger
}

// Scheduler is a read-only query over a graph store.
type Scheduler struct {
	store  *graphstore.Store
	limit  int
	logger *logging.Logger
}

// New creates a Scheduler reading from store.
func New(store *graphstore.Store, opts Options) *Scheduler {
	s := &Scheduler{
		store:  store,
		limit:  opts.CandidateLimit,
		logger: opts.Logger,
	}
	if s.limit <= 0 {
		s.limit = DefaultCandidateLimit
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	return s
}

// Next returns the single next executable task, or false when nothing is
// eligible.
//
// limit caps the ranked shortlist the choice is made from. Because the
// shortlist is cut after ranking, it never changes which task is returned.
func (s *Scheduler) Next(limit int) (task.Task, bool) {
	if limit <= 0 {
		limit = s.limit
	}

	var (
		picked task.Task
		found  bool
		pool   string
		size   int
	)
	s.store.View(func(v graphstore.View) {
		var started, ready []graphstore.Node
		v.Range(func(n graphstore.Node) bool {
			switch n.Status {
			case task.StatusInProgress:
				if v.DependenciesDone(n.ID) {
					started = append(started, n)
				}
			case task.StatusTodo:
				if v.DependenciesDone(n.ID) {
					ready = append(ready, n)
				}
			}
			return true
		})

		candidates := started
		pool = string(task.StatusInProgress)
		if len(candidates) == 0 {
			candidates = ready
			pool = string(task.StatusTodo)
		}
		if len(candidates) == 0 {
			return
		}

		slices.SortFunc(candidates, Compare)
		candidates = candidates[:min(limit, len(candidates))]
		size = len(candidates)
		picked, found = v.Task(candidates[0].ID)
	})

	if found {
		s.logger.WithOperation("next").WithTask(picked.ID).Debug("next task selected",
			"pool", pool, "shortlist", size, "priority", string(picked.Priority))
	} else {
		s.logger.WithOperation("next").Debug("no executable task")
	}
	return picked, found
}

// Compare orders candidates best first: higher priority, then more
// dependents, then older, then natural id order.
func Compare(a, b graphstore.Node) int {
	if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.BlockedByCount, a.BlockedByCount); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return task.CompareIDs(a.ID, b.ID)
}
