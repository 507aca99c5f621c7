package graphstore

import (
	"slices"
	"sync"
	"time"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/logging"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Default paging limits used when Options leaves them unset.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Options configures a Store. The zero value is usable.
type Options struct {
	// Clock returns the mutation time. Defaults to time.Now.
	Clock func() time.Time
	// Logger receives mutation and rejection logs. Defaults to a NopLogger.
	Logger *logging.Logger
	// Bus receives store events after each operation. Nil disables events.
	Bus *event.Bus
	// DefaultPageSize applies when ListByFilter is called with pageSize <= 0.
	DefaultPageSize int
	// MaxPageSize caps the pageSize accepted by ListByFilter.
	MaxPageSize int
	// VerifyInvariants re-checks every graph invariant after each mutation
	// and panics on drift.
	VerifyInvariants bool
}

type set map[string]struct{}

// Store is the authoritative in-memory task graph.
//
// The task map and both adjacency indices are guarded by one RWMutex.
// Mutations take the write lock for their whole duration and either apply
// completely or not at all; reads share the read lock. Callers only ever
// receive copies.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*task.Task
	deps  map[string]set // id -> ids it depends on
	rdeps map[string]set // id -> ids that depend on it (blocked_by)

	clock           func() time.Time
	logger          *logging.Logger
	bus             *event.Bus
	defaultPageSize int
	maxPageSize     int
	verify          bool
}

// New creates an empty Store.
func New(opts Options) *Store {
	s := &Store{
		tasks:           make(map[string]*task.Task),
		deps:            make(map[string]set),
		rdeps:           make(map[string]set),
		clock:           opts.Clock,
		logger:          opts.Logger,
		bus:             opts.Bus,
		defaultPageSize: opts.DefaultPageSize,
		maxPageSize:     opts.MaxPageSize,
		verify:          opts.VerifyInvariants,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = MaxPageSize
	}
	if s.defaultPageSize <= 0 {
		s.defaultPageSize = DefaultPageSize
	}
	if s.defaultPageSize > s.maxPageSize {
		s.defaultPageSize = s.maxPageSize
	}
	return s
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tasks[id]; !ok {
		return task.Task{}, errors.NewNotFoundError(id)
	}
	return s.copyLocked(id), nil
}

// Exists reports whether a task with the given id is present.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tasks[id]
	return ok
}

// Len returns the number of tasks in the store, cancelled ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// copyLocked returns a detached copy of id with Dependencies and BlockedBy
// materialized from the indices. The caller must hold mu.
func (s *Store) copyLocked(id string) task.Task {
	t := s.tasks[id].Clone()
	t.Dependencies = sortedKeys(s.deps[id])
	t.BlockedBy = sortedKeys(s.rdeps[id])
	return t
}

func (s *Store) existsLocked(id string) bool {
	_, ok := s.tasks[id]
	return ok
}

// touchLocked refreshes updated_at on id.
func (s *Store) touchLocked(id string, now time.Time) {
	if t, ok := s.tasks[id]; ok {
		t.UpdatedAt = now
	}
}

// publish sends events collected under the lock. It must be called after
// the lock is released.
func (s *Store) publish(events []event.Event) {
	if s.bus == nil || len(events) == 0 {
		return
	}
	s.bus.PublishAll(events)
}

// checkLocked runs the invariant checker when enabled. Drift is a
// programming defect, not a caller error.
func (s *Store) checkLocked() {
	if !s.verify {
		return
	}
	if err := s.verifyLocked(); err != nil {
		panic("graphstore: invariant violated: " + err.Error())
	}
}

// rejected logs a refused mutation at WARN and returns err unchanged.
func (s *Store) rejected(op, id string, err error) error {
	s.logger.WithOperation(op).WithTask(id).Warn("mutation rejected",
		logging.KeyError, err.Error(),
		"kind", errors.Kind(err))
	return err
}

func sortedKeys(m set) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.SortFunc(out, task.CompareIDs)
	return out
}

func toSet(ids []string) set {
	m := make(set, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
