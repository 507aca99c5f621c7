package graphstore

import (
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/testutil"
)

// buildSample creates a small graph that exercises every relation.
func buildSample(t *testing.T, s *Store) {
	t.Helper()
	mustCreate(t, s, task.Draft{ID: "1", Tags: []string{"db"}, EstimatedHours: testutil.Ptr(2.0)})
	mustCreate(t, s, task.Draft{ID: "2", Dependencies: []string{"1"}})
	if _, err := s.Expand("2", []task.ChildDraft{
		refChild("a", "api"),
		refChild("b", "ui", "a", "1"),
	}); err != nil {
		t.Fatal(err)
	}
	setStatus(t, s, "2.1", task.StatusDone)
}

func TestLoad_SnapshotRoundTrip(t *testing.T) {
	src, _ := newTestStore(t)
	buildSample(t, src)
	snap := src.Snapshot()

	dst, _ := newTestStore(t)
	if err := dst.Load(snap); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(dst.Snapshot(), snap) {
		t.Error("Load(Snapshot()) should reproduce the same tasks")
	}
	if err := dst.Verify(); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestLoad_RecomputesDerivedFields(t *testing.T) {
	s, _ := newTestStore(t)
	at := testutil.Epoch

	in := []task.Task{
		{ID: "1", Name: "a", CreatedAt: at, UpdatedAt: at, BlockedBy: []string{"9"}},
		{ID: "2", Name: "b", Dependencies: []string{"1"}, Status: task.StatusDone, CreatedAt: at, UpdatedAt: at},
		{ID: "2.1", Name: "c", ParentTaskID: "2", CreatedAt: at, UpdatedAt: at},
		{ID: "2.2", Name: "d", ParentTaskID: "2", CreatedAt: at, UpdatedAt: at},
	}
	in[0].Subtasks = []string{"2.1"}
	in[2].CompletedAt = &at

	if err := s.Load(in); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	one := mustGet(t, s, "1")
	if !slices.Equal(one.BlockedBy, []string{"2"}) {
		t.Errorf("BlockedBy(1) = %v, want [2]", one.BlockedBy)
	}
	if len(one.Subtasks) != 0 {
		t.Errorf("Subtasks(1) = %v, stale entries should be dropped", one.Subtasks)
	}
	if one.Status != task.StatusTodo || one.Priority != task.PriorityMedium {
		t.Errorf("defaults not filled: %+v", one)
	}

	two := mustGet(t, s, "2")
	if !slices.Equal(two.Subtasks, []string{"2.1", "2.2"}) {
		t.Errorf("Subtasks(2) = %v", two.Subtasks)
	}
	if two.CompletedAt == nil || !two.CompletedAt.Equal(at) {
		t.Errorf("done task without completed_at should get updated_at: %v", two.CompletedAt)
	}
	if mustGet(t, s, "2.1").CompletedAt != nil {
		t.Error("completed_at on a todo task should be cleared")
	}
}

func TestLoad_Rejections(t *testing.T) {
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := func(id string, deps ...string) task.Task {
		return task.Task{ID: id, Name: id, ParentTaskID: task.ParentOf(id), Dependencies: deps, CreatedAt: at, UpdatedAt: at}
	}

	tests := []struct {
		name string
		in   []task.Task
		want error
	}{
		{"invalid id", []task.Task{rec("01")}, errors.ErrInvalidID},
		{"duplicate id", []task.Task{rec("1"), rec("1")}, errors.ErrDuplicateID},
		{"unknown dependency", []task.Task{rec("1", "2")}, errors.ErrTaskNotFound},
		{"self dependency", []task.Task{rec("1", "1")}, errors.ErrCircularDependency},
		{"cycle", []task.Task{rec("1", "3"), rec("2", "1"), rec("3", "2")}, errors.ErrCircularDependency},
		{"missing parent", []task.Task{rec("4.1")}, errors.ErrTaskNotFound},
		{"parent mismatch", []task.Task{rec("1"), rec("2"), {ID: "1.1", Name: "x", ParentTaskID: "2"}}, errors.ErrInvalidID},
		{"depends on parent", []task.Task{rec("1"), rec("1.1", "1")}, errors.ErrInvalidDependency},
		{"bad status", []task.Task{{ID: "1", Name: "x", Status: "finished"}}, errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			buildSample(t, s)
			before := s.Snapshot()

			err := s.Load(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load error = %v, want %v", err, tt.want)
			}
			if !reflect.DeepEqual(s.Snapshot(), before) {
				t.Error("failed Load must leave the store unchanged")
			}
		})
	}
}

func TestLoad_CyclePath(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Load([]task.Task{
		{ID: "1", Name: "a", Dependencies: []string{"2"}},
		{ID: "2", Name: "b", Dependencies: []string{"1"}},
	})
	var cycle *errors.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if !slices.Equal(cycle.Path, []string{"1", "2", "1"}) {
		t.Errorf("path = %v", cycle.Path)
	}
}

func TestLoad_PublishesEvent(t *testing.T) {
	s, _ := newTestStore(t)
	events := recordEvents(s)

	if err := s.Load([]task.Task{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}); err != nil {
		t.Fatal(err)
	}
	if len(*events) != 1 {
		t.Fatalf("got %d events", len(*events))
	}
	if e, ok := (*events)[0].(event.StoreLoadedEvent); !ok || e.TaskCount != 2 {
		t.Errorf("event = %#v", (*events)[0])
	}
}

func TestReset(t *testing.T) {
	s, _ := newTestStore(t)
	buildSample(t, s)

	s.Reset()
	if s.Len() != 0 || len(s.Snapshot()) != 0 {
		t.Fatalf("store not empty after Reset: %d tasks", s.Len())
	}
	if got := mustCreate(t, s, task.Draft{Name: "fresh"}); got.ID != "1" {
		t.Errorf("first id after Reset = %s, want 1", got.ID)
	}
}

func TestVerify_DetectsDrift(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(s *Store)
		want    string
	}{
		{"missing reverse edge", func(s *Store) { delete(s.rdeps["1"], "2") }, "blocked_by of 1 is missing 2"},
		{"stale reverse edge", func(s *Store) { s.rdeps["2"] = set{"1": {}} }, "does not depend on it"},
		{"orphan subtask", func(s *Store) { s.tasks["2"].Subtasks = []string{"2.2"} }, "does not list subtask 2.1"},
		{"completed_at drift", func(s *Store) { s.tasks["2.1"].CompletedAt = nil }, "completed_at"},
		{"cycle", func(s *Store) {
			s.deps["1"] = set{"2": {}}
			s.rdeps["2"] = set{"1": {}}
		}, "dependency cycle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			buildSample(t, s)
			s.verify = false

			tt.corrupt(s)
			err := s.Verify()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestVerifyInvariants_PanicsOnDrift(t *testing.T) {
	s, _ := newTestStore(t)
	buildSample(t, s)
	delete(s.rdeps["1"], "2")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic from the invariant checker")
		}
		if msg, _ := r.(string); !strings.HasPrefix(msg, "graphstore: invariant violated") {
			t.Errorf("panic = %v", r)
		}
	}()
	mustCreate(t, s, task.Draft{Name: "trigger"})
}
