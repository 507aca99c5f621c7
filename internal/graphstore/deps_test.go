package graphstore

import (
	"math/rand/v2"
	"reflect"
	"slices"
	"strconv"
	"testing"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

func mustSetDeps(t *testing.T, s *Store, id string, deps ...string) task.Task {
	t.Helper()
	got, err := s.SetDependencies(id, deps)
	if err != nil {
		t.Fatalf("SetDependencies(%s, %v) failed: %v", id, deps, err)
	}
	return got
}

func TestSetDependencies_MaintainsReverseIndex(t *testing.T) {
	s, _ := newTestStore(t)
	for _, id := range []string{"1", "2", "3"} {
		mustCreate(t, s, task.Draft{ID: id})
	}

	got := mustSetDeps(t, s, "3", "2", "1")
	if !slices.Equal(got.Dependencies, []string{"1", "2"}) {
		t.Errorf("Dependencies(3) = %v", got.Dependencies)
	}
	for _, id := range []string{"1", "2"} {
		if b := mustGet(t, s, id).BlockedBy; !slices.Equal(b, []string{"3"}) {
			t.Errorf("BlockedBy(%s) = %v, want [3]", id, b)
		}
	}

	mustSetDeps(t, s, "3", "2")
	if b := mustGet(t, s, "1").BlockedBy; len(b) != 0 {
		t.Errorf("BlockedBy(1) = %v after dropping the edge", b)
	}
	if b := mustGet(t, s, "2").BlockedBy; !slices.Equal(b, []string{"3"}) {
		t.Errorf("BlockedBy(2) = %v", b)
	}

	mustSetDeps(t, s, "3")
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify() = %v", err)
	}
	if got := mustGet(t, s, "3").Dependencies; len(got) != 0 {
		t.Errorf("Dependencies(3) = %v after clearing", got)
	}
}

func TestSetDependencies_CycleRejected(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreate(t, s, task.Draft{ID: "1"})
	mustCreate(t, s, task.Draft{ID: "2"})
	mustSetDeps(t, s, "2", "1")

	before := s.Snapshot()
	_, err := s.SetDependencies("1", []string{"2"})

	var cycle *errors.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if !slices.Equal(cycle.Path, []string{"1", "2", "1"}) {
		t.Errorf("cycle path = %v, want [1 2 1]", cycle.Path)
	}
	if !errors.Is(err, errors.ErrCircularDependency) {
		t.Error("CycleError should match ErrCircularDependency")
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("rejected replacement must leave the store unchanged")
	}
}

func TestSetDependencies_LongCyclePath(t *testing.T) {
	s, _ := newTestStore(t)
	for _, id := range []string{"1", "2", "3", "4"} {
		mustCreate(t, s, task.Draft{ID: id})
	}
	mustSetDeps(t, s, "2", "1")
	mustSetDeps(t, s, "3", "2")

	_, err := s.SetDependencies("1", []string{"4", "3"})
	var cycle *errors.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if !slices.Equal(cycle.Path, []string{"1", "3", "2", "1"}) {
		t.Errorf("cycle path = %v, want [1 3 2 1]", cycle.Path)
	}
	if got := mustGet(t, s, "1").Dependencies; len(got) != 0 {
		t.Errorf("the acyclic part of a rejected set must not be applied: %v", got)
	}
}

func TestSetDependencies_Rejections(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreate(t, s, task.Draft{ID: "1"})
	mustCreate(t, s, task.Draft{ID: "2"})
	if _, err := s.Expand("1", []task.ChildDraft{{Draft: task.Draft{Name: "child"}}}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		id   string
		deps []string
		want error
	}{
		{"unknown task", "9", []string{"1"}, errors.ErrTaskNotFound},
		{"unknown dependency", "2", []string{"1", "9"}, errors.ErrTaskNotFound},
		{"self dependency", "2", []string{"2"}, errors.ErrCircularDependency},
		{"own parent", "1.1", []string{"1"}, errors.ErrInvalidDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Snapshot()
			_, err := s.SetDependencies(tt.id, tt.deps)
			if !errors.Is(err, tt.want) {
				t.Fatalf("SetDependencies(%s, %v) error = %v, want %v", tt.id, tt.deps, err, tt.want)
			}
			if !reflect.DeepEqual(s.Snapshot(), before) {
				t.Error("rejected replacement must leave the store unchanged")
			}
		})
	}

	var nf *errors.NotFoundError
	if _, err := s.SetDependencies("2", []string{"9"}); !errors.As(err, &nf) || nf.TaskID != "9" {
		t.Errorf("expected NotFoundError naming 9, got %v", err)
	}

	// Other top-level tasks are fine.
	mustSetDeps(t, s, "1.1", "2")
}

func TestSetDependencies_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreate(t, s, task.Draft{ID: "1"})
	mustCreate(t, s, task.Draft{ID: "2"})
	events := recordEvents(s)

	first := mustSetDeps(t, s, "2", "1")
	second := mustSetDeps(t, s, "2", "1", "1")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second identical call changed the task:\n%+v\n%+v", first, second)
	}
	if b := mustGet(t, s, "1").BlockedBy; !slices.Equal(b, []string{"2"}) {
		t.Errorf("BlockedBy(1) = %v, want [2]", b)
	}
	if len(*events) != 1 {
		t.Errorf("got %d events, want 1 for the first call only", len(*events))
	}
	if e, ok := (*events)[0].(event.DependenciesChangedEvent); !ok || !slices.Equal(e.Added, []string{"1"}) {
		t.Errorf("event = %#v", (*events)[0])
	}
}

func TestSetDependencies_TouchesPartners(t *testing.T) {
	s, clock := newTestStore(t)
	for _, id := range []string{"1", "2", "3", "4"} {
		mustCreate(t, s, task.Draft{ID: id})
	}
	mustSetDeps(t, s, "4", "1", "2")
	untouched := mustGet(t, s, "2").UpdatedAt

	mustSetDeps(t, s, "4", "2", "3")
	now := clock.Peek()

	for _, id := range []string{"4", "1", "3"} {
		if got := mustGet(t, s, id).UpdatedAt; !got.Equal(now) {
			t.Errorf("UpdatedAt(%s) = %v, want %v", id, got, now)
		}
	}
	if got := mustGet(t, s, "2").UpdatedAt; !got.Equal(untouched) {
		t.Errorf("kept dependency 2 should not be touched: %v", got)
	}
}

// TestSetDependencies_RandomSequence drives random replacements over a
// fixed set of tasks and checks after every call that the graph is still
// acyclic, the reverse index still mirrors dependencies, and rejected calls
// changed nothing.
func TestSetDependencies_RandomSequence(t *testing.T) {
	const n = 25
	s, _ := newTestStore(t)
	for i := 1; i <= n; i++ {
		mustCreate(t, s, task.Draft{ID: strconv.Itoa(i)})
	}

	rng := rand.New(rand.NewPCG(7, 11))
	var accepted, rejected int
	for range 400 {
		id := strconv.Itoa(rng.IntN(n) + 1)
		deps := make([]string, rng.IntN(4))
		for j := range deps {
			deps[j] = strconv.Itoa(rng.IntN(n) + 1)
		}

		before := s.Snapshot()
		_, err := s.SetDependencies(id, deps)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, errors.ErrCircularDependency):
			rejected++
			if !reflect.DeepEqual(s.Snapshot(), before) {
				t.Fatalf("rejected SetDependencies(%s, %v) modified the store", id, deps)
			}
		default:
			t.Fatalf("SetDependencies(%s, %v) unexpected error: %v", id, deps, err)
		}

		if err := s.Verify(); err != nil {
			t.Fatalf("after SetDependencies(%s, %v): %v", id, deps, err)
		}
	}

	if accepted == 0 || rejected == 0 {
		t.Errorf("sequence did not exercise both outcomes: %d accepted, %d rejected", accepted, rejected)
	}

	for _, tk := range s.Snapshot() {
		for _, dep := range tk.Dependencies {
			if !slices.Contains(mustGet(t, s, dep).BlockedBy, tk.ID) {
				t.Errorf("%s depends on %s but is missing from its blocked_by", tk.ID, dep)
			}
		}
		for _, b := range tk.BlockedBy {
			if !slices.Contains(mustGet(t, s, b).Dependencies, tk.ID) {
				t.Errorf("%s lists %s in blocked_by without the matching dependency", tk.ID, b)
			}
		}
	}
}
