// Package internal contains integration tests that verify the task graph
// packages work together: a workspace writing the snapshot, a watcher
// noticing it, and a second workspace reloading what was written.
package internal

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/taskgraph/internal/config"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/graphstore"
	"github.com/Iron-Ham/taskgraph/internal/snapshot"
	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/testutil"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

func openWorkspace(t *testing.T, path string) *workspace.Workspace {
	t.Helper()
	cfg := config.Default()
	cfg.Snapshot.Path = path
	cfg.Logging.Enabled = false

	w, err := workspace.Open(cfg, workspace.Options{Clock: testutil.NewClock().Now, Stderr: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// TestEventsFollowMutations checks the events a writer publishes for a
// typical editing session, in order.
func TestEventsFollowMutations(t *testing.T) {
	w := openWorkspace(t, filepath.Join(t.TempDir(), "tasks.json"))

	var mu sync.Mutex
	var received []string
	w.Bus.SubscribeAll(func(e event.Event) {
		mu.Lock()
		received = append(received, e.EventType())
		mu.Unlock()
	})

	_, err := w.Store.Create(task.Draft{Name: "parent"})
	require.NoError(t, err)
	_, err = w.Store.Expand("1", []task.ChildDraft{{Draft: task.Draft{Name: "only child"}}})
	require.NoError(t, err)
	done := task.StatusDone
	_, err = w.Store.UpdateFields("1.1", task.Fields{Status: &done})
	require.NoError(t, err)
	saved, err := w.Save()
	require.NoError(t, err)
	require.True(t, saved)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, event.TypeTaskCreated, received[0])
	assert.Contains(t, received, event.TypeTaskExpanded)
	assert.Contains(t, received, event.TypeTaskStatusChanged)
	assert.Equal(t, event.TypeSnapshotSaved, received[len(received)-1])
}

// TestWriterAndWatcher runs a writer workspace and a reader workspace on one
// snapshot file. The reader reloads whenever its watcher fires and must end
// up with the writer's graph and the same next task.
func TestWriterAndWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph", "tasks.yaml")
	writer := openWorkspace(t, path)
	reader := openWorkspace(t, path)

	watcher, err := snapshot.NewWatcher(path, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx)

	_, err = writer.Store.Create(task.Draft{Name: "schema", Priority: task.PriorityHigh})
	require.NoError(t, err)
	_, err = writer.Store.Create(task.Draft{Name: "api", Priority: task.PriorityCritical, Dependencies: []string{"1"}})
	require.NoError(t, err)
	_, err = writer.Save()
	require.NoError(t, err)

	select {
	case <-watcher.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the save")
	}

	require.Eventually(t, func() bool {
		return reader.Reload() == nil && reader.Revision() == writer.Revision()
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, 2, reader.Store.Len())
	want := writer.Summarize()
	got := reader.Summarize()
	require.NotNil(t, got.Next)
	assert.Equal(t, want.Next.ID, got.Next.ID)
	assert.Equal(t, "1", got.Next.ID, "api is blocked on schema")
	assert.Equal(t, want.Counts, got.Counts)
	assert.False(t, reader.Dirty(), "reloading must not mark the reader dirty")
}

// TestConcurrentReadersDuringWrites hammers the scheduler and list queries
// while a dependency chain is being built.
func TestConcurrentReadersDuringWrites(t *testing.T) {
	w := openWorkspace(t, filepath.Join(t.TempDir(), "tasks.json"))

	const n = 50
	var wg conc.WaitGroup
	wg.Go(func() {
		for i := range n {
			deps := []string{}
			if i > 0 {
				deps = append(deps, strconv.Itoa(i))
			}
			_, err := w.Store.Create(task.Draft{Name: "step", Dependencies: deps})
			assert.NoError(t, err)
		}
	})
	for range 4 {
		wg.Go(func() {
			for range n {
				w.Scheduler.Next(0)
				_, _, err := w.Store.ListByFilter(graphstore.Filter{Status: task.StatusTodo}, 1, 10)
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()

	require.NoError(t, w.Store.Verify())
	next, ok := w.Scheduler.Next(0)
	require.True(t, ok)
	assert.Equal(t, "1", next.ID, "only the head of the chain is ready")
}
