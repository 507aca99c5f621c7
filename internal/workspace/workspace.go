// Package workspace opens a task graph for one CLI invocation: it builds the
// logger, event bus, store and scheduler from configuration, loads the
// snapshot, and writes it back when the graph changed.
package workspace

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/taskgraph/internal/config"
	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/graphstore"
	"github.com/Iron-Ham/taskgraph/internal/logging"
	"github.com/Iron-Ham/taskgraph/internal/scheduler"
	"github.com/Iron-Ham/taskgraph/internal/snapshot"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Options adjusts how a Workspace is opened.
type Options struct {
	// Clock stamps mutations and snapshots. Defaults to time.Now.
	Clock func() time.Time
	// Stderr receives logger setup warnings. Defaults to os.Stderr.
	Stderr io.Writer
	// Exclusive holds the snapshot's file lock from Open until Close, so
	// another process cannot load or save the graph in between. Commands
	// that edit the graph set it; long-lived readers such as the watch view
	// must not.
	Exclusive bool
}

// Workspace is a loaded task graph plus the services built around it.
type Workspace struct {
	Config    *config.Config
	Logger    *logging.Logger
	Bus       *event.Bus
	Store     *graphstore.Store
	Scheduler *scheduler.Scheduler
	File      *snapshot.File

	snapshotPath string
	logDir       string
	revision     string
	dirty        atomic.Bool
	release      func() error
}

// Open builds a Workspace from cfg and loads its snapshot. A missing
// snapshot yields an empty graph.
func Open(cfg *config.Config, opts Options) (*Workspace, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	format, err := snapshot.ParseFormat(cfg.Snapshot.Format)
	if err != nil {
		return nil, err
	}

	path := cfg.Snapshot.ResolvePath()
	logDir := cfg.Logging.ResolveDir(path)
	logger := CreateLogger(logDir, cfg, opts.Stderr)
	bus := event.NewBus(logger)

	store := graphstore.New(graphstore.Options{
		Clock:            opts.Clock,
		Logger:           logger,
		Bus:              bus,
		DefaultPageSize:  cfg.Store.DefaultPageSize,
		MaxPageSize:      cfg.Store.MaxPageSize,
		VerifyInvariants: cfg.Store.VerifyInvariants,
	})

	w := &Workspace{
		Config: cfg,
		Logger: logger,
		Bus:    bus,
		Store:  store,
		Scheduler: scheduler.New(store, scheduler.Options{
			CandidateLimit: cfg.Scheduler.CandidateLimit,
			Logger:         logger,
		}),
		File: snapshot.NewFile(path, snapshot.Options{
			Format: format,
			Logger: logger,
			Bus:    bus,
			Clock:  opts.Clock,
		}),
		snapshotPath: path,
		logDir:       logDir,
	}

	if opts.Exclusive {
		release, err := w.File.Lock()
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
		w.release = release
	}

	if err := w.load(); err != nil {
		_ = w.Close()
		return nil, err
	}

	// Any task event after the initial load means there is something to save.
	bus.SubscribeAll(func(e event.Event) {
		if strings.HasPrefix(e.EventType(), "task.") {
			w.dirty.Store(true)
		}
	})
	return w, nil
}

func (w *Workspace) load() error {
	doc, err := w.File.LoadInto(w.Store)
	if err != nil {
		return err
	}
	w.revision = doc.Revision
	w.Logger.WithOperation("load").Debug("workspace opened",
		"path", w.snapshotPath, "revision", doc.Revision, "tasks", w.Store.Len())
	return nil
}

// Reload discards the in-memory graph and reads the snapshot again. On
// failure the previous graph is kept.
func (w *Workspace) Reload() error {
	doc, err := w.File.Read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.Store.Reset()
			w.revision = ""
			w.dirty.Store(false)
			return nil
		}
		return err
	}
	if err := w.Store.Load(doc.Tasks); err != nil {
		return fmt.Errorf("load %s: %w", w.snapshotPath, err)
	}
	w.revision = doc.Revision
	w.dirty.Store(false)
	return nil
}

// Dirty reports whether the graph changed since it was loaded or saved.
func (w *Workspace) Dirty() bool {
	return w.dirty.Load()
}

// Save writes the graph if it changed. It reports whether a write happened.
func (w *Workspace) Save() (bool, error) {
	if !w.dirty.Load() {
		return false, nil
	}
	doc, err := w.File.SaveFrom(w.Store)
	if err != nil {
		w.Logger.WithOperation("save").Error("snapshot write failed", logging.KeyError, err.Error())
		return false, err
	}
	w.revision = doc.Revision
	w.dirty.Store(false)
	return true, nil
}

// Revision returns the revision of the last snapshot read or written.
func (w *Workspace) Revision() string { return w.revision }

// SnapshotPath returns the resolved snapshot path.
func (w *Workspace) SnapshotPath() string { return w.snapshotPath }

// LogDir returns the resolved log directory.
func (w *Workspace) LogDir() string { return w.logDir }

// Close releases the snapshot lock, if held, and the logger.
func (w *Workspace) Close() error {
	var unlockErr error
	if w.release != nil {
		unlockErr = w.release()
		w.release = nil
	}
	if err := w.Logger.Close(); err != nil {
		return err
	}
	return unlockErr
}

// Summary is the state shown by the stats command and the watch view.
type Summary struct {
	Revision string
	Total    int
	Counts   map[task.Status]int
	Next     *task.Task
}

// Summarize counts tasks by status and picks the next task.
func (w *Workspace) Summarize() Summary {
	sum := Summary{
		Revision: w.revision,
		Total:    w.Store.Len(),
		Counts:   w.Store.CountByStatus(),
	}
	if next, ok := w.Scheduler.Next(0); ok {
		sum.Next = &next
	}
	return sum
}

// CreateLogger creates a logger if logging is enabled in config.
// Returns a NopLogger if logging is disabled or if creation fails.
func CreateLogger(dir string, cfg *config.Config, stderr io.Writer) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	rotationConfig := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	}

	logger, err := logging.NewLoggerWithRotation(dir, cfg.Logging.Level, rotationConfig)
	if err != nil {
		// Log creation failure shouldn't prevent the command from running
		fmt.Fprintf(stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}
