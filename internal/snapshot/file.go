package snapshot

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/event"
	"github.com/Iron-Ham/taskgraph/internal/graphstore"
	"github.com/Iron-Ham/taskgraph/internal/logging"
	"github.com/Iron-Ham/taskgraph/internal/task"
)

// Options configures a File.
type Options struct {
	// Format of the document; FormatAuto (the default) picks by extension.
	Format Format
	Logger *logging.Logger
	// Bus receives a SnapshotSavedEvent after every write. May be nil.
	Bus   *event.Bus
	Clock func() time.Time
}

// File is a snapshot document at a fixed path.
type File struct {
	path   string
	format Format
	logger *logging.Logger
	bus    *event.Bus
	clock  func() time.Time

	mu   sync.Mutex
	held *fileLock
}

// NewFile returns a File for path. Nothing is read or created until the
// first Read or Write.
func NewFile(path string, opts Options) *File {
	f := &File{
		path:   path,
		format: opts.Format.Resolve(path),
		logger: opts.Logger,
		bus:    opts.Bus,
		clock:  opts.Clock,
	}
	if f.logger == nil {
		f.logger = logging.NopLogger()
	}
	if f.clock == nil {
		f.clock = time.Now
	}
	return f
}

// Path returns the snapshot path.
func (f *File) Path() string { return f.path }

// Format returns the resolved document format.
func (f *File) Format() Format { return f.format }

// Exists reports whether the snapshot file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Lock takes the snapshot's file lock and keeps it until the returned
// release function is called. While it is held, Read and Write on f do not
// lock again, so a load, edit and save sequence runs without another process
// writing in between. Lock fails if f already holds the lock.
func (f *File) Lock() (release func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held != nil {
		return nil, fmt.Errorf("snapshot %s is already locked", f.path)
	}
	fl := newFileLock(f.path)
	if err := fl.lock(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	f.held = fl

	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.held != fl {
			return nil
		}
		f.held = nil
		return fl.unlock()
	}, nil
}

// Locked reports whether f currently holds the lock taken by Lock.
func (f *File) Locked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held != nil
}

// withLock runs fn under the file lock, taking it only if Lock is not
// already holding it.
func (f *File) withLock(fn func() error) error {
	if f.Locked() {
		return fn()
	}
	fl := newFileLock(f.path)
	if err := fl.lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.unlock() }()
	return fn()
}

// Read decodes the snapshot under the file lock. A missing file yields an
// error matching fs.ErrNotExist.
func (f *File) Read() (*Document, error) {
	if _, err := os.Stat(f.path); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var data []byte
	err := f.withLock(func() error {
		var err error
		data, err = os.ReadFile(f.path)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	doc, err := Decode(data, f.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return doc, nil
}

// Write stores tasks as a new revision. The write is atomic: the document
// goes to a temporary file that is renamed into place while the file lock
// is held.
func (f *File) Write(tasks []task.Task) (*Document, error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	doc := &Document{
		Version:  FormatVersion,
		Revision: uuid.NewString(),
		SavedAt:  f.clock().UTC(),
		Tasks:    tasks,
	}
	if doc.Tasks == nil {
		doc.Tasks = []task.Task{}
	}
	data, err := Encode(doc, f.format)
	if err != nil {
		return nil, err
	}

	err = f.withLock(func() error {
		tmp := f.path + ".tmp"
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			return fmt.Errorf("write temp file: %w", err)
		}
		if err := os.Rename(tmp, f.path); err != nil {
			_ = os.Remove(tmp) // best-effort cleanup
			return fmt.Errorf("rename temp file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.logger.WithOperation("save").Info("snapshot written",
		"path", f.path, "revision", doc.Revision, "tasks", len(doc.Tasks))
	if f.bus != nil {
		f.bus.Publish(event.NewSnapshotSavedEvent(f.path, doc.Revision, len(doc.Tasks), doc.SavedAt))
	}
	return doc, nil
}

// LoadInto replaces the contents of s with the snapshot. A missing file is
// treated as an empty graph and leaves s untouched.
func (f *File) LoadInto(s *graphstore.Store) (*Document, error) {
	doc, err := f.Read()
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.WithOperation("load").Debug("no snapshot yet", "path", f.path)
		return &Document{Version: FormatVersion, Tasks: []task.Task{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.Load(doc.Tasks); err != nil {
		return nil, fmt.Errorf("load %s: %w", f.path, err)
	}
	return doc, nil
}

// SaveFrom writes the current contents of s.
func (f *File) SaveFrom(s *graphstore.Store) (*Document, error) {
	return f.Write(s.Snapshot())
}
