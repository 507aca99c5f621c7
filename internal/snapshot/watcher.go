package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/taskgraph/internal/logging"
)

// DefaultDebounce is the quiet period used when NewWatcher gets zero.
const DefaultDebounce = 150 * time.Millisecond

// Watcher signals when the snapshot file is written or replaced.
//
// It watches the parent directory rather than the file itself, because
// atomic saves replace the file's inode. Bursts of events are collapsed
// into one signal once the file has been quiet for the debounce period.
type Watcher struct {
	path     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	logger   *logging.Logger

	changes   chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWatcher creates a Watcher for the snapshot at path. The parent
// directory is created if needed so a workspace can be watched before its
// first save.
func NewWatcher(path string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		fsw:      fsw,
		logger:   logger.WithOperation("watch"),
		changes:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}, nil
}

// Changes returns a channel that receives one value per debounced burst of
// changes. A signal not yet consumed absorbs later ones.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins watching in a background goroutine. It returns immediately;
// watching ends when ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
}

func (w *Watcher) loop(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.logger.Debug("snapshot changed", "path", w.path)
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", logging.KeyError, err.Error())
		}
	}
}

// Close stops the watcher and releases its resources. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stop)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
