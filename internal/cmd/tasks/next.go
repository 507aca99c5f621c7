package tasks

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskgraph/internal/snapshot"
	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/tui/watch"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

type nextOptions struct {
	limit  int
	watch  bool
	output string
}

func newNextCmd() *cobra.Command {
	opts := &nextOptions{}
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the task to work on next",
		Long: `Show the single task to work on next.

Work already in progress whose dependencies are done is preferred. Otherwise
the highest-priority todo task with all dependencies done is chosen, with
ties broken by fewer dependencies and then by id.

With --watch, opens a live view that refreshes whenever the snapshot file
changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch {
				return runNextWatch(cmd)
			}
			return runNext(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.limit, "limit", 0, "Size of the ranked shortlist (default from scheduler.candidate_limit)")
	f.BoolVarP(&opts.watch, "watch", "w", false, "Keep a live view open and refresh on snapshot changes")
	addOutputFlag(cmd, &opts.output)
	return cmd
}

func runNext(cmd *cobra.Command, opts *nextOptions) error {
	p, err := newPrinter(cmd, opts.output)
	if err != nil {
		return err
	}
	return withWorkspace(cmd, func(w *workspace.Workspace) error {
		next, ok := w.Scheduler.Next(opts.limit)
		var result *task.Task
		if ok {
			result = &next
		}
		return p.emit(result, func() {
			if !ok {
				p.printf("Nothing to work on: no task is ready.\n")
				return
			}
			p.taskDetail(next)
		})
	})
}

// runNextWatch only reads, so it does not hold the snapshot lock while the
// view is open; other commands keep writing and the view follows.
func runNextWatch(cmd *cobra.Command) error {
	w, err := openWorkspace(cmd, false)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	watcher, err := snapshot.NewWatcher(w.SnapshotPath(), w.Config.TUI.Debounce(), w.Logger)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.SnapshotPath(), err)
	}
	defer func() { _ = watcher.Close() }()

	ctx := cmd.Context()
	watcher.Start(ctx)

	first := true
	reload := func() (workspace.Summary, error) {
		// The workspace was just opened; only later calls re-read the file.
		if first {
			first = false
			return w.Summarize(), nil
		}
		if err := w.Reload(); err != nil {
			return workspace.Summary{}, err
		}
		return w.Summarize(), nil
	}
	return watch.Run(ctx, reload, watcher.Changes())
}
