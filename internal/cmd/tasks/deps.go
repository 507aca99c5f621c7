package tasks

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

type depsOptions struct {
	add    []string
	remove []string
	clear  bool
	output string
}

func newDepsCmd() *cobra.Command {
	opts := &depsOptions{}
	cmd := &cobra.Command{
		Use:   "deps <id> [dependency...]",
		Short: "Show or change what a task depends on",
		Long: `Show or change the dependencies of a task.

With only an id, prints the task's dependencies and the tasks it blocks.
With dependency ids, replaces the whole dependency set. --add and --remove
edit the current set instead. A change that would close a cycle is
rejected and the error names the cycle.

Examples:
  taskgraph deps 4
  taskgraph deps 4 1 2
  taskgraph deps 4 --add 3 --remove 1
  taskgraph deps 4 --clear`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, opts, args[0], args[1:])
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.add, "add", nil, "Dependencies to add (comma-separated)")
	f.StringSliceVar(&opts.remove, "remove", nil, "Dependencies to remove (comma-separated)")
	f.BoolVar(&opts.clear, "clear", false, "Remove every dependency")
	addOutputFlag(cmd, &opts.output)
	return cmd
}

func runDeps(cmd *cobra.Command, opts *depsOptions, id string, replace []string) error {
	p, err := newPrinter(cmd, opts.output)
	if err != nil {
		return err
	}
	edit := len(opts.add) > 0 || len(opts.remove) > 0

	return withWorkspace(cmd, func(w *workspace.Workspace) error {
		t, err := w.Store.Get(id)
		if err != nil {
			return err
		}

		var proposed []string
		switch {
		case opts.clear:
			proposed = []string{}
		case len(replace) > 0:
			proposed = replace
		case edit:
			proposed = append(slices.Clone(t.Dependencies), opts.add...)
			proposed = slices.DeleteFunc(proposed, func(d string) bool {
				return slices.Contains(opts.remove, d)
			})
		}

		if proposed != nil {
			if t, err = w.Store.SetDependencies(id, task.NormalizeSet(proposed)); err != nil {
				return err
			}
		}

		view := struct {
			ID           string   `json:"id" yaml:"id"`
			Dependencies []string `json:"dependencies" yaml:"dependencies"`
			BlockedBy    []string `json:"blocked_by" yaml:"blocked_by"`
		}{t.ID, t.Dependencies, t.BlockedBy}
		return p.emit(view, func() {
			p.printf("%s depends on: %s\n", t.ID, joinOrDash(t.Dependencies))
			p.printf("%s blocks:     %s\n", t.ID, joinOrDash(t.BlockedBy))
		})
	})
}
