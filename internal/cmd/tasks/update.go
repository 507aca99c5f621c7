package tasks

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/tui/styles"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

type updateOptions struct {
	name        string
	description string
	status      string
	priority    string
	complexity  string
	tags        []string
	assignee    string
	estimate    float64
	actual      float64
	refs        []string
	deps        []string
	output      string
}

func newUpdateCmd() *cobra.Command {
	opts := &updateOptions{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long: `Change fields of a task. Only the flags given are changed.

List flags (--tags, --refs, --deps) replace the whole list; pass an empty
value to clear it. A status change is propagated to the task's ancestors.

Examples:
  taskgraph update 3 --status in_progress
  taskgraph update 2.1 --priority critical --assignee sam
  taskgraph update 4 --deps 1,2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "New name")
	f.StringVarP(&opts.description, "description", "d", "", "New description")
	f.StringVarP(&opts.status, "status", "s", "", "New status: todo, in_progress, done, blocked, cancelled")
	f.StringVarP(&opts.priority, "priority", "p", "", "New priority: low, medium, high, critical")
	f.StringVar(&opts.complexity, "complexity", "", "New complexity: low, medium, high")
	f.StringSliceVarP(&opts.tags, "tags", "t", nil, "Replace tags (comma-separated)")
	f.StringVarP(&opts.assignee, "assignee", "a", "", "New assignee")
	f.Float64Var(&opts.estimate, "estimate", 0, "Estimated hours")
	f.Float64Var(&opts.actual, "actual", 0, "Actual hours spent")
	f.StringSliceVar(&opts.refs, "refs", nil, "Replace code references (comma-separated)")
	f.StringSliceVar(&opts.deps, "deps", nil, "Replace dependencies (comma-separated)")
	addOutputFlag(cmd, &opts.output)
	return cmd
}

// fields builds the patch from the flags that were given.
func (o *updateOptions) fields(cmd *cobra.Command) (task.Fields, error) {
	var f task.Fields
	changed := cmd.Flags().Changed

	if changed("name") {
		f.Name = &o.name
	}
	if changed("description") {
		f.Description = &o.description
	}
	if changed("status") {
		st, ok := task.ParseStatus(o.status)
		if !ok {
			return f, errors.NewValidationError("unknown status").WithField("status").WithValue(o.status)
		}
		f.Status = &st
	}
	if changed("priority") {
		p, ok := task.ParsePriority(o.priority)
		if !ok {
			return f, errors.NewValidationError("unknown priority").WithField("priority").WithValue(o.priority)
		}
		f.Priority = &p
	}
	if changed("complexity") {
		c, ok := task.ParseComplexity(o.complexity)
		if !ok {
			return f, errors.NewValidationError("unknown complexity").WithField("complexity").WithValue(o.complexity)
		}
		f.Complexity = &c
	}
	if changed("tags") {
		tags := task.NormalizeList(o.tags)
		f.Tags = &tags
	}
	if changed("assignee") {
		f.AssignedTo = &o.assignee
	}
	if changed("estimate") {
		f.EstimatedHours = &o.estimate
	}
	if changed("actual") {
		f.ActualHours = &o.actual
	}
	if changed("refs") {
		refs := task.NormalizeList(o.refs)
		f.CodeReferences = &refs
	}
	return f, nil
}

func runUpdate(cmd *cobra.Command, opts *updateOptions, id string) error {
	p, err := newPrinter(cmd, opts.output)
	if err != nil {
		return err
	}
	fields, err := opts.fields(cmd)
	if err != nil {
		return err
	}
	setDeps := cmd.Flags().Changed("deps")
	if fields.IsEmpty() && !setDeps {
		return errors.NewValidationError("nothing to update: pass at least one field flag")
	}

	return withWorkspace(cmd, func(w *workspace.Workspace) error {
		var updated task.Task
		var err error
		if setDeps {
			if updated, err = w.Store.SetDependencies(id, task.NormalizeSet(opts.deps)); err != nil {
				return err
			}
		}
		if !fields.IsEmpty() {
			if updated, err = w.Store.UpdateFields(id, fields); err != nil {
				return err
			}
		}
		return p.emit(updated, func() {
			p.printf("Updated task %s\n", updated.ID)
			p.taskDetail(updated)
		})
	})
}

func newDoneCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "done <id>...",
		Short: "Mark tasks as done",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, output)
			if err != nil {
				return err
			}
			done := task.StatusDone
			return withWorkspace(cmd, func(w *workspace.Workspace) error {
				updated := make([]task.Task, 0, len(args))
				for _, id := range args {
					t, err := w.Store.UpdateFields(id, task.Fields{Status: &done})
					if err != nil {
						return err
					}
					updated = append(updated, t)
				}
				return p.emit(updated, func() {
					for _, t := range updated {
						p.printf("%s %s  %s\n", p.render(styles.SuccessMsg, "✓"), t.ID, t.Name)
					}
				})
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newRefsCmd() *cobra.Command {
	var output string
	var appendRefs bool
	cmd := &cobra.Command{
		Use:   "refs <id> <path>...",
		Short: "Set the code references of a task",
		Long: `Set the files or symbols a task touches.

By default the given references replace the existing ones; use --append
to add to them.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, output)
			if err != nil {
				return err
			}
			id, refs := args[0], args[1:]
			return withWorkspace(cmd, func(w *workspace.Workspace) error {
				if appendRefs {
					current, err := w.Store.Get(id)
					if err != nil {
						return err
					}
					refs = append(current.CodeReferences, refs...)
				}
				refs = task.NormalizeList(refs)
				t, err := w.Store.UpdateFields(id, task.Fields{CodeReferences: &refs})
				if err != nil {
					return err
				}
				return p.emit(t, func() {
					p.printf("Task %s references: %s\n", t.ID, joinOrDash(t.CodeReferences))
				})
			})
		},
	}
	cmd.Flags().BoolVar(&appendRefs, "append", false, "Add to the existing references instead of replacing them")
	addOutputFlag(cmd, &output)
	return cmd
}
