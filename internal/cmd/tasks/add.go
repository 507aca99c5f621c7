package tasks

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

type addOptions struct {
	id          string
	description string
	status      string
	priority    string
	complexity  string
	deps        []string
	tags        []string
	assignee    string
	estimate    float64
	refs        []string
	output      string
}

func newAddCmd() *cobra.Command {
	opts := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a top-level task",
		Long: `Create a top-level task.

The id is the next free integer unless --id is given. Dependencies must
name existing tasks.

Examples:
  taskgraph add "Design schema" --priority high --tags db
  taskgraph add "Build API" --deps 1 --estimate 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.id, "id", "", "Explicit top-level id (default: next free integer)")
	f.StringVarP(&opts.description, "description", "d", "", "Task description")
	f.StringVar(&opts.status, "status", "", "Initial status (default: todo)")
	f.StringVarP(&opts.priority, "priority", "p", "", "Priority: low, medium, high, critical (default: medium)")
	f.StringVar(&opts.complexity, "complexity", "", "Complexity: low, medium, high (default: medium)")
	f.StringSliceVar(&opts.deps, "deps", nil, "Ids this task depends on (comma-separated)")
	f.StringSliceVarP(&opts.tags, "tags", "t", nil, "Tags (comma-separated)")
	f.StringVarP(&opts.assignee, "assignee", "a", "", "Assignee")
	f.Float64Var(&opts.estimate, "estimate", 0, "Estimated hours")
	f.StringSliceVar(&opts.refs, "refs", nil, "Code references (comma-separated)")
	addOutputFlag(cmd, &opts.output)
	return cmd
}

func runAdd(cmd *cobra.Command, opts *addOptions, name string) error {
	p, err := newPrinter(cmd, opts.output)
	if err != nil {
		return err
	}

	d := task.Draft{
		ID:             opts.id,
		Name:           name,
		Description:    opts.description,
		Dependencies:   opts.deps,
		Tags:           opts.tags,
		AssignedTo:     opts.assignee,
		CodeReferences: opts.refs,
	}
	if d.Status, err = parseStatus(opts.status); err != nil {
		return err
	}
	if d.Priority, err = parsePriority(opts.priority); err != nil {
		return err
	}
	if d.Complexity, err = parseComplexity(opts.complexity); err != nil {
		return err
	}
	if cmd.Flags().Changed("estimate") {
		d.EstimatedHours = &opts.estimate
	}

	return withWorkspace(cmd, func(w *workspace.Workspace) error {
		created, err := w.Store.Create(d)
		if err != nil {
			return err
		}
		return p.emit(created, func() {
			p.printf("Created task %s\n", created.ID)
			p.taskDetail(created)
		})
	})
}

// parseStatus accepts an empty string as "not given".
func parseStatus(s string) (task.Status, error) {
	if s == "" {
		return "", nil
	}
	st, ok := task.ParseStatus(s)
	if !ok {
		return "", errors.NewValidationError("unknown status").WithField("status").WithValue(s)
	}
	return st, nil
}

func parsePriority(s string) (task.Priority, error) {
	if s == "" {
		return "", nil
	}
	p, ok := task.ParsePriority(s)
	if !ok {
		return "", errors.NewValidationError("unknown priority").WithField("priority").WithValue(s)
	}
	return p, nil
}

func parseComplexity(s string) (task.Complexity, error) {
	if s == "" {
		return "", nil
	}
	c, ok := task.ParseComplexity(s)
	if !ok {
		return "", errors.NewValidationError("unknown complexity").WithField("complexity").WithValue(s)
	}
	return c, nil
}
