package tasks

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskgraph/internal/graphstore"
	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/tui/styles"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

type listOptions struct {
	status   string
	priority string
	tag      string
	tagGlob  string
	assignee string
	parent   string
	topLevel bool
	page     int
	pageSize int
	output   string
}

// listPage is the machine-readable result of the list command.
type listPage struct {
	Tasks    []task.Task `json:"tasks" yaml:"tasks"`
	Total    int         `json:"total" yaml:"total"`
	Page     int         `json:"page" yaml:"page"`
	PageSize int         `json:"page_size" yaml:"page_size"`
	Pages    int         `json:"pages" yaml:"pages"`
}

func newListCmd() *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks in id order, one page at a time.

Filters combine: a task is listed only when it matches all of them.

Examples:
  taskgraph list --status todo --priority high
  taskgraph list --tag-glob "api/*" --page 2
  taskgraph list --parent 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.status, "status", "s", "", "Only tasks with this status")
	f.StringVarP(&opts.priority, "priority", "p", "", "Only tasks with this priority")
	f.StringVarP(&opts.tag, "tag", "t", "", "Only tasks with this tag")
	f.StringVar(&opts.tagGlob, "tag-glob", "", "Only tasks with a tag matching this glob")
	f.StringVarP(&opts.assignee, "assignee", "a", "", "Only tasks assigned to this person")
	f.StringVar(&opts.parent, "parent", "", "Only direct subtasks of this task")
	f.BoolVar(&opts.topLevel, "top-level", false, "Only tasks without a parent")
	f.IntVar(&opts.page, "page", 1, "Page number, starting at 1")
	f.IntVar(&opts.pageSize, "page-size", 0, "Tasks per page (default from store.default_page_size)")
	addOutputFlag(cmd, &opts.output)
	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	p, err := newPrinter(cmd, opts.output)
	if err != nil {
		return err
	}
	filter := graphstore.Filter{
		Tag:          opts.tag,
		TagGlob:      opts.tagGlob,
		AssignedTo:   opts.assignee,
		ParentTaskID: opts.parent,
		TopLevelOnly: opts.topLevel,
	}
	if filter.Status, err = parseStatus(opts.status); err != nil {
		return err
	}
	if filter.Priority, err = parsePriority(opts.priority); err != nil {
		return err
	}

	return withWorkspace(cmd, func(w *workspace.Workspace) error {
		items, total, err := w.Store.ListByFilter(filter, opts.page, opts.pageSize)
		if err != nil {
			return err
		}
		size := effectivePageSize(opts.pageSize, w.Config.Store.DefaultPageSize, w.Config.Store.MaxPageSize)
		result := listPage{
			Tasks:    items,
			Total:    total,
			Page:     opts.page,
			PageSize: size,
			Pages:    pageCount(total, size),
		}
		return p.emit(result, func() {
			if total == 0 {
				p.printf("No tasks found.\n")
				return
			}
			p.taskTable(items)
			p.printf("\n%s\n", p.render(styles.Muted,
				formatPageFooter(result.Page, result.Pages, result.Total)))
		})
	})
}

// effectivePageSize mirrors the store's handling of the requested size.
func effectivePageSize(requested, def, limit int) int {
	switch {
	case requested <= 0:
		return def
	case requested > limit:
		return limit
	default:
		return requested
	}
}

func pageCount(total, size int) int {
	if total == 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func formatPageFooter(page, pages, total int) string {
	noun := "tasks"
	if total == 1 {
		noun = "task"
	}
	return fmt.Sprintf("page %d of %d (%d %s)", page, pages, total, noun)
}
