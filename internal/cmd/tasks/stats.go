package tasks

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/tui/styles"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

// statsView is the machine-readable result of the stats command.
type statsView struct {
	Revision string              `json:"revision,omitempty" yaml:"revision,omitempty"`
	Total    int                 `json:"total" yaml:"total"`
	Counts   map[task.Status]int `json:"counts" yaml:"counts"`
	Percent  float64             `json:"percent_done" yaml:"percent_done"`
	Next     *task.Task          `json:"next,omitempty" yaml:"next,omitempty"`
}

func newStatsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, output)
			if err != nil {
				return err
			}
			return withWorkspace(cmd, func(w *workspace.Workspace) error {
				sum := w.Summarize()
				view := statsView{
					Revision: sum.Revision,
					Total:    sum.Total,
					Counts:   sum.Counts,
					Percent:  percentDone(sum),
					Next:     sum.Next,
				}
				return p.emit(view, func() { p.stats(view) })
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

// percentDone counts cancelled tasks as finished.
func percentDone(sum workspace.Summary) float64 {
	if sum.Total == 0 {
		return 0
	}
	finished := sum.Counts[task.StatusDone] + sum.Counts[task.StatusCancelled]
	return float64(finished) * 100 / float64(sum.Total)
}

func (p *printer) stats(v statsView) {
	p.printf("%s\n", p.render(styles.Title, "Task Statistics"))
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	for _, st := range task.Statuses() {
		fmt.Fprintf(w, "  %s\t%d\n", p.status(st), v.Counts[st])
	}
	fmt.Fprintf(w, "  %s\t%d\n", "total", v.Total)
	_ = w.Flush()

	p.printf("\nProgress: %.0f%% complete\n", v.Percent)
	if v.Next != nil {
		p.printf("Next:     %s  %s\n", v.Next.ID, v.Next.Name)
	} else {
		p.printf("Next:     -\n")
	}
}
