package tasks

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

func newShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd, output)
			if err != nil {
				return err
			}
			return withWorkspace(cmd, func(w *workspace.Workspace) error {
				t, err := w.Store.Get(args[0])
				if err != nil {
					return err
				}
				return p.emit(t, func() { p.taskDetail(t) })
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}
