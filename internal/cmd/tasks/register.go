// Package tasks provides the CLI commands that read and change the task
// graph: add, show, update, done, refs, deps, expand, list, next and stats.
package tasks

import "github.com/spf13/cobra"

// Register adds all task commands to the given parent command.
// This is the main entry point for integrating the tasks subpackage with
// the root command.
func Register(parent *cobra.Command) {
	parent.AddCommand(
		newAddCmd(),
		newShowCmd(),
		newUpdateCmd(),
		newDoneCmd(),
		newRefsCmd(),
		newDepsCmd(),
		newExpandCmd(),
		newListCmd(),
		newNextCmd(),
		newStatsCmd(),
	)
}
