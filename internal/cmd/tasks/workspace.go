package tasks

import (
	"fmt"

	"github.com/spf13/cobra"

	appconfig "github.com/Iron-Ham/taskgraph/internal/config"
	"github.com/Iron-Ham/taskgraph/internal/logging"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

// openWorkspace loads the configuration and the snapshot it points at.
// An exclusive workspace holds the snapshot lock until it is closed.
func openWorkspace(cmd *cobra.Command, exclusive bool) (*workspace.Workspace, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return workspace.Open(cfg, workspace.Options{Stderr: cmd.ErrOrStderr(), Exclusive: exclusive})
}

// withWorkspace runs fn against an exclusive workspace and saves the
// snapshot if fn succeeded and changed the graph. Concurrent invocations
// queue on the snapshot lock instead of overwriting each other's changes.
func withWorkspace(cmd *cobra.Command, fn func(w *workspace.Workspace) error) error {
	w, err := openWorkspace(cmd, true)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	log := w.Logger.WithOperation("cli").With("command", cmd.Name())
	if err := fn(w); err != nil {
		log.Debug("command failed", logging.KeyError, err.Error())
		return err
	}
	if _, err := w.Save(); err != nil {
		return fmt.Errorf("failed to save %s: %w", w.SnapshotPath(), err)
	}
	return nil
}
