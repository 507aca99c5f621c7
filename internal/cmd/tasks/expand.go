package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/workspace"
)

type expandOptions struct {
	file     string
	children []string
	output   string
}

func newExpandCmd() *cobra.Command {
	opts := &expandOptions{}
	cmd := &cobra.Command{
		Use:   "expand <parent-id>",
		Short: "Break a task into subtasks",
		Long: `Break a task into subtasks.

Children are read from a YAML or JSON file (a list of tasks, "-" for stdin)
or given by name with repeated --child flags. Children get ids of the form
<parent>.<n>. A child may carry a "ref" and siblings may depend on that
ref; it is rewritten to the assigned id.

Example file:
  - ref: a
    name: Write migration
  - ref: b
    name: Backfill data
    dependencies: [a]

Examples:
  taskgraph expand 3 --file children.yaml
  taskgraph expand 3 --child "Write tests" --child "Update docs"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "YAML or JSON file with the children (- for stdin)")
	f.StringArrayVar(&opts.children, "child", nil, "Child name (repeatable)")
	addOutputFlag(cmd, &opts.output)
	return cmd
}

func runExpand(cmd *cobra.Command, opts *expandOptions, parentID string) error {
	p, err := newPrinter(cmd, opts.output)
	if err != nil {
		return err
	}

	var drafts []task.ChildDraft
	if opts.file != "" {
		if drafts, err = readChildDrafts(cmd.InOrStdin(), opts.file); err != nil {
			return err
		}
	}
	for _, name := range opts.children {
		drafts = append(drafts, task.ChildDraft{Draft: task.Draft{Name: name}})
	}
	if len(drafts) == 0 {
		return errors.NewValidationError("no children given: use --file or --child")
	}

	return withWorkspace(cmd, func(w *workspace.Workspace) error {
		created, err := w.Store.Expand(parentID, drafts)
		if err != nil {
			return err
		}
		return p.emit(created, func() {
			p.printf("Expanded %s into %d subtasks\n", parentID, len(created))
			p.taskTable(created)
		})
	})
}

// readChildDrafts decodes a list of child drafts. JSON is used for .json
// files; anything else, stdin included, is parsed as YAML, which also
// accepts JSON.
func readChildDrafts(stdin io.Reader, path string) ([]task.ChildDraft, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read children: %w", err)
	}

	var drafts []task.ChildDraft
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &drafts)
	} else {
		err = yaml.Unmarshal(data, &drafts)
	}
	if err != nil {
		return nil, errors.NewValidationError("invalid children file: " + err.Error()).WithField("file").WithValue(path)
	}
	return drafts, nil
}
