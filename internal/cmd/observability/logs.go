package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	appconfig "github.com/Iron-Ham/taskgraph/internal/config"
	"github.com/Iron-Ham/taskgraph/internal/logging"
	"github.com/Iron-Ham/taskgraph/internal/tui/styles"
)

type logsOptions struct {
	tail      int
	level     string
	task      string
	operation string
	since     string
	grep      string
	dir       string
	json      bool
}

func newLogsCmd() *cobra.Command {
	opts := &logsOptions{}
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the operation log",
		Long: `View and filter the taskgraph log.

Every change to the graph is logged with the task it touched and the
operation that made it. By default the last 50 entries are shown.

Examples:
  # Show the last 50 entries
  taskgraph logs

  # Everything about task 3 and its subtasks
  taskgraph logs --task 3 -n 0

  # Rejected changes from the last hour
  taskgraph logs --level warn --since 1h

  # Search messages and attributes
  taskgraph logs --grep "circular|not found"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.tail, "tail", "n", 50, "Number of entries to show (0 for all)")
	f.StringVar(&opts.level, "level", "", "Filter by minimum level (debug/info/warn/error)")
	f.StringVar(&opts.task, "task", "", "Only entries about this task or its subtasks")
	f.StringVar(&opts.operation, "operation", "", "Only entries from this operation (e.g. create, update_fields, expand)")
	f.StringVar(&opts.since, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	f.StringVar(&opts.grep, "grep", "", "Filter entries matching pattern (regex)")
	f.StringVar(&opts.dir, "dir", "", "Log directory (default from logging.dir)")
	f.BoolVar(&opts.json, "json", false, "Print entries as JSON lines")
	return cmd
}

func runLogs(cmd *cobra.Command, opts *logsOptions) error {
	filter := logging.EntryFilter{
		TaskID:    opts.task,
		Operation: opts.operation,
	}

	if opts.level != "" {
		level := strings.ToUpper(opts.level)
		if !slices.Contains(logging.ValidLevels(), level) {
			return fmt.Errorf("invalid level %q: use debug, info, warn or error", opts.level)
		}
		filter.MinLevel = level
	}

	if opts.since != "" {
		d, err := time.ParseDuration(opts.since)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", opts.since, err)
		}
		filter.Since = time.Now().Add(-d)
	}

	var grep *regexp.Regexp
	if opts.grep != "" {
		var err error
		if grep, err = regexp.Compile(opts.grep); err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
	}

	dir := opts.dir
	if dir == "" {
		cfg, err := appconfig.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		dir = cfg.Logging.ResolveDir(cfg.Snapshot.ResolvePath())
	}

	entries, err := logging.ReadEntries(dir)
	if err != nil {
		return err
	}
	entries = logging.FilterEntries(entries, filter)
	if grep != nil {
		entries = slices.DeleteFunc(entries, func(e logging.Entry) bool {
			return !grep.MatchString(logging.FormatEntry(e))
		})
	}
	if opts.tail > 0 && len(entries) > opts.tail {
		entries = entries[len(entries)-opts.tail:]
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	styled := isTerminal(out)
	for _, e := range entries {
		line := logging.FormatEntry(e)
		if styled {
			line = levelStyle(e.Level).Render(line)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func levelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return styles.Muted
	case logging.LevelWarn:
		return styles.Warning
	case logging.LevelError:
		return styles.Error
	default:
		return styles.Text
	}
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
