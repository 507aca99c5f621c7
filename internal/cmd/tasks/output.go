package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/taskgraph/internal/errors"
	"github.com/Iron-Ham/taskgraph/internal/task"
	"github.com/Iron-Ham/taskgraph/internal/tui/styles"
	"github.com/Iron-Ham/taskgraph/internal/util"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", outputText, "Output format: text, json or yaml")
}

// printer writes command results in the requested format. Text output is
// styled only when writing to a terminal.
type printer struct {
	out    io.Writer
	format string
	styled bool
}

func newPrinter(cmd *cobra.Command, format string) (*printer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "", outputText:
		format = outputText
	case outputJSON, outputYAML:
	case "yml":
		format = outputYAML
	default:
		return nil, errors.NewValidationError("unknown output format").WithField("output").WithValue(format)
	}
	out := cmd.OutOrStdout()
	return &printer{out: out, format: format, styled: isTerminal(out)}, nil
}

// isTerminal reports whether w is a terminal that accepts color.
func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// emit writes v as JSON or YAML, or calls text for the text format.
func (p *printer) emit(v any, text func()) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text()
		return nil
	}
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *printer) status(st task.Status) string {
	if !p.styled {
		return string(st)
	}
	return styles.RenderStatus(st)
}

func (p *printer) priority(pr task.Priority) string {
	if !p.styled {
		return string(pr)
	}
	return styles.RenderPriority(pr)
}

// taskDetail prints every field of t.
func (p *printer) taskDetail(t task.Task) {
	p.printf("%s  %s\n", p.render(styles.Primary.Bold(true), t.ID), p.render(styles.Text.Bold(true), t.Name))
	if t.Description != "" {
		p.printf("  %s\n", t.Description)
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s\t%s\n", p.render(styles.Muted, label+":"), value)
	}
	row("status", p.status(t.Status))
	row("priority", p.priority(t.Priority))
	row("complexity", string(t.Complexity))
	row("parent", orDash(t.ParentTaskID))
	row("depends on", joinOrDash(t.Dependencies))
	row("blocked by", joinOrDash(t.BlockedBy))
	row("subtasks", joinOrDash(t.Subtasks))
	row("tags", joinOrDash(t.Tags))
	row("assigned to", orDash(t.AssignedTo))
	row("estimate", hours(t.EstimatedHours))
	row("actual", hours(t.ActualHours))
	row("code refs", joinOrDash(t.CodeReferences))
	row("created", t.CreatedAt.Format(time.RFC3339))
	row("updated", t.UpdatedAt.Format(time.RFC3339))
	if t.CompletedAt != nil {
		row("completed", t.CompletedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}

// maxNameWidth caps the NAME column of task tables, in runes.
const maxNameWidth = 60

// taskTable prints one row per task.
func (p *printer) taskTable(tasks []task.Task) {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, p.render(styles.TableHeader, "ID")+"\t"+
		p.render(styles.TableHeader, "STATUS")+"\t"+
		p.render(styles.TableHeader, "PRIORITY")+"\t"+
		p.render(styles.TableHeader, "DEPS")+"\t"+
		p.render(styles.TableHeader, "NAME"))
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, p.status(t.Status), p.priority(t.Priority), joinOrDash(t.Dependencies), util.Truncate(t.Name, maxNameWidth))
	}
	_ = w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func hours(h *float64) string {
	if h == nil {
		return "-"
	}
	return strconv.FormatFloat(*h, 'f', -1, 64) + "h"
}
