package styles

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/taskgraph/internal/task"
)

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status   task.Status
		expected string // Expected color hex value
	}{
		{task.StatusTodo, "#9CA3AF"},
		{task.StatusInProgress, "#10B981"},
		{task.StatusDone, "#A78BFA"},
		{task.StatusBlocked, "#F59E0B"},
		{task.StatusCancelled, "#6B7280"},
		{task.Status("unknown"), "#9CA3AF"}, // Should fall back to MutedColor
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := StatusColor(tt.status)
			if string(got) != tt.expected {
				t.Errorf("StatusColor(%q) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status   task.Status
		expected string
	}{
		{task.StatusTodo, "○"},
		{task.StatusInProgress, "●"},
		{task.StatusDone, "✓"},
		{task.StatusBlocked, "⏸"},
		{task.StatusCancelled, "✗"},
		{task.Status("unknown"), "?"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := StatusIcon(tt.status); got != tt.expected {
				t.Errorf("StatusIcon(%q) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestPriorityColor(t *testing.T) {
	if PriorityColor(task.PriorityCritical) != ErrorColor {
		t.Error("critical should use the error color")
	}
	if PriorityColor(task.PriorityLow) != MutedColor {
		t.Error("low should be muted")
	}
	if PriorityColor(task.PriorityHigh) == PriorityColor(task.PriorityMedium) {
		t.Error("high and medium should be distinguishable")
	}
}

func TestRenderStatus(t *testing.T) {
	got := RenderStatus(task.StatusDone)
	if !strings.Contains(got, "✓ done") {
		t.Errorf("RenderStatus(done) = %q, should contain icon and name", got)
	}
	if !strings.Contains(RenderPriority(task.PriorityHigh), "high") {
		t.Error("RenderPriority(high) should contain the priority name")
	}
}
