package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Design schema", 20, "Design schema"},
		{"Design schema", 13, "Design schema"},
		{"Design schema", 9, "Design..."},
		{"Design schema", 3, "..."},
		{"Design schema", 0, "..."},
		{"Ünïcödé names", 7, "Ünïc..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	if got := TruncateWidth("short", 10); got != "short" {
		t.Errorf("TruncateWidth() = %q, want unchanged", got)
	}
	if got := TruncateWidth("anything", 2); got != "..." {
		t.Errorf("TruncateWidth() = %q, want ellipsis", got)
	}

	styled := lipgloss.NewStyle().Bold(true).Render("a fairly long task name")
	got := TruncateWidth(styled, 10)
	if w := lipgloss.Width(got); w > 10 {
		t.Errorf("width = %d, want <= 10", w)
	}

	wide := "任务名称很长很长"
	if w := lipgloss.Width(TruncateWidth(wide, 9)); w > 9 {
		t.Errorf("wide width = %d, want <= 9", w)
	}
}
