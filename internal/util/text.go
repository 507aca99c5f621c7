// Package util holds small text helpers shared by the CLI and the TUI.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// Truncate shortens s to at most limit runes, ending in "..." when cut.
// It knows nothing about escape codes; use TruncateWidth for styled text.
func Truncate(s string, limit int) string {
	if limit <= len(ellipsis) {
		return ellipsis
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// TruncateWidth shortens s to limit terminal columns, keeping escape codes
// intact and counting wide characters as two columns.
func TruncateWidth(s string, limit int) string {
	if limit <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= limit {
		return s
	}
	return ansi.Truncate(s, limit, ellipsis)
}
