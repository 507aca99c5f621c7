// Package styles holds the lipgloss styles shared by the terminal views and
// the styled CLI output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/taskgraph/internal/task"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA")
	OrangeColor    = lipgloss.Color("#FB923C")

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Status colors
	StatusTodo       = lipgloss.Color("#9CA3AF") // Gray
	StatusInProgress = lipgloss.Color("#10B981") // Green
	StatusDone       = lipgloss.Color("#A78BFA") // Purple
	StatusBlocked    = lipgloss.Color("#F59E0B") // Amber
	StatusCancelled  = lipgloss.Color("#6B7280") // Dim gray

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1).
		PaddingBottom(1)

	// Boxed panel used for the next-task card
	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// Table header for list output
	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Underline(true)

	StatusBadge = lipgloss.NewStyle().
			Padding(0, 1).
			MarginRight(1)

	// Error message
	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// Success message
	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	// Warning message
	WarningMsg = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// Dropdown styles for select-type config values
	DropdownItem = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1)

	DropdownItemSelected = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(PrimaryColor).
				Bold(true).
				Padding(0, 1)
)

// StatusColor returns the color for a given status
func StatusColor(status task.Status) lipgloss.Color {
	switch status {
	case task.StatusTodo:
		return StatusTodo
	case task.StatusInProgress:
		return StatusInProgress
	case task.StatusDone:
		return StatusDone
	case task.StatusBlocked:
		return StatusBlocked
	case task.StatusCancelled:
		return StatusCancelled
	default:
		return MutedColor
	}
}

// StatusIcon returns an icon for a given status
func StatusIcon(status task.Status) string {
	switch status {
	case task.StatusTodo:
		return "○"
	case task.StatusInProgress:
		return "●"
	case task.StatusDone:
		return "✓"
	case task.StatusBlocked:
		return "⏸"
	case task.StatusCancelled:
		return "✗"
	default:
		return "?"
	}
}

// PriorityColor returns the color for a given priority
func PriorityColor(p task.Priority) lipgloss.Color {
	switch p {
	case task.PriorityCritical:
		return ErrorColor
	case task.PriorityHigh:
		return OrangeColor
	case task.PriorityMedium:
		return BlueColor
	default:
		return MutedColor
	}
}

// RenderStatus renders an icon and status name in the status color.
func RenderStatus(status task.Status) string {
	return lipgloss.NewStyle().
		Foreground(StatusColor(status)).
		Render(StatusIcon(status) + " " + string(status))
}

// RenderPriority renders a priority name in its color.
func RenderPriority(p task.Priority) string {
	return lipgloss.NewStyle().Foreground(PriorityColor(p)).Render(string(p))
}
