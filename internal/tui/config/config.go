// Package config implements the interactive editor behind `taskgraph config`.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/taskgraph/internal/config"
	"github.com/Iron-Ham/taskgraph/internal/tui/styles"
)

// ConfigItem represents a single configuration item
type ConfigItem struct {
	Key         string
	Label       string
	Description string
	Type        string   // "string", "bool", "int", "select"
	Options     []string // For select type
}

// Category represents a group of config items
type Category struct {
	Name  string
	Items []ConfigItem
}

// selectOptions lists the keys edited by picking from a fixed set.
var selectOptions = map[string][]string{
	"snapshot.format": {"auto", "json", "yaml"},
	"logging.level":   config.ValidLogLevels(),
}

// Model is the Bubbletea model for the interactive config UI
type Model struct {
	categories     []Category
	categoryIndex  int
	itemIndex      int
	width          int
	height         int
	editing        bool
	textInput      textinput.Model
	selectIndex    int // For select-type options
	errorMsg       string
	infoMsg        string
	quitting       bool
	configModified bool
	configFile     string
}

// New creates a new config model that saves to the user config file.
func New() Model {
	return NewWithFile(config.ConfigFile())
}

// NewWithFile creates a config model that saves to path.
func NewWithFile(path string) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		categories: buildCategories(config.Keys()),
		textInput:  ti,
		configFile: path,
	}
}

// buildCategories groups keys by their section prefix, keeping key order.
func buildCategories(keys []config.Key) []Category {
	var cats []Category
	for _, k := range keys {
		section, field, _ := strings.Cut(k.Name, ".")
		item := ConfigItem{
			Key:         k.Name,
			Label:       labelFor(field),
			Description: k.Help,
			Type:        k.Type,
		}
		if opts, ok := selectOptions[k.Name]; ok {
			item.Type = "select"
			item.Options = opts
		}

		name := sectionName(section)
		if n := len(cats); n > 0 && cats[n-1].Name == name {
			cats[n-1].Items = append(cats[n-1].Items, item)
			continue
		}
		cats = append(cats, Category{Name: name, Items: []ConfigItem{item}})
	}
	return cats
}

func sectionName(section string) string {
	if section == "tui" {
		return "TUI"
	}
	return strings.ToUpper(section[:1]) + section[1:]
}

// labelFor turns "max_page_size" into "Max Page Size".
func labelFor(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		switch w {
		case "mb":
			words[i] = "MB"
		case "ms":
			words[i] = "(ms)"
		default:
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
	}
	return strings.Join(words, " ")
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Clear messages on any key
		m.errorMsg = ""
		m.infoMsg = ""

		if m.editing {
			return m.handleEditingKeypress(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			if m.configModified {
				m.infoMsg = "Changes saved!"
			}
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			m.itemIndex--
			if m.itemIndex < 0 {
				m.categoryIndex--
				if m.categoryIndex < 0 {
					m.categoryIndex = len(m.categories) - 1
				}
				m.itemIndex = len(m.categories[m.categoryIndex].Items) - 1
			}

		case "down", "j":
			m.itemIndex++
			if m.itemIndex >= len(m.categories[m.categoryIndex].Items) {
				m.categoryIndex++
				if m.categoryIndex >= len(m.categories) {
					m.categoryIndex = 0
				}
				m.itemIndex = 0
			}

		case "tab":
			m.categoryIndex = (m.categoryIndex + 1) % len(m.categories)
			m.itemIndex = 0

		case "shift+tab":
			m.categoryIndex--
			if m.categoryIndex < 0 {
				m.categoryIndex = len(m.categories) - 1
			}
			m.itemIndex = 0

		case "enter", " ":
			item := m.currentItem()
			switch item.Type {
			case "bool":
				// Toggle boolean directly
				m.apply(item, !viper.GetBool(item.Key))
			case "select":
				m.editing = true
				m.selectIndex = m.getCurrentSelectIndex()
			default:
				m.editing = true
				m.textInput.SetValue(m.getDisplayValue(item))
				m.textInput.Focus()
			}

		case "r":
			m.resetCurrentToDefault()
		}
	}

	return m, nil
}

func (m Model) handleEditingKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := m.currentItem()

	switch msg.String() {
	case "esc":
		m.editing = false
		m.textInput.SetValue("")
		return m, nil

	case "enter":
		if item.Type == "select" {
			if m.apply(item, item.Options[m.selectIndex]) {
				m.editing = false
			}
			return m, nil
		}
		value, err := parseValue(item, m.textInput.Value())
		if err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		if m.apply(item, value) {
			m.editing = false
			m.textInput.SetValue("")
		}
		return m, nil

	case "up", "k":
		if item.Type == "select" {
			m.selectIndex--
			if m.selectIndex < 0 {
				m.selectIndex = len(item.Options) - 1
			}
			return m, nil
		}

	case "down", "j":
		if item.Type == "select" {
			m.selectIndex = (m.selectIndex + 1) % len(item.Options)
			return m, nil
		}
	}

	if item.Type != "select" {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(styles.Header.Width(m.width - 4).Render("taskgraph configuration"))
	b.WriteString("\n\n")

	configPath := m.configFile
	if _, err := os.Stat(configPath); err != nil {
		configPath += " (not created)"
	}
	b.WriteString(styles.Muted.Render("Config file: " + configPath))
	b.WriteString("\n\n")

	for ci, cat := range m.categories {
		active := ci == m.categoryIndex
		catStyle := styles.Muted.Bold(true)
		if active {
			catStyle = styles.Primary.Bold(true)
		}
		b.WriteString(catStyle.Render(fmt.Sprintf("[ %s ]", cat.Name)))
		b.WriteString("\n")
		for ii, item := range cat.Items {
			b.WriteString(m.renderItem(item, active && ii == m.itemIndex))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString(m.renderEditOverlay())
	} else {
		b.WriteString(styles.Muted.Render(m.currentItem().Description))
		b.WriteString("\n")
	}

	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render("Error: " + m.errorMsg))
	}
	if m.infoMsg != "" {
		b.WriteString("\n")
		b.WriteString(styles.SuccessMsg.Render(m.infoMsg))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderItem(item ConfigItem, selected bool) string {
	value := m.getDisplayValue(item)
	if value == "" {
		value = "(default)"
	}
	label := fmt.Sprintf("%-22s", item.Label)

	if selected {
		return fmt.Sprintf("  %s %s  %s",
			styles.Secondary.Render(">"),
			styles.Text.Bold(true).Render(label),
			styles.Primary.Render(value))
	}
	return fmt.Sprintf("    %s  %s", styles.Muted.Render(label), styles.Text.Render(value))
}

func (m Model) renderEditOverlay() string {
	item := m.currentItem()
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.PrimaryColor).
		Padding(1, 2).
		Width(50)

	var content strings.Builder
	if item.Type == "select" {
		content.WriteString(fmt.Sprintf("Select %s:\n\n", item.Label))
		for i, opt := range item.Options {
			if i == m.selectIndex {
				content.WriteString(styles.DropdownItemSelected.Render(" > "+opt+" ") + "\n")
			} else {
				content.WriteString(styles.DropdownItem.Render("   "+opt+" ") + "\n")
			}
		}
		content.WriteString("\n" + styles.Muted.Render("j/k or arrows to select, enter to confirm, esc to cancel"))
	} else {
		content.WriteString(fmt.Sprintf("Edit %s:\n\n", item.Label))
		content.WriteString(m.textInput.View())
		content.WriteString("\n\n" + styles.Muted.Render("enter to save, esc to cancel"))
	}
	return "\n" + box.Render(content.String())
}

func (m Model) renderHelp() string {
	key := styles.HelpKey
	if m.editing {
		return styles.HelpBar.Render(key.Render("enter") + " save  " + key.Render("esc") + " cancel")
	}
	return styles.HelpBar.Render(
		key.Render("j/k") + " navigate  " +
			key.Render("tab") + " next section  " +
			key.Render("enter/space") + " edit  " +
			key.Render("r") + " reset  " +
			key.Render("q") + " quit",
	)
}

func (m Model) currentItem() ConfigItem {
	return m.categories[m.categoryIndex].Items[m.itemIndex]
}

func (m Model) getDisplayValue(item ConfigItem) string {
	switch item.Type {
	case "bool":
		return strconv.FormatBool(viper.GetBool(item.Key))
	case "int":
		return strconv.Itoa(viper.GetInt(item.Key))
	default:
		return viper.GetString(item.Key)
	}
}

func (m Model) getCurrentSelectIndex() int {
	item := m.currentItem()
	if i := slices.Index(item.Options, viper.GetString(item.Key)); i >= 0 {
		return i
	}
	return 0
}

// parseValue converts text input into the item's type.
func parseValue(item ConfigItem, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch item.Type {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("expected integer value")
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected true or false")
		}
		return b, nil
	case "select":
		if !slices.Contains(item.Options, value) {
			return nil, fmt.Errorf("invalid option: %s", value)
		}
		return value, nil
	default:
		return value, nil
	}
}

// apply sets a value, validates the whole configuration and saves it.
// An invalid value is rolled back and reported.
func (m *Model) apply(item ConfigItem, value any) bool {
	previous := viper.Get(item.Key)
	viper.Set(item.Key, value)

	if _, err := config.Load(); err != nil {
		viper.Set(item.Key, previous)
		m.errorMsg = err.Error()
		return false
	}

	m.saveConfig()
	return m.errorMsg == ""
}

func (m *Model) saveConfig() {
	if err := os.MkdirAll(filepath.Dir(m.configFile), 0755); err != nil {
		m.errorMsg = fmt.Sprintf("Failed to create config directory: %v", err)
		return
	}
	if err := viper.WriteConfigAs(m.configFile); err != nil {
		m.errorMsg = fmt.Sprintf("Failed to save config: %v", err)
		return
	}
	m.infoMsg = "Saved!"
	m.configModified = true
}

func (m *Model) resetCurrentToDefault() {
	item := m.currentItem()
	def, ok := config.DefaultValue(item.Key)
	if !ok {
		return
	}
	if m.apply(item, def) {
		m.infoMsg = fmt.Sprintf("Reset %s to default", item.Label)
	}
}

// Run starts the interactive config UI
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
