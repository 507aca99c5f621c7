// Package config provides CLI commands for managing taskgraph configuration.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/Iron-Ham/taskgraph/internal/config"
	tuiconfig "github.com/Iron-Ham/taskgraph/internal/tui/config"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

// Register adds all config-related commands to the given parent command.
// This is the main entry point for integrating the config subpackage with
// the root command.
func Register(parent *cobra.Command) {
	parent.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify taskgraph configuration",
		Long: `View or modify taskgraph configuration.

Without arguments, opens an interactive configuration UI.
Use 'config show' to display configuration non-interactively.
Use subcommands to modify settings or create a config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tuiconfig.Run()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			Args:  cobra.NoArgs,
			RunE:  runConfigShow,
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value",
			Long:  "Set a configuration value in the user's config file.\n\n" + keyHelp(),
			Args:  cobra.ExactArgs(2),
			RunE:  runConfigSet,
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create a default config file",
			Long:  `Create a default config file at ~/.config/taskgraph/config.yaml with all available options.`,
			Args:  cobra.NoArgs,
			RunE:  runConfigInit,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show the config file path",
			Args:  cobra.NoArgs,
			RunE:  runConfigPath,
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Open config file in your editor",
			Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
			Args: cobra.NoArgs,
			RunE: runConfigEdit,
		},
		&cobra.Command{
			Use:   "reset [key]",
			Short: "Reset configuration to defaults",
			Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  taskgraph config reset                  # Reset all to defaults
  taskgraph config reset logging.level    # Reset only logging.level`,
			Args: cobra.MaximumNArgs(1),
			RunE: runConfigReset,
		},
	)
	return cmd
}

// keyHelp lists every settable key for the set command's help.
func keyHelp() string {
	s := "Keys use dot notation, e.g.:\n  taskgraph config set logging.level debug\n\nValid keys:\n"
	for _, k := range appconfig.Keys() {
		s += fmt.Sprintf("  %-26s - %s\n", k.Name, k.Help)
	}
	return s
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	if _, err := appconfig.Load(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n\n", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, k := range appconfig.Keys() {
		fmt.Fprintf(w, "%s\t%v\n", k.Name, viper.Get(k.Name))
	}
	return w.Flush()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	name, raw := args[0], args[1]

	key, ok := appconfig.LookupKey(name)
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'taskgraph config set --help' to see valid keys", name)
	}
	value, err := key.Parse(raw)
	if err != nil {
		return err
	}

	previous := viper.Get(name)
	viper.Set(name, value)
	if _, err := appconfig.Load(); err != nil {
		viper.Set(name, previous)
		return err
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", name, value)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

// writeConfig writes every viper setting to the user's config file.
func writeConfig() (string, error) {
	configFile := appconfig.ConfigFile()
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}

const defaultConfigContent = `# taskgraph configuration
# Every key can also be set with an environment variable, e.g.
# TASKGRAPH_LOGGING_LEVEL=debug for logging.level.

# Task store settings
store:
  # Page size used by 'taskgraph list' when --page-size is not given
  default_page_size: 20
  # Largest page size list will return; larger requests are clamped
  max_page_size: 100
  # Re-check every graph invariant after each change (slow; for debugging)
  verify_invariants: false

# Next-task selection
scheduler:
  # Size of the ranked shortlist the next task is picked from
  candidate_limit: 5

# Where the task graph is stored
snapshot:
  # Snapshot file; relative paths resolve against the working directory
  path: .taskgraph/tasks.json
  # auto picks the format from the file extension
  # Options: auto, json, yaml
  format: auto

# Log file settings
logging:
  enabled: true
  # Options: debug, info, warn, error
  level: info
  # Empty means a logs/ directory next to the snapshot
  dir: ""
  # Rotate after this many megabytes, keeping this many old files
  max_size_mb: 10
  max_backups: 3
  compress: false

# Terminal UI settings
tui:
  # Quiet period in milliseconds before 'next --watch' reloads
  debounce_ms: 150
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'taskgraph config set' to modify values", configFile)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize taskgraph's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", appconfig.ConfigFile())
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", appconfig.ConfigFile())
	fmt.Fprintf(out, "  2. $HOME/.config/taskgraph/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_LOGGING_LEVEL)\n", appconfig.EnvPrefix, appconfig.EnvPrefix)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()
	out := cmd.OutOrStdout()

	// Check if config file exists, if not create it
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "Config file doesn't exist, creating with defaults...\n")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	editor, err := findEditor()
	if err != nil {
		return err
	}

	editorCmd := execCommand(editor, configFile)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	fmt.Fprintf(out, "Config file saved: %s\n", configFile)
	return nil
}

func findEditor() (string, error) {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if e := os.Getenv(env); e != "" {
			return e, nil
		}
	}
	for _, e := range []string{"vim", "nano", "vi"} {
		if _, err := execLookPath(e); err == nil {
			return e, nil
		}
	}
	return "", fmt.Errorf("no editor found. Set $EDITOR environment variable")
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for _, k := range appconfig.Keys() {
			def, _ := appconfig.DefaultValue(k.Name)
			viper.Set(k.Name, def)
		}
		fmt.Fprintln(out, "Reset all configuration to defaults.")
	} else {
		name := args[0]
		def, ok := appconfig.DefaultValue(name)
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'taskgraph config set --help' to see valid keys", name)
		}
		viper.Set(name, def)
		fmt.Fprintf(out, "Reset %s to default: %v\n", name, def)
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}
