package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TASKGRAPH_LOGGING_LEVEL
// for logging.level.
const EnvPrefix = "TASKGRAPH"

// Config represents the complete taskgraph configuration
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// StoreConfig controls the in-memory graph store
type StoreConfig struct {
	// DefaultPageSize is used by list when no page size is given (default: 20)
	DefaultPageSize int `mapstructure:"default_page_size"`
	// MaxPageSize caps the page size a caller may request (default: 100)
	MaxPageSize int `mapstructure:"max_page_size"`
	// VerifyInvariants re-checks every graph invariant after each mutation
	// and aborts on drift. Slower; meant for debugging (default: false)
	VerifyInvariants bool `mapstructure:"verify_invariants"`
}

// SchedulerConfig controls next-task selection
type SchedulerConfig struct {
	// CandidateLimit is the size of the ranked shortlist the next task is
	// picked from. It does not change which task is picked (default: 5)
	CandidateLimit int `mapstructure:"candidate_limit"`
}

// SnapshotConfig controls where the task graph is persisted
type SnapshotConfig struct {
	// Path is the snapshot file. Relative paths are resolved against the
	// working directory; ~ expands to the home directory
	// (default: ".taskgraph/tasks.json")
	Path string `mapstructure:"path"`
	// Format is "auto", "json" or "yaml". Auto picks by file extension
	// (default: "auto")
	Format string `mapstructure:"format"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logs are written to a file (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the log directory. If empty, logs go to a "logs" directory
	// next to the snapshot file
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated backups (default: false)
	Compress bool `mapstructure:"compress"`
}

// TUIConfig controls the watch view
type TUIConfig struct {
	// DebounceMs is how long the snapshot must be quiet before the watch
	// view reloads, in milliseconds (default: 150)
	DebounceMs int `mapstructure:"debounce_ms"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			DefaultPageSize:  20,
			MaxPageSize:      100,
			VerifyInvariants: false,
		},
		Scheduler: SchedulerConfig{
			CandidateLimit: 5,
		},
		Snapshot: SnapshotConfig{
			Path:   filepath.Join(".taskgraph", "tasks.json"),
			Format: "auto",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		TUI: TUIConfig{
			DebounceMs: 150,
		},
	}
}

// Debounce returns the watch debounce as a time.Duration
func (c *TUIConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ResolvePath returns the snapshot path with ~ expanded.
func (c *SnapshotConfig) ResolvePath() string {
	return expandHome(c.Path)
}

// ResolveDir returns the log directory. An empty Dir resolves to "logs"
// next to snapshotPath.
func (c *LoggingConfig) ResolveDir(snapshotPath string) string {
	if c.Dir == "" {
		return filepath.Join(filepath.Dir(snapshotPath), "logs")
	}
	return expandHome(c.Dir)
}

func expandHome(path string) string {
	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Key describes one settable configuration key.
type Key struct {
	Name string
	Type string // "int", "bool" or "string"
	Help string
}

// Keys returns every configuration key in display order.
func Keys() []Key {
	return []Key{
		{"store.default_page_size", "int", "Page size used by list when none is given"},
		{"store.max_page_size", "int", "Largest page size list will return"},
		{"store.verify_invariants", "bool", "Re-check graph invariants after every mutation"},
		{"scheduler.candidate_limit", "int", "Size of the ranked shortlist next picks from"},
		{"snapshot.path", "string", "Snapshot file location"},
		{"snapshot.format", "string", "Snapshot format: auto, json or yaml"},
		{"logging.enabled", "bool", "Write logs to a file"},
		{"logging.level", "string", "Log level: debug, info, warn or error"},
		{"logging.dir", "string", "Log directory (default: logs/ next to the snapshot)"},
		{"logging.max_size_mb", "int", "Rotate the log file after this many megabytes"},
		{"logging.max_backups", "int", "Rotated log files to keep"},
		{"logging.compress", "bool", "Gzip rotated log files"},
		{"tui.debounce_ms", "int", "Quiet period before the watch view reloads"},
	}
}

// LookupKey returns the Key with the given name.
func LookupKey(name string) (Key, bool) {
	keys := Keys()
	i := slices.IndexFunc(keys, func(k Key) bool { return k.Name == name })
	if i < 0 {
		return Key{}, false
	}
	return keys[i], true
}

// Parse converts s to the key's type. Range checks are left to Validate.
func (k Key) Parse(s string) (any, error) {
	s = strings.TrimSpace(s)
	switch k.Type {
	case "int":
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", k.Name)
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", k.Name)
		}
		return b, nil
	default:
		return s, nil
	}
}

// DefaultValue returns the default of a key by its mapstructure path.
func DefaultValue(name string) (any, bool) {
	d := Default()
	values := map[string]any{
		"store.default_page_size":   d.Store.DefaultPageSize,
		"store.max_page_size":       d.Store.MaxPageSize,
		"store.verify_invariants":   d.Store.VerifyInvariants,
		"scheduler.candidate_limit": d.Scheduler.CandidateLimit,
		"snapshot.path":             d.Snapshot.Path,
		"snapshot.format":           d.Snapshot.Format,
		"logging.enabled":           d.Logging.Enabled,
		"logging.level":             d.Logging.Level,
		"logging.dir":               d.Logging.Dir,
		"logging.max_size_mb":       d.Logging.MaxSizeMB,
		"logging.max_backups":       d.Logging.MaxBackups,
		"logging.compress":          d.Logging.Compress,
		"tui.debounce_ms":           d.TUI.DebounceMs,
	}
	v, ok := values[name]
	return v, ok
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Store defaults
	viper.SetDefault("store.default_page_size", defaults.Store.DefaultPageSize)
	viper.SetDefault("store.max_page_size", defaults.Store.MaxPageSize)
	viper.SetDefault("store.verify_invariants", defaults.Store.VerifyInvariants)

	// Scheduler defaults
	viper.SetDefault("scheduler.candidate_limit", defaults.Scheduler.CandidateLimit)

	// Snapshot defaults
	viper.SetDefault("snapshot.path", defaults.Snapshot.Path)
	viper.SetDefault("snapshot.format", defaults.Snapshot.Format)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// TUI defaults
	viper.SetDefault("tui.debounce_ms", defaults.TUI.DebounceMs)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if it
// cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskgraph")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskgraph"
	}
	return filepath.Join(home, ".config", "taskgraph")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
