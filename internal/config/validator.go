package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "store.max_page_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidSnapshotFormats returns the list of valid snapshot formats
func ValidSnapshotFormats() []string {
	return []string{"auto", "json", "yaml", "yml"}
}

// Upper bounds that keep a typo from turning into an unusable setting.
const (
	maxPageSizeLimit = 10000
	maxDebounceMs    = 10000
	maxLogSizeMB     = 1000
	maxPathLength    = 4096
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateStore()...)
	errors = append(errors, c.validateScheduler()...)
	errors = append(errors, c.validateSnapshot()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateTUI()...)

	return errors
}

// validateStore validates the StoreConfig
func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	if c.Store.MaxPageSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.max_page_size",
			Value:   c.Store.MaxPageSize,
			Message: "must be at least 1",
		})
	} else if c.Store.MaxPageSize > maxPageSizeLimit {
		errors = append(errors, ValidationError{
			Field:   "store.max_page_size",
			Value:   c.Store.MaxPageSize,
			Message: fmt.Sprintf("exceeds maximum of %d", maxPageSizeLimit),
		})
	}

	if c.Store.DefaultPageSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.default_page_size",
			Value:   c.Store.DefaultPageSize,
			Message: "must be at least 1",
		})
	} else if c.Store.MaxPageSize >= 1 && c.Store.DefaultPageSize > c.Store.MaxPageSize {
		errors = append(errors, ValidationError{
			Field:   "store.default_page_size",
			Value:   c.Store.DefaultPageSize,
			Message: fmt.Sprintf("must not exceed store.max_page_size (%d)", c.Store.MaxPageSize),
		})
	}

	return errors
}

// validateScheduler validates the SchedulerConfig
func (c *Config) validateScheduler() []ValidationError {
	var errors []ValidationError

	if c.Scheduler.CandidateLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.candidate_limit",
			Value:   c.Scheduler.CandidateLimit,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateSnapshot validates the SnapshotConfig
func (c *Config) validateSnapshot() []ValidationError {
	var errors []ValidationError

	errors = append(errors, validatePath("snapshot.path", c.Snapshot.Path, true)...)

	if c.Snapshot.Format != "" && !slices.Contains(ValidSnapshotFormats(), strings.ToLower(c.Snapshot.Format)) {
		errors = append(errors, ValidationError{
			Field:   "snapshot.format",
			Value:   c.Snapshot.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidSnapshotFormats(), ", ")),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	errors = append(errors, validatePath("logging.dir", c.Logging.Dir, false)...)

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.DebounceMs < 0 || c.TUI.DebounceMs > maxDebounceMs {
		errors = append(errors, ValidationError{
			Field:   "tui.debounce_ms",
			Value:   c.TUI.DebounceMs,
			Message: fmt.Sprintf("must be between 0 and %d", maxDebounceMs),
		})
	}

	return errors
}

// validatePath checks a configured filesystem path. Empty paths are only
// reported when required.
func validatePath(field, path string, required bool) []ValidationError {
	var errors []ValidationError

	if path == "" {
		if required {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   path,
				Message: "must not be empty",
			})
		}
		return errors
	}

	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: "path contains invalid null character",
		})
	}
	if len(path) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}

	return errors
}
