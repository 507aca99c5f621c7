package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Attribute keys the store and CLI put on entries. ReadEntries lifts them
// out of the attribute map into Entry fields.
const (
	KeyTaskID    = "task_id"
	KeyOperation = "operation"
	KeyError     = "error"
)

// Entry is one parsed line of the log file.
type Entry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	TaskID    string         `json:"task_id,omitempty"`
	Operation string         `json:"operation,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// EntryFilter selects entries. Zero-valued fields match everything.
type EntryFilter struct {
	// MinLevel keeps entries at or above this level.
	MinLevel string
	// TaskID keeps entries about this task or any of its subtasks.
	TaskID    string
	Operation string
	Since     time.Time
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadEntries parses {dir}/taskgraph.log and its rotated backups, skipping
// malformed lines, and returns the entries in time order. It fails only when
// neither the log nor any backup exists.
func ReadEntries(dir string) ([]Entry, error) {
	path := filepath.Join(dir, LogFileName)
	files, err := Backups(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		files = append(files, path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no log file in %s: %w", dir, os.ErrNotExist)
	}

	var entries []Entry
	for _, name := range files {
		if entries, err = readEntriesFrom(name, entries); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	return entries, nil
}

func readEntriesFrom(name string, entries []Entry) ([]Entry, error) {
	r, err := openLogFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = r.Close() }()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filepath.Base(name), err)
	}
	return entries, nil
}

func parseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, err
	}

	var e Entry
	if s, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			e.Time = t
		}
	}
	e.Level, _ = raw["level"].(string)
	e.Message, _ = raw["msg"].(string)
	e.TaskID, _ = raw[KeyTaskID].(string)
	e.Operation, _ = raw[KeyOperation].(string)

	for _, k := range []string{"time", "level", "msg", KeyTaskID, KeyOperation} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		e.Attrs = raw
	}
	return e, nil
}

// FilterEntries returns the entries matching f, preserving order.
func FilterEntries(entries []Entry, f EntryFilter) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f EntryFilter) matches(e Entry) bool {
	if f.MinLevel != "" {
		if levelOrder[strings.ToUpper(e.Level)] < levelOrder[ParseLevel(f.MinLevel)] {
			return false
		}
	}
	if f.TaskID != "" && e.TaskID != f.TaskID && !strings.HasPrefix(e.TaskID, f.TaskID+".") {
		return false
	}
	if f.Operation != "" && e.Operation != f.Operation {
		return false
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	return true
}

// FormatEntry renders an entry as a single human-readable line.
func FormatEntry(e Entry) string {
	var b strings.Builder
	b.WriteString(e.Time.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, " %-5s", e.Level)
	if e.Operation != "" {
		fmt.Fprintf(&b, " [%s]", e.Operation)
	}
	if e.TaskID != "" {
		fmt.Fprintf(&b, " task=%s", e.TaskID)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
	}
	return b.String()
}
