// Package testutil provides testing utilities for taskgraph tests.
package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// Epoch is the first instant returned by a new Clock.
var Epoch = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// Clock is a deterministic clock that advances by a fixed step on every
// call to Now. It is safe for concurrent use.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock returns a Clock starting at Epoch that advances one second per
// call.
func NewClock() *Clock {
	return &Clock{now: Epoch.Add(-time.Second), step: time.Second}
}

// Now advances the clock and returns the new time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Peek returns the last time handed out without advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Ptr returns a pointer to v. Handy for building task.Fields patches.
func Ptr[T any](v T) *T {
	return &v
}

// WriteFile creates a file with content under a fresh temporary directory
// and returns its path. Parent directories in name are created.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
