package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/Iron-Ham/taskgraph/internal/config"
	"github.com/Iron-Ham/taskgraph/internal/logging"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, logging.LogFileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}
	return dir
}

func runLogsCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "taskgraph", SilenceUsage: true, SilenceErrors: true}
	Register(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"logs"}, args...))
	err := root.Execute()
	return out.String(), err
}

func sampleLog(t *testing.T) string {
	now := time.Now().UTC()
	ts := func(ago time.Duration) string { return now.Add(-ago).Format(time.RFC3339Nano) }
	return writeLog(t,
		`{"time":"`+ts(3*time.Hour)+`","level":"INFO","msg":"task created","task_id":"1","operation":"create"}`,
		`{"time":"`+ts(2*time.Hour)+`","level":"DEBUG","msg":"snapshot written","operation":"save"}`,
		`not json at all`,
		`{"time":"`+ts(30*time.Minute)+`","level":"WARN","msg":"mutation rejected","task_id":"1.2","operation":"deps","error":"circular dependency: 1.2 -> 1.1 -> 1.2"}`,
		`{"time":"`+ts(10*time.Minute)+`","level":"INFO","msg":"task updated","task_id":"2","operation":"update"}`,
	)
}

func TestLogs_Filters(t *testing.T) {
	dir := sampleLog(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "all",
			args: []string{"-n", "0"},
			want: []string{"task created", "snapshot written", "mutation rejected", "task updated"},
		},
		{
			name:    "tail",
			args:    []string{"-n", "1"},
			want:    []string{"task updated"},
			notWant: []string{"mutation rejected"},
		},
		{
			name:    "min level",
			args:    []string{"--level", "warn"},
			want:    []string{"mutation rejected"},
			notWant: []string{"task created", "task updated"},
		},
		{
			name:    "task and subtasks",
			args:    []string{"--task", "1"},
			want:    []string{"task created", "mutation rejected"},
			notWant: []string{"task updated", "snapshot written"},
		},
		{
			name:    "operation",
			args:    []string{"--operation", "save"},
			want:    []string{"snapshot written"},
			notWant: []string{"task created"},
		},
		{
			name:    "since",
			args:    []string{"--since", "1h"},
			want:    []string{"mutation rejected", "task updated"},
			notWant: []string{"task created", "snapshot written"},
		},
		{
			name:    "grep matches attributes",
			args:    []string{"--grep", "circular"},
			want:    []string{"mutation rejected"},
			notWant: []string{"task updated"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runLogsCmd(t, append([]string{"--dir", dir}, tt.args...)...)
			if err != nil {
				t.Fatalf("logs failed: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestLogs_JSON(t *testing.T) {
	dir := sampleLog(t)

	out, err := runLogsCmd(t, "--dir", dir, "--json", "--operation", "deps")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], `"task_id":"1.2"`) {
		t.Errorf("unexpected JSON line: %s", lines[0])
	}
}

func TestLogs_BadFlags(t *testing.T) {
	dir := sampleLog(t)

	for _, args := range [][]string{
		{"--level", "loud"},
		{"--since", "yesterday"},
		{"--grep", "("},
	} {
		if _, err := runLogsCmd(t, append([]string{"--dir", dir}, args...)...); err == nil {
			t.Errorf("logs %v should fail", args)
		}
	}
}

func TestLogs_DirFromConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	appconfig.SetDefaults()

	root := t.TempDir()
	viper.Set("snapshot.path", filepath.Join(root, "tasks.json"))
	logDir := filepath.Join(root, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		t.Fatal(err)
	}
	line := `{"time":"2025-01-01T09:00:00Z","level":"INFO","msg":"workspace opened","operation":"load"}`
	if err := os.WriteFile(filepath.Join(logDir, logging.LogFileName), []byte(line+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runLogsCmd(t)
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if !strings.Contains(out, "workspace opened") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestLogs_MissingFile(t *testing.T) {
	if _, err := runLogsCmd(t, "--dir", t.TempDir()); err == nil {
		t.Error("expected error for a missing log file")
	}
}
