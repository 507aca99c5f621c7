package logging

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNewRotatingWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "taskgraph.log")

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
	if rw.Path() != path {
		t.Errorf("Path() = %q, want %q", rw.Path(), path)
	}
}

func TestRotatingWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskgraph.log")
	if err := os.WriteFile(path, []byte("previous\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rw, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if rw.Size() != int64(len("previous\n")) {
		t.Errorf("Size() = %d, want existing file size", rw.Size())
	}
	_, _ = rw.Write([]byte("next\n"))
	_ = rw.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "previous\nnext\n" {
		t.Errorf("file = %q", data)
	}
}

func TestRotatingWriterRotation(t *testing.T) {
	t.Run("rotates when size exceeds limit", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taskgraph.log")
		rw, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 3})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		rw.limit = 100

		for range 5 {
			_, _ = rw.Write([]byte("a line long enough that a few of them pass the limit\n"))
		}
		_ = rw.Close()

		if _, err := os.Stat(path + ".1"); err != nil {
			t.Error("backup .1 was not created")
		}
		if info, err := os.Stat(path); err != nil || info.Size() > 100 {
			t.Errorf("current file should exist and be under the limit: %v", err)
		}
	})

	t.Run("keeps only MaxBackups files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taskgraph.log")
		rw, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 2})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		rw.limit = 50

		for range 10 {
			_, _ = rw.Write([]byte("this message will trigger rotation\n"))
		}
		_ = rw.Close()

		for _, suffix := range []string{".1", ".2"} {
			if _, err := os.Stat(path + suffix); err != nil {
				t.Errorf("backup %s should exist", suffix)
			}
		}
		if _, err := os.Stat(path + ".3"); err == nil {
			t.Error("backup .3 should not exist")
		}
	})

	t.Run("zero backups truncates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taskgraph.log")
		rw, err := NewRotatingWriter(path, RotationConfig{})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		rw.limit = 40

		for range 4 {
			_, _ = rw.Write([]byte("twenty-five bytes long..\n"))
		}
		_ = rw.Close()

		if _, err := os.Stat(path + ".1"); err == nil {
			t.Error("no backups should be kept")
		}
		data, _ := os.ReadFile(path)
		if len(data) > 40 {
			t.Errorf("file should have been truncated, has %d bytes", len(data))
		}
	})

	t.Run("no rotation when limit is zero", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taskgraph.log")
		rw, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 3})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		for range 100 {
			_, _ = rw.Write([]byte("message that would rotate if rotation were enabled\n"))
		}
		_ = rw.Close()

		if _, err := os.Stat(path + ".1"); err == nil {
			t.Error("backup should not exist when rotation is disabled")
		}
	})
}

func TestRotatingWriterCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskgraph.log")
	rw, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 2, Compress: true})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	rw.limit = 60

	first := "first line that fills the file to the brim\n"
	_, _ = rw.Write([]byte(first))
	_, _ = rw.Write([]byte("second line forces a rotation\n"))
	_ = rw.Close()

	if _, err := os.Stat(path + ".1"); err == nil {
		t.Error("uncompressed backup should have been removed")
	}

	f, err := os.Open(path + ".1.gz")
	if err != nil {
		t.Fatalf("compressed backup missing: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip: %v", err)
	}
	if string(data) != first {
		t.Errorf("backup content = %q, want %q", data, first)
	}
}

func TestRotatingWriterConcurrency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskgraph.log")
	rw, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 50})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	rw.limit = 500

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				_, _ = rw.Write([]byte("concurrent write\n"))
			}
		}()
	}
	wg.Wait()
	_ = rw.Close()

	total := 0
	matches, _ := filepath.Glob(path + "*")
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			t.Fatal(err)
		}
		total += strings.Count(string(data), "concurrent write\n")
	}
	if total != 200 {
		t.Errorf("found %d lines across files, want 200", total)
	}
}

func TestRotatingWriterClose(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "taskgraph.log"), RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if _, err := rw.Write([]byte("x")); err == nil {
		t.Error("Write after Close should fail")
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync after Close = %v, want nil", err)
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLoggerWithRotation(dir, LevelInfo, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}
	logger.WithTask("2").Info("created")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	lines := readLines(t, filepath.Join(dir, LogFileName))
	if len(lines) != 1 || lines[0][KeyTaskID] != "2" {
		t.Errorf("lines = %v", lines)
	}

	if _, err := NewLoggerWithRotation("", LevelInfo, DefaultRotationConfig()); err == nil {
		t.Error("rotation without a directory should fail")
	}
}

func TestDefaultRotationConfig(t *testing.T) {
	cfg := DefaultRotationConfig()
	if cfg.MaxSizeMB != 10 || cfg.MaxBackups != 3 || cfg.Compress {
		t.Errorf("DefaultRotationConfig() = %+v", cfg)
	}
}

func TestBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskgraph.log")
	for _, name := range []string{
		"taskgraph.log", "taskgraph.log.1", "taskgraph.log.3.gz", "taskgraph.log.2",
		"taskgraph.log.old", "taskgraph.log.0", "other.log.1",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Backups(path)
	if err != nil {
		t.Fatalf("Backups failed: %v", err)
	}
	want := []string{path + ".3.gz", path + ".2", path + ".1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Backups() = %v, want %v", got, want)
	}

	none, err := Backups(filepath.Join(dir, "missing", "taskgraph.log"))
	if err != nil || len(none) != 0 {
		t.Errorf("Backups(missing dir) = %v, %v", none, err)
	}
}

func TestReadEntriesAcrossRotations(t *testing.T) {
	dir := t.TempDir()
	rw, err := NewRotatingWriter(filepath.Join(dir, LogFileName), RotationConfig{MaxBackups: 3, Compress: true})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	rw.limit = 100

	lines := []string{
		`{"time":"2025-01-01T10:00:01Z","level":"DEBUG","msg":"created","task_id":"1","operation":"create"}`,
		`{"time":"2025-01-01T10:00:02Z","level":"DEBUG","msg":"created","task_id":"2","operation":"create"}`,
		`{"time":"2025-01-01T10:00:03Z","level":"DEBUG","msg":"expanded","task_id":"2","operation":"expand"}`,
	}
	for _, l := range lines {
		if _, err := rw.Write([]byte(l + "\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	_ = rw.Close()

	backups, err := Backups(rw.Path())
	if err != nil || len(backups) != 2 {
		t.Fatalf("Backups() = %v, %v; want two compressed backups", backups, err)
	}

	entries, err := ReadEntries(dir)
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != len(lines) {
		t.Fatalf("got %d entries, want %d", len(entries), len(lines))
	}
	if entries[0].TaskID != "1" || entries[2].Operation != "expand" {
		t.Errorf("entries out of order: %+v", entries)
	}

	// Only backups left, as after a rotation that failed to reopen.
	if err := os.Remove(rw.Path()); err != nil {
		t.Fatal(err)
	}
	entries, err = ReadEntries(dir)
	if err != nil {
		t.Fatalf("ReadEntries with only backups failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries from backups, want 2", len(entries))
	}
}
