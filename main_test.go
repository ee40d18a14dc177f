package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunClosesLogOnFailure(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", "")
	logPath := filepath.Join(dir, "wallsieve.log")

	// stats refuses a store that was never created
	code := run([]string{"stats", "--db-dir", dir, "--db", "never-scanned", "--logfile", logPath})
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "log closed") {
		t.Errorf("log file was not closed after a failed command:\n%s", data)
	}
}

func TestRunStatsOnEmptyStore(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", "")

	args := []string{"--driver", "sqlite", "--db-dir", dir, "--db", "walls", "--quiet"}
	if code := run(append([]string{"scan", dir}, args...)); code != 0 {
		t.Fatalf("scan run() = %d, want 0", code)
	}
	if code := run(append([]string{"stats"}, args...)); code != 0 {
		t.Errorf("stats run() = %d, want 0", code)
	}
}
