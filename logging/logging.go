// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

var (
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
)

// SetupLogger installs the default slog logger. With a log file path all records
// go to that file, otherwise to stderr. debug lowers the level to Debug.
func SetupLogger(logFilePath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	var out io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		out = f
	}

	slog.SetDefault(NewLogger(out, debug))
	slog.Info("log started", "time", time.Now().Format(time.RFC3339), "debug", debug)

	isSetup = true
	return nil
}

// NewLogger returns a text logger writing to w
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// CloseLogger closes the log file and restores a stderr logger
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		slog.Info("log closed", "time", time.Now().Format(time.RFC3339))
		slog.SetDefault(NewLogger(os.Stderr, false))
		logFile.Close()
		logFile = nil
	}
	isSetup = false
}

// LogImageProcessed logs the outcome of one scanned file
func LogImageProcessed(path string, err error) {
	if err != nil {
		slog.Warn("failed to process file", "path", path, "error", err)
		return
	}
	slog.Debug("processed file", "path", path)
}
