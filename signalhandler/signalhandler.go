package signalhandler

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// SetupHandler returns a context that is cancelled on the first SIGINT or SIGTERM,
// letting workers finish their current file. A second signal exits immediately.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Warn("signal received, stopping after current files", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			return
		}

		<-sigChan
		os.Exit(130)
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// GetOptimalProcs returns the default number of scan workers for the system
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// Leave headroom for the decoder's own goroutines
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
