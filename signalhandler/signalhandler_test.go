package signalhandler

import (
	"context"
	"runtime"
	"testing"
)

func TestGetOptimalProcs(t *testing.T) {
	got := GetOptimalProcs()
	if got < 1 || got > runtime.NumCPU() {
		t.Errorf("GetOptimalProcs() = %d with %d CPUs", got, runtime.NumCPU())
	}
}

func TestSetupHandlerCancel(t *testing.T) {
	ctx, cancel := SetupHandler(context.Background())
	cancel()
	<-ctx.Done()
	if ctx.Err() != context.Canceled {
		t.Errorf("ctx.Err() = %v", ctx.Err())
	}
}
