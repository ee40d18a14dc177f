// Package progress renders scan and select events on the terminal.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"wallsieve/types"
)

// Tracker drains an event channel and keeps a progress bar current
type Tracker struct {
	label  string
	out    io.Writer
	silent bool

	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	total    int
	current  int
	messages []string

	done chan struct{}
}

// NewTracker creates a tracker printing messages to out. A silent tracker
// only records state, which is what tests and --quiet use.
func NewTracker(label string, out io.Writer, silent bool) *Tracker {
	return &Tracker{
		label:  label,
		out:    out,
		silent: silent,
		done:   make(chan struct{}),
	}
}

// Start consumes events in a goroutine until the channel is closed
func (t *Tracker) Start(events <-chan types.Event) {
	go func() {
		defer close(t.done)
		for ev := range events {
			t.handle(ev)
		}
		t.finish()
	}()
}

// Wait blocks until the event channel has been closed and drained
func (t *Tracker) Wait() {
	<-t.done
}

func (t *Tracker) handle(ev types.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case types.EventInitialized:
		t.total = ev.Count
		t.current = 0
		if t.silent {
			t.bar = progressbar.DefaultSilent(int64(ev.Count), t.label)
		} else {
			t.bar = progressbar.Default(int64(ev.Count), t.label)
		}
	case types.EventProgress:
		// Workers may deliver counts out of order; the bar only moves forward
		if ev.Count <= t.current {
			return
		}
		t.current = ev.Count
		if t.bar != nil {
			_ = t.bar.Set(ev.Count)
		}
	case types.EventMessage:
		t.messages = append(t.messages, ev.Text)
		slog.Warn(ev.Text)
		if !t.silent {
			if t.bar != nil {
				_ = t.bar.Clear()
			}
			fmt.Fprintln(t.out, ev.Text)
		}
	}
}

func (t *Tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		_ = t.bar.Finish()
	}
}

// Snapshot returns the announced total, the highest count seen and the messages
func (t *Tracker) Snapshot() (total, current int, messages []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total, t.current, append([]string(nil), t.messages...)
}

// Complete reports whether the count reached the announced total
func (t *Tracker) Complete() bool {
	total, current, _ := t.Snapshot()
	return current == total
}
