// Package progress renders batch progress on the terminal. Output is a
// single rewritten line on a TTY and silence otherwise, so piped runs
// stay clean.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Reporter prints "stage [####....]  42% (n/total)" style progress.
// Safe for concurrent use: the batch driver invokes it from worker
// goroutines and the write path must not block the pipeline, so updates
// that would contend are dropped.
type Reporter struct {
	writer io.Writer
	stage  string
	tty    bool
	mu     sync.Mutex
	last   int
}

// NewReporter creates a reporter writing to w (nil means stderr).
func NewReporter(w io.Writer, stage string) *Reporter {
	if w == nil {
		w = os.Stderr
	}

	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}

	return &Reporter{writer: w, stage: stage, tty: tty}
}

// Update renders the bar at current/total. Non-TTY writers get nothing;
// a contended update is skipped rather than queued.
func (r *Reporter) Update(current, total int) {
	if !r.tty || total == 0 {
		return
	}

	if !r.mu.TryLock() {
		return
	}
	defer r.mu.Unlock()

	// Repaint only on percentage changes to bound write volume.
	pct := current * 100 / total
	if pct == r.last && current != total {
		return
	}
	r.last = pct

	const width = 40
	filled := pct * width / 100
	bar := make([]byte, width)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '.'
		}
	}

	fmt.Fprintf(r.writer, "\r%s [%s] %3d%% (%d/%d)", r.stage, bar, pct, current, total)
	if current == total {
		fmt.Fprintln(r.writer)
	}
}

// Done finishes the line if the bar never reached 100%.
func (r *Reporter) Done() {
	if !r.tty {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == 100 {
		return
	}
	fmt.Fprintln(r.writer)
}
