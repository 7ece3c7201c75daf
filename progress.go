package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// progressReporter renders organizer callbacks. Terminals get a progress
// bar; anything else gets one line per status and per tenth of progress.
type progressReporter struct {
	mu       sync.Mutex
	out      io.Writer
	bar      *progressbar.ProgressBar
	lastStep int
	finished bool
}

func newProgressReporter(out io.Writer) *progressReporter {
	r := &progressReporter{out: out, lastStep: -1}
	if isTerminal(out) {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Starting..."),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
	}
	return r
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Progress receives percent/message updates from any goroutine
func (r *progressReporter) Progress(percent float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}

	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(int(percent))
		return
	}

	step := int(percent) / 10
	if step <= r.lastStep {
		return
	}
	r.lastStep = step
	fmt.Fprintf(r.out, "[%3.0f%%] %s\n", percent, message)
}

// Status receives phase messages
func (r *progressReporter) Status(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}

	if r.bar != nil {
		r.bar.Describe(message)
		return
	}
	fmt.Fprintln(r.out, message)
}

// Finish closes the bar. Later updates are dropped.
func (r *progressReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	if r.bar != nil {
		_ = r.bar.Finish()
		fmt.Fprintln(r.out)
	}
}
