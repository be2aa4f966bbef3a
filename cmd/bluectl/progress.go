package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter displays a single-line countdown on stderr while a
// blocking operation runs. On a non-TTY stderr it stays silent.
//
// A ProgressPrinter is single-use: Start at most once, Stop exactly once.
type ProgressPrinter struct {
	prefix   string
	duration time.Duration

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewCountdownProgressPrinter creates a printer counting down from
// duration with the given prefix line.
func NewCountdownProgressPrinter(prefix string, duration time.Duration) *ProgressPrinter {
	return &ProgressPrinter{
		prefix:   prefix,
		duration: duration,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressPrinter) Start() {
	if p.started {
		panic("ProgressPrinter.Start called more than once")
	}
	p.started = true

	if !term.IsTerminal(int(os.Stderr.Fd())) {
		close(p.done)
		return
	}

	start := time.Now()
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				fmt.Fprint(os.Stderr, clearLineSequence)
				return
			case <-ticker.C:
				remaining := p.duration - time.Since(start)
				if remaining < 0 {
					remaining = 0
				}
				fmt.Fprintf(os.Stderr, "%s%s... %s", clearLineSequence, p.prefix, remaining.Truncate(time.Second))
			}
		}
	}()
}

// Stop clears the progress line and releases the goroutine. Safe to call
// multiple times.
func (p *ProgressPrinter) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.done
}
