package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates one status line while a slow step (probing Ruby,
// querying the gem source) runs. It stops on Stop or when its context ends.
type spinner struct {
	w       io.Writer
	message string

	mu      sync.Mutex
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func startSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	s := &spinner{
		w:       w,
		message: message,
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-s.quit:
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)]), StyleDim.Render(s.message))
			s.mu.Unlock()
		}
	}
}

// Stop halts the animation and erases the line. It is safe to call twice.
func (s *spinner) Stop() {
	s.once.Do(func() {
		close(s.quit)
		<-s.stopped
		s.clear()
	})
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// spin runs fn with a spinner on stderr showing message. With quiet set,
// or when output is machine-readable, fn runs without one.
func spin(ctx context.Context, quiet bool, message string, fn func() error) error {
	if quiet {
		return fn()
	}
	s := startSpinner(ctx, os.Stderr, message)
	defer s.Stop()
	return fn()
}
