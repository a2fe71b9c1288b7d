package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// startup animates the stages of a long-running command coming up:
// opening the repository, connecting the cache, publishing datasources.
// Each finished stage leaves a success line with its duration; the
// animation stops when ctx is cancelled.
type startup struct {
	w      io.Writer
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	stage string
	began time.Time
	width int
}

// newStartup starts animating the first stage on w.
func newStartup(ctx context.Context, w io.Writer, first string) *startup {
	ctx, cancel := context.WithCancel(ctx)
	s := &startup{
		w:      w,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		stage:  first,
		began:  time.Now(),
	}
	go s.animate()
	return s
}

func (s *startup) animate() {
	defer close(s.done)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.mu.Lock()
			s.clear()
			s.mu.Unlock()
			return
		case <-ticker.C:
			s.mu.Lock()
			line := styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]) + " " + StyleDim.Render(s.stage+"...")
			s.clear()
			fmt.Fprint(s.w, line)
			s.width = len(s.stage) + 5
			s.mu.Unlock()
		}
	}
}

// clear blanks the animated line. Callers hold s.mu.
func (s *startup) clear() {
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
		s.width = 0
	}
}

// Next marks the current stage as finished with summary and starts the
// next one.
func (s *startup) Next(summary, next string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish(summary)
	s.stage = next
	s.began = time.Now()
}

// finish prints the success line of the current stage. Callers hold s.mu.
func (s *startup) finish(summary string) {
	s.clear()
	elapsed := time.Since(s.began).Round(time.Millisecond)
	status(s.w, styleIconSuccess, iconSuccess, summary+" "+StyleDim.Render(elapsed.String()))
}

// Done finishes the last stage and stops the animation.
func (s *startup) Done(summary string) {
	s.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish(summary)
}

// Fail stops the animation and reports the current stage as failed.
func (s *startup) Fail(err error) {
	s.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	status(s.w, styleIconError, iconError, s.stage+" failed: "+err.Error())
}

// Stage returns the stage in progress.
func (s *startup) Stage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *startup) stop() {
	s.cancel()
	<-s.done
}
