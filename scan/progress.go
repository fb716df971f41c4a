package scan

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numbers = message.NewPrinter(language.English)

// ProgressSpinner redraws a single status line while a walk runs. It is
// safe for use by the walker's workers.
type ProgressSpinner struct {
	out     io.Writer
	frames  spinner.Spinner
	dirs    atomic.Int64
	entries atomic.Int64
	started time.Time

	quit    chan struct{}
	stopped sync.Once
	drawn   sync.WaitGroup
}

// NewProgressSpinner starts drawing on out. Call Stop to print the summary.
func NewProgressSpinner(out io.Writer) *ProgressSpinner {
	s := &ProgressSpinner{
		out:     out,
		frames:  spinner.MiniDot,
		started: time.Now(),
		quit:    make(chan struct{}),
	}
	s.drawn.Add(1)
	go s.loop()
	return s
}

func (s *ProgressSpinner) loop() {
	defer s.drawn.Done()
	tick := time.NewTicker(s.frames.FPS)
	defer tick.Stop()

	for frame := 0; ; frame = (frame + 1) % len(s.frames.Frames) {
		select {
		case <-s.quit:
			return
		case <-tick.C:
			numbers.Fprintf(s.out, "\r%s Scanning: %d dirs, %d entries",
				s.frames.Frames[frame], s.dirs.Load(), s.entries.Load())
		}
	}
}

// DirDone counts one directory whose listing finished.
func (s *ProgressSpinner) DirDone() {
	s.dirs.Add(1)
}

// Found counts n directory entries.
func (s *ProgressSpinner) Found(n int) {
	s.entries.Add(int64(n))
}

// Entries is the number of entries found so far.
func (s *ProgressSpinner) Entries() int64 {
	return s.entries.Load()
}

// Stop ends the animation and prints a summary line. Later calls do nothing.
func (s *ProgressSpinner) Stop() {
	s.stopped.Do(func() {
		close(s.quit)
		s.drawn.Wait()
		numbers.Fprintf(s.out, "\r✓ Scanned %s entries in %.1fs\n",
			formatNumber(s.entries.Load()), time.Since(s.started).Seconds())
	})
}

// formatNumber groups thousands with commas.
func formatNumber(n int64) string {
	return numbers.Sprintf("%d", n)
}
