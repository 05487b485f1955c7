package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable download progress. Byte counts are updated
// from concurrent download goroutines via atomics; the display is driven by
// a single ticker goroutine between Start and Stop.
type Reporter struct {
	opts Options

	receivedBytes atomic.Int64
	totalBytes    atomic.Int64
	indeterminate atomic.Bool

	mu        sync.Mutex
	startTime time.Time
	stopCh    chan struct{}
	started   bool
	stopped   bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start begins outputting progress for the given number of files. Calling
// Start twice is a no-op.
func (r *Reporter) Start(files int) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.startTime = time.Now()
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "[sign-addon] Downloading %d signed file(s)\n", files)
	go r.updateLoop()
}

// Stop stops the progress reporter and prints the final line. Safe to call
// more than once.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
}

// AddTotal registers the expected size of one download. A negative size
// (unknown Content-Length) switches the display to indeterminate mode.
func (r *Reporter) AddTotal(size int64) {
	if size < 0 {
		r.indeterminate.Store(true)
		return
	}
	r.totalBytes.Add(size)
}

// Track wraps body so every byte read through it counts toward the
// cumulative progress.
func (r *Reporter) Track(body io.Reader) io.Reader {
	return &countingReader{r: body, reporter: r}
}

type countingReader struct {
	r        io.Reader
	reporter *Reporter
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.reporter.receivedBytes.Add(int64(n))
	}
	return n, err
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinal()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	received := r.receivedBytes.Load()
	total := r.totalBytes.Load()

	if r.indeterminate.Load() || total <= 0 {
		fmt.Fprintf(r.opts.Output, "\r[sign-addon] Progress: %s received    ", formatBytes(received))
		return
	}

	percent := float64(received) / float64(total) * 100
	fmt.Fprintf(r.opts.Output, "\r[sign-addon] Progress: %.1f%% | %s / %s    ",
		percent,
		formatBytes(received),
		formatBytes(total),
	)
}

func (r *Reporter) printFinal() {
	received := r.receivedBytes.Load()
	duration := time.Since(r.startTime)

	fmt.Fprintf(r.opts.Output, "\r[sign-addon] Downloaded %s in %s\n",
		formatBytes(received),
		formatDuration(duration),
	)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}
