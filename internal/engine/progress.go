package engine

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/lacquerai/parity/internal/style"
	pkgEvents "github.com/lacquerai/parity/pkg/events"
)

// CLIProgressTracker shows a spinner while audits run and prints one line
// per finished audit.
type CLIProgressTracker struct {
	mu      sync.Mutex
	writer  io.Writer
	running map[int]string
	spinner style.Spinner
	done    bool
}

// NewProgressTracker creates a progress tracker that writes to writer.
func NewProgressTracker(writer io.Writer) *CLIProgressTracker {
	return &CLIProgressTracker{
		writer:  writer,
		running: make(map[int]string),
	}
}

// StartListening processes events until the channel is closed.
func (pt *CLIProgressTracker) StartListening(progressChan <-chan pkgEvents.ExecutionEvent) {
	pt.mu.Lock()
	pt.done = false
	pt.mu.Unlock()

	for event := range progressChan {
		switch event.Type {
		case pkgEvents.EventAuditStarted:
			pt.startAudit(event)
		case pkgEvents.EventDatasetLoaded:
			pt.updateAudit(event)
		case pkgEvents.EventAuditCompleted, pkgEvents.EventAuditFailed:
			pt.finishAudit(event)
		}
	}
}

// StopListening stops the spinner if one is still active.
func (pt *CLIProgressTracker) StopListening() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.stopSpinner()
	pt.running = make(map[int]string)
	pt.done = true
}

// HasCompleted checks if the progress tracker has completed.
func (pt *CLIProgressTracker) HasCompleted() bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	return pt.done
}

func (pt *CLIProgressTracker) startAudit(event pkgEvents.ExecutionEvent) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.running[event.Index] = event.Audit
	pt.showSpinner(title(event.Audit, event.Index, event.Total, ""))
}

func (pt *CLIProgressTracker) updateAudit(event pkgEvents.ExecutionEvent) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.spinner != nil {
		pt.spinner.SetSuffix(title(event.Audit, event.Index, event.Total, event.Text))
	}
}

func (pt *CLIProgressTracker) finishAudit(event pkgEvents.ExecutionEvent) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.stopSpinner()
	delete(pt.running, event.Index)

	duration := style.DurationStyle.Render(fmt.Sprintf("(%s)", event.Duration.Round(time.Millisecond)))
	name := style.AccentStyle.Render(event.Audit)

	switch {
	case event.Type == pkgEvents.EventAuditFailed:
		fmt.Fprintf(pt.writer, "%s %s failed: %s %s\n", style.ErrorIcon(), name, event.Error, duration)
	case len(event.Biased) > 0:
		fmt.Fprintf(pt.writer, "%s %s %s %s\n", style.WarningIcon(), name, event.Text, duration)
	default:
		fmt.Fprintf(pt.writer, "%s %s %s %s\n", style.SuccessIcon(), name, event.Text, duration)
	}

	if len(pt.running) == 0 {
		return
	}

	// keep spinning for the lowest-numbered audit still in flight
	indexes := make([]int, 0, len(pt.running))
	for i := range pt.running {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	pt.showSpinner(title(pt.running[indexes[0]], indexes[0], event.Total, ""))
}

func (pt *CLIProgressTracker) showSpinner(suffix string) {
	if pt.spinner == nil {
		pt.spinner = style.NewSpinner(pt.writer)
		pt.spinner.SetSuffix(suffix)
		pt.spinner.Start()
		return
	}
	pt.spinner.SetSuffix(suffix)
}

func (pt *CLIProgressTracker) stopSpinner() {
	if pt.spinner != nil {
		pt.spinner.Stop()
		pt.spinner = nil
	}
}

func title(audit string, index, total int, detail string) string {
	t := fmt.Sprintf(" Auditing %s (%d/%d)", style.AccentStyle.Render(audit), index, total)
	if detail != "" {
		t += " " + style.MutedStyle.Render(detail)
	}
	return t
}
