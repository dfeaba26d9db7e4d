// Package events provides the types used to follow the progress of audit
// runs. A Listener receives one event when an audit starts and one when it
// completes or fails.
package events

import (
	"time"
)

// ExecutionEventType represents the type of event emitted by an audit run.
type ExecutionEventType string

const (
	// EventAuditStarted is emitted when an audit begins.
	EventAuditStarted ExecutionEventType = "audit_started"

	// EventDatasetLoaded is emitted once the audit's dataset is in memory.
	EventDatasetLoaded ExecutionEventType = "dataset_loaded"

	// EventAuditCompleted is emitted when a report was produced.
	EventAuditCompleted ExecutionEventType = "audit_completed"

	// EventAuditFailed is emitted when an audit stopped without a report.
	EventAuditFailed ExecutionEventType = "audit_failed"
)

// ExecutionEvent describes something that happened during an audit run.
type ExecutionEvent struct {
	// Type specifies the kind of event.
	Type ExecutionEventType `json:"type"`
	// Timestamp indicates when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// Audit is the name of the audit the event belongs to.
	Audit string `json:"audit"`
	// Index is the position of the audit in the run.
	Index int `json:"index"`
	// Total is the number of audits in the run.
	Total int `json:"total"`
	// Duration is set on completion and failure events.
	Duration time.Duration `json:"duration,omitempty"`
	// Error holds the failure message of EventAuditFailed.
	Error string `json:"error,omitempty"`
	// Biased lists the biased columns of a completed audit.
	Biased []string `json:"biased,omitempty"`
	// Text provides additional descriptive information about the event.
	Text string `json:"text,omitempty"`
}

// Listener receives the events of a run. StartListening is called in its
// own goroutine before the first audit starts; the channel is closed when
// the run ends, after which StopListening is called.
type Listener interface {
	StartListening(progressChan <-chan ExecutionEvent)
	StopListening()
}

// NoopListener drains events without acting on them.
type NoopListener struct{}

// StartListening consumes the channel until it is closed.
func (n *NoopListener) StartListening(progressChan <-chan ExecutionEvent) {
	for range progressChan {
	}
}

// StopListening does nothing.
func (n *NoopListener) StopListening() {}
