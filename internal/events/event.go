package events

import (
	"fmt"
	"time"

	pkgEvents "github.com/lacquerai/parity/pkg/events"
)

// NewAuditStartedEvent marks the start of audit index of total.
func NewAuditStartedEvent(audit string, index, total int) pkgEvents.ExecutionEvent {
	return pkgEvents.ExecutionEvent{
		Type:      pkgEvents.EventAuditStarted,
		Timestamp: time.Now(),
		Audit:     audit,
		Index:     index,
		Total:     total,
		Text:      fmt.Sprintf("Auditing %s", audit),
	}
}

// NewDatasetLoadedEvent reports the size of the dataset an audit loaded.
func NewDatasetLoadedEvent(audit string, index, total, rows, columns int) pkgEvents.ExecutionEvent {
	return pkgEvents.ExecutionEvent{
		Type:      pkgEvents.EventDatasetLoaded,
		Timestamp: time.Now(),
		Audit:     audit,
		Index:     index,
		Total:     total,
		Text:      fmt.Sprintf("Loaded %d rows across %d columns", rows, columns),
	}
}

// NewAuditCompletedEvent reports a finished audit and its biased columns.
func NewAuditCompletedEvent(audit string, index, total int, duration time.Duration, biased []string) pkgEvents.ExecutionEvent {
	text := "no bias detected"
	if len(biased) > 0 {
		text = fmt.Sprintf("%d biased column(s)", len(biased))
	}
	return pkgEvents.ExecutionEvent{
		Type:      pkgEvents.EventAuditCompleted,
		Timestamp: time.Now(),
		Audit:     audit,
		Index:     index,
		Total:     total,
		Duration:  duration,
		Biased:    biased,
		Text:      text,
	}
}

// NewAuditFailedEvent reports an audit that produced no report.
func NewAuditFailedEvent(audit string, index, total int, duration time.Duration, err error) pkgEvents.ExecutionEvent {
	return pkgEvents.ExecutionEvent{
		Type:      pkgEvents.EventAuditFailed,
		Timestamp: time.Now(),
		Audit:     audit,
		Index:     index,
		Total:     total,
		Duration:  duration,
		Error:     err.Error(),
	}
}
