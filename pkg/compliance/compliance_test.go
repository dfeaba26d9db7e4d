package compliance_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lacquerai/parity/pkg/compliance"
	"github.com/lacquerai/parity/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicants(t *testing.T) *compliance.Dataset {
	t.Helper()

	gender := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		if i < 90 {
			gender = append(gender, "male")
		} else {
			gender = append(gender, "female")
		}
	}

	data := compliance.NewDataset("applicants")
	require.NoError(t, data.AddStrings("gender", gender...))
	return data
}

func TestGenerateReport(t *testing.T) {
	report, err := compliance.GenerateReport(applicants(t), []string{"gender"},
		compliance.WithModel(compliance.Importances{0.1, 0.5, 0.4}, []string{"a", "b", "c"}),
	)
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"bias_check": {
			"gender": {"distribution": {"male": 90, "female": 10}, "max_percentage": 90, "is_biased": true}
		},
		"interpretability": [
			{"feature": "b", "importance": 0.5},
			{"feature": "c", "importance": 0.4},
			{"feature": "a", "importance": 0.1}
		]
	}`, string(data))
}

func TestGenerateReportOptions(t *testing.T) {
	report, err := compliance.GenerateReport(applicants(t), []string{"gender"},
		compliance.WithThreshold(95),
		compliance.WithModel(compliance.Importances{0.1, 0.5, 0.4}, []string{"a", "b", "c"}),
		compliance.WithTop(1),
	)
	require.NoError(t, err)
	assert.False(t, report.HasBias())
	require.Len(t, report.Interpretability, 1)
	assert.Equal(t, "b", report.Interpretability[0].Feature)

	_, err = compliance.GenerateReport(applicants(t), []string{"gender"}, compliance.WithMissingValues("drop"))
	assert.Error(t, err)
}

func TestGenerateReportErrors(t *testing.T) {
	_, err := compliance.GenerateReport(applicants(t), []string{"race"})
	var notFound *compliance.ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "race", notFound.Column)

	_, err = compliance.GenerateReport(applicants(t), []string{"gender"},
		compliance.WithModel(compliance.Importances{0.1}, []string{"a", "b"}))
	var mismatch *compliance.LengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 1, mismatch.Importances)
	assert.Equal(t, 2, mismatch.Features)
}

type countingListener struct {
	mu     sync.Mutex
	counts map[events.ExecutionEventType]int
}

func (l *countingListener) StartListening(progressChan <-chan events.ExecutionEvent) {
	for event := range progressChan {
		l.mu.Lock()
		l.counts[event.Type]++
		l.mu.Unlock()
	}
}

func (l *countingListener) StopListening() {}

func TestRunAuditFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.csv"), []byte("gender\nmale\nfemale\nfemale\n"), 0o600))
	path := filepath.Join(dir, "people.parity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.0"
dataset:
  path: people.csv
protected_columns: [gender]
`), 0o600))

	listener := &countingListener{counts: map[events.ExecutionEventType]int{}}
	report, err := compliance.RunAuditFile(context.Background(), path, compliance.WithProgressListener(listener))
	require.NoError(t, err)
	assert.True(t, report.HasBias())
	assert.Equal(t, 1, listener.counts[events.EventAuditStarted])
	assert.Equal(t, 1, listener.counts[events.EventAuditCompleted])

	report, err = compliance.RunAuditFile(context.Background(), path, compliance.WithThreshold(70))
	require.NoError(t, err)
	assert.False(t, report.HasBias())

	_, err = compliance.RunAuditFile(context.Background(), filepath.Join(dir, "missing.parity.yaml"))
	assert.Error(t, err)
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"gender": "male"}, {"gender": null}, {"gender": "female"}]`), 0o600))

	data, err := compliance.LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, 3, data.Rows())

	report, err := compliance.GenerateReport(data, []string{"gender"})
	require.NoError(t, err)
	entry, ok := report.BiasCheck.Get("gender")
	require.True(t, ok)
	assert.Equal(t, 50.0, entry.MaxPercentage)
}
