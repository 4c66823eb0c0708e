package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/idcard-tools/internal/card"
	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/fields"
)

func TestObserveRecord(t *testing.T) {
	m := New()

	m.ObserveRecord(card.Result{Stage: card.StageSaved, Duration: 120 * time.Millisecond})
	m.ObserveRecord(card.Result{Stage: card.StageSaved, Duration: 80 * time.Millisecond})
	m.ObserveRecord(card.Result{
		Stage: card.StageSkipped,
		Err:   &card.MissingInputError{Fields: []string{card.InputPhoto, card.InputTeachingStaff}},
	})
	m.ObserveRecord(card.Result{Stage: card.StageFailed, Err: errors.New("disk full")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Records.WithLabelValues("saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MissingInputs.WithLabelValues(card.InputPhoto)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MissingInputs.WithLabelValues(card.InputTeachingStaff)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RecordLatency))
}

func TestObserveLayout(t *testing.T) {
	m := New()
	layout := &card.Layout{
		Regions: make([]detection.Region, 3),
		Fields: []card.Field{
			{Kind: fields.Name},
			{Kind: fields.Photo},
			{Kind: fields.Unknown},
		},
	}
	m.ObserveLayout(layout)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TemplateFields.WithLabelValues("name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TemplateFields.WithLabelValues("unknown")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.TemplateFields))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRecord(card.Result{Stage: card.StageSaved})
		m.ObserveLayout(&card.Layout{})
		m.MarkRun(time.Now())
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRecord(card.Result{Stage: card.StageSaved, Duration: time.Second})
	m.MarkRun(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "idcard.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `idcard_records_total{stage="saved"} 1`)
	assert.Contains(t, text, "idcard_last_run_timestamp_seconds 1.7e+09")
	assert.Contains(t, text, "idcard_record_duration_seconds_count 1")
}
