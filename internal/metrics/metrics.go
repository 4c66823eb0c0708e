// Package metrics records batch outcomes as Prometheus metrics.
//
// The CLI is a batch job rather than a server, so metrics are written to a
// node_exporter textfile after each run instead of being scraped.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ironsheep/idcard-tools/internal/card"
)

// Metrics holds the batch metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Records counts finished records by final stage
	// ("saved", "skipped", "failed").
	Records *prometheus.CounterVec

	// MissingInputs counts validation failures by input name.
	MissingInputs *prometheus.CounterVec

	// RecordLatency is the end-to-end duration of one record.
	RecordLatency prometheus.Histogram

	// TemplateFields is the number of fields of the last prepared
	// template, by kind.
	TemplateFields *prometheus.GaugeVec

	// LastRun is the Unix time the last batch finished.
	LastRun prometheus.Gauge
}

// New creates a Metrics instance with all metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		Records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idcard_records_total",
			Help: "Total records processed by final stage",
		}, []string{"stage"}),

		MissingInputs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idcard_missing_inputs_total",
			Help: "Total missing or unreadable record inputs by input name",
		}, []string{"input"}),

		RecordLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "idcard_record_duration_seconds",
			Help:    "Duration of rendering and saving one card",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		TemplateFields: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "idcard_template_fields",
			Help: "Fields of the last prepared template by kind",
		}, []string{"kind"}),

		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "idcard_last_run_timestamp_seconds",
			Help: "Unix time the last batch finished",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRecord implements card.Observer.
func (m *Metrics) ObserveRecord(r card.Result) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(r.Stage.String()).Inc()
	m.RecordLatency.Observe(r.Duration.Seconds())

	var missing *card.MissingInputError
	if errors.As(r.Err, &missing) {
		for _, f := range missing.Fields {
			m.MissingInputs.WithLabelValues(f).Inc()
		}
	}
}

// ObserveLayout records the field kinds of a prepared template.
func (m *Metrics) ObserveLayout(l *card.Layout) {
	if m == nil {
		return
	}
	m.TemplateFields.Reset()
	for kind, n := range l.Kinds() {
		m.TemplateFields.WithLabelValues(kind.String()).Set(float64(n))
	}
}

// MarkRun stamps the end of a batch.
func (m *Metrics) MarkRun(t time.Time) {
	if m != nil {
		m.LastRun.Set(float64(t.Unix()))
	}
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
