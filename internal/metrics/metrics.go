// Package metrics exposes prometheus instruments for statement extraction.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/insightdelivered/card-statement-parser/internal/models"
)

// Extraction holds the counters updated once per parsed statement.
type Extraction struct {
	Parsed    *prometheus.CounterVec
	Fields    *prometheus.CounterVec
	EmptyText prometheus.Counter
	Duration  prometheus.Histogram
}

// NewExtraction registers the extraction instruments with reg. A nil reg
// uses the default registerer.
func NewExtraction(reg prometheus.Registerer) *Extraction {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Extraction{
		Parsed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_parsed_total",
			Help: "Statements parsed, by detected issuer.",
		}, []string{"issuer"}),
		Fields: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_field_total",
			Help: "Field extraction outcomes, by field and outcome (present or absent).",
		}, []string{"field", "outcome"}),
		EmptyText: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_empty_text_total",
			Help: "Documents for which no text could be extracted.",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "statement_parse_duration_seconds",
			Help:    "Time spent classifying and extracting fields from one statement text.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
}

// Observe records one finished extraction. Safe on a nil receiver.
func (m *Extraction) Observe(rec models.FieldRecord, emptyText bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Parsed.WithLabelValues(string(rec.Issuer)).Inc()
	for name, f := range rec.Fields() {
		outcome := "absent"
		if f.IsPresent() {
			outcome = "present"
		}
		m.Fields.WithLabelValues(name, outcome).Inc()
	}
	if emptyText {
		m.EmptyText.Inc()
	}
	m.Duration.Observe(elapsed.Seconds())
}
