package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spacesedan/sentiflow/internal/models"
	"github.com/spacesedan/sentiflow/internal/sentiment"
)

const namespace = "sentiflow"

// AnalysisMetrics records scoring outcomes. It implements sentiment.Observer.
type AnalysisMetrics struct {
	AnalysesTotal   *prometheus.CounterVec
	FailuresTotal   *prometheus.CounterVec
	BatchSize       *prometheus.HistogramVec
	BatchConfidence *prometheus.HistogramVec
}

var _ sentiment.Observer = (*AnalysisMetrics)(nil)

func NewAnalysisMetrics(reg prometheus.Registerer) *AnalysisMetrics {
	m := &AnalysisMetrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "completed_total",
			Help:      "Texts scored, by strategy, sentiment and whether the result came from the cache.",
		}, []string{"strategy", "sentiment", "cached"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "failures_total",
			Help:      "Failed analyses by strategy and error kind.",
		}, []string{"strategy", "kind"}),
		BatchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "size",
			Help:      "Number of texts per batch.",
			Buckets:   []float64{1, 5, 10, 25, 50, 75, 100},
		}, []string{"strategy"}),
		BatchConfidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "average_confidence",
			Help:      "Average confidence over the successful items of a batch.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"strategy"}),
	}

	reg.MustRegister(m.AnalysesTotal, m.FailuresTotal, m.BatchSize, m.BatchConfidence)
	return m
}

func (m *AnalysisMetrics) AnalysisCompleted(strategy models.Strategy, s models.Sentiment, cached bool) {
	m.AnalysesTotal.WithLabelValues(string(strategy), string(s), strconv.FormatBool(cached)).Inc()
}

func (m *AnalysisMetrics) AnalysisFailed(strategy models.Strategy, kind sentiment.ErrorKind) {
	m.FailuresTotal.WithLabelValues(string(strategy), string(kind)).Inc()
}

func (m *AnalysisMetrics) BatchCompleted(strategy models.Strategy, size int, summary models.BatchSummary) {
	m.BatchSize.WithLabelValues(string(strategy)).Observe(float64(size))
	m.BatchConfidence.WithLabelValues(string(strategy)).Observe(summary.AverageConfidence)
}
