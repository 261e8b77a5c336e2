package oracle

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "oracle"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of OracleRequest events dispatched.
	Requests metrics.Counter
	// Number of logs that could not be decoded.
	MalformedEvents metrics.Counter
	// Number of response submissions, labelled by result.
	Submissions metrics.Counter
	// Time spent per submission, in seconds.
	SubmissionDuration metrics.Histogram
	// Number of oracles in the registry.
	RegisteredOracles metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Requests: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "requests_total",
			Help:      "Number of OracleRequest events dispatched.",
		}, labels).With(labelsAndValues...),
		MalformedEvents: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "malformed_events_total",
			Help:      "Number of OracleRequest logs that failed to decode.",
		}, labels).With(labelsAndValues...),
		Submissions: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submissions_total",
			Help:      "Number of oracle response submissions.",
		}, append(labels, "result")).With(labelsAndValues...),
		SubmissionDuration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submission_duration_seconds",
			Help:      "Time spent submitting one oracle response.",
			Buckets:   stdprometheus.DefBuckets,
		}, labels).With(labelsAndValues...),
		RegisteredOracles: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "registered_oracles",
			Help:      "Number of oracles in the registry.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Requests:           discard.NewCounter(),
		MalformedEvents:    discard.NewCounter(),
		Submissions:        discard.NewCounter(),
		SubmissionDuration: discard.NewHistogram(),
		RegisteredOracles:  discard.NewGauge(),
	}
}
