package report

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
)

const namespace = "companion"

// Metrics collects Prometheus metrics about a test run. It uses its own registry, so that
// only these metrics end up in the textfile.
type Metrics struct {
	registry        *prometheus.Registry
	testsTotal      *prometheus.CounterVec
	testDuration    *prometheus.HistogramVec
	requestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		testsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "tests_total",
			Help:      "Number of contract tests by category and outcome",
		}, []string{"category", "status"}),
		testDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "test_duration_seconds",
			Help:      "Duration of contract tests by category",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"category"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the backend under test",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method", "route", "code"}),
	}
	m.registry.MustRegister(m.testsTotal, m.testDuration, m.requestDuration)
	return m
}

// ObserveResponse records the latency of one backend request. The route label is the
// unexpanded path template, so that per-user paths do not create new series. It can be used
// as a harness.ResponseObserver.
func (m *Metrics) ObserveResponse(resp harness.Response) {
	m.requestDuration.WithLabelValues(
		resp.Request.Method,
		resp.Request.Path,
		strconv.Itoa(resp.StatusCode),
	).Observe(resp.Latency.Seconds())
}

func (m *Metrics) RecordResults(results ldtest.Results) {
	for _, t := range results.Tests {
		category := t.TestID.Category()
		m.testsTotal.WithLabelValues(category, string(t.Status)).Inc()
		if t.Status != ldtest.StatusSkipped {
			m.testDuration.WithLabelValues(category).Observe(t.Duration.Seconds())
		}
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to a file that the node_exporter textfile collector can
// pick up. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
