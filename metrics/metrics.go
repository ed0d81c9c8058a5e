package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

const (
	MetricsNamespace = "harness"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

var _ runner.EventSink = (*Metrics)(nil)

// Metrics records the progress of a run on its own registry
type Metrics struct {
	registry *prometheus.Registry

	testsTotal   *prometheus.CounterVec
	testDuration *prometheus.HistogramVec
	inflight     prometheus.Gauge
	runInfo      *prometheus.GaugeVec
	runSuccess   prometheus.Gauge
	errorsTotal  *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		testsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "tests_total",
			Help:      "Count of test outcomes",
		}, []string{
			"kind",
			"outcome",
		}),
		testDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "test_duration_seconds",
			Help:      "Duration of executed tests and benchmarks",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{
			"kind",
		}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "inflight_tests",
			Help:      "Number of units of work currently running",
		}),
		runInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_info",
			Help:      "Information about the current run",
		}, []string{
			"run_id",
		}),
		runSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_success",
			Help:      "1 if the finished run had no failures, 0 otherwise",
		}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "errors_total",
			Help:      "Count of harness errors",
		}, []string{
			"error",
		}),
	}
}

// Registry returns the registry holding the run's collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OnStart(plan runner.Plan) error {
	m.runInfo.WithLabelValues(plan.RunID).Set(1)
	return nil
}

func (m *Metrics) OnTestStart(types.Event) error {
	m.inflight.Inc()
	return nil
}

func (m *Metrics) OnResult(ev types.Event) error {
	o := ev.Outcome
	m.testsTotal.WithLabelValues(ev.Kind.String(), o.Kind.String()).Inc()
	if !o.Synthesized() {
		m.inflight.Dec()
		m.testDuration.WithLabelValues(ev.Kind.String()).Observe(o.Elapsed.Seconds())
	}
	return nil
}

func (m *Metrics) OnFinish(result *runner.Result) error {
	if result.Success() {
		m.runSuccess.Set(1)
	} else {
		m.runSuccess.Set(0)
	}
	return nil
}

// RecordError counts a harness error under a sanitized label.
func (m *Metrics) RecordError(msg string) {
	label := strings.TrimSpace(nonAlphanumericRegex.ReplaceAllString(msg, " "))
	m.errorsTotal.WithLabelValues(label).Inc()
}

// WriteTextfile writes the collectors in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
