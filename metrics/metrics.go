// Package metrics exports smoke test outcomes in the Prometheus text format
// so node_exporter's textfile collector can pick them up.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"modelcheck/smoketest"
)

const namespace = "modelcheck"

// Recorder accumulates outcomes across runs of one process.
type Recorder struct {
	registry *prometheus.Registry

	success     prometheus.Gauge
	timestamp   prometheus.Gauge
	duration    prometheus.Gauge
	prediction  *prometheus.GaugeVec
	probability prometheus.Gauge
	runs        prometheus.Counter
	failures    *prometheus.CounterVec
}

func NewRecorder(model string) *Recorder {
	labels := prometheus.Labels{"model_path": model}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_success",
			Help:        "1 if the last smoke test passed, 0 otherwise.",
			ConstLabels: labels,
		}),
		timestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_timestamp_seconds",
			Help:        "Unix time the last smoke test finished.",
			ConstLabels: labels,
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_duration_seconds",
			Help:        "Wall time of the last smoke test.",
			ConstLabels: labels,
		}),
		prediction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_prediction",
			Help:        "Label predicted for the reference sample by the last passing run.",
			ConstLabels: labels,
		}, []string{"class"}),
		probability: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_probability",
			Help:        "Positive-class probability from the last passing run.",
			ConstLabels: labels,
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help:        "Smoke test runs performed by this process.",
			ConstLabels: labels,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "failures_total",
			Help:        "Failed smoke test runs by failure kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}
	r.registry.MustRegister(r.success, r.timestamp, r.duration, r.prediction, r.probability, r.runs, r.failures)
	return r
}

// Observe records one run. result is nil when err is not.
func (r *Recorder) Observe(result *smoketest.Result, err error, took time.Duration) {
	r.runs.Inc()
	r.timestamp.Set(float64(time.Now().Unix()))
	r.duration.Set(took.Seconds())
	if err != nil {
		r.success.Set(0)
		r.failures.WithLabelValues(string(smoketest.KindOf(err))).Inc()
		return
	}
	r.success.Set(1)
	r.prediction.Reset()
	r.prediction.WithLabelValues(result.Class).Set(float64(result.Prediction))
	r.probability.Set(result.Probability)
}

// Gatherer exposes the recorder's private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically replaces path with the current metric values.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
