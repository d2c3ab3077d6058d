package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	divergences    *prometheus.CounterVec
	rhat           *prometheus.GaugeVec
	recordsEmitted *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cpdetect_runs_total",
				Help: "Total number of inference runs by outcome",
			},
			[]string{"dataset", "outcome"},
		),
		runDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cpdetect_run_duration_seconds",
				Help:    "Wall-clock duration of inference runs",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"dataset"},
		),
		divergences: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cpdetect_sampler_divergences_total",
				Help: "Non-finite proposals observed during sampling",
			},
			[]string{"dataset"},
		),
		rhat: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cpdetect_rhat",
				Help: "Latest potential scale reduction statistic per latent variable",
			},
			[]string{"variable"},
		),
		recordsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cpdetect_change_points_total",
				Help: "Change-point records emitted by completed runs",
			},
			[]string{"dataset"},
		),
	}
}

// RecordRun records one run ending with the given outcome.
func (r *Recorder) RecordRun(dataset, outcome string) {
	r.runsTotal.WithLabelValues(dataset, outcome).Inc()
}

// RecordRunDuration records a run's wall-clock duration.
func (r *Recorder) RecordRunDuration(dataset string, d time.Duration) {
	r.runDuration.WithLabelValues(dataset).Observe(d.Seconds())
}

// RecordDivergences adds observed divergence counts.
func (r *Recorder) RecordDivergences(dataset string, n int) {
	r.divergences.WithLabelValues(dataset).Add(float64(n))
}

// RecordRHat records the latest R-hat for a latent variable.
func (r *Recorder) RecordRHat(variable string, rhat float64) {
	r.rhat.WithLabelValues(variable).Set(rhat)
}

// RecordRecordsEmitted counts change points emitted by a run.
func (r *Recorder) RecordRecordsEmitted(dataset string, n int) {
	r.recordsEmitted.WithLabelValues(dataset).Add(float64(n))
}
