// Package metrics records decode outcomes for the qrscan CLI and writes
// them in the Prometheus text format for a node exporter textfile
// collector.
package metrics

import (
	"time"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/qrcode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry, so several runs in one process do
// not collide.
type Recorder struct {
	registry *prometheus.Registry

	decodesTotal    *prometheus.CounterVec
	decodeDuration  prometheus.Histogram
	errorsCorrected prometheus.Counter
	symbolVersion   prometheus.Histogram
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		decodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qrscan_decodes_total",
				Help: "Total number of decoded images by outcome and failing stage",
			},
			[]string{"outcome", "stage"},
		),
		decodeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qrscan_decode_duration_seconds",
				Help:    "Time spent decoding one image",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		errorsCorrected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "qrscan_codewords_corrected_total",
				Help: "Total number of codewords repaired by Reed-Solomon correction",
			},
		),
		symbolVersion: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "qrscan_symbol_version",
				Help:    "Version of decoded symbols",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 40},
			},
		),
	}
}

// Observe records one decode attempt. A nil Recorder ignores it.
func (r *Recorder) Observe(result *qrcode.Result, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.decodeDuration.Observe(elapsed.Seconds())
	if err != nil {
		r.decodesTotal.WithLabelValues("failure", failureStage(err)).Inc()
		return
	}
	r.decodesTotal.WithLabelValues("success", "none").Inc()
	r.errorsCorrected.Add(float64(result.ErrorsCorrected))
	r.symbolVersion.Observe(float64(result.Version))
}

// failureStage labels errors that carry no pipeline stage, such as
// unreadable files, as "input".
func failureStage(err error) string {
	if stage := qrcodec.StageOf(err); stage != "" {
		return string(stage)
	}
	return "input"
}

// WriteToTextfile writes every metric to path atomically.
func (r *Recorder) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
