// Package metrics holds the Prometheus collectors for metadata extraction.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrok_extractions_total",
		Help: "Total number of metadata extractions by probe path and outcome",
	}, []string{"path", "outcome"})

	extractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vrok_extraction_duration_seconds",
		Help:    "Wall time of metadata extractions by probe path",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"path"})

	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrok_attempts_total",
		Help: "Total number of probe attempts by window and result (ok, or the failure kind)",
	}, []string{"window", "result"})

	fetchedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vrok_fetched_bytes_total",
		Help: "Total bytes downloaded through range requests",
	})

	probeWorkersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vrok_probe_workers_busy",
		Help: "Number of probe workers currently running ffprobe",
	})
)

// ProbeWorkerBusy adjusts the busy probe worker gauge by delta.
func ProbeWorkerBusy(delta float64) {
	probeWorkersBusy.Add(delta)
}

// RecordExtraction records one finished extraction.
func RecordExtraction(path string, success bool, d time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	p := normalizePathLabel(path)
	extractionsTotal.WithLabelValues(p, outcome).Inc()
	extractionDuration.WithLabelValues(p).Observe(d.Seconds())
}

// RecordAttempt records one probe attempt. result is "ok" or an error kind.
func RecordAttempt(window, result string) {
	attemptsTotal.WithLabelValues(normalizeWindowLabel(window), normalizeResultLabel(result)).Inc()
}

// AddFetchedBytes adds n downloaded bytes.
func AddFetchedBytes(n int) {
	if n > 0 {
		fetchedBytes.Add(float64(n))
	}
}

func normalizePathLabel(path string) string {
	switch p := strings.ToLower(strings.TrimSpace(path)); p {
	case "direct", "windowed":
		return p
	default:
		return "unknown"
	}
}

func normalizeWindowLabel(window string) string {
	switch w := strings.ToLower(strings.TrimSpace(window)); w {
	case "primary", "secondary", "direct":
		return w
	default:
		return "unknown"
	}
}

func normalizeResultLabel(result string) string {
	switch r := strings.ToLower(strings.TrimSpace(result)); r {
	case "ok", "validation", "transport", "tool_failure", "malformed_output":
		return r
	default:
		return "unknown"
	}
}
