// Package metrics exposes Prometheus metrics for assembly runs and
// binary provisioning.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	assembliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signcast",
		Subsystem: "assemble",
		Name:      "runs_total",
		Help:      "Video assembly runs by result",
	}, []string{"result"})

	assemblyDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "signcast",
		Subsystem: "assemble",
		Name:      "last_duration_seconds",
		Help:      "Wall time of the most recent assembly run",
	})

	assemblyLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "signcast",
		Subsystem: "assemble",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful assembly",
	})

	downloadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "signcast",
		Subsystem: "ffbin",
		Name:      "download_bytes_total",
		Help:      "Bytes downloaded while provisioning encoder binaries",
	})

	downloadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signcast",
		Subsystem: "ffbin",
		Name:      "download_failures_total",
		Help:      "Failed archive download attempts by source",
	}, []string{"source"})

	cyclePhase = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "signcast",
		Subsystem: "cycle",
		Name:      "phase",
		Help:      "Current daemon cycle phase (1 = active)",
	}, []string{"phase"})

	// Local cache so the status API can read current values without
	// scraping the registry.
	lastRun   RunInfo
	lastRunMu sync.RWMutex
)

// RunInfo holds the most recent assembly run outcome.
type RunInfo struct {
	Success    bool
	Duration   time.Duration
	FinishedAt time.Time
	OutputPath string
}

// RecordAssembly records the outcome of an assembly run.
func RecordAssembly(success bool, duration time.Duration, outputPath string) {
	result := "failure"
	if success {
		result = "success"
		assemblyLastSuccess.SetToCurrentTime()
	}
	assembliesTotal.WithLabelValues(result).Inc()
	assemblyDuration.Set(duration.Seconds())

	lastRunMu.Lock()
	lastRun = RunInfo{
		Success:    success,
		Duration:   duration,
		FinishedAt: time.Now(),
		OutputPath: outputPath,
	}
	lastRunMu.Unlock()
}

// LastRun returns the most recent assembly run info.
func LastRun() RunInfo {
	lastRunMu.RLock()
	defer lastRunMu.RUnlock()
	return lastRun
}

// AddDownloadBytes accumulates downloaded archive bytes.
func AddDownloadBytes(n int64) {
	if n > 0 {
		downloadBytes.Add(float64(n))
	}
}

// RecordDownloadFailure counts a failed download attempt from a source URL.
func RecordDownloadFailure(source string) {
	downloadFailures.WithLabelValues(source).Inc()
}

// SetCyclePhase marks the given phase active and all others inactive.
func SetCyclePhase(phase string) {
	for _, p := range []string{"idle", "scan", "assemble", "publish", "sleep"} {
		v := 0.0
		if p == phase {
			v = 1.0
		}
		cyclePhase.WithLabelValues(p).Set(v)
	}
}
