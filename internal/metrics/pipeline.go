// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "renditiond_jobs_total",
		Help: "Pipeline job executions by kind and outcome",
	}, []string{"kind", "outcome"}) // outcome=success|failure

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "renditiond_job_duration_seconds",
		Help:    "Wall-clock duration of pipeline jobs",
		Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
	}, []string{"kind"})

	renditionsEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renditiond_renditions_encoded_total",
		Help: "Renditions actually encoded by ffmpeg",
	})

	renditionsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renditiond_renditions_skipped_total",
		Help: "Renditions skipped because the output already existed",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "renditiond_queue_depth",
		Help: "Jobs currently waiting in the queue",
	})

	cleanupRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renditiond_cleanup_files_removed_total",
		Help: "Files and directories removed by cleanup",
	})
)

// RecordJob counts one finished job invocation.
func RecordJob(kind, outcome string, elapsed time.Duration) {
	jobsTotal.WithLabelValues(kind, outcome).Inc()
	jobDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// IncRenditionEncoded counts one ffmpeg encode.
func IncRenditionEncoded() { renditionsEncoded.Inc() }

// IncRenditionSkipped counts one idempotence skip.
func IncRenditionSkipped() { renditionsSkipped.Inc() }

// SetQueueDepth records the current queue length.
func SetQueueDepth(n int64) { queueDepth.Set(float64(n)) }

// AddCleanupRemoved counts artifacts removed by a cleanup run.
func AddCleanupRemoved(n int) { cleanupRemoved.Add(float64(n)) }
