// Package metrics provides Prometheus metrics for the dataset admin server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dataset_admin"

// Upload chunk outcomes.
const (
	ChunkStored       = "stored"
	ChunkCompleted    = "completed"
	ChunkSizeMismatch = "size_mismatch"
	ChunkFailed       = "failed"
)

// Download resolution sources.
const (
	SourceLocal     = "local"
	SourceExternal  = "external"
	SourceBackend   = "backend"
	SourcePartition = "partition"
	SourceFailed    = "failed"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UploadChunksTotal *prometheus.CounterVec
	UploadBytesTotal  prometheus.Counter

	DownloadResolutionsTotal *prometheus.CounterVec

	TasksEnqueuedTotal *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		UploadChunksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_chunks_total",
				Help:      "Total number of received upload chunks by outcome",
			},
			[]string{"result"},
		),
		UploadBytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_bytes_total",
				Help:      "Total number of bytes written by chunk uploads",
			},
		),
		DownloadResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "download_resolutions_total",
				Help:      "Total number of download URL resolutions by source",
			},
			[]string{"source"},
		),
		TasksEnqueuedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_enqueued_total",
				Help:      "Total number of tasks handed to the task runner",
			},
			[]string{"task", "status"},
		),
	}
}

// Discard returns metrics registered on a throwaway registry.
func Discard() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
