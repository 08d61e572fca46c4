// Package metrics defines the Prometheus metrics of the synthesis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the synthesis service
type Metrics struct {
	// Job lifecycle metrics
	JobsTotal         *prometheus.CounterVec
	JobDuration       prometheus.Histogram
	JobQueueDepth     prometheus.Gauge
	JobsRejectedTotal prometheus.Counter

	// Render metrics
	RenderDuration        prometheus.Histogram
	SamplesGeneratedTotal prometheus.Counter
	ChannelsRenderedTotal prometheus.Counter

	// Dataset metrics
	RunsWrittenTotal   prometheus.Counter
	RunBytesWritten    prometheus.Histogram
	DiskUsagePercent   prometheus.Gauge
	DiskAvailableBytes prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Gossip metrics
	GossipMembersTotal   prometheus.Gauge
	GossipMembersHealthy prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(nodeID string) *Metrics {
	labels := prometheus.Labels{"node_id": nodeID}

	return &Metrics{
		JobsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "synthesis",
			Subsystem:   "jobs",
			Name:        "total",
			Help:        "Total number of synthesis jobs by final state",
			ConstLabels: labels,
		}, []string{"state"}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "synthesis",
			Subsystem:   "jobs",
			Name:        "duration_seconds",
			Help:        "End to end job duration in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		JobQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "synthesis",
			Subsystem:   "jobs",
			Name:        "queue_depth",
			Help:        "Number of jobs waiting in the render queue",
			ConstLabels: labels,
		}),
		JobsRejectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "synthesis",
			Subsystem:   "jobs",
			Name:        "rejected_total",
			Help:        "Jobs rejected at submission",
			ConstLabels: labels,
		}),

		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "synthesis",
			Subsystem:   "render",
			Name:        "duration_seconds",
			Help:        "Time spent rendering signals in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.05, 2, 14),
		}),
		SamplesGeneratedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "synthesis",
			Subsystem:   "render",
			Name:        "samples_generated_total",
			Help:        "Total audio samples generated across all channels",
			ConstLabels: labels,
		}),
		ChannelsRenderedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "synthesis",
			Subsystem:   "render",
			Name:        "channels_rendered_total",
			Help:        "Total hydrophone channels rendered",
			ConstLabels: labels,
		}),

		RunsWrittenTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "synthesis",
			Subsystem:   "dataset",
			Name:        "runs_written_total",
			Help:        "Dataset runs written to disk",
			ConstLabels: labels,
		}),
		RunBytesWritten: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "synthesis",
			Subsystem:   "dataset",
			Name:        "run_bytes_written",
			Help:        "Size of written runs in bytes",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(64*1024, 4, 10),
		}),
		DiskUsagePercent: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "synthesis",
			Subsystem:   "dataset",
			Name:        "disk_usage_percent",
			Help:        "Disk usage of the dataset filesystem in percent",
			ConstLabels: labels,
		}),
		DiskAvailableBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "synthesis",
			Subsystem:   "dataset",
			Name:        "disk_available_bytes",
			Help:        "Available bytes on the dataset filesystem",
			ConstLabels: labels,
		}),

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "synthesis",
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "HTTP requests by method, path and status code",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "synthesis",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		GossipMembersTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "synthesis",
			Subsystem:   "gossip",
			Name:        "members_total",
			Help:        "Known members of the synthesis farm",
			ConstLabels: labels,
		}),
		GossipMembersHealthy: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "synthesis",
			Subsystem:   "gossip",
			Name:        "members_healthy",
			Help:        "Members currently reporting healthy",
			ConstLabels: labels,
		}),
	}
}
