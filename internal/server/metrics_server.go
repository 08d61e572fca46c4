package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/dataset"
	"github.com/labsonar/synthesis/internal/gossip"
	"github.com/labsonar/synthesis/internal/job"
	"github.com/labsonar/synthesis/internal/metrics"
)

// collectInterval is how often node load gauges are refreshed.
const collectInterval = 15 * time.Second

// MetricsServer serves Prometheus metrics and keeps the node load gauges
// fresh.
type MetricsServer struct {
	httpServer *http.Server
	metrics    *metrics.Metrics
	jobs       *job.Service
	guard      *dataset.DiskGuard
	gossip     *gossip.Service
	logger     *zap.Logger
	stopChan   chan struct{}
}

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	Port int
	Path string
}

// NewMetricsServer creates a metrics server. The gossip service may be nil.
func NewMetricsServer(
	cfg *MetricsServerConfig,
	m *metrics.Metrics,
	jobs *job.Service,
	guard *dataset.DiskGuard,
	gs *gossip.Service,
	logger *zap.Logger,
) *MetricsServer {
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	httpMux := http.NewServeMux()
	ms := &MetricsServer{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      httpMux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		metrics:  m,
		jobs:     jobs,
		guard:    guard,
		gossip:   gs,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	httpMux.Handle(path, promhttp.Handler())
	httpMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
	})

	return ms
}

// Start starts the metrics server and the background collector.
func (s *MetricsServer) Start() {
	s.logger.Info("Starting metrics server", zap.String("addr", s.httpServer.Addr))

	go s.collect()
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully stops the metrics server.
func (s *MetricsServer) Stop() error {
	s.logger.Info("Stopping metrics server")
	close(s.stopChan)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}
	return nil
}

func (s *MetricsServer) collect() {
	ticker := time.NewTicker(collectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.update()
		case <-s.stopChan:
			return
		}
	}
}

func (s *MetricsServer) update() {
	stats := s.jobs.PoolStats()
	s.metrics.JobQueueDepth.Set(float64(stats.QueuedTasks))

	var usage float64
	if s.guard != nil {
		var avail uint64
		usage, avail = s.guard.Usage()
		s.metrics.DiskUsagePercent.Set(usage)
		s.metrics.DiskAvailableBytes.Set(float64(avail))
	}

	if s.gossip != nil {
		s.gossip.UpdateLoad(stats.ActiveWorkers, stats.MaxWorkers, stats.QueuedTasks, usage)
	}
}
