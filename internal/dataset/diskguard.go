package dataset

import (
	"fmt"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DiskGuard monitors free space under the dataset root and gates run writes.
// Rendered runs are large, so usage is checked before a run starts rather
// than per file.
type DiskGuard struct {
	root   string
	logger *zap.Logger

	mu             sync.Mutex
	lastCheck      time.Time
	usagePercent   float64
	availableBytes uint64
	throttled      bool
	stopped        bool

	checkInterval     time.Duration
	warningThreshold  float64
	throttleThreshold float64
	stopThreshold     float64
}

// DiskGuardConfig holds disk guard thresholds as usage percentages.
type DiskGuardConfig struct {
	Root              string
	CheckInterval     time.Duration
	WarningThreshold  float64
	ThrottleThreshold float64
	StopThreshold     float64
}

// DefaultDiskGuardConfig returns the default thresholds for a dataset root.
func DefaultDiskGuardConfig(root string) *DiskGuardConfig {
	return &DiskGuardConfig{
		Root:              root,
		CheckInterval:     10 * time.Second,
		WarningThreshold:  80.0,
		ThrottleThreshold: 90.0,
		StopThreshold:     95.0,
	}
}

// NewDiskGuard creates a guard for the dataset root.
func NewDiskGuard(cfg *DiskGuardConfig, logger *zap.Logger) (*DiskGuard, error) {
	if cfg == nil || cfg.Root == "" {
		return nil, fmt.Errorf("dataset root is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &DiskGuard{
		root:              cfg.Root,
		logger:            logger,
		checkInterval:     cfg.CheckInterval,
		warningThreshold:  cfg.WarningThreshold,
		throttleThreshold: cfg.ThrottleThreshold,
		stopThreshold:     cfg.StopThreshold,
	}
	if g.checkInterval <= 0 {
		g.checkInterval = 10 * time.Second
	}
	if err := g.refresh(); err != nil {
		logger.Warn("Initial disk space check failed", zap.Error(err))
	}
	return g, nil
}

// DiskSpaceError reports a run rejected for lack of disk space.
type DiskSpaceError struct {
	Message        string
	UsagePercent   float64
	AvailableBytes uint64
	Throttled      bool
	Stopped        bool
}

func (e *DiskSpaceError) Error() string { return e.Message }

// IsDiskSpaceError reports whether err is a disk space rejection.
func IsDiskSpaceError(err error) bool {
	_, ok := err.(*DiskSpaceError)
	return ok
}

// CheckBeforeRun verifies a run of the estimated size can be written.
func (g *DiskGuard) CheckBeforeRun(estimatedBytes uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if time.Since(g.lastCheck) > g.checkInterval {
		if err := g.refresh(); err != nil {
			g.logger.Warn("Disk space check failed", zap.Error(err))
		}
	}

	if g.stopped {
		return &DiskSpaceError{
			Message:        fmt.Sprintf("disk usage at %.2f%%, run writes stopped", g.usagePercent),
			UsagePercent:   g.usagePercent,
			AvailableBytes: g.availableBytes,
			Stopped:        true,
		}
	}
	if g.throttled && estimatedBytes > g.availableBytes/10 {
		return &DiskSpaceError{
			Message:        fmt.Sprintf("disk usage at %.2f%%, large run throttled", g.usagePercent),
			UsagePercent:   g.usagePercent,
			AvailableBytes: g.availableBytes,
			Throttled:      true,
		}
	}
	if estimatedBytes > g.availableBytes {
		return &DiskSpaceError{
			Message:        fmt.Sprintf("insufficient space: need %d bytes, have %d bytes", estimatedBytes, g.availableBytes),
			UsagePercent:   g.usagePercent,
			AvailableBytes: g.availableBytes,
		}
	}
	return nil
}

// Usage returns the current cached usage statistics.
func (g *DiskGuard) Usage() (usagePercent float64, availableBytes uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if time.Since(g.lastCheck) > g.checkInterval {
		if err := g.refresh(); err != nil {
			g.logger.Warn("Disk space check failed", zap.Error(err))
		}
	}
	return g.usagePercent, g.availableBytes
}

// refresh updates cached usage. The lock must be held.
func (g *DiskGuard) refresh() error {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(g.root, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	totalBytes := stat.Blocks * uint64(stat.Bsize)
	availableBytes := stat.Bavail * uint64(stat.Bsize)
	usagePercent := 0.0
	if totalBytes > 0 {
		usagePercent = float64(totalBytes-availableBytes) / float64(totalBytes) * 100.0
	}

	g.usagePercent = usagePercent
	g.availableBytes = availableBytes
	g.lastCheck = time.Now()

	wasThrottled, wasStopped := g.throttled, g.stopped
	g.stopped = usagePercent >= g.stopThreshold
	g.throttled = usagePercent >= g.throttleThreshold && !g.stopped

	switch {
	case g.stopped && !wasStopped:
		g.logger.Error("Dataset writes stopped, disk nearly full",
			zap.Float64("usage_percent", usagePercent),
			zap.Uint64("available_bytes", availableBytes),
			zap.Float64("threshold", g.stopThreshold))
	case !g.stopped && wasStopped:
		g.logger.Info("Dataset writes resumed",
			zap.Float64("usage_percent", usagePercent),
			zap.Uint64("available_bytes", availableBytes))
	case g.throttled && !wasThrottled:
		g.logger.Warn("Large dataset runs throttled",
			zap.Float64("usage_percent", usagePercent),
			zap.Uint64("available_bytes", availableBytes),
			zap.Float64("threshold", g.throttleThreshold))
	case !g.throttled && wasThrottled:
		g.logger.Info("Dataset run throttling lifted",
			zap.Float64("usage_percent", usagePercent),
			zap.Uint64("available_bytes", availableBytes))
	case usagePercent >= g.warningThreshold:
		g.logger.Warn("Disk usage warning",
			zap.Float64("usage_percent", usagePercent),
			zap.Uint64("available_bytes", availableBytes),
			zap.Float64("warning_threshold", g.warningThreshold))
	}
	return nil
}
