// Package gossip maintains membership of a synthesis farm so operators can
// see which render nodes are up and how loaded they are.
package gossip

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/memberlist"
	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/metrics"
)

// NodeStatus is the advertised state of a render node.
type NodeStatus string

const (
	NodeStatusHealthy  NodeStatus = "healthy"
	NodeStatusDegraded NodeStatus = "degraded"
)

// NodeState is the payload gossiped between nodes.
type NodeState struct {
	NodeID           string     `json:"node_id"`
	Status           NodeStatus `json:"status"`
	ActiveWorkers    int        `json:"active_workers"`
	QueuedJobs       int        `json:"queued_jobs"`
	DiskUsagePercent float64    `json:"disk_usage_percent"`
	Timestamp        int64      `json:"timestamp"`
}

// Config holds gossip protocol configuration.
type Config struct {
	Enabled        bool
	BindPort       int
	SeedNodes      []string
	GossipInterval time.Duration
	ProbeTimeout   time.Duration
	ProbeInterval  time.Duration
}

// Service manages farm membership and node state propagation.
type Service struct {
	config     *Config
	memberlist *memberlist.Memberlist
	nodeID     string
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu    sync.RWMutex
	state NodeState
	peers map[string]NodeState
}

// NewService creates a gossip service and joins the configured seeds. The
// metrics argument may be nil.
func NewService(cfg *Config, nodeID string, m *metrics.Metrics, logger *zap.Logger) (*Service, error) {
	s := &Service{
		config:  cfg,
		nodeID:  nodeID,
		logger:  logger,
		metrics: m,
		state: NodeState{
			NodeID:    nodeID,
			Status:    NodeStatusHealthy,
			Timestamp: time.Now().Unix(),
		},
		peers: make(map[string]NodeState),
	}

	mlConfig := memberlist.DefaultLocalConfig()
	mlConfig.Name = nodeID
	mlConfig.BindPort = cfg.BindPort
	if cfg.GossipInterval > 0 {
		mlConfig.GossipInterval = cfg.GossipInterval
	}
	if cfg.ProbeTimeout > 0 {
		mlConfig.ProbeTimeout = cfg.ProbeTimeout
	}
	if cfg.ProbeInterval > 0 {
		mlConfig.ProbeInterval = cfg.ProbeInterval
	}
	mlConfig.Delegate = s
	mlConfig.Events = &eventDelegate{service: s}

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	s.memberlist = ml

	if len(cfg.SeedNodes) > 0 {
		if _, err := ml.Join(cfg.SeedNodes); err != nil {
			logger.Warn("Failed to join some seed nodes", zap.Error(err))
		}
	}
	s.updateMemberMetrics()

	return s, nil
}

// UpdateLoad refreshes the advertised node state. Nodes with a saturated
// worker pool or a nearly full disk advertise themselves as degraded.
func (s *Service) UpdateLoad(activeWorkers, maxWorkers, queuedJobs int, diskUsagePercent float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ActiveWorkers = activeWorkers
	s.state.QueuedJobs = queuedJobs
	s.state.DiskUsagePercent = diskUsagePercent
	s.state.Timestamp = time.Now().Unix()

	if (maxWorkers > 0 && activeWorkers >= maxWorkers && queuedJobs > 0) || diskUsagePercent > 90 {
		s.state.Status = NodeStatusDegraded
	} else {
		s.state.Status = NodeStatusHealthy
	}
}

// Members returns the known node states, the local node included.
func (s *Service) Members() []NodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []NodeState{s.state}
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

// Shutdown leaves the farm.
func (s *Service) Shutdown() error {
	return s.memberlist.Shutdown()
}

// NodeMeta implements memberlist.Delegate
func (s *Service) NodeMeta(limit int) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, _ := json.Marshal(s.state)
	if len(data) > limit {
		return data[:limit]
	}
	return data
}

// NotifyMsg implements memberlist.Delegate
func (s *Service) NotifyMsg(data []byte) {
	var state NodeState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("Failed to unmarshal gossip message", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.peers[state.NodeID] = state
	s.mu.Unlock()

	s.logger.Debug("Received node state",
		zap.String("node_id", state.NodeID),
		zap.String("status", string(state.Status)))
	s.updateMemberMetrics()
}

// GetBroadcasts implements memberlist.Delegate
func (s *Service) GetBroadcasts(overhead, limit int) [][]byte {
	return nil
}

// LocalState implements memberlist.Delegate
func (s *Service) LocalState(join bool) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, _ := json.Marshal(s.state)
	return data
}

// MergeRemoteState implements memberlist.Delegate
func (s *Service) MergeRemoteState(buf []byte, join bool) {
	var state NodeState
	if err := json.Unmarshal(buf, &state); err != nil {
		return
	}
	s.mu.Lock()
	s.peers[state.NodeID] = state
	s.mu.Unlock()
	s.updateMemberMetrics()
}

func (s *Service) updateMemberMetrics() {
	if s.metrics == nil {
		return
	}
	members := s.Members()
	healthy := 0
	for _, m := range members {
		if m.Status == NodeStatusHealthy {
			healthy++
		}
	}
	s.metrics.GossipMembersTotal.Set(float64(len(members)))
	s.metrics.GossipMembersHealthy.Set(float64(healthy))
}

// eventDelegate handles memberlist events.
type eventDelegate struct {
	service *Service
}

func (d *eventDelegate) NotifyJoin(node *memberlist.Node) {
	d.service.logger.Info("Node joined",
		zap.String("node_id", node.Name),
		zap.String("addr", node.Addr.String()))
}

func (d *eventDelegate) NotifyLeave(node *memberlist.Node) {
	d.service.logger.Info("Node left", zap.String("node_id", node.Name))
	d.service.mu.Lock()
	delete(d.service.peers, node.Name)
	d.service.mu.Unlock()
	d.service.updateMemberMetrics()
}

func (d *eventDelegate) NotifyUpdate(node *memberlist.Node) {
	d.service.logger.Debug("Node updated", zap.String("node_id", node.Name))
}
