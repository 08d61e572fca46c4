package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  node_id: synth-1
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "synth-1", cfg.Server.NodeID)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Synthesis.TrackFPS)
	assert.Equal(t, 10*time.Minute, cfg.Synthesis.JobTimeout)
	assert.Equal(t, 10.0, cfg.Synthesis.MaxDraftMeters)
	assert.Equal(t, "/var/lib/synthesis/runs", cfg.Dataset.Root)
	assert.Equal(t, 95.0, cfg.Dataset.StopThreshold)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  node_id: synth-2
  port: 9000
synthesis:
  track_fps: 4
  max_duration_seconds: 120
dataset:
  root: /tmp/runs
workers:
  max_workers: 2
  queue_size: 8
gossip:
  enabled: true
  bind_port: 7946
  seed_nodes: ["10.0.0.1:7946"]
metrics:
  enabled: true
  port: 9100
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Synthesis.TrackFPS)
	assert.Equal(t, 120.0, cfg.Synthesis.MaxDurationSeconds)
	assert.Equal(t, "/tmp/runs", cfg.Dataset.Root)
	assert.Equal(t, 2, cfg.Workers.MaxWorkers)
	assert.True(t, cfg.Gossip.Enabled)
	assert.Equal(t, []string{"10.0.0.1:7946"}, cfg.Gossip.SeedNodes)
	assert.Equal(t, 9100, cfg.Metrics.Port)
}

func TestLoadConfigValidation(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `server: {}`))
	assert.Error(t, err, "node_id required")

	_, err = LoadConfig(writeConfig(t, `
server:
  node_id: bad
  port: 99999
`))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `
server:
  node_id: bad
dataset:
  throttle_threshold: 95
  stop_threshold: 90
`))
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server: [not a map"))
	assert.Error(t, err)
}
