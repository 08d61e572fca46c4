package gossip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLocalService(t *testing.T) *Service {
	t.Helper()
	// BindPort 0 lets the OS pick a free port so tests do not collide.
	s, err := NewService(&Config{Enabled: true, BindPort: 0}, "node-test", nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Shutdown() })
	return s
}

func TestMembersIncludesSelf(t *testing.T) {
	s := newLocalService(t)

	members := s.Members()
	require.Len(t, members, 1)
	assert.Equal(t, "node-test", members[0].NodeID)
	assert.Equal(t, NodeStatusHealthy, members[0].Status)
}

func TestUpdateLoadDegradesSaturatedNode(t *testing.T) {
	s := newLocalService(t)

	s.UpdateLoad(4, 4, 10, 50)
	assert.Equal(t, NodeStatusDegraded, s.Members()[0].Status)

	s.UpdateLoad(1, 4, 0, 50)
	assert.Equal(t, NodeStatusHealthy, s.Members()[0].Status)

	s.UpdateLoad(0, 4, 0, 95)
	assert.Equal(t, NodeStatusDegraded, s.Members()[0].Status)
}

func TestNotifyMsgTracksPeers(t *testing.T) {
	s := newLocalService(t)

	s.NotifyMsg([]byte(`{"node_id":"node-b","status":"healthy"}`))
	members := s.Members()
	assert.Len(t, members, 2)

	s.NotifyMsg([]byte(`not json`))
	assert.Len(t, s.Members(), 2)
}
