package probe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWPramod/ems-platform-sub002/models"
)

// fakeProber answers for the ips it knows and plays dead for the rest.
type fakeProber struct {
	online map[string]bool
}

func (f *fakeProber) ProbeDevice(_ context.Context, ip string, _ string) (*models.DiscoveredDevice, error) {
	if !f.online[ip] {
		return nil, nil
	}
	return &models.DiscoveredDevice{Ip: ip, SysName: "dev-" + ip, SysUpTime: 86400}, nil
}

func (f *fakeProber) WalkInterfaces(_ context.Context, _ string, _ string) models.InterfaceWalkResult {
	return models.InterfaceWalkResult{Complete: true}
}

func (f *fakeProber) CollectMetrics(_ context.Context, ip string, _ string) (*models.DeviceMetrics, error) {
	return &models.DeviceMetrics{CpuPercent: 12.5, MemoryPercent: 40}, nil
}

func testAgent(t *testing.T, server *ingestServer) *Agent {
	t.Helper()
	cfg := &Config{
		ProbeId:        "probe-east-1",
		IngestUrl:      server.server.URL + "/api/v1/probe/ingest",
		Community:      "public",
		BufferCapacity: 10,
		Devices: []models.ProbeDevice{
			{Name: "core", Ip: "10.1.0.1"},
			{Name: "edge", Ip: "10.1.0.2"},
		},
	}
	return &Agent{
		Config:    cfg,
		Prober:    &fakeProber{online: map[string]bool{"10.1.0.1": true}},
		Forwarder: NewForwarder(cfg.IngestUrl, cfg.BufferCapacity),
	}
}

func TestPollCycleAssemblesBatchPayload(t *testing.T) {
	server := newIngestServer(t)
	agent := testAgent(t, server)

	agent.RunPollCycle(context.Background())

	server.mu.Lock()
	defer server.mu.Unlock()
	require.Len(t, server.received, 1)
	payload := server.received[0]
	assert.Equal(t, "probe-east-1", payload.ProbeId)
	require.Len(t, payload.Devices, 2)

	online := payload.Devices[0]
	assert.Equal(t, "core", online.Name)
	assert.Equal(t, models.ProbeDeviceOnline, online.Status)
	assert.Equal(t, "dev-10.1.0.1", online.SysName)
	assert.Equal(t, int64(86400), online.UptimeSeconds)
	assert.Equal(t, 12.5, online.CpuPercent)

	// the dead device is flagged, never dropped from the batch
	offline := payload.Devices[1]
	assert.Equal(t, "edge", offline.Name)
	assert.Equal(t, models.ProbeDeviceUnreachable, offline.Status)
	assert.Equal(t, "no snmp response", offline.Error)
	assert.Empty(t, offline.SysName)
}

func TestPollCycleBuffersWhenCenterDown(t *testing.T) {
	server := newIngestServer(t)
	server.setFailing(true)
	agent := testAgent(t, server)

	agent.RunPollCycle(context.Background())
	assert.Equal(t, 1, agent.Forwarder.Buffer.Size())
	assert.False(t, agent.Forwarder.ApiReachable())

	// the next drain after backoff flushes the buffered cycle
	server.setFailing(false)
	agent.Forwarder.now = func() time.Time { return time.Now().Add(5 * time.Second) }
	agent.RunDrainCycle(context.Background())

	assert.Equal(t, 0, agent.Forwarder.Buffer.Size())
	assert.Equal(t, 1, server.count())
	assert.True(t, agent.Forwarder.ApiReachable())
}

func TestPollCycleUpdatesLastPollTime(t *testing.T) {
	server := newIngestServer(t)
	agent := testAgent(t, server)

	require.True(t, agent.lastPoll().IsZero())
	agent.RunPollCycle(context.Background())
	assert.False(t, agent.lastPoll().IsZero())
}

func TestPollCycleSkipsOverlappingTick(t *testing.T) {
	server := newIngestServer(t)
	agent := testAgent(t, server)

	agent.pollRunning.Store(true)
	agent.RunPollCycle(context.Background())
	assert.Equal(t, 0, server.count())

	agent.pollRunning.Store(false)
	agent.RunPollCycle(context.Background())
	assert.Equal(t, 1, server.count())
}
