package probe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/repo"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// Agent is the edge-side poll loop: poll every configured device, assemble
// one batch payload, hand it to the forwarder. It runs fully independent of
// the center's orchestrator.
type Agent struct {
	Config    *Config
	Prober    repo.DeviceProber
	Forwarder *Forwarder

	pollRunning atomic.Bool

	mu           sync.Mutex
	lastPollTime time.Time
}

func NewAgent(cfg *Config) *Agent {
	return &Agent{
		Config:    cfg,
		Prober:    repo.NewSnmpProber(),
		Forwarder: NewForwarder(cfg.IngestUrl, cfg.BufferCapacity),
	}
}

// RunPollCycle polls the whole device list once and pushes the batch. A
// device that does not answer gets an "unreachable" sample, it never aborts
// the cycle. An overlapping tick is skipped.
func (a *Agent) RunPollCycle(ctx context.Context) {
	if !a.pollRunning.CompareAndSwap(false, true) {
		utils.Logline("poll cycle still running, skipping tick")
		return
	}
	defer a.pollRunning.Store(false)

	samples := make([]models.ProbeDeviceSample, len(a.Config.Devices))

	var wg sync.WaitGroup
	for i, device := range a.Config.Devices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					utils.Logline("recovered from panic polling device", device.Ip, rec)
					samples[i] = models.ProbeDeviceSample{Name: device.Name, Ip: device.Ip, Status: models.ProbeDeviceUnreachable}
				}
			}()
			samples[i] = a.pollDevice(ctx, device)
		}()
	}
	wg.Wait()

	a.mu.Lock()
	a.lastPollTime = time.Now()
	a.mu.Unlock()

	payload := models.ProbePayload{
		ProbeId:   a.Config.ProbeId,
		Timestamp: time.Now(),
		Devices:   samples,
	}
	a.Forwarder.Send(ctx, payload)
}

// RunDrainCycle is the faster-ticking retry loop.
func (a *Agent) RunDrainCycle(ctx context.Context) {
	a.Forwarder.Drain(ctx)
}

func (a *Agent) pollDevice(ctx context.Context, device models.ProbeDevice) models.ProbeDeviceSample {
	sample := models.ProbeDeviceSample{Name: device.Name, Ip: device.Ip}

	community := device.Community
	if community == "" {
		community = a.Config.Community
	}

	probed, err := a.Prober.ProbeDevice(ctx, device.Ip, community)
	if err != nil || probed == nil {
		sample.Status = models.ProbeDeviceUnreachable
		sample.Error = "no snmp response"
		return sample
	}

	sample.Status = models.ProbeDeviceOnline
	sample.SysName = probed.SysName
	sample.UptimeSeconds = probed.SysUpTime

	// cpu/mem are best effort on top of the base sample
	if metrics, err := a.Prober.CollectMetrics(ctx, device.Ip, community); err == nil {
		sample.CpuPercent = metrics.CpuPercent
		sample.MemoryPercent = metrics.MemoryPercent
	}

	return sample
}

func (a *Agent) lastPoll() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastPollTime
}
