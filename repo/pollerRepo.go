package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

const (
	CpuThresholdPercent    = 80.0
	MemoryThresholdPercent = 85.0
)

// failureMilestones are the consecutive-failure counts at which a still
// unreachable device is re-surfaced, so long outages stay visible without
// an event per cycle.
var failureMilestones = map[int]bool{3: true, 10: true}

// Poller runs the two periodic cycles over registered devices and keeps
// per-device reachability state. State is in-memory only: a restart loses
// poll history, which is a deliberate tradeoff.
type Poller struct {
	Inventory        AssetInventory
	Prober           DeviceProber
	Events           EventSink
	Metrics          MetricSink
	DefaultCommunity string

	// test seam, defaults to the icmp helper
	Ping func(host string) error

	mu     sync.Mutex
	states map[string]*models.ReachabilityState

	// non-reentrant guards: an overlapping tick is skipped, never queued
	reachabilityRunning atomic.Bool
	metricsRunning      atomic.Bool
}

func NewPoller(inventory AssetInventory, prober DeviceProber, events EventSink, metrics MetricSink, community string) *Poller {
	return &Poller{
		Inventory:        inventory,
		Prober:           prober,
		Events:           events,
		Metrics:          metrics,
		DefaultCommunity: community,
		Ping: func(host string) error {
			return utils.PingHost(host, 2, 1)
		},
		states: make(map[string]*models.ReachabilityState),
	}
}

// RegisterAsset brings a reconciled asset under continuous polling.
func (p *Poller) RegisterAsset(asset models.Asset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.states[asset.Id]; ok {
		return
	}
	p.states[asset.Id] = &models.ReachabilityState{
		AssetId: asset.Id,
		Ip:      asset.Ip,
		Name:    asset.Name,
	}
	utils.Logline("asset registered for polling", asset.Ip, asset.Id)
}

// RunReachabilityCycle pings and re-probes every registered device, and on
// success refreshes its descriptive metadata in the inventory.
func (p *Poller) RunReachabilityCycle(ctx context.Context) {
	if !p.reachabilityRunning.CompareAndSwap(false, true) {
		utils.Logline("reachability cycle still running, skipping tick")
		return
	}
	defer p.reachabilityRunning.Store(false)

	p.syncRegistry(ctx)

	assets := p.snapshotAssets()
	var wg sync.WaitGroup
	for _, state := range assets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					utils.Logline("recovered from panic <<reachability>>: %v", rec)
				}
			}()
			p.pollDevice(ctx, state)
		}()
	}
	wg.Wait()
}

// RunMetricCycle samples CPU/memory/uptime/interface-count from the
// devices currently known reachable.
func (p *Poller) RunMetricCycle(ctx context.Context) {
	if !p.metricsRunning.CompareAndSwap(false, true) {
		utils.Logline("metric cycle still running, skipping tick")
		return
	}
	defer p.metricsRunning.Store(false)

	var samples []models.MetricSample
	var samplesMu sync.Mutex

	var wg sync.WaitGroup
	for _, state := range p.snapshotAssets() {
		if !state.IsReachable {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					utils.Logline("recovered from panic <<metrics>>: %v", rec)
				}
			}()

			metrics, err := p.Prober.CollectMetrics(ctx, state.Ip, p.communityFor(ctx, state))
			if err != nil {
				utils.Logline("metric collection failed", state.Ip, err)
				return
			}

			p.checkThresholds(ctx, state, metrics)

			now := time.Now()
			samplesMu.Lock()
			samples = append(samples,
				models.MetricSample{AssetId: state.AssetId, Name: "cpu_percent", Value: metrics.CpuPercent, At: now},
				models.MetricSample{AssetId: state.AssetId, Name: "memory_percent", Value: metrics.MemoryPercent, At: now},
				models.MetricSample{AssetId: state.AssetId, Name: "uptime_seconds", Value: float64(metrics.UptimeSeconds), At: now},
				models.MetricSample{AssetId: state.AssetId, Name: "interface_count", Value: float64(metrics.InterfaceCount), At: now},
			)
			samplesMu.Unlock()
		}()
	}
	wg.Wait()

	if len(samples) > 0 {
		if err := p.Metrics.Record(ctx, samples); err != nil {
			utils.Logline("error recording metric samples", err)
		}
	}
}

// TriggerPoll runs one reachability cycle in the background.
func (p *Poller) TriggerPoll() {
	go p.RunReachabilityCycle(context.Background())
}

func (p *Poller) Status() models.PollerStatus {
	status := models.PollerStatus{
		IsPolling: p.reachabilityRunning.Load() || p.metricsRunning.Load(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, state := range p.states {
		status.TotalDevices++
		if state.IsReachable {
			status.ReachableDevices++
		} else {
			status.UnreachableDevices++
		}
		status.PerDeviceSummary = append(status.PerDeviceSummary, *state)
	}
	sort.Slice(status.PerDeviceSummary, func(i, j int) bool {
		return status.PerDeviceSummary[i].Ip < status.PerDeviceSummary[j].Ip
	})
	return status
}

// syncRegistry picks up assets that were registered in the inventory
// outside the discovery path.
func (p *Poller) syncRegistry(ctx context.Context) {
	assets, err := p.Inventory.ListNetworkAssets(ctx)
	if err != nil {
		utils.Logline("error listing network assets for polling", err)
		return
	}
	for _, asset := range assets {
		p.RegisterAsset(asset)
	}
}

func (p *Poller) snapshotAssets() []models.ReachabilityState {
	p.mu.Lock()
	defer p.mu.Unlock()
	states := make([]models.ReachabilityState, 0, len(p.states))
	for _, state := range p.states {
		states = append(states, *state)
	}
	return states
}

func (p *Poller) pollDevice(ctx context.Context, state models.ReachabilityState) {
	community := p.communityFor(ctx, state)

	var pollErr error
	if err := p.Ping(state.Ip); err != nil {
		pollErr = err
	}

	var device *models.DiscoveredDevice
	if pollErr == nil {
		device, _ = p.Prober.ProbeDevice(ctx, state.Ip, community)
		if device == nil {
			pollErr = fmt.Errorf("no snmp response from %s", state.Ip)
		}
	}

	if pollErr != nil {
		p.recordFailure(ctx, state.AssetId, pollErr)
		return
	}

	p.recordSuccess(ctx, state.AssetId)

	// refresh descriptive metadata while we hold fresh answers
	update := models.AssetUpdate{}
	if device.Vendor != "" {
		update.Vendor = &device.Vendor
	}
	if device.Model != "" {
		update.Model = &device.Model
	}
	if device.SysLocation != "" {
		update.Location = &device.SysLocation
	}
	if _, err := p.Inventory.UpdateAsset(ctx, state.AssetId, update); err != nil {
		utils.Logline("error refreshing asset metadata", state.Ip, err)
	}
}

// recordSuccess applies the unreachable→reachable transition rules.
func (p *Poller) recordSuccess(ctx context.Context, assetId string) {
	p.mu.Lock()
	state, ok := p.states[assetId]
	if !ok {
		p.mu.Unlock()
		return
	}
	now := time.Now()
	state.LastPollTime = now
	state.LastError = ""
	cameOnline := !state.IsReachable
	state.IsReachable = true
	state.ConsecutiveFailures = 0
	state.LastSuccessTime = &now
	name, ip := state.Name, state.Ip
	p.mu.Unlock()

	if cameOnline {
		event := NewEvent(assetId, models.SeverityInfo, "device_online", fmt.Sprintf("device %s (%s) is reachable again", name, ip))
		if err := p.Events.Emit(ctx, event); err != nil {
			utils.Logline("error emitting online event", ip, err)
		}
	}
}

// recordFailure applies the reachable→unreachable transition and the
// 3rd/10th consecutive-failure milestones.
func (p *Poller) recordFailure(ctx context.Context, assetId string, pollErr error) {
	p.mu.Lock()
	state, ok := p.states[assetId]
	if !ok {
		p.mu.Unlock()
		return
	}
	state.LastPollTime = time.Now()
	state.LastError = pollErr.Error()

	emit := false
	if state.IsReachable {
		// transition tick: exactly one critical event, immediately
		state.IsReachable = false
		state.ConsecutiveFailures = 1
		emit = true
	} else {
		state.ConsecutiveFailures++
		emit = failureMilestones[state.ConsecutiveFailures]
	}
	failures := state.ConsecutiveFailures
	name, ip := state.Name, state.Ip
	p.mu.Unlock()

	if emit {
		message := fmt.Sprintf("device %s (%s) unreachable (%d consecutive failures): %v", name, ip, failures, pollErr)
		event := NewEvent(assetId, models.SeverityCritical, "device_unreachable", message)
		if err := p.Events.Emit(ctx, event); err != nil {
			utils.Logline("error emitting unreachable event", ip, err)
		}
	}
}

// checkThresholds emits one warning per exceeded threshold per cycle.
// There is no cross-cycle suppression here, unlike the reachability
// milestones.
func (p *Poller) checkThresholds(ctx context.Context, state models.ReachabilityState, metrics *models.DeviceMetrics) {
	if metrics.CpuPercent > CpuThresholdPercent {
		message := fmt.Sprintf("device %s (%s) cpu at %.1f%%, threshold %.0f%%", state.Name, state.Ip, metrics.CpuPercent, CpuThresholdPercent)
		if err := p.Events.Emit(ctx, NewEvent(state.AssetId, models.SeverityWarning, "cpu_threshold", message)); err != nil {
			utils.Logline("error emitting cpu threshold event", state.Ip, err)
		}
	}
	if metrics.MemoryPercent > MemoryThresholdPercent {
		message := fmt.Sprintf("device %s (%s) memory at %.1f%%, threshold %.0f%%", state.Name, state.Ip, metrics.MemoryPercent, MemoryThresholdPercent)
		if err := p.Events.Emit(ctx, NewEvent(state.AssetId, models.SeverityWarning, "memory_threshold", message)); err != nil {
			utils.Logline("error emitting memory threshold event", state.Ip, err)
		}
	}
}

func (p *Poller) communityFor(ctx context.Context, state models.ReachabilityState) string {
	// per-asset community lives in inventory metadata
	if asset, err := p.Inventory.FindAssetByIp(ctx, state.Ip); err == nil && asset != nil {
		if community, ok := asset.Metadata["snmp_community"]; ok && community != "" {
			return community
		}
	}
	if p.DefaultCommunity != "" {
		return p.DefaultCommunity
	}
	return "public"
}
