package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CWPramod/ems-platform-sub002/models"
)

// recordingRegistrar counts RegisterAsset calls in place of the poller.
type recordingRegistrar struct {
	mu     sync.Mutex
	assets []models.Asset
}

func (r *recordingRegistrar) RegisterAsset(asset models.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets = append(r.assets, asset)
}

func (r *recordingRegistrar) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assets)
}

// faultyInventory wraps another inventory and fails selected operations.
type faultyInventory struct {
	AssetInventory
	failLookup     bool
	failCreate     bool
	failInterfaces bool
}

func (f *faultyInventory) FindAssetByIp(ctx context.Context, ip string) (*models.Asset, error) {
	if f.failLookup {
		return nil, fmt.Errorf("lookup down")
	}
	return f.AssetInventory.FindAssetByIp(ctx, ip)
}

func (f *faultyInventory) CreateAsset(ctx context.Context, asset models.Asset) (*models.Asset, error) {
	if f.failCreate {
		return nil, fmt.Errorf("create down")
	}
	return f.AssetInventory.CreateAsset(ctx, asset)
}

func (f *faultyInventory) CreateInterfaces(ctx context.Context, assetId string, interfaces []models.DiscoveredInterface) error {
	if f.failInterfaces {
		return fmt.Errorf("interface create down")
	}
	return f.AssetInventory.CreateInterfaces(ctx, assetId, interfaces)
}

func probedDevice(ip string) *models.DiscoveredDevice {
	return &models.DiscoveredDevice{
		Ip:          ip,
		SysName:     "core-sw-01",
		SysDescr:    "Cisco IOS Software, C2960X Software",
		SysObjectID: ".1.3.6.1.4.1.9.1.1208",
		Vendor:      "Cisco",
		DeviceType:  "switch",
		Model:       "C2960X",
		Interfaces: []models.DiscoveredInterface{
			{Name: "Gi1/0/1", Index: 1, MibType: 6, SpeedMbps: 1000, OperStatus: "up", AdminStatus: "up"},
		},
	}
}

func TestReconcileCreatesNewAsset(t *testing.T) {
	inventory := NewMemoryInventory()
	registrar := &recordingRegistrar{}
	reconciler := NewReconciler(inventory, registrar)

	device := probedDevice("10.0.0.5")
	reconciler.ReconcileDevice(context.Background(), device)

	assert.False(t, device.Skipped)
	require.NotEmpty(t, device.AssetId)

	asset, err := inventory.FindAssetByIp(context.Background(), "10.0.0.5")
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "core-sw-01", asset.Name)
	assert.Equal(t, "Cisco", asset.Vendor)
	assert.Equal(t, models.AssetActive, asset.Status)
	assert.True(t, asset.Monitored)
	assert.Contains(t, asset.Tags, models.TagAutoDiscovered)
	assert.Equal(t, ".1.3.6.1.4.1.9.1.1208", asset.Metadata["sys_object_id"])

	assert.Len(t, inventory.Interfaces[device.AssetId], 1)
	assert.Equal(t, 1, registrar.count())
}

func TestReconcileFallbackNameWithoutSysName(t *testing.T) {
	inventory := NewMemoryInventory()
	reconciler := NewReconciler(inventory, nil)

	device := probedDevice("10.0.0.9")
	device.SysName = ""
	reconciler.ReconcileDevice(context.Background(), device)

	asset, err := inventory.FindAssetByIp(context.Background(), "10.0.0.9")
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "device-10.0.0.9", asset.Name)
}

func TestReconcileIdempotentSecondRun(t *testing.T) {
	inventory := NewMemoryInventory()
	registrar := &recordingRegistrar{}
	reconciler := NewReconciler(inventory, registrar)

	first := probedDevice("10.0.0.5")
	reconciler.ReconcileDevice(context.Background(), first)
	require.False(t, first.Skipped)

	second := probedDevice("10.0.0.5")
	reconciler.ReconcileDevice(context.Background(), second)

	assert.True(t, second.Skipped)
	assert.Equal(t, "asset already exists", second.SkipReason)
	assert.Equal(t, first.AssetId, second.AssetId)
	// skipped devices are not re-registered and nothing is written twice
	assert.Equal(t, 1, registrar.count())
	assert.Len(t, inventory.Interfaces[first.AssetId], 1)
}

func TestReconcilePromotesPendingAsset(t *testing.T) {
	inventory := NewMemoryInventory()
	registrar := &recordingRegistrar{}
	reconciler := NewReconciler(inventory, registrar)

	pending, err := inventory.CreateAsset(context.Background(), models.Asset{
		Name:   "placeholder",
		Ip:     "10.0.0.7",
		Status: models.AssetPending,
		Tags:   []string{models.TagPendingSnmp, "manual"},
	})
	require.NoError(t, err)

	device := probedDevice("10.0.0.7")
	reconciler.ReconcileDevice(context.Background(), device)

	assert.False(t, device.Skipped)
	assert.Equal(t, pending.Id, device.AssetId)

	promoted, err := inventory.FindAssetByIp(context.Background(), "10.0.0.7")
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, models.AssetActive, promoted.Status)
	assert.True(t, promoted.Monitored)
	assert.Equal(t, "core-sw-01", promoted.Name)
	assert.Equal(t, "Cisco", promoted.Vendor)
	assert.NotContains(t, promoted.Tags, models.TagPendingSnmp)
	assert.Contains(t, promoted.Tags, "manual")
	assert.Contains(t, promoted.Tags, models.TagAutoDiscovered)
	assert.Equal(t, 1, registrar.count())
}

func TestReconcileLookupFailureSkipsDevice(t *testing.T) {
	inventory := &faultyInventory{AssetInventory: NewMemoryInventory(), failLookup: true}
	reconciler := NewReconciler(inventory, &recordingRegistrar{})

	device := probedDevice("10.0.0.5")
	reconciler.ReconcileDevice(context.Background(), device)

	assert.True(t, device.Skipped)
	assert.Contains(t, device.SkipReason, "inventory lookup failed")
	assert.Empty(t, device.AssetId)
}

func TestReconcileCreateFailureSkipsDevice(t *testing.T) {
	inventory := &faultyInventory{AssetInventory: NewMemoryInventory(), failCreate: true}
	registrar := &recordingRegistrar{}
	reconciler := NewReconciler(inventory, registrar)

	device := probedDevice("10.0.0.5")
	reconciler.ReconcileDevice(context.Background(), device)

	assert.True(t, device.Skipped)
	assert.Contains(t, device.SkipReason, "asset create failed")
	assert.Equal(t, 0, registrar.count())
}

func TestReconcileInterfaceFailureKeepsAsset(t *testing.T) {
	memory := NewMemoryInventory()
	inventory := &faultyInventory{AssetInventory: memory, failInterfaces: true}
	registrar := &recordingRegistrar{}
	reconciler := NewReconciler(inventory, registrar)

	device := probedDevice("10.0.0.5")
	reconciler.ReconcileDevice(context.Background(), device)

	// the asset survives, only the interface step is recorded as failed
	assert.True(t, device.Skipped)
	assert.Contains(t, device.SkipReason, "interface create failed")
	asset, err := memory.FindAssetByIp(context.Background(), "10.0.0.5")
	require.NoError(t, err)
	assert.NotNil(t, asset)
	assert.Equal(t, 0, registrar.count())
}

func TestReconcileRegistrarPanicDoesNotPropagate(t *testing.T) {
	inventory := NewMemoryInventory()
	reconciler := NewReconciler(inventory, panickyRegistrar{})

	device := probedDevice("10.0.0.5")
	assert.NotPanics(t, func() {
		reconciler.ReconcileDevice(context.Background(), device)
	})
	assert.False(t, device.Skipped)
}

type panickyRegistrar struct{}

func (panickyRegistrar) RegisterAsset(models.Asset) {
	panic("poller gone")
}
