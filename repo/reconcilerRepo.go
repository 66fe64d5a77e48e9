package repo

import (
	"context"
	"fmt"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// DeviceRegistrar is the hand-off that starts continuous polling for a
// freshly reconciled asset. The polling orchestrator implements it.
type DeviceRegistrar interface {
	RegisterAsset(asset models.Asset)
}

// Reconciler maps probed devices onto the asset inventory. Matching is
// keyed on IP, which is what makes repeated discovery runs idempotent.
type Reconciler struct {
	Inventory AssetInventory
	Registrar DeviceRegistrar
}

func NewReconciler(inventory AssetInventory, registrar DeviceRegistrar) *Reconciler {
	return &Reconciler{Inventory: inventory, Registrar: registrar}
}

// ReconcileDevice decides create / promote-pending / skip-existing for one
// device. Every failure is recorded on the device record and never
// propagates: one bad device must not abort the batch.
func (r *Reconciler) ReconcileDevice(ctx context.Context, device *models.DiscoveredDevice) {
	existing, err := r.Inventory.FindAssetByIp(ctx, device.Ip)
	if err != nil {
		device.Skipped = true
		device.SkipReason = fmt.Sprintf("inventory lookup failed: %v", err)
		return
	}

	switch {
	case existing == nil:
		r.createAsset(ctx, device)
	case existing.HasTag(models.TagPendingSnmp):
		r.promotePending(ctx, device, existing)
	default:
		// already registered, count it as found but touch nothing
		device.AssetId = existing.Id
		device.Skipped = true
		device.SkipReason = "asset already exists"
	}
}

func (r *Reconciler) createAsset(ctx context.Context, device *models.DiscoveredDevice) {
	name := device.SysName
	if name == "" {
		name = "device-" + device.Ip
	}

	asset := models.Asset{
		Name:      name,
		Type:      device.DeviceType,
		Ip:        device.Ip,
		Vendor:    device.Vendor,
		Model:     device.Model,
		Location:  device.SysLocation,
		Status:    models.AssetActive,
		Monitored: true,
		Tags:      []string{models.TagAutoDiscovered},
		Metadata:  classificationMetadata(device),
	}

	created, err := r.Inventory.CreateAsset(ctx, asset)
	if err != nil {
		device.Skipped = true
		device.SkipReason = fmt.Sprintf("asset create failed: %v", err)
		return
	}
	device.AssetId = created.Id

	r.attachInterfaces(ctx, device)
	if !device.Skipped {
		r.startPolling(*created)
	}
}

func (r *Reconciler) promotePending(ctx context.Context, device *models.DiscoveredDevice, existing *models.Asset) {
	status := models.AssetActive
	monitored := true
	update := models.AssetUpdate{
		Type:      &device.DeviceType,
		Vendor:    &device.Vendor,
		Model:     &device.Model,
		Status:    &status,
		Monitored: &monitored,
		Tags:      swapPendingTag(existing.Tags),
		Metadata:  classificationMetadata(device),
	}
	if device.SysName != "" {
		update.Name = &device.SysName
	}
	if device.SysLocation != "" {
		update.Location = &device.SysLocation
	}

	promoted, err := r.Inventory.UpdateAsset(ctx, existing.Id, update)
	if err != nil {
		device.Skipped = true
		device.SkipReason = fmt.Sprintf("asset promote failed: %v", err)
		return
	}
	device.AssetId = promoted.Id

	r.attachInterfaces(ctx, device)
	if !device.Skipped {
		r.startPolling(*promoted)
	}
}

// attachInterfaces is its own failure unit: a failed interface create
// leaves the asset in place and only marks the device record.
func (r *Reconciler) attachInterfaces(ctx context.Context, device *models.DiscoveredDevice) {
	if len(device.Interfaces) == 0 {
		return
	}
	if err := r.Inventory.CreateInterfaces(ctx, device.AssetId, device.Interfaces); err != nil {
		device.Skipped = true
		device.SkipReason = fmt.Sprintf("interface create failed: %v", err)
	}
}

func (r *Reconciler) startPolling(asset models.Asset) {
	if r.Registrar == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			utils.Logline("recovered from panic registering asset for polling", asset.Ip, rec)
		}
	}()
	r.Registrar.RegisterAsset(asset)
}

func classificationMetadata(device *models.DiscoveredDevice) map[string]string {
	metadata := map[string]string{
		"sys_descr":     device.SysDescr,
		"sys_object_id": device.SysObjectID,
	}
	if device.SysContact != "" {
		metadata["sys_contact"] = device.SysContact
	}
	return metadata
}

func swapPendingTag(tags []string) []string {
	result := make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		if tag != models.TagPendingSnmp {
			result = append(result, tag)
		}
	}
	hasAuto := false
	for _, tag := range result {
		if tag == models.TagAutoDiscovered {
			hasAuto = true
		}
	}
	if !hasAuto {
		result = append(result, models.TagAutoDiscovered)
	}
	return result
}
