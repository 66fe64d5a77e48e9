package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// AssetInventory is the narrow view of the central asset inventory that
// discovery and polling consume. FindAssetByIp returns (nil, nil) when no
// asset matches.
type AssetInventory interface {
	FindAssetByIp(ctx context.Context, ip string) (*models.Asset, error)
	CreateAsset(ctx context.Context, asset models.Asset) (*models.Asset, error)
	UpdateAsset(ctx context.Context, id string, update models.AssetUpdate) (*models.Asset, error)
	CreateInterfaces(ctx context.Context, assetId string, interfaces []models.DiscoveredInterface) error
	ListNetworkAssets(ctx context.Context) ([]models.Asset, error)
}

// PgInventory keeps assets in network.asset / network.asset_interface.
type PgInventory struct {
	Pool *pgxpool.Pool
}

func NewPgInventory(pool *pgxpool.Pool) *PgInventory {
	return &PgInventory{Pool: pool}
}

const assetColumns = `id, name, type, ip, vendor, model, location, status, monitored, tags, metadata`

func (inv *PgInventory) FindAssetByIp(ctx context.Context, ip string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM network.asset WHERE ip=$1 LIMIT 1`

	var asset models.Asset
	err := inv.Pool.QueryRow(ctx, query, ip).Scan(
		&asset.Id, &asset.Name, &asset.Type, &asset.Ip, &asset.Vendor, &asset.Model,
		&asset.Location, &asset.Status, &asset.Monitored, &asset.Tags, &asset.Metadata,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		utils.Logline("error finding asset by ip", ip, err)
		return nil, err
	}
	return &asset, nil
}

func (inv *PgInventory) CreateAsset(ctx context.Context, asset models.Asset) (*models.Asset, error) {
	if asset.Id == "" {
		asset.Id = uuid.NewString()
	}

	query := `INSERT INTO network.asset (id, name, type, ip, vendor, model, location, status, monitored, tags, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ip) DO NOTHING
		RETURNING id`

	var id string
	err := inv.Pool.QueryRow(ctx, query,
		asset.Id, asset.Name, asset.Type, asset.Ip, asset.Vendor, asset.Model,
		asset.Location, asset.Status, asset.Monitored, asset.Tags, asset.Metadata,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// conflict on ip: someone beat us to it, that's the idempotency guard
			return nil, fmt.Errorf("asset with ip %s already exists", asset.Ip)
		}
		utils.Logline("error creating asset", asset.Ip, err)
		return nil, err
	}

	asset.Id = id
	return &asset, nil
}

func (inv *PgInventory) UpdateAsset(ctx context.Context, id string, update models.AssetUpdate) (*models.Asset, error) {
	sets := []string{"updated_at=NOW()"}
	args := []interface{}{id}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if update.Name != nil {
		appendSet("name", *update.Name)
	}
	if update.Type != nil {
		appendSet("type", *update.Type)
	}
	if update.Vendor != nil {
		appendSet("vendor", *update.Vendor)
	}
	if update.Model != nil {
		appendSet("model", *update.Model)
	}
	if update.Location != nil {
		appendSet("location", *update.Location)
	}
	if update.Status != nil {
		appendSet("status", *update.Status)
	}
	if update.Monitored != nil {
		appendSet("monitored", *update.Monitored)
	}
	if update.Tags != nil {
		appendSet("tags", update.Tags)
	}
	if update.Metadata != nil {
		appendSet("metadata", update.Metadata)
	}

	query := `UPDATE network.asset SET ` + strings.Join(sets, ", ") + `
		WHERE id=$1
		RETURNING ` + assetColumns

	var asset models.Asset
	err := inv.Pool.QueryRow(ctx, query, args...).Scan(
		&asset.Id, &asset.Name, &asset.Type, &asset.Ip, &asset.Vendor, &asset.Model,
		&asset.Location, &asset.Status, &asset.Monitored, &asset.Tags, &asset.Metadata,
	)
	if err != nil {
		utils.Logline("error updating asset", id, err)
		return nil, err
	}
	return &asset, nil
}

func (inv *PgInventory) CreateInterfaces(ctx context.Context, assetId string, interfaces []models.DiscoveredInterface) error {
	if len(interfaces) == 0 {
		return nil
	}

	tx, err := inv.Pool.Begin(ctx)
	if err != nil {
		utils.Logline("error starting transaction", assetId, err)
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO network.asset_interface (asset_id, name, if_index, mib_type, speed_mbps, oper_status, admin_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset_id, if_index) DO UPDATE
		SET name=EXCLUDED.name, mib_type=EXCLUDED.mib_type, speed_mbps=EXCLUDED.speed_mbps,
			oper_status=EXCLUDED.oper_status, admin_status=EXCLUDED.admin_status`
	for _, iface := range interfaces {
		if _, err = tx.Exec(ctx, query, assetId, iface.Name, iface.Index, iface.MibType, iface.SpeedMbps, iface.OperStatus, iface.AdminStatus); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
				// interface table not provisioned, fall back to metadata
				return inv.interfacesToMetadata(ctx, assetId, interfaces)
			}
			utils.Logline("error inserting asset interface", assetId, iface.Index, err)
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		utils.Logline("error committing asset interfaces", assetId, err)
		return err
	}
	return nil
}

func (inv *PgInventory) interfacesToMetadata(ctx context.Context, assetId string, interfaces []models.DiscoveredInterface) error {
	encoded, err := json.Marshal(interfaces)
	if err != nil {
		return err
	}
	_, err = inv.UpdateAsset(ctx, assetId, models.AssetUpdate{
		Metadata: map[string]string{"interfaces": string(encoded)},
	})
	return err
}

func (inv *PgInventory) ListNetworkAssets(ctx context.Context) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM network.asset
		WHERE status=$1 AND monitored=true
		ORDER BY ip ASC`
	rows, err := inv.Pool.Query(ctx, query, models.AssetActive)
	if err != nil {
		utils.Logline("error listing network assets", err)
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var asset models.Asset
		err = rows.Scan(
			&asset.Id, &asset.Name, &asset.Type, &asset.Ip, &asset.Vendor, &asset.Model,
			&asset.Location, &asset.Status, &asset.Monitored, &asset.Tags, &asset.Metadata,
		)
		if err != nil {
			utils.Logline("error scanning asset row", err)
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// MemoryInventory is the in-memory backend used in tests and available as a
// substitute when no database is wired.
type MemoryInventory struct {
	mu         sync.Mutex
	byIp       map[string]*models.Asset
	Interfaces map[string][]models.DiscoveredInterface
}

func NewMemoryInventory() *MemoryInventory {
	return &MemoryInventory{
		byIp:       make(map[string]*models.Asset),
		Interfaces: make(map[string][]models.DiscoveredInterface),
	}
}

func (inv *MemoryInventory) FindAssetByIp(_ context.Context, ip string) (*models.Asset, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if asset, ok := inv.byIp[ip]; ok {
		copied := *asset
		return &copied, nil
	}
	return nil, nil
}

func (inv *MemoryInventory) CreateAsset(_ context.Context, asset models.Asset) (*models.Asset, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.byIp[asset.Ip]; ok {
		return nil, fmt.Errorf("asset with ip %s already exists", asset.Ip)
	}
	if asset.Id == "" {
		asset.Id = uuid.NewString()
	}
	copied := asset
	inv.byIp[asset.Ip] = &copied
	result := asset
	return &result, nil
}

func (inv *MemoryInventory) UpdateAsset(_ context.Context, id string, update models.AssetUpdate) (*models.Asset, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, asset := range inv.byIp {
		if asset.Id != id {
			continue
		}
		if update.Name != nil {
			asset.Name = *update.Name
		}
		if update.Type != nil {
			asset.Type = *update.Type
		}
		if update.Vendor != nil {
			asset.Vendor = *update.Vendor
		}
		if update.Model != nil {
			asset.Model = *update.Model
		}
		if update.Location != nil {
			asset.Location = *update.Location
		}
		if update.Status != nil {
			asset.Status = *update.Status
		}
		if update.Monitored != nil {
			asset.Monitored = *update.Monitored
		}
		if update.Tags != nil {
			asset.Tags = update.Tags
		}
		if update.Metadata != nil {
			if asset.Metadata == nil {
				asset.Metadata = make(map[string]string)
			}
			for key, value := range update.Metadata {
				asset.Metadata[key] = value
			}
		}
		copied := *asset
		return &copied, nil
	}
	return nil, fmt.Errorf("asset %s not found", id)
}

func (inv *MemoryInventory) CreateInterfaces(_ context.Context, assetId string, interfaces []models.DiscoveredInterface) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.Interfaces[assetId] = append(inv.Interfaces[assetId], interfaces...)
	return nil
}

func (inv *MemoryInventory) ListNetworkAssets(_ context.Context) ([]models.Asset, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var assets []models.Asset
	for _, asset := range inv.byIp {
		if asset.Status == models.AssetActive && asset.Monitored {
			assets = append(assets, *asset)
		}
	}
	return assets, nil
}
