package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CWPramod/ems-platform-sub002/models"
	"github.com/CWPramod/ems-platform-sub002/utils"
)

// EventSink receives monitoring events (device online/unreachable,
// threshold warnings). MetricSink receives numeric samples.
type EventSink interface {
	Emit(ctx context.Context, event models.Event) error
}

type MetricSink interface {
	Record(ctx context.Context, samples []models.MetricSample) error
}

// NewEvent fills in id and timestamp.
func NewEvent(assetId string, severity string, kind string, message string) models.Event {
	return models.Event{
		Id:       uuid.NewString(),
		AssetId:  assetId,
		Severity: severity,
		Kind:     kind,
		Message:  message,
		At:       time.Now(),
	}
}

// PgEventStore writes events and metrics to monitoring.event and
// monitoring.metric.
type PgEventStore struct {
	Pool *pgxpool.Pool
}

func NewPgEventStore(pool *pgxpool.Pool) *PgEventStore {
	return &PgEventStore{Pool: pool}
}

func (store *PgEventStore) Emit(ctx context.Context, event models.Event) error {
	query := `INSERT INTO monitoring.event (id, asset_id, severity, kind, message, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)`
	if _, err := store.Pool.Exec(ctx, query, event.Id, event.AssetId, event.Severity, event.Kind, event.Message, event.At); err != nil {
		utils.Logline("error inserting event", event.Kind, event.AssetId, err)
		return err
	}
	return nil
}

func (store *PgEventStore) Record(ctx context.Context, samples []models.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	//open a transaction, one batch per cycle
	tx, err := store.Pool.Begin(ctx)
	if err != nil {
		utils.Logline("error starting metric transaction", err)
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO monitoring.metric (asset_id, probe_id, name, value, created_at)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5)`
	for _, sample := range samples {
		if _, err = tx.Exec(ctx, query, sample.AssetId, sample.ProbeId, sample.Name, sample.Value, sample.At); err != nil {
			utils.Logline("error inserting metric", sample.Name, err)
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		utils.Logline("error committing metrics", err)
		return err
	}

	utils.Logline(fmt.Sprintf("(%d) inserts on monitoring.metric", len(samples)))
	return nil
}

// LogSink logs instead of persisting; it backs tests and the probe binary,
// which has no database.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, event models.Event) error {
	utils.Logline("event", event.Severity, event.Kind, event.AssetId, event.Message)
	return nil
}

func (LogSink) Record(_ context.Context, samples []models.MetricSample) error {
	utils.Logline("metrics recorded", len(samples))
	return nil
}
