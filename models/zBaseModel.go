package models

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ErrorResponse struct {
	Error interface{} `json:"error"`
}

type SuccessResponse struct {
	Notice string      `json:"notice,omitempty"`
	Record interface{} `json:"record,omitempty"`
}

type ConnDb struct {
	Conn *pgxpool.Pool
	Ctx  context.Context
}

type WorkerStatus struct {
	TaskName    string         `json:"task"`
	PgsqlStatus PoolStatsPgsql `json:"PgsqlConns"`
}

type PoolStatsPgsql struct {
	AcquiredConns   int32  `json:"acquired"`
	TotalConns      int32  `json:"total"`
	IdleConns       int32  `json:"idle"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}
