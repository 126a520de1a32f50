package model

import (
	"time"

	"gorm.io/datatypes"
)

// SimulationRun records one freshly drawn snapshot.
type SimulationRun struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_run_trace;size:36" json:"trace_id"`
	AccountID  int64          `gorm:"index:idx_run_account" json:"account_id"`
	ZoneID     string         `gorm:"size:128;not null" json:"zone_id"`
	Throughput int            `json:"throughput"`
	Seed       int64          `json:"seed"`
	Encounters int            `json:"encounters"`
	BossFights int            `json:"boss_fights"`
	Rates      datatypes.JSON `json:"rates"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_run_created;autoCreateTime:milli" json:"created_at"`
}
