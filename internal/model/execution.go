package model

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionLog audits one orchestration run. Created before any work starts,
// counters mutated as work completes, finalized on every exit path. Never
// touched again once CompletedAt is set.
type ExecutionLog struct {
	ID              uuid.UUID
	RunDate         time.Time
	Mode            ExecutionMode
	StartedAt       time.Time
	CompletedAt     *time.Time
	CustomersLoaded int
	ScheduleMatches int
	PDFsGenerated   int `gorm:"column:pdfs_generated"`
	EmailsSent      int
	Failures        int
	ErrorTrace      *string
	TriggeredBy     *string
	CreatedAt       time.Time
}
