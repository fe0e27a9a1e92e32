package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikyn/invoice-engine/internal/model"
)

func TestExecutionLogRepositoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewExecutionLogRepository(db)
	ctx := context.Background()

	triggeredBy := "scheduler"
	entry := &model.ExecutionLog{
		RunDate:     day(2026, 1, 16),
		Mode:        model.ModeScheduled,
		StartedAt:   time.Now().UTC(),
		TriggeredBy: &triggeredBy,
	}
	require.NoError(t, repo.Create(ctx, entry))
	require.NotEmpty(t, entry.ID)

	// Simulate the run mutating counters and finalizing.
	entry.CustomersLoaded = 12
	entry.ScheduleMatches = 3
	entry.PDFsGenerated = 3
	entry.EmailsSent = 2
	entry.Failures = 1
	done := time.Now().UTC()
	entry.CompletedAt = &done
	require.NoError(t, repo.Update(ctx, entry))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ModeScheduled, got[0].Mode)
	assert.Equal(t, 12, got[0].CustomersLoaded)
	assert.Equal(t, 3, got[0].ScheduleMatches)
	assert.Equal(t, 3, got[0].PDFsGenerated)
	assert.Equal(t, 2, got[0].EmailsSent)
	assert.Equal(t, 1, got[0].Failures)
	assert.NotNil(t, got[0].CompletedAt)
	require.NotNil(t, got[0].TriggeredBy)
	assert.Equal(t, "scheduler", *got[0].TriggeredBy)
}

func TestExecutionLogRepositoryUpdateRewritesMode(t *testing.T) {
	db := newTestDB(t)
	repo := NewExecutionLogRepository(db)
	ctx := context.Background()

	entry := &model.ExecutionLog{
		RunDate:   day(2026, 1, 16),
		Mode:      model.ModeScheduled,
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, entry))

	// Ignoring the schedule reclassifies the run after the log already exists.
	entry.Mode = model.ModeGenerateAll
	trace := "boom"
	entry.ErrorTrace = &trace
	require.NoError(t, repo.Update(ctx, entry))

	got, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ModeGenerateAll, got[0].Mode)
	require.NotNil(t, got[0].ErrorTrace)
	assert.Equal(t, "boom", *got[0].ErrorTrace)
}

func TestExecutionLogRepositoryListRecentOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewExecutionLogRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 6, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &model.ExecutionLog{
			RunDate:   day(2026, 1, 10+i),
			Mode:      model.ModeQuick,
			StartedAt: base.AddDate(0, 0, i),
		}
		require.NoError(t, repo.Create(ctx, entry))
	}

	got, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].StartedAt.After(got[1].StartedAt))
	assert.True(t, got[1].StartedAt.After(got[2].StartedAt))

	// Non-positive limits fall back to the default instead of returning nothing.
	got, err = repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
