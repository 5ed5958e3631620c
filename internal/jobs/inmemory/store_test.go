package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/rent-ledger/internal/jobs"
)

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	job := &jobs.Job{JobID: "j1", Type: jobs.JobTypeSyncAccount, UserID: "u1", Status: jobs.JobStatusPending}
	require.NoError(t, s.SaveJob(ctx, job))

	job.Status = jobs.JobStatusRunning
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, got.Status, "stored copy is isolated from the caller")

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)

	assert.Error(t, s.SaveJob(ctx, &jobs.Job{}))
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.Job{
		{JobID: "a", UserID: "u1", Type: jobs.JobTypeSyncAccount, Status: jobs.JobStatusCompleted},
		{JobID: "b", UserID: "u1", Type: jobs.JobTypeRegenerateRules, Status: jobs.JobStatusPending},
		{JobID: "c", UserID: "u2", Type: jobs.JobTypeSyncAccount, Status: jobs.JobStatusPending},
		{JobID: "d", UserID: "u1", Type: jobs.JobTypeSyncAccount, Status: jobs.JobStatusFailed},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, j))
	}

	ids := func(list []*jobs.Job) []string {
		var out []string
		for _, j := range list {
			out = append(out, j.JobID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all", jobs.JobFilter{}, []string{"a", "b", "c", "d"}},
		{"by user", jobs.JobFilter{UserID: "u1"}, []string{"a", "b", "d"}},
		{"by type", jobs.JobFilter{Type: jobs.JobTypeSyncAccount}, []string{"a", "c", "d"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusPending}, []string{"b", "c"}},
		{"paged", jobs.JobFilter{Offset: 1, Limit: 2}, []string{"b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	got, err := s.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_UpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.SaveJob(ctx, &jobs.Job{JobID: "j1", Status: jobs.JobStatusRunning}))

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"))
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "nope", jobs.JobStatusFailed, ""), jobs.ErrJobNotFound)
}
