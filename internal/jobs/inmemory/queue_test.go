package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/rent-ledger/internal/jobs"
	"github.com/dvloznov/rent-ledger/internal/syncer"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.Job {
	t.Helper()
	var got *jobs.Job
	require.Eventually(t, func() bool {
		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		got = job
		return job.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func startQueue(t *testing.T, handler jobs.JobHandler) (*Queue, *Store) {
	t.Helper()
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1), WithRetryBase(time.Millisecond))
	require.NoError(t, q.Start(context.Background(), handler))
	t.Cleanup(func() { _ = q.Close() })
	return q, store
}

func TestQueue_CompletesJob(t *testing.T) {
	q, store := startQueue(t, func(ctx context.Context, job *jobs.Job) error {
		job.Result = "ok"
		return nil
	})

	job := jobs.NewSyncAccountJob(syncer.Request{UserID: "u1", BankAccountID: "b1"})
	require.NoError(t, q.Publish(context.Background(), job))
	require.NotEmpty(t, job.JobID)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, "ok", done.Result)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, jobs.DefaultMaxRetries, done.MaxRetries)
}

func TestQueue_RetriesTransientFailure(t *testing.T) {
	var calls int32
	q, store := startQueue(t, func(ctx context.Context, job *jobs.Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("provider unavailable")
		}
		return nil
	})

	job := jobs.NewSyncAccountJob(syncer.Request{UserID: "u1", BankAccountID: "b1"})
	require.NoError(t, q.Publish(context.Background(), job))

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, 2, done.RetryCount)
	assert.Empty(t, done.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueue_PermanentFailureIsNotRetried(t *testing.T) {
	var calls int32
	q, store := startQueue(t, func(ctx context.Context, job *jobs.Job) error {
		atomic.AddInt32(&calls, 1)
		return backoff.Permanent(errors.New("bad request"))
	})

	job := jobs.NewSyncAccountJob(syncer.Request{UserID: "u1"})
	require.NoError(t, q.Publish(context.Background(), job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, 0, failed.RetryCount)
	assert.Contains(t, failed.Error, "bad request")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueue_GivesUpAfterMaxRetries(t *testing.T) {
	q, store := startQueue(t, func(ctx context.Context, job *jobs.Job) error {
		return errors.New("still down")
	})

	job := jobs.NewSyncAccountJob(syncer.Request{UserID: "u1"})
	job.MaxRetries = 1
	require.NoError(t, q.Publish(context.Background(), job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, 1, failed.RetryCount)
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1, NewStore())
	require.NoError(t, q.Close())

	err := q.Publish(context.Background(), jobs.NewSyncAccountJob(syncer.Request{UserID: "u1"}))
	assert.Error(t, err)
	assert.Error(t, q.Start(context.Background(), func(context.Context, *jobs.Job) error { return nil }))
}
