package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

func TestMemory_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := domain.CanonicalTransaction{ProviderTransactionID: "tx1", Description: "OLD", Amount: decimal.NewFromInt(-10)}
	second := domain.CanonicalTransaction{ProviderTransactionID: "tx1", Description: "NEW", Amount: decimal.NewFromInt(-12)}

	require.NoError(t, m.CommitUpserts(ctx, "u1", "b1", []domain.CanonicalTransaction{first}))
	require.NoError(t, m.CommitUpserts(ctx, "u1", "b1", []domain.CanonicalTransaction{second}))

	got := m.Transactions("u1", "b1")
	require.Len(t, got, 1)
	assert.Equal(t, "NEW", got[0].Description)
	assert.True(t, decimal.NewFromInt(-12).Equal(got[0].Amount))
}

func TestMemory_DeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CommitUpserts(ctx, "u1", "b1", []domain.CanonicalTransaction{{ProviderTransactionID: "tx1"}}))
	require.NoError(t, m.CommitDeletes(ctx, "u1", "b1", []string{"tx1", "never-existed"}))
	require.NoError(t, m.CommitDeletes(ctx, "u2", "b9", []string{"tx1"}))

	assert.Empty(t, m.Transactions("u1", "b1"))
}

func TestMemory_RejectsOversizedBatch(t *testing.T) {
	m := NewMemory()
	txs := make([]domain.CanonicalTransaction, MaxBatchWrites+1)
	err := m.CommitUpserts(context.Background(), "u1", "b1", txs)
	assert.Error(t, err)
	assert.Empty(t, m.Commits())
}

func TestMemory_FailCommitWritesNothing(t *testing.T) {
	m := NewMemory()
	m.FailCommit = func(kind string) error { return errors.New("unavailable") }

	err := m.CommitUpserts(context.Background(), "u1", "b1", []domain.CanonicalTransaction{{ProviderTransactionID: "tx1"}})
	require.Error(t, err)
	assert.Empty(t, m.Transactions("u1", "b1"))
}

func TestMemory_Accounts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetBankAccount(ctx, "u1", "b1")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	m.PutBankAccount(domain.BankAccount{ID: "b1", UserID: "u1", AccessToken: "tok", Sync: domain.SyncState{Cursor: "c0"}})
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.SaveSyncState(ctx, "u1", "b1", domain.SyncState{LastSyncAt: now, Mode: domain.SyncModeFull}))

	acc, err := m.GetBankAccount(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.Equal(t, "", acc.Sync.Cursor)
	assert.Equal(t, now, acc.Sync.LastSyncAt)
	assert.Equal(t, "tok", acc.AccessToken)

	assert.ErrorIs(t, m.SaveSyncState(ctx, "u1", "missing", domain.SyncState{}), domain.ErrAccountNotFound)
}

func TestMemory_Lease(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	require.NoError(t, m.AcquireLease(ctx, "u1", "b1", "a", time.Minute))
	assert.ErrorIs(t, m.AcquireLease(ctx, "u1", "b1", "b", time.Minute), domain.ErrSyncInProgress)
	require.NoError(t, m.AcquireLease(ctx, "u1", "b1", "a", time.Minute), "same owner re-acquires")
	require.NoError(t, m.AcquireLease(ctx, "u1", "b2", "b", time.Minute), "other account is independent")

	// Releasing with the wrong owner keeps the lease.
	require.NoError(t, m.ReleaseLease(ctx, "u1", "b1", "b"))
	assert.ErrorIs(t, m.AcquireLease(ctx, "u1", "b1", "b", time.Minute), domain.ErrSyncInProgress)

	now = now.Add(2 * time.Minute)
	require.NoError(t, m.AcquireLease(ctx, "u1", "b1", "b", time.Minute), "expired lease is taken over")

	require.NoError(t, m.ReleaseLease(ctx, "u1", "b1", "b"))
	require.NoError(t, m.AcquireLease(ctx, "u1", "b1", "c", time.Minute))
}

func TestMemory_RenewLease(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	assert.ErrorIs(t, m.RenewLease(ctx, "u1", "b1", "a", time.Minute), domain.ErrSyncInProgress, "nothing to renew")

	require.NoError(t, m.AcquireLease(ctx, "u1", "b1", "a", time.Minute))
	now = now.Add(50 * time.Second)
	require.NoError(t, m.RenewLease(ctx, "u1", "b1", "a", time.Minute))

	now = now.Add(50 * time.Second)
	assert.ErrorIs(t, m.AcquireLease(ctx, "u1", "b1", "b", time.Minute), domain.ErrSyncInProgress, "renewal extended the lease")

	// An expired lease nobody took over is still renewable.
	now = now.Add(5 * time.Minute)
	require.NoError(t, m.RenewLease(ctx, "u1", "b1", "a", time.Minute))

	now = now.Add(5 * time.Minute)
	require.NoError(t, m.AcquireLease(ctx, "u1", "b1", "b", time.Minute))
	assert.ErrorIs(t, m.RenewLease(ctx, "u1", "b1", "a", time.Minute), domain.ErrSyncInProgress, "taken over")

	require.NoError(t, m.ReleaseLease(ctx, "u1", "b1", "b"))
	assert.ErrorIs(t, m.RenewLease(ctx, "u1", "b1", "b", time.Minute), domain.ErrSyncInProgress, "released")
}

func TestChunk(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Chunk(items, 2))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}}, Chunk(items, 10))
	assert.Nil(t, Chunk([]int{}, 2))
	assert.Equal(t, 450, ClampBatchLimit(0))
	assert.Equal(t, 500, ClampBatchLimit(900))
	assert.Equal(t, 100, ClampBatchLimit(100))
}
