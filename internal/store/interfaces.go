package store

import (
	"context"
	"time"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

// MaxBatchWrites is the document store's per-commit write limit.
const MaxBatchWrites = 500

// DefaultBatchLimit keeps commits comfortably below MaxBatchWrites.
const DefaultBatchLimit = 450

// AccountStore reads bank accounts and owns their sync state fields.
type AccountStore interface {
	// GetBankAccount returns domain.ErrAccountNotFound when the document is missing.
	GetBankAccount(ctx context.Context, userID, bankAccountID string) (*domain.BankAccount, error)

	// SaveSyncState merges the cursor, last sync time and mode onto the
	// account document. An empty cursor is stored as null.
	SaveSyncState(ctx context.Context, userID, bankAccountID string, state domain.SyncState) error
}

// TransactionWriter persists transactions. Each call is one atomic commit of
// at most MaxBatchWrites documents.
type TransactionWriter interface {
	// CommitUpserts merge-writes transactions keyed by provider transaction id.
	CommitUpserts(ctx context.Context, userID, bankAccountID string, txs []domain.CanonicalTransaction) error

	// CommitDeletes removes transactions by provider transaction id. Missing
	// documents are not an error.
	CommitDeletes(ctx context.Context, userID, bankAccountID string, providerTransactionIDs []string) error
}

// RuleStore persists categorization rules per user.
type RuleStore interface {
	ListRules(ctx context.Context, userID string) ([]domain.CategorizationRule, error)
	UpsertRules(ctx context.Context, userID string, rules []domain.CategorizationRule) error
	DeleteRules(ctx context.Context, userID string, ruleIDs []string) error
}

// Leaser grants at most one holder per bank account at a time.
type Leaser interface {
	// AcquireLease returns domain.ErrSyncInProgress when another owner holds
	// an unexpired lease. Re-acquiring with the same owner extends it.
	AcquireLease(ctx context.Context, userID, bankAccountID, owner string, ttl time.Duration) error

	// RenewLease extends a lease owner still holds. It returns
	// domain.ErrSyncInProgress when the lease was released or taken over.
	RenewLease(ctx context.Context, userID, bankAccountID, owner string, ttl time.Duration) error

	// ReleaseLease drops the lease if owner still holds it.
	ReleaseLease(ctx context.Context, userID, bankAccountID, owner string) error
}

// Store is the full persistence contract used by the service.
type Store interface {
	AccountStore
	TransactionWriter
	RuleStore
	Leaser
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchLimit
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// ClampBatchLimit bounds a configured batch limit to (0, MaxBatchWrites].
func ClampBatchLimit(n int) int {
	if n <= 0 {
		return DefaultBatchLimit
	}
	if n > MaxBatchWrites {
		return MaxBatchWrites
	}
	return n
}
