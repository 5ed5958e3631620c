package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

// Memory is an in-memory Store. It is safe for concurrent use and is used by
// tests and by the CLI's dry-run mode.
type Memory struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.BankAccount
	transactions map[string]map[string]domain.CanonicalTransaction
	rules        map[string]map[string]domain.CategorizationRule
	leases       map[string]lease
	now          func() time.Time

	// FailCommit, when set, is called before every commit; a non-nil error
	// aborts the commit without writing. kind is "upsert", "delete" or "state".
	FailCommit func(kind string) error

	commits []Commit
}

type lease struct {
	owner     string
	expiresAt time.Time
}

// Commit records one successful write batch.
type Commit struct {
	Kind  string
	Count int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]*domain.BankAccount),
		transactions: make(map[string]map[string]domain.CanonicalTransaction),
		rules:        make(map[string]map[string]domain.CategorizationRule),
		leases:       make(map[string]lease),
		now:          time.Now,
	}
}

// SetClock replaces the time source used for lease expiry.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func accountKey(userID, bankAccountID string) string {
	return "users/" + userID + "/bankAccounts/" + bankAccountID
}

// PutBankAccount creates or replaces an account document.
func (m *Memory) PutBankAccount(acc domain.BankAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := acc
	m.accounts[accountKey(acc.UserID, acc.ID)] = &cp
}

// GetBankAccount implements AccountStore.
func (m *Memory) GetBankAccount(ctx context.Context, userID, bankAccountID string) (*domain.BankAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[accountKey(userID, bankAccountID)]
	if !ok {
		return nil, fmt.Errorf("GetBankAccount: %s: %w", accountKey(userID, bankAccountID), domain.ErrAccountNotFound)
	}
	cp := *acc
	return &cp, nil
}

// SaveSyncState implements AccountStore.
func (m *Memory) SaveSyncState(ctx context.Context, userID, bankAccountID string, state domain.SyncState) error {
	if err := m.fail("state"); err != nil {
		return fmt.Errorf("SaveSyncState: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[accountKey(userID, bankAccountID)]
	if !ok {
		return fmt.Errorf("SaveSyncState: %s: %w", accountKey(userID, bankAccountID), domain.ErrAccountNotFound)
	}
	acc.Sync = state
	m.commits = append(m.commits, Commit{Kind: "state", Count: 1})
	return nil
}

// CommitUpserts implements TransactionWriter.
func (m *Memory) CommitUpserts(ctx context.Context, userID, bankAccountID string, txs []domain.CanonicalTransaction) error {
	if len(txs) > MaxBatchWrites {
		return fmt.Errorf("CommitUpserts: batch of %d exceeds limit %d", len(txs), MaxBatchWrites)
	}
	if err := m.fail("upsert"); err != nil {
		return fmt.Errorf("CommitUpserts: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := accountKey(userID, bankAccountID)
	docs, ok := m.transactions[key]
	if !ok {
		docs = make(map[string]domain.CanonicalTransaction)
		m.transactions[key] = docs
	}
	for _, tx := range txs {
		docs[tx.ProviderTransactionID] = tx
	}
	m.commits = append(m.commits, Commit{Kind: "upsert", Count: len(txs)})
	return nil
}

// CommitDeletes implements TransactionWriter.
func (m *Memory) CommitDeletes(ctx context.Context, userID, bankAccountID string, ids []string) error {
	if len(ids) > MaxBatchWrites {
		return fmt.Errorf("CommitDeletes: batch of %d exceeds limit %d", len(ids), MaxBatchWrites)
	}
	if err := m.fail("delete"); err != nil {
		return fmt.Errorf("CommitDeletes: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.transactions[accountKey(userID, bankAccountID)]
	for _, id := range ids {
		delete(docs, id)
	}
	m.commits = append(m.commits, Commit{Kind: "delete", Count: len(ids)})
	return nil
}

// Transactions returns the stored transactions of an account ordered by id.
func (m *Memory) Transactions(userID, bankAccountID string) []domain.CanonicalTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.transactions[accountKey(userID, bankAccountID)]
	out := make([]domain.CanonicalTransaction, 0, len(docs))
	for _, tx := range docs {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderTransactionID < out[j].ProviderTransactionID })
	return out
}

// Commits returns the successful commits in order.
func (m *Memory) Commits() []Commit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Commit(nil), m.commits...)
}

// ListRules implements RuleStore.
func (m *Memory) ListRules(ctx context.Context, userID string) ([]domain.CategorizationRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.CategorizationRule, 0, len(m.rules[userID]))
	for _, r := range m.rules[userID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out, nil
}

// UpsertRules implements RuleStore.
func (m *Memory) UpsertRules(ctx context.Context, userID string, rules []domain.CategorizationRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID, ok := m.rules[userID]
	if !ok {
		byID = make(map[string]domain.CategorizationRule)
		m.rules[userID] = byID
	}
	for _, r := range rules {
		if r.RuleID == "" {
			return fmt.Errorf("UpsertRules: rule %q has no id", r.MatchKey)
		}
		byID[r.RuleID] = r
	}
	return nil
}

// DeleteRules implements RuleStore.
func (m *Memory) DeleteRules(ctx context.Context, userID string, ruleIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ruleIDs {
		delete(m.rules[userID], id)
	}
	return nil
}

// AcquireLease implements Leaser.
func (m *Memory) AcquireLease(ctx context.Context, userID, bankAccountID, owner string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := accountKey(userID, bankAccountID)
	now := m.now()
	if l, ok := m.leases[key]; ok && l.owner != owner && now.Before(l.expiresAt) {
		return fmt.Errorf("AcquireLease: %s held by %s: %w", key, l.owner, domain.ErrSyncInProgress)
	}
	m.leases[key] = lease{owner: owner, expiresAt: now.Add(ttl)}
	return nil
}

// RenewLease implements Leaser.
func (m *Memory) RenewLease(ctx context.Context, userID, bankAccountID, owner string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := accountKey(userID, bankAccountID)
	l, ok := m.leases[key]
	if !ok || l.owner != owner {
		return fmt.Errorf("RenewLease: %s no longer held by %s: %w", key, owner, domain.ErrSyncInProgress)
	}
	m.leases[key] = lease{owner: owner, expiresAt: m.now().Add(ttl)}
	return nil
}

// ReleaseLease implements Leaser.
func (m *Memory) ReleaseLease(ctx context.Context, userID, bankAccountID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := accountKey(userID, bankAccountID)
	if l, ok := m.leases[key]; ok && l.owner == owner {
		delete(m.leases, key)
	}
	return nil
}

func (m *Memory) fail(kind string) error {
	if m.FailCommit == nil {
		return nil
	}
	return m.FailCommit(kind)
}

var _ Store = (*Memory)(nil)
