package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/store"
)

// transactionData is the merge payload of a transaction document.
func transactionData(tx domain.CanonicalTransaction) map[string]interface{} {
	amount, _ := tx.Amount.Float64()
	date := ""
	if tx.Date.IsValid() {
		date = tx.Date.String()
	}
	return map[string]interface{}{
		"plaidTransactionId": tx.ProviderTransactionID,
		"userId":             tx.UserID,
		"bankAccountId":      tx.BankAccountID,
		"plaidAccountId":     tx.ProviderAccountID,
		"date":               date,
		"description":        tx.Description,
		"amount":             amount,
		"amountCents":        tx.AmountCents(),
		"categoryHierarchy": map[string]interface{}{
			"l0": tx.CategoryHierarchy.L0,
			"l1": tx.CategoryHierarchy.L1,
			"l2": tx.CategoryHierarchy.L2,
			"l3": tx.CategoryHierarchy.L3,
		},
		"costCenter":    tx.CostCenter,
		"confidence":    tx.Confidence,
		"reviewStatus":  string(tx.ReviewStatus),
		"ruleSource":    string(tx.RuleSource),
		"explanation":   tx.Explanation,
		"pending":       tx.Pending,
		"lastUpdatedAt": tx.LastUpdatedAt,
	}
}

// CommitUpserts implements store.TransactionWriter as a single batch commit.
func (s *Store) CommitUpserts(ctx context.Context, userID, bankAccountID string, txs []domain.CanonicalTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	if len(txs) > store.MaxBatchWrites {
		return fmt.Errorf("CommitUpserts: batch of %d exceeds limit %d", len(txs), store.MaxBatchWrites)
	}

	batch := s.client.Batch()
	for _, tx := range txs {
		batch.Set(s.transactionRef(userID, bankAccountID, tx.ProviderTransactionID), transactionData(tx), firestore.MergeAll)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("CommitUpserts: committing %d documents: %w", len(txs), err)
	}
	return nil
}

// CommitDeletes implements store.TransactionWriter as a single batch commit.
func (s *Store) CommitDeletes(ctx context.Context, userID, bankAccountID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > store.MaxBatchWrites {
		return fmt.Errorf("CommitDeletes: batch of %d exceeds limit %d", len(ids), store.MaxBatchWrites)
	}

	batch := s.client.Batch()
	for _, id := range ids {
		batch.Delete(s.transactionRef(userID, bankAccountID, id))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("CommitDeletes: committing %d deletions: %w", len(ids), err)
	}
	return nil
}
