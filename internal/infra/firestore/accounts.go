package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

// accountDoc is the subset of the bank account document the pipeline reads.
// A nil cursor is stored as null.
type accountDoc struct {
	PlaidAccountID   string    `firestore:"plaidAccountId"`
	PlaidAccessToken string    `firestore:"plaidAccessToken"`
	PlaidSyncCursor  *string   `firestore:"plaidSyncCursor"`
	LastSyncAt       time.Time `firestore:"lastSyncAt"`
	SyncMode         string    `firestore:"syncMode"`
}

func (d accountDoc) toDomain(userID, bankAccountID string) *domain.BankAccount {
	acc := &domain.BankAccount{
		ID:                bankAccountID,
		UserID:            userID,
		ProviderAccountID: d.PlaidAccountID,
		AccessToken:       d.PlaidAccessToken,
		Sync: domain.SyncState{
			LastSyncAt: d.LastSyncAt,
			Mode:       domain.SyncMode(d.SyncMode),
		},
	}
	if d.PlaidSyncCursor != nil {
		acc.Sync.Cursor = *d.PlaidSyncCursor
	}
	return acc
}

// syncStateData is the merge payload for SaveSyncState.
func syncStateData(state domain.SyncState) map[string]interface{} {
	var cursor interface{}
	if state.Cursor != "" {
		cursor = state.Cursor
	}
	return map[string]interface{}{
		"plaidSyncCursor": cursor,
		"lastSyncAt":      state.LastSyncAt,
		"syncMode":        string(state.Mode),
	}
}

// GetBankAccount implements store.AccountStore.
func (s *Store) GetBankAccount(ctx context.Context, userID, bankAccountID string) (*domain.BankAccount, error) {
	snap, err := s.accountRef(userID, bankAccountID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("GetBankAccount: %s/%s: %w", userID, bankAccountID, domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetBankAccount: reading document: %w", err)
	}

	var doc accountDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("GetBankAccount: decoding document: %w", err)
	}
	return doc.toDomain(userID, bankAccountID), nil
}

// SaveSyncState implements store.AccountStore.
func (s *Store) SaveSyncState(ctx context.Context, userID, bankAccountID string, state domain.SyncState) error {
	_, err := s.accountRef(userID, bankAccountID).Set(ctx, syncStateData(state), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("SaveSyncState: %w", err)
	}
	return nil
}
