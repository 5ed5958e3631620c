package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

type leaseDoc struct {
	Owner      string    `firestore:"owner"`
	AcquiredAt time.Time `firestore:"acquiredAt"`
	ExpiresAt  time.Time `firestore:"expiresAt"`
}

// leaseHeldByOther reports whether an existing lease blocks owner at now.
func leaseHeldByOther(existing leaseDoc, owner string, now time.Time) bool {
	return existing.Owner != "" && existing.Owner != owner && now.Before(existing.ExpiresAt)
}

// AcquireLease implements store.Leaser with a transaction on the account's
// lock document.
func (s *Store) AcquireLease(ctx context.Context, userID, bankAccountID, owner string, ttl time.Duration) error {
	ref := s.lockRef(userID, bankAccountID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := s.now().UTC()

		snap, err := tx.Get(ref)
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("reading lock: %w", err)
		}
		if err == nil {
			var existing leaseDoc
			if err := snap.DataTo(&existing); err != nil {
				return fmt.Errorf("decoding lock: %w", err)
			}
			if leaseHeldByOther(existing, owner, now) {
				return fmt.Errorf("held by %s until %s: %w", existing.Owner, existing.ExpiresAt.Format(time.RFC3339), domain.ErrSyncInProgress)
			}
		}

		return tx.Set(ref, leaseDoc{Owner: owner, AcquiredAt: now, ExpiresAt: now.Add(ttl)})
	})
	if err != nil {
		return fmt.Errorf("AcquireLease: %s/%s: %w", userID, bankAccountID, err)
	}
	return nil
}

// leaseOwnedBy reports whether owner may renew the existing lease. An
// expired lease that nobody took over is still the owner's.
func leaseOwnedBy(existing leaseDoc, owner string) bool {
	return existing.Owner != "" && existing.Owner == owner
}

// RenewLease implements store.Leaser.
func (s *Store) RenewLease(ctx context.Context, userID, bankAccountID, owner string, ttl time.Duration) error {
	ref := s.lockRef(userID, bankAccountID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := s.now().UTC()

		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("lease released: %w", domain.ErrSyncInProgress)
			}
			return fmt.Errorf("reading lock: %w", err)
		}
		var existing leaseDoc
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decoding lock: %w", err)
		}
		if !leaseOwnedBy(existing, owner) {
			return fmt.Errorf("taken over by %s: %w", existing.Owner, domain.ErrSyncInProgress)
		}
		return tx.Update(ref, []firestore.Update{{Path: "expiresAt", Value: now.Add(ttl)}})
	})
	if err != nil {
		return fmt.Errorf("RenewLease: %s/%s: %w", userID, bankAccountID, err)
	}
	return nil
}

// ReleaseLease implements store.Leaser.
func (s *Store) ReleaseLease(ctx context.Context, userID, bankAccountID, owner string) error {
	ref := s.lockRef(userID, bankAccountID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return fmt.Errorf("reading lock: %w", err)
		}
		var existing leaseDoc
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decoding lock: %w", err)
		}
		if existing.Owner != owner {
			return nil
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return fmt.Errorf("ReleaseLease: %s/%s: %w", userID, bankAccountID, err)
	}
	return nil
}
