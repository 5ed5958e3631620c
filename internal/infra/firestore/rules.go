package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/iterator"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/store"
)

type ruleDoc struct {
	RuleID            string                   `firestore:"ruleId"`
	MatchKey          string                   `firestore:"matchKey"`
	CategoryHierarchy domain.CategoryHierarchy `firestore:"categoryHierarchy"`
	CostCenter        string                   `firestore:"costCenter"`
	Source            string                   `firestore:"source"`
	Priority          int                      `firestore:"priority"`
	ScopeID           string                   `firestore:"scopeId"`
	UpdatedAt         time.Time                `firestore:"updatedAt"`
}

func ruleToDoc(r domain.CategorizationRule, now time.Time) ruleDoc {
	return ruleDoc{
		RuleID:            r.RuleID,
		MatchKey:          r.MatchKey,
		CategoryHierarchy: r.CategoryHierarchy,
		CostCenter:        r.CostCenter,
		Source:            string(r.Source),
		Priority:          r.Priority,
		ScopeID:           r.ScopeID,
		UpdatedAt:         now,
	}
}

func (d ruleDoc) toDomain(userID, docID string) domain.CategorizationRule {
	id := d.RuleID
	if id == "" {
		id = docID
	}
	return domain.CategorizationRule{
		RuleID:            id,
		UserID:            userID,
		MatchKey:          domain.NormalizeMatchKey(d.MatchKey),
		CategoryHierarchy: d.CategoryHierarchy.Normalize(),
		CostCenter:        d.CostCenter,
		Source:            domain.RuleSource(d.Source),
		Priority:          d.Priority,
		ScopeID:           d.ScopeID,
	}
}

// ListRules implements store.RuleStore.
func (s *Store) ListRules(ctx context.Context, userID string) ([]domain.CategorizationRule, error) {
	iter := s.rulesRef(userID).Documents(ctx)
	defer iter.Stop()

	var rules []domain.CategorizationRule
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRules: iterating: %w", err)
		}

		var doc ruleDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("ListRules: decoding %s: %w", snap.Ref.ID, err)
		}
		rules = append(rules, doc.toDomain(userID, snap.Ref.ID))
	}
	return rules, nil
}

// UpsertRules implements store.RuleStore. Rules are written in batches keyed
// by rule id, so rewriting the same rule overwrites it.
func (s *Store) UpsertRules(ctx context.Context, userID string, rules []domain.CategorizationRule) error {
	now := s.now().UTC()
	for _, chunk := range store.Chunk(rules, store.DefaultBatchLimit) {
		batch := s.client.Batch()
		for _, r := range chunk {
			if r.RuleID == "" {
				return fmt.Errorf("UpsertRules: rule %q has no id", r.MatchKey)
			}
			batch.Set(s.rulesRef(userID).Doc(r.RuleID), ruleToDoc(r, now))
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("UpsertRules: committing %d rules: %w", len(chunk), err)
		}
	}
	return nil
}

// DeleteRules implements store.RuleStore.
func (s *Store) DeleteRules(ctx context.Context, userID string, ruleIDs []string) error {
	for _, chunk := range store.Chunk(ruleIDs, store.DefaultBatchLimit) {
		batch := s.client.Batch()
		for _, id := range chunk {
			batch.Delete(s.rulesRef(userID).Doc(id))
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("DeleteRules: committing %d deletions: %w", len(chunk), err)
		}
	}
	return nil
}
