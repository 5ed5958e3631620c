package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/logger"
)

// PriorityCorrection is the priority of user-correction rules.
const PriorityCorrection = 100

// KeyGeneralizer derives the rule key for a description. The categorization
// engine implements it, so corrections are stored under the same key the
// engine looks up.
type KeyGeneralizer interface {
	Generalize(ctx context.Context, description string) string
}

// Correction is a user's explicit recategorization of a description.
type Correction struct {
	UserID      string                   `json:"userId"`
	Description string                   `json:"description"`
	Hierarchy   domain.CategoryHierarchy `json:"hierarchy"`
	CostCenter  string                   `json:"costCenter,omitempty"`
}

// Corrector records user corrections as rules.
type Corrector struct {
	store       Store
	generalizer KeyGeneralizer
}

// NewCorrector creates a corrector.
func NewCorrector(store Store, generalizer KeyGeneralizer) *Corrector {
	return &Corrector{store: store, generalizer: generalizer}
}

// Record upserts a user-correction rule keyed by the generalized
// description. Recording the same correction twice overwrites the rule.
func (c *Corrector) Record(ctx context.Context, corr Correction) (*domain.CategorizationRule, error) {
	if strings.TrimSpace(corr.UserID) == "" || strings.TrimSpace(corr.Description) == "" {
		return nil, fmt.Errorf("Record: %w: userId and description are required", domain.ErrInvalidRequest)
	}

	key := c.generalizer.Generalize(ctx, corr.Description)
	if key == "" {
		return nil, fmt.Errorf("Record: %w: description has no usable text", domain.ErrInvalidRequest)
	}

	rule := domain.NewRule(corr.UserID, key, corr.Hierarchy, corr.CostCenter, domain.RuleSourceUserCorrection, PriorityCorrection, "")
	if err := c.store.UpsertRules(ctx, corr.UserID, []domain.CategorizationRule{rule}); err != nil {
		return nil, fmt.Errorf("Record: upserting rule: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("user_id", corr.UserID).
		Str("rule_id", rule.RuleID).
		Str("match_key", rule.MatchKey).
		Str("category", rule.CategoryHierarchy.String()).
		Msg("User correction recorded")

	return &rule, nil
}
