package categorizer

import (
	"context"
	"sort"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/logger"
)

// RuleReader is the read side of the rule store.
type RuleReader interface {
	ListRules(ctx context.Context, userID string) ([]domain.CategorizationRule, error)
}

// RuleContext is a user's rules indexed for lookup. It is built once per
// sync run and read-only afterwards.
type RuleContext struct {
	UserID string

	corrections map[string]domain.CategorizationRule
	property    []domain.CategorizationRule
	vendor      []domain.CategorizationRule
}

// NewRuleContext indexes rules by source. Property rules are ordered by
// priority, then by longer match key.
func NewRuleContext(userID string, rules []domain.CategorizationRule) *RuleContext {
	rc := &RuleContext{
		UserID:      userID,
		corrections: make(map[string]domain.CategorizationRule),
	}

	for _, r := range rules {
		switch r.Source {
		case domain.RuleSourceUserCorrection:
			key := domain.NormalizeMatchKey(r.MatchKey)
			if existing, ok := rc.corrections[key]; ok && existing.Priority > r.Priority {
				continue
			}
			rc.corrections[key] = r
		case domain.RuleSourcePropertyDerived:
			rc.property = append(rc.property, r)
		case domain.RuleSourceGlobalVendorMap:
			rc.vendor = append(rc.vendor, r)
		}
	}

	sortRules(rc.property)
	sortRules(rc.vendor)
	return rc
}

// EmptyRuleContext has no user rules; only global strategies can match.
func EmptyRuleContext(userID string) *RuleContext {
	return NewRuleContext(userID, nil)
}

// LoadRuleContext reads the user's rules. A store failure degrades to an
// empty context instead of failing categorization.
func LoadRuleContext(ctx context.Context, reader RuleReader, userID string) *RuleContext {
	rules, err := reader.ListRules(ctx, userID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load categorization rules, using global rules only")
		return EmptyRuleContext(userID)
	}
	return NewRuleContext(userID, rules)
}

// Correction looks up a user-correction rule by generalized key.
func (rc *RuleContext) Correction(key string) (domain.CategorizationRule, bool) {
	if rc == nil {
		return domain.CategorizationRule{}, false
	}
	r, ok := rc.corrections[domain.NormalizeMatchKey(key)]
	return r, ok
}

// PropertyRules returns property-derived rules in match order.
func (rc *RuleContext) PropertyRules() []domain.CategorizationRule {
	if rc == nil {
		return nil
	}
	return rc.property
}

// VendorRules returns stored global-vendor-map rules in match order.
func (rc *RuleContext) VendorRules() []domain.CategorizationRule {
	if rc == nil {
		return nil
	}
	return rc.vendor
}

// Len is the number of indexed rules.
func (rc *RuleContext) Len() int {
	if rc == nil {
		return 0
	}
	return len(rc.corrections) + len(rc.property) + len(rc.vendor)
}

func sortRules(rules []domain.CategorizationRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		if len(rules[i].MatchKey) != len(rules[j].MatchKey) {
			return len(rules[i].MatchKey) > len(rules[j].MatchKey)
		}
		return rules[i].MatchKey < rules[j].MatchKey
	})
}
