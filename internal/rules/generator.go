package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/logger"
)

// Priorities of derived rules; the property strategy tries higher first.
const (
	PriorityTenant  = 30
	PriorityLender  = 20
	PriorityUtility = 15
	PriorityVendor  = 10
)

// minKeyLength is the shortest name that becomes a rule.
const minKeyLength = 3

// Store is the rule persistence the generator needs.
type Store interface {
	ListRules(ctx context.Context, userID string) ([]domain.CategorizationRule, error)
	UpsertRules(ctx context.Context, userID string, rules []domain.CategorizationRule) error
	DeleteRules(ctx context.Context, userID string, ruleIDs []string) error
}

// Derive turns a property's tenants, lenders, utility providers and vendors
// into categorization rules scoped to the property. A name that appears in
// several roles keeps the highest-priority role.
func Derive(userID string, p Property) []domain.CategorizationRule {
	var out []domain.CategorizationRule
	seen := make(map[string]bool)

	add := func(name string, h domain.CategoryHierarchy, costCenter string, priority int) {
		key := domain.NormalizeMatchKey(name)
		if len(key) < minKeyLength || seen[key] {
			return
		}
		seen[key] = true
		h.L3 = strings.TrimSpace(name)
		out = append(out, domain.NewRule(userID, key, h, costCenter, domain.RuleSourcePropertyDerived, priority, p.ID))
	}

	rent := domain.CategoryHierarchy{L0: domain.L0Income, L1: "Rental Income", L2: "Rents received"}
	for _, u := range p.Units {
		for _, t := range u.Tenants {
			add(t, rent, u.ID, PriorityTenant)
		}
	}
	for _, t := range p.Tenants {
		add(t, rent, p.ID, PriorityTenant)
	}

	for _, l := range p.Lenders {
		add(l, domain.CategoryHierarchy{L0: domain.L0Expense, L1: "Financing", L2: "Mortgage interest"}, p.ID, PriorityLender)
	}
	for _, u := range p.UtilityProviders {
		add(u, domain.CategoryHierarchy{L0: domain.L0Expense, L1: "Utilities", L2: "Utilities"}, p.ID, PriorityUtility)
	}
	for _, v := range p.Vendors {
		add(v.Name, vendorHierarchy(v.Service), p.ID, PriorityVendor)
	}

	return out
}

// vendorHierarchy maps a vendor's service to a group and tax line.
func vendorHierarchy(service string) domain.CategoryHierarchy {
	s := strings.ToLower(service)
	switch {
	case strings.Contains(s, "clean"), strings.Contains(s, "landscap"), strings.Contains(s, "lawn"), strings.Contains(s, "pest"):
		return domain.CategoryHierarchy{L0: domain.L0Expense, L1: "Repairs & Maintenance", L2: "Cleaning and maintenance"}
	case strings.Contains(s, "insur"):
		return domain.CategoryHierarchy{L0: domain.L0Expense, L1: "Insurance", L2: "Insurance"}
	case strings.Contains(s, "legal"), strings.Contains(s, "account"), strings.Contains(s, "tax prep"):
		return domain.CategoryHierarchy{L0: domain.L0Expense, L1: "Professional Services", L2: "Legal and other professional fees"}
	case strings.Contains(s, "manage"):
		return domain.CategoryHierarchy{L0: domain.L0Expense, L1: "Management", L2: "Management fees"}
	case strings.Contains(s, "advert"), strings.Contains(s, "listing"):
		return domain.CategoryHierarchy{L0: domain.L0Expense, L1: "Marketing", L2: "Advertising"}
	default:
		return domain.CategoryHierarchy{L0: domain.L0Expense, L1: "Repairs & Maintenance", L2: "Repairs"}
	}
}

// Generator keeps a user's property-derived rules in step with their
// property data.
type Generator struct {
	store Store
}

// NewGenerator creates a generator writing to store.
func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// RegenerateResult reports what a regeneration wrote.
type RegenerateResult struct {
	Upserted int `json:"upserted"`
	Deleted  int `json:"deleted"`
}

// Regenerate derives rules for p, upserts them, and deletes rules previously
// derived from p that no longer apply. Rule ids are deterministic, so
// concurrent regenerations of the same property converge.
func (g *Generator) Regenerate(ctx context.Context, userID string, p Property) (*RegenerateResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("Regenerate: %w: userId is required", domain.ErrInvalidRequest)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("Regenerate: %w: %v", domain.ErrInvalidRequest, err)
	}

	log := logger.FromContext(ctx)

	derived := Derive(userID, p)
	keep := make(map[string]bool, len(derived))
	for _, r := range derived {
		keep[r.RuleID] = true
	}

	existing, err := g.store.ListRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Regenerate: listing rules: %w", err)
	}
	var stale []string
	for _, r := range existing {
		if r.Source == domain.RuleSourcePropertyDerived && r.ScopeID == p.ID && !keep[r.RuleID] {
			stale = append(stale, r.RuleID)
		}
	}

	if len(derived) > 0 {
		if err := g.store.UpsertRules(ctx, userID, derived); err != nil {
			return nil, fmt.Errorf("Regenerate: upserting rules: %w", err)
		}
	}
	if len(stale) > 0 {
		if err := g.store.DeleteRules(ctx, userID, stale); err != nil {
			return nil, fmt.Errorf("Regenerate: deleting stale rules: %w", err)
		}
	}

	log.Info().
		Str("user_id", userID).
		Str("property_id", p.ID).
		Int("upserted", len(derived)).
		Int("deleted", len(stale)).
		Msg("Property rules regenerated")

	return &RegenerateResult{Upserted: len(derived), Deleted: len(stale)}, nil
}
