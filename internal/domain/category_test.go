package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeL0(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Income", L0Income},
		{"  expense ", L0Expense},
		{"TRANSFER", L0Transfer},
		{"Operating Expenses", L0Expense},
		{"Other income", L0Income},
		{"Internal transfer", L0Transfer},
		{"Fixed assets", L0Asset},
		{"Current Liabilities", L0Liability},
		{"Owner's equity", L0Equity},
		{"Rental revenue", L0Income},
		{"Mortgage", L0Liability},
		{"Property loan", L0Liability},
		{"Parent company", L0Other},
		{"", L0Other},
		{"???", L0Other},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeL0(tt.raw))
		})
	}
}

func TestNormalizeCategory_FillsMissingLevels(t *testing.T) {
	got := NormalizeCategory("expense", " Repairs ", "", "  ")
	assert.Equal(t, CategoryHierarchy{L0: L0Expense, L1: "Repairs", L2: Uncategorized, L3: Uncategorized}, got)

	got = CategoryHierarchy{}.Normalize()
	assert.Equal(t, CategoryHierarchy{L0: L0Other, L1: Uncategorized, L2: Uncategorized, L3: Uncategorized}, got)
}

func TestNormalizeCategoryMap(t *testing.T) {
	got := NormalizeCategoryMap(map[string]interface{}{
		"L0":    "income",
		"l1":    "Rental Income",
		"l2":    42,
		"extra": "ignored",
	})
	assert.Equal(t, CategoryHierarchy{L0: L0Income, L1: "Rental Income", L2: Uncategorized, L3: Uncategorized}, got)

	assert.Equal(t, L0Other, NormalizeCategoryMap(nil).L0)
}

func TestFallbackHierarchy(t *testing.T) {
	out := FallbackHierarchy(true)
	assert.Equal(t, L0Expense, out.L0)
	assert.Equal(t, "Needs Review", out.L2)

	in := FallbackHierarchy(false)
	assert.Equal(t, L0Income, in.L0)
	assert.Equal(t, Uncategorized, in.L3)
}

func TestReviewStatusFor(t *testing.T) {
	assert.Equal(t, ReviewStatusNeedsReview, ReviewStatusFor(0.90, DefaultReviewThreshold))
	assert.Equal(t, ReviewStatusApproved, ReviewStatusFor(0.95, DefaultReviewThreshold))
	assert.Equal(t, ReviewStatusApproved, ReviewStatusFor(1.0, DefaultReviewThreshold))
	assert.Equal(t, ReviewStatusNeedsReview, ReviewStatusFor(0.0, DefaultReviewThreshold))
	assert.Equal(t, ReviewStatusApproved, ReviewStatusFor(0.8, 0.8))
}

func TestRuleID(t *testing.T) {
	a := RuleID("u1", "uber  trip", "")
	b := RuleID("u1", "UBER TRIP", "")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, RuleID("u2", "UBER TRIP", ""))
	assert.NotEqual(t, a, RuleID("u1", "UBER TRIP", "prop-1"))

	r := NewRule("u1", " home  depot ", CategoryHierarchy{L0: "expenses"}, " unit-a ", RuleSourceGlobalVendorMap, 5, "")
	assert.Equal(t, "HOME DEPOT", r.MatchKey)
	assert.Equal(t, L0Expense, r.CategoryHierarchy.L0)
	assert.Equal(t, "unit-a", r.CostCenter)
	assert.Equal(t, RuleID("u1", "HOME DEPOT", ""), r.RuleID)
}

func TestSyncModeLabel(t *testing.T) {
	assert.Equal(t, "backfill", SyncModeFull.Label())
	assert.Equal(t, "incremental", SyncModeIncremental.Label())
}
