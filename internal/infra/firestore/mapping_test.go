package firestore

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

func TestTransactionData(t *testing.T) {
	updated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tx := domain.CanonicalTransaction{
		ProviderTransactionID: "txn-1",
		UserID:                "u1",
		BankAccountID:         "b1",
		ProviderAccountID:     "acc-1",
		Date:                  civil.Date{Year: 2025, Month: time.February, Day: 14},
		Description:           "HOME DEPOT",
		Amount:                decimal.RequireFromString("-42.15"),
		CategoryHierarchy:     domain.NormalizeCategory("Expense", "Repairs", "Repairs", "HOME DEPOT"),
		CostCenter:            "prop-1",
		Confidence:            0.9,
		ReviewStatus:          domain.ReviewStatusNeedsReview,
		RuleSource:            domain.RuleSourceGlobalVendorMap,
		Explanation:           "vendor map",
		LastUpdatedAt:         updated,
	}

	data := transactionData(tx)

	assert.Equal(t, "txn-1", data["plaidTransactionId"])
	assert.Equal(t, "acc-1", data["plaidAccountId"])
	assert.Equal(t, "2025-02-14", data["date"])
	assert.Equal(t, -42.15, data["amount"])
	assert.Equal(t, int64(-4215), data["amountCents"])
	assert.Equal(t, "needs-review", data["reviewStatus"])
	assert.Equal(t, updated, data["lastUpdatedAt"])

	hierarchy, ok := data["categoryHierarchy"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Expense", hierarchy["l0"])
	assert.Equal(t, "HOME DEPOT", hierarchy["l3"])
}

func TestTransactionData_InvalidDate(t *testing.T) {
	data := transactionData(domain.CanonicalTransaction{ProviderTransactionID: "x"})
	assert.Equal(t, "", data["date"])
}

func TestSyncStateData_EmptyCursorIsNull(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	data := syncStateData(domain.SyncState{LastSyncAt: now, Mode: domain.SyncModeFull})
	assert.Nil(t, data["plaidSyncCursor"])
	assert.Equal(t, "full", data["syncMode"])
	assert.Equal(t, now, data["lastSyncAt"])

	data = syncStateData(domain.SyncState{Cursor: "cur-2", Mode: domain.SyncModeIncremental})
	assert.Equal(t, "cur-2", data["plaidSyncCursor"])
}

func TestAccountDoc_ToDomain(t *testing.T) {
	cursor := "cur-1"
	acc := accountDoc{PlaidAccountID: "acc-1", PlaidAccessToken: "tok", PlaidSyncCursor: &cursor}.toDomain("u1", "b1")

	assert.Equal(t, "b1", acc.ID)
	assert.Equal(t, "u1", acc.UserID)
	assert.Equal(t, "acc-1", acc.ProviderAccountID)
	assert.Equal(t, "tok", acc.AccessToken)
	assert.Equal(t, "cur-1", acc.Sync.Cursor)

	acc = accountDoc{PlaidAccessToken: "tok"}.toDomain("u1", "b1")
	assert.Equal(t, "", acc.Sync.Cursor)
}

func TestRuleDoc_RoundTrip(t *testing.T) {
	rule := domain.NewRule("u1", "home  depot", domain.NormalizeCategory("Expense", "Repairs", "", ""), "prop-1", domain.RuleSourcePropertyDerived, 10, "prop-1")

	back := ruleToDoc(rule, time.Now()).toDomain("u1", "ignored")
	assert.Equal(t, rule, back)

	back = ruleDoc{MatchKey: "uber"}.toDomain("u1", "doc-9")
	assert.Equal(t, "doc-9", back.RuleID)
	assert.Equal(t, "UBER", back.MatchKey)
}

func TestLeaseHeldByOther(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		existing leaseDoc
		owner    string
		want     bool
	}{
		{"empty", leaseDoc{}, "a", false},
		{"same owner", leaseDoc{Owner: "a", ExpiresAt: now.Add(time.Minute)}, "a", false},
		{"other owner live", leaseDoc{Owner: "b", ExpiresAt: now.Add(time.Minute)}, "a", true},
		{"other owner expired", leaseDoc{Owner: "b", ExpiresAt: now.Add(-time.Second)}, "a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leaseHeldByOther(tt.existing, tt.owner, now))
		})
	}
}

func TestLeaseOwnedBy(t *testing.T) {
	expired := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, leaseOwnedBy(leaseDoc{Owner: "a", ExpiresAt: expired}, "a"))
	assert.False(t, leaseOwnedBy(leaseDoc{Owner: "b", ExpiresAt: expired}, "a"))
	assert.False(t, leaseOwnedBy(leaseDoc{}, ""))
}
