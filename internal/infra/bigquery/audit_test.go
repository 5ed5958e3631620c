package bigquery

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

func TestNewAuditRow(t *testing.T) {
	categorized := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	recorded := categorized.Add(time.Second)
	tx := domain.CanonicalTransaction{
		ProviderTransactionID: "txn-1",
		UserID:                "u1",
		BankAccountID:         "b1",
		Date:                  civil.Date{Year: 2025, Month: time.February, Day: 28},
		Description:           "CITY WATER",
		Amount:                decimal.RequireFromString("-88.10"),
		CategoryHierarchy:     domain.NormalizeCategory("Expense", "Utilities", "Utilities", "CITY WATER"),
		CostCenter:            "prop-1",
		Confidence:            0.97,
		ReviewStatus:          domain.ReviewStatusApproved,
		RuleSource:            domain.RuleSourcePropertyDerived,
		Explanation:           "property utility provider",
		LastUpdatedAt:         categorized,
	}

	row := newAuditRow(tx, recorded)

	assert.Equal(t, "txn-1", row.TransactionID)
	assert.True(t, row.TransactionDate.Valid)
	assert.Equal(t, tx.Date, row.TransactionDate.Date)
	assert.Equal(t, "-881/10", row.Amount.String())
	assert.Equal(t, "Utilities", row.CategoryL1)
	assert.True(t, row.CostCenter.Valid)
	assert.Equal(t, "property-derived", row.RuleSource)
	assert.Equal(t, "approved", row.ReviewStatus)
	assert.Equal(t, categorized, row.CategorizedTS)
	assert.Equal(t, recorded, row.RecordedTS)
}

func TestNewAuditRow_NullableFields(t *testing.T) {
	row := newAuditRow(domain.CanonicalTransaction{ProviderTransactionID: "x", Amount: decimal.Zero}, time.Now())

	assert.False(t, row.TransactionDate.Valid)
	assert.False(t, row.CostCenter.Valid)
}

func TestInsertID_StableAcrossReplay(t *testing.T) {
	tx := domain.CanonicalTransaction{
		UserID:                "u1",
		BankAccountID:         "b1",
		ProviderTransactionID: "t1",
		Amount:                decimal.RequireFromString("-12.50"),
		CategoryHierarchy:     domain.NormalizeCategory("Expense", "Repairs", "Repairs", ""),
		Confidence:            0.9,
		RuleSource:            domain.RuleSourceGlobalVendorMap,
		LastUpdatedAt:         time.Unix(100, 0),
	}
	first := insertID(tx)

	// A retried page re-categorizes with a new timestamp but the same outcome.
	tx.LastUpdatedAt = time.Unix(200, 0)
	assert.Equal(t, first, insertID(tx))

	tx.CategoryHierarchy = domain.NormalizeCategory("Expense", "Utilities", "Utilities", "")
	assert.NotEqual(t, first, insertID(tx))

	other := tx
	other.ProviderTransactionID = "t2"
	assert.NotEqual(t, insertID(tx), insertID(other))
}
