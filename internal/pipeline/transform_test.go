package pipeline

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/rent-ledger/internal/provider"
)

func TestNormalizeTransaction_Sign(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"outflow becomes negative", "50.00", "-50"},
		{"credit becomes positive", "-50.00", "50"},
		{"zero stays zero", "0", "0"},
		{"cents preserved", "12.34", "-12.34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := provider.Transaction{TransactionID: "tx1", Amount: decimal.RequireFromString(tt.amount)}
			got := NormalizeTransaction("u1", "b1", tx)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Amount), "got %s", got.Amount)
		})
	}
}

func TestNormalizeTransaction_Fields(t *testing.T) {
	tx := provider.Transaction{
		TransactionID: " tx-9 ",
		AccountID:     "acc-1",
		Date:          "2024-03-05",
		Name:          "POS 1234 HOME DEPOT",
		MerchantName:  "Home Depot",
		Amount:        decimal.RequireFromString("120.55"),
		Pending:       true,
	}

	got := NormalizeTransaction("u1", "b1", tx)

	assert.Equal(t, "tx-9", got.ProviderTransactionID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "b1", got.BankAccountID)
	assert.Equal(t, "acc-1", got.ProviderAccountID)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 5}, got.Date)
	assert.Equal(t, "Home Depot", got.Description)
	assert.Equal(t, int64(-12055), got.AmountCents())
	assert.True(t, got.Pending)
	assert.Empty(t, got.ReviewStatus)
}

func TestSelectDescription(t *testing.T) {
	tests := []struct {
		name string
		tx   provider.Transaction
		want string
	}{
		{"merchant wins", provider.Transaction{MerchantName: "Shell", Name: "SHELL OIL 123", OriginalDescription: "orig"}, "Shell"},
		{"name when no merchant", provider.Transaction{MerchantName: "  ", Name: "SHELL OIL 123", OriginalDescription: "orig"}, "SHELL OIL 123"},
		{"original last", provider.Transaction{OriginalDescription: "ACH DEPOSIT"}, "ACH DEPOSIT"},
		{"nothing", provider.Transaction{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectDescription(tt.tx))
		})
	}
}

func TestNormalizeTransaction_Malformed(t *testing.T) {
	got := NormalizeTransaction("u1", "b1", provider.Transaction{Date: "not-a-date"})
	assert.Equal(t, civil.Date{}, got.Date)
	assert.True(t, got.Amount.IsZero())
	assert.Equal(t, "", got.Description)
}
