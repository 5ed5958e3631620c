package pipeline

import (
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/provider"
)

// NormalizeTransaction converts a provider transaction into the canonical
// record. Category, cost center, confidence and review status are left for
// the categorizer. It never fails: missing fields become zero values.
func NormalizeTransaction(userID, bankAccountID string, tx provider.Transaction) domain.CanonicalTransaction {
	return domain.CanonicalTransaction{
		ProviderTransactionID: strings.TrimSpace(tx.TransactionID),
		UserID:                userID,
		BankAccountID:         bankAccountID,
		ProviderAccountID:     tx.AccountID,
		Date:                  parseDate(tx.Date),
		Description:           SelectDescription(tx),
		// Provider amounts are outflow-positive; stored amounts are outflow-negative.
		Amount:  tx.Amount.Neg(),
		Pending: tx.Pending,
	}
}

// SelectDescription picks the merchant name, then the raw name, then the
// original description.
func SelectDescription(tx provider.Transaction) string {
	for _, s := range []string{tx.MerchantName, tx.Name, tx.OriginalDescription} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func parseDate(s string) civil.Date {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}
	}
	return d
}
