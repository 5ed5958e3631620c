package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ReviewStatus tells whether a categorization needs a human to look at it.
type ReviewStatus string

const (
	ReviewStatusApproved    ReviewStatus = "approved"
	ReviewStatusNeedsReview ReviewStatus = "needs-review"
)

// DefaultReviewThreshold is the minimum confidence that is approved without
// review. Callers override it through configuration.
const DefaultReviewThreshold = 0.95

// ReviewStatusFor derives the review status for a confidence score. The
// threshold itself is approved.
func ReviewStatusFor(confidence, threshold float64) ReviewStatus {
	if confidence >= threshold {
		return ReviewStatusApproved
	}
	return ReviewStatusNeedsReview
}

// CanonicalTransaction is one bank transaction as stored by the system.
// Amount follows the internal sign convention: outflow negative, inflow positive.
type CanonicalTransaction struct {
	ProviderTransactionID string
	UserID                string
	BankAccountID         string
	ProviderAccountID     string

	Date        civil.Date
	Description string
	Amount      decimal.Decimal

	CategoryHierarchy CategoryHierarchy
	CostCenter        string
	Confidence        float64
	ReviewStatus      ReviewStatus

	// RuleSource and Explanation record which rule produced the category.
	RuleSource  RuleSource
	Explanation string

	Pending       bool
	LastUpdatedAt time.Time
}

// AmountCents returns the amount in minor units, rounded half away from zero.
func (t CanonicalTransaction) AmountCents() int64 {
	return t.Amount.Shift(2).Round(0).IntPart()
}

// IsOutflow reports whether money left the account.
func (t CanonicalTransaction) IsOutflow() bool {
	return t.Amount.IsNegative()
}
