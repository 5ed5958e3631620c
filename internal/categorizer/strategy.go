package categorizer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/provider"
)

// Input is what the engine needs to categorize one transaction.
type Input struct {
	Description string
	// Amount uses the stored sign convention: outflow negative.
	Amount decimal.Decimal
	Hint   provider.CategoryHint

	// GeneralizedKey is filled by the engine before strategies run.
	GeneralizedKey string
}

// Result is the outcome of categorizing one transaction.
type Result struct {
	Hierarchy   domain.CategoryHierarchy
	CostCenter  string
	Confidence  float64
	Explanation string
	Source      domain.RuleSource
	MatchKey    string
}

// Strategy is one level of the rule precedence chain.
type Strategy interface {
	// Name identifies the strategy in logs and explanations.
	Name() string

	// TryMatch returns a result and true when the strategy applies.
	TryMatch(ctx context.Context, in Input, rc *RuleContext) (Result, bool)
}
