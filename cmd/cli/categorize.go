package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dvloznov/rent-ledger/internal/app"
	"github.com/dvloznov/rent-ledger/internal/categorizer"
	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/pipeline"
	"github.com/dvloznov/rent-ledger/internal/provider"
	"github.com/dvloznov/rent-ledger/internal/rules"
)

type categorizeOutput struct {
	Description  string                   `json:"description"`
	Amount       string                   `json:"amount"`
	MatchKey     string                   `json:"matchKey"`
	Category     domain.CategoryHierarchy `json:"category"`
	CostCenter   string                   `json:"costCenter,omitempty"`
	Confidence   float64                  `json:"confidence"`
	ReviewStatus domain.ReviewStatus      `json:"reviewStatus"`
	RuleSource   domain.RuleSource        `json:"ruleSource"`
	Explanation  string                   `json:"explanation"`
}

func newCategorizeCmd(st *cliState) *cobra.Command {
	var (
		userID     string
		name       string
		merchant   string
		amount     string
		primary    string
		detailed   string
		properties string
	)

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Dry-run the rule engine on one provider transaction",
		Long: `categorize normalizes a transaction given in the provider's shape (outflow
positive) and prints the category the engine would assign. Rules come from an
optional properties YAML file; nothing is written.`,
		Example: `  ledger categorize --name "HOME DEPOT #4521" --amount 80.12
  ledger categorize --name "ZELLE FROM JANE DOE" --amount -1500 --properties props.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}

			engine, err := app.NewEngine(ctx, st.cfg)
			if err != nil {
				return err
			}

			rc := categorizer.EmptyRuleContext(userID)
			if properties != "" {
				props, err := readProperties(properties)
				if err != nil {
					return err
				}
				var derived []domain.CategorizationRule
				for _, p := range props {
					derived = append(derived, rules.Derive(userID, p)...)
				}
				rc = categorizer.NewRuleContext(userID, derived)
			}

			ptx := provider.Transaction{
				TransactionID: "dry-run",
				Name:          name,
				MerchantName:  merchant,
				Amount:        amt,
				CategoryHint:  provider.CategoryHint{Primary: primary, Detailed: detailed},
			}
			tx := pipeline.NormalizeTransaction(userID, "", ptx)
			res := engine.Apply(ctx, &tx, ptx.CategoryHint, rc)

			return printJSON(cmd.OutOrStdout(), categorizeOutput{
				Description:  tx.Description,
				Amount:       tx.Amount.String(),
				MatchKey:     res.MatchKey,
				Category:     tx.CategoryHierarchy,
				CostCenter:   tx.CostCenter,
				Confidence:   tx.Confidence,
				ReviewStatus: tx.ReviewStatus,
				RuleSource:   tx.RuleSource,
				Explanation:  tx.Explanation,
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "dry-run", "User id the rules belong to")
	cmd.Flags().StringVar(&name, "name", "", "Provider transaction name (required)")
	cmd.Flags().StringVar(&merchant, "merchant", "", "Provider merchant name")
	cmd.Flags().StringVar(&amount, "amount", "0", "Amount, outflow positive as the provider reports it")
	cmd.Flags().StringVar(&primary, "hint-primary", "", "Provider category hint, primary")
	cmd.Flags().StringVar(&detailed, "hint-detailed", "", "Provider category hint, detailed")
	cmd.Flags().StringVar(&properties, "properties", "", "Properties YAML file to derive rules from")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
