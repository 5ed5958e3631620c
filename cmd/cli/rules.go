package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvloznov/rent-ledger/internal/app"
	"github.com/dvloznov/rent-ledger/internal/domain"
	"github.com/dvloznov/rent-ledger/internal/rules"
)

func newRulesCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
	}
	cmd.AddCommand(newRulesDeriveCmd(st), newRulesCorrectCmd(st))
	return cmd
}

func readProperties(path string) ([]rules.Property, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rules.ParsePropertiesYAML(data)
}

func newRulesDeriveCmd(st *cliState) *cobra.Command {
	var (
		userID string
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Regenerate property-derived rules from a properties YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := readProperties(file)
			if err != nil {
				return err
			}

			if dryRun {
				var derived []domain.CategorizationRule
				for _, p := range props {
					derived = append(derived, rules.Derive(userID, p)...)
				}
				return printJSON(cmd.OutOrStdout(), derived)
			}

			return st.withApp(cmd.Context(), func(svc *app.App) error {
				results := make(map[string]*rules.RegenerateResult, len(props))
				for _, p := range props {
					res, err := svc.Generator.Regenerate(cmd.Context(), userID, p)
					if err != nil {
						return err
					}
					results[p.ID] = res
				}
				return printJSON(cmd.OutOrStdout(), results)
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&file, "file", "", "Properties YAML file (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the derived rules without writing them")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newRulesCorrectCmd(st *cliState) *cobra.Command {
	var corr rules.Correction

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Record a user correction for a transaction description",
		Example: `  ledger rules correct --user u1 --description "UBER TRIP 8841" \
    --l0 Expense --l1 "Auto and travel" --cost-center elm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd.Context(), func(svc *app.App) error {
				rule, err := svc.Corrector.Record(cmd.Context(), corr)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rule)
			})
		},
	}

	cmd.Flags().StringVar(&corr.UserID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&corr.Description, "description", "", "Transaction description (required)")
	cmd.Flags().StringVar(&corr.Hierarchy.L0, "l0", "", "Top-level category")
	cmd.Flags().StringVar(&corr.Hierarchy.L1, "l1", "", "Level 1 category")
	cmd.Flags().StringVar(&corr.Hierarchy.L2, "l2", "", "Level 2 category")
	cmd.Flags().StringVar(&corr.Hierarchy.L3, "l3", "", "Level 3 category")
	cmd.Flags().StringVar(&corr.CostCenter, "cost-center", "", "Property or unit the correction applies to")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}
