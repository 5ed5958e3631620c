package main

import (
	"github.com/spf13/cobra"

	"github.com/dvloznov/rent-ledger/internal/app"
	"github.com/dvloznov/rent-ledger/internal/syncer"
)

func newSyncCmd(st *cliState) *cobra.Command {
	var req syncer.Request

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync for a bank account",
		Example: `  ledger sync --user u1 --account chk-1
  ledger sync --user u1 --account chk-1 --full --start-date 2023-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withApp(cmd.Context(), func(svc *app.App) error {
				res, err := svc.Syncer.Sync(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"ok":      true,
					"mode":    res.Mode.Label(),
					"count":   res.Count,
					"removed": res.Removed,
					"pages":   res.Pages,
				})
			})
		},
	}

	cmd.Flags().StringVar(&req.UserID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&req.BankAccountID, "account", "", "Bank account id (required)")
	cmd.Flags().BoolVar(&req.FullSync, "full", false, "Run a full historical backfill")
	cmd.Flags().StringVar(&req.StartDate, "start-date", "", "Backfill start date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
