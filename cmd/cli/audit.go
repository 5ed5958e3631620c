package main

import (
	"github.com/spf13/cobra"

	infraBQ "github.com/dvloznov/rent-ledger/internal/infra/bigquery"
)

func newAuditCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Manage the BigQuery categorization audit table",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the audit table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.cfg.RequireProject(); err != nil {
				return err
			}
			sink, err := infraBQ.NewAuditSink(cmd.Context(), st.cfg.GCP.ProjectID, st.cfg.Audit.Dataset, st.cfg.Audit.Table)
			if err != nil {
				return err
			}
			defer sink.Close()

			if err := sink.EnsureTable(cmd.Context()); err != nil {
				return err
			}
			st.log.Info().
				Str("dataset", st.cfg.Audit.Dataset).
				Str("table", st.cfg.Audit.Table).
				Msg("Audit table ready")
			return nil
		},
	})
	return cmd
}
