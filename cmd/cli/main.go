package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/rent-ledger/internal/app"
	"github.com/dvloznov/rent-ledger/internal/config"
	"github.com/dvloznov/rent-ledger/internal/logger"
)

// cliState is shared by all subcommands and filled in PersistentPreRunE.
type cliState struct {
	configFile string
	envFile    string

	cfg *config.Config
	log zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:   "ledger",
		Short: "Sync and categorize landlord bank transactions",
		Long: `ledger syncs bank transactions from Plaid into Firestore, categorizes them
with the rule engine, and manages categorization rules.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configFile, st.envFile)
			if err != nil {
				return err
			}
			log, err := logger.NewFromConfig(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st.cfg = cfg
			st.log = log
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&st.configFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&st.envFile, "env-file", ".env", "Path to a .env file")

	root.AddCommand(
		newSyncCmd(st),
		newRulesCmd(st),
		newCategorizeCmd(st),
		newVendorsCmd(st),
		newAuditCmd(st),
	)
	return root
}

// withApp connects the full service for commands that touch Firestore or Plaid.
func (st *cliState) withApp(ctx context.Context, fn func(*app.App) error) error {
	svc, err := app.New(ctx, st.cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
