package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvloznov/rent-ledger/internal/categorizer"
	"github.com/dvloznov/rent-ledger/internal/gcs"
)

func newVendorsCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Validate and publish the global vendor map",
	}
	cmd.AddCommand(newVendorsCheckCmd(), newVendorsPushCmd(st))
	return cmd
}

func newVendorsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a vendor map YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			vm, err := categorizer.ParseVendorMapYAML(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d vendors\n", args[0], vm.Len())
			return nil
		},
	}
}

func newVendorsPushCmd(st *cliState) *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload a vendor map YAML file to Cloud Storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if uri == "" {
				uri = st.cfg.Categorizer.VendorMapURI
			}
			if uri == "" {
				return fmt.Errorf("--uri or categorizer.vendor_map_uri is required")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			objects, err := gcs.NewClient(cmd.Context())
			if err != nil {
				return err
			}
			defer objects.Close()

			n, err := gcs.PublishVendorMap(cmd.Context(), objects, uri, data)
			if err != nil {
				return err
			}
			st.log.Info().Str("uri", uri).Int("vendors", n).Msg("Vendor map published")
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Destination gs:// URI (default: categorizer.vendor_map_uri)")
	return cmd
}
