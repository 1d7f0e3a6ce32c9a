package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voxpull/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Speaker ledger utilities",
	}

	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	ledgerCmd.AddCommand(newLedgerPathCommand(ctx))

	return ledgerCmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the speaker ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			registry, err := ledger.Load(cfg.Paths.LedgerPath)
			if err != nil {
				return err
			}
			if registry.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Ledger is empty")
				return nil
			}

			rows := make([][]string, 0, registry.Len())
			for _, entry := range registry.Entries() {
				rows = append(rows, []string{
					entry.UserKey,
					entry.SpeakerID,
					fmt.Sprintf("%d", entry.DeliveredCount),
				})
			}
			headers := []string{"User Key", "Speaker", "Delivered"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func newLedgerPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the ledger file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Paths.LedgerPath)
			return nil
		},
	}
}
