package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hesap/internal/domain/catalog"
	"hesap/internal/domain/stock"
	"hesap/internal/infrastructure/storage/postgres"
	"hesap/internal/infrastructure/storage/postgres/repo"
)

func newStockService(e *env) *stock.Service {
	cat := catalog.NewService(repo.NewCatalogRepo(e.txm), e.txm)
	return stock.NewService(repo.NewStockRepo(e.txm), stock.CatalogDirectory{Catalog: cat}, e.txm,
		postgres.NewOutboxPublisher(e.txm))
}

func newStockCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Check stock snapshots against the movement ledger",
	}

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Report snapshots that differ from their ledger totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			branchID, err := branchFlag(cmd)
			if err != nil {
				return err
			}
			if err := e.open(cmd.Context()); err != nil {
				return err
			}

			diffs, err := newStockService(e).Verify(commandContext(cmd, e), branchID)
			if err != nil {
				return err
			}
			if len(diffs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "stock snapshots match the ledger")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WAREHOUSE\tITEM\tSNAPSHOT\tLEDGER")
			for _, d := range diffs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Key.WarehouseID, d.Key.ItemID, d.Snapshot, d.Ledger)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return fmt.Errorf("%d snapshot(s) drifted from the ledger", len(diffs))
		},
	}
	verify.Flags().String("branch", "", "branch id")

	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Reset drifted snapshots to their ledger totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			branchID, err := branchFlag(cmd)
			if err != nil {
				return err
			}
			if err := e.open(cmd.Context()); err != nil {
				return err
			}

			n, err := newStockService(e).Rebuild(commandContext(cmd, e), branchID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %d snapshot(s)\n", n)
			return nil
		},
	}
	rebuild.Flags().String("branch", "", "branch id")

	cmd.AddCommand(verify, rebuild)
	return cmd
}
