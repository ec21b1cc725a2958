package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbook/internal/accounts"
)

func newChartCommand(bookDir *string) *cobra.Command {
	chartCmd := &cobra.Command{
		Use:   "chart",
		Short: "Exchange the chart of accounts as CSV",
	}
	chartCmd.AddCommand(newChartExportCommand(bookDir), newChartImportCommand(bookDir))
	return chartCmd
}

func newChartExportCommand(bookDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the chart of accounts as CSV (stdout without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *bookDir, func(s *session) error {
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				if len(args) == 0 {
					return accounts.WriteAccounts(cmd.OutOrStdout(), chart.All())
				}
				if err := chart.SaveFile(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d accounts to %s\n", len(chart.All()), args[0])
				return nil
			})
		},
	}
}

func newChartImportCommand(bookDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the accounts of a chart CSV that the book does not have yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *bookDir, func(s *session) error {
				incoming, err := accounts.LoadFile(args[0], accounts.WithMaxDepth(s.cfg.Ledger.MaxDepth))
				if err != nil {
					return err
				}
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				// Walk each tree from its root so parents exist before children.
				var order []string
				for _, a := range incoming.All() {
					if a.IsTopLevel() {
						ids, err := incoming.SubtreeIDs(a.ID)
						if err != nil {
							return err
						}
						order = append(order, ids...)
					}
				}

				var added, skipped int
				transfers := make(map[string]string)
				for _, aid := range order {
					a, _ := incoming.Get(aid)
					if chart.Exists(a.ID) {
						skipped++
						continue
					}
					if a.DefaultTransferID != "" {
						transfers[a.ID] = a.DefaultTransferID
						a.DefaultTransferID = ""
					}
					if _, err := s.book.CreateAccount(s.ctx, a); err != nil {
						return err
					}
					added++
				}
				for aid, target := range transfers {
					if err := s.book.SetDefaultTransfer(s.ctx, aid, target); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts (%d already present)\n", added, skipped)
				return nil
			})
		},
	}
}
