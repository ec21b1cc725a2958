package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbook/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var bookDir string

	rootCmd := &cobra.Command{
		Use:     "pocketbook",
		Short:   "Double-entry personal finance ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&bookDir, "book", ".", "book directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(&bookDir),
		newTxnCommand(&bookDir),
		newBalanceCommand(&bookDir),
		newReportCommand(&bookDir),
		newChartCommand(&bookDir),
	)

	return rootCmd
}
