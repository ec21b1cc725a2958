package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbook/internal/accounts"
	"github.com/cleared-dev/pocketbook/internal/config"
)

func newInitCommand() *cobra.Command {
	var (
		name        string
		currency    string
		singleEntry bool
		empty       bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new book",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(name, currency)
			cfg.Ledger.DoubleEntry = !singleEntry
			return runInit(cmd, absDir, cfg, !empty)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "book name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&currency, "currency", "USD", "reporting currency")
	cmd.Flags().BoolVar(&singleEntry, "single-entry", false, "complete one-split transactions against the imbalance account")
	cmd.Flags().BoolVar(&empty, "empty", false, "start without the default chart of accounts")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, cfg *config.Config, seed bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Write pocketbook.yaml.
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write .gitignore for the database and local overrides.
	gitignore := "*.db\n*.db-wal\n*.db-shm\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	s, err := openWith(cmd, dir, cfg)
	if err != nil {
		return err
	}
	defer s.closeFn()

	// Seed the chart of accounts. Parents come before their children.
	var n int
	if seed {
		for _, a := range accounts.DefaultChart(cfg.Book.ReportingCurrency) {
			if _, err := s.book.CreateAccount(s.ctx, a); err != nil {
				return fmt.Errorf("writing chart of accounts: %w", err)
			}
			n++
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized book %q at %s (%d accounts)\n", cfg.Book.Name, dir, n)
	return nil
}
