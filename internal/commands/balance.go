package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

func newBalanceCommand(bookDir *string) *cobra.Command {
	var from, to string
	var subtree bool

	cmd := &cobra.Command{
		Use:   "balance <account>...",
		Short: "Show account balances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := parseWindow(from, to)
			if err != nil {
				return err
			}
			return withSession(cmd, *bookDir, func(s *session) error {
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, ref := range args {
					acct, err := resolve(chart, ref)
					if err != nil {
						return err
					}
					var m money.Money
					if subtree {
						m, err = s.book.SubtreeBalance(s.ctx, acct.ID, w)
					} else {
						m, err = s.book.AccountBalance(s.ctx, acct.ID, w)
					}
					if err != nil {
						return fmt.Errorf("%s: %w", chart.FullName(acct.ID), err)
					}
					fmt.Fprintf(tw, "%s\t%s\n", chart.FullName(acct.ID), m.Format())
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&subtree, "subtree", false, "include same-currency descendants")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	return cmd
}

// reportGroups are the totals printed under the account tree.
var reportGroups = []struct {
	label string
	types []model.AccountType
}{
	{"Assets", []model.AccountType{
		model.AccountTypeAsset, model.AccountTypeBank, model.AccountTypeCash,
		model.AccountTypeReceivable, model.AccountTypeStock, model.AccountTypeMutual,
	}},
	{"Liabilities", []model.AccountType{
		model.AccountTypeLiability, model.AccountTypeCredit, model.AccountTypePayable,
	}},
	{"Equity", []model.AccountType{model.AccountTypeEquity}},
	{"Income", []model.AccountType{model.AccountTypeIncome}},
	{"Expenses", []model.AccountType{model.AccountTypeExpense}},
}

// unavailable stands in for a balance that failed to compute.
const unavailable = "n/a"

func newReportCommand(bookDir *string) *cobra.Command {
	var from, to string
	var all bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the account tree with balances and totals by type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := parseWindow(from, to)
			if err != nil {
				return err
			}
			return withSession(cmd, *bookDir, func(s *session) error {
				lines, err := s.book.Report(s.ctx, w, all)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				var failed int
				for _, l := range lines {
					name := strings.Repeat("  ", l.Depth) + l.Account.Name
					if l.Err != nil {
						failed++
						fmt.Fprintf(tw, "%s\t%s\n", name, unavailable)
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\n", name, l.Subtree.Format())
				}
				fmt.Fprintln(tw, "\t")

				currency := s.cfg.Book.ReportingCurrency
				for _, g := range reportGroups {
					total, err := s.book.AggregateTypeBalance(s.ctx, g.types, currency, w)
					if err != nil {
						failed++
						s.log.Warn("total unavailable", "group", g.label, "error", err)
						fmt.Fprintf(tw, "%s (%s)\t%s\n", g.label, currency, unavailable)
						continue
					}
					fmt.Fprintf(tw, "%s (%s)\t%s\n", g.label, currency, total.Format())
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if failed > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d balances could not be computed\n", failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().BoolVar(&all, "all", false, "include hidden accounts")
	return cmd
}
