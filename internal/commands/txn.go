package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbook/internal/accounts"
	"github.com/cleared-dev/pocketbook/internal/journal"
	"github.com/cleared-dev/pocketbook/internal/ledger"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

func newTxnCommand(bookDir *string) *cobra.Command {
	txnCmd := &cobra.Command{
		Use:   "txn",
		Short: "Record and edit transactions",
	}
	txnCmd.AddCommand(
		newTxnAddCommand(bookDir),
		newTxnShowCommand(bookDir),
		newTxnRemoveSplitCommand(bookDir),
		newTxnDeleteCommand(bookDir),
		newTxnCloneCommand(bookDir),
	)
	return txnCmd
}

// parseLeg reads "ACCOUNT=AMOUNT".
func parseLeg(chart *accounts.Service, s, currency string) (model.Account, money.Money, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 {
		return model.Account{}, money.Money{}, fmt.Errorf("invalid split %q, want ACCOUNT=AMOUNT", s)
	}
	acct, err := resolve(chart, strings.TrimSpace(s[:i]))
	if err != nil {
		return model.Account{}, money.Money{}, err
	}
	amt, err := money.Parse(s[i+1:], currency)
	if err != nil {
		return model.Account{}, money.Money{}, err
	}
	return acct, amt, nil
}

func newTxnAddCommand(bookDir *string) *cobra.Command {
	var (
		description, date, currency, note, every string
		debits, credits                          []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record a transaction from --debit and --credit legs, each ACCOUNT=AMOUNT.
A transaction that does not balance is completed automatically.`,
		Example: `  pocketbook txn add --desc "Lunch" --debit Dining=9.99 --credit Checking=9.99
  pocketbook txn add --desc "Cash spend" --debit Groceries=20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(debits)+len(credits) == 0 {
				return fmt.Errorf("at least one --debit or --credit is required")
			}
			ts := time.Now().UTC()
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				ts = d
			}
			var period *model.Period
			if every != "" {
				p, err := model.ParsePeriod(every)
				if err != nil {
					return err
				}
				period = &p
			}

			return withSession(cmd, *bookDir, func(s *session) error {
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				cur := currency
				if cur == "" {
					cur = s.cfg.Book.ReportingCurrency
				}
				txn := model.NewTransaction(description, cur, ts)
				txn.Note = note
				txn.Recurrence = period
				for _, legs := range []struct {
					values []string
					typ    model.SplitType
				}{{debits, model.Debit}, {credits, model.Credit}} {
					for _, v := range legs.values {
						acct, amt, err := parseLeg(chart, v, txn.Currency())
						if err != nil {
							return err
						}
						if _, err := txn.AddSplit(acct.ID, amt, legs.typ, ""); err != nil {
							return err
						}
					}
				}

				res, err := s.book.PostTransaction(s.ctx, txn)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), txn.ID())
				reportBalancing(cmd, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&description, "desc", "", "description")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&currency, "currency", "", "transaction currency (defaults to the reporting currency)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().StringVar(&every, "every", "", "make this a recurring template, e.g. 1M or 2W")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit leg ACCOUNT=AMOUNT (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit leg ACCOUNT=AMOUNT (repeatable)")
	return cmd
}

func reportBalancing(cmd *cobra.Command, res journal.Result) {
	if !res.Changed() {
		return
	}
	for _, sp := range res.Added {
		fmt.Fprintf(cmd.ErrOrStderr(), "balanced with %s %s split %s\n", sp.Type, sp.Amount, sp.ID)
	}
	for _, sp := range res.Removed {
		fmt.Fprintf(cmd.ErrOrStderr(), "dropped stale balancing split %s\n", sp.ID)
	}
}

func newTxnShowCommand(bookDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <txn-id>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnRef(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, *bookDir, func(s *session) error {
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				txn, err := s.book.Transaction(s.ctx, txnID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s  %s  %s\n", txn.Timestamp.Format(dateLayout), txn.Description, txn.Currency())
				if txn.Note != "" {
					fmt.Fprintf(out, "note: %s\n", txn.Note)
				}
				if txn.Recurrence != nil {
					fmt.Fprintf(out, "every: %s\n", txn.Recurrence)
				}
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, sp := range txn.Splits() {
					name := chart.FullName(sp.AccountID)
					if sp.Imbalance {
						name += " (auto)"
					}
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", sp.ID, name, sp.Type, sp.Amount.Format())
				}
				return w.Flush()
			})
		},
	}
}

func newTxnRemoveSplitCommand(bookDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-split <txn-id> <split-id>",
		Short: "Remove a split and rebalance the transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnRef(args[0])
			if err != nil {
				return err
			}
			splitID, err := txnRef(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, *bookDir, func(s *session) error {
				res, err := s.book.RemoveSplit(s.ctx, txnID, splitID)
				if err != nil {
					return err
				}
				reportBalancing(cmd, res)
				return nil
			})
		},
	}
}

func newTxnDeleteCommand(bookDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <txn-id>",
		Short: "Delete a transaction with all its splits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnRef(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, *bookDir, func(s *session) error {
				return s.book.DeleteTransaction(s.ctx, txnID)
			})
		},
	}
}

func newTxnCloneCommand(bookDir *string) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "clone <template-id>",
		Short: "Post a copy of a template transaction",
		Long: `Post a copy of a transaction at a new date. For a recurring template the
default date is its next occurrence; otherwise it is today.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := txnRef(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, *bookDir, func(s *session) error {
				var ts time.Time
				if date != "" {
					d, err := parseDate(date)
					if err != nil {
						return err
					}
					ts = d
				} else {
					tmpl, err := s.book.Transaction(s.ctx, txnID)
					if err != nil {
						return err
					}
					next, ok := ledger.NextOccurrence(tmpl, tmpl.Timestamp)
					if !ok {
						next = time.Now().UTC()
					}
					ts = next
				}
				clone, err := s.book.CloneTemplate(s.ctx, txnID, ts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), clone.ID())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date of the copy as YYYY-MM-DD")
	return cmd
}
