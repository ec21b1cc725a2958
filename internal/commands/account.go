package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbook/internal/ledger"
	"github.com/cleared-dev/pocketbook/internal/model"
)

func newAccountCommand(bookDir *string) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}
	accountCmd.AddCommand(
		newAccountAddCommand(bookDir),
		newAccountListCommand(bookDir),
		newAccountMoveCommand(bookDir),
		newAccountDeleteCommand(bookDir),
	)
	return accountCmd
}

func newAccountAddCommand(bookDir *string) *cobra.Command {
	var (
		typ, currency, parent, transfer string
		color, description              string
		placeholder, hidden, favorite   bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountType, err := model.ParseAccountType(typ)
			if err != nil {
				return err
			}
			return withSession(cmd, *bookDir, func(s *session) error {
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				acct := model.Account{
					Name:        args[0],
					Type:        accountType,
					Currency:    currency,
					Placeholder: placeholder,
					Hidden:      hidden,
					Favorite:    favorite,
					Color:       color,
					Description: description,
				}
				if acct.Currency == "" {
					acct.Currency = s.cfg.Book.ReportingCurrency
				}
				if parent != "" {
					p, err := resolve(chart, parent)
					if err != nil {
						return err
					}
					acct.ParentID = p.ID
				}
				if transfer != "" {
					tr, err := resolve(chart, transfer)
					if err != nil {
						return err
					}
					acct.DefaultTransferID = tr.ID
				}
				created, err := s.book.CreateAccount(s.ctx, acct)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), created.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "account type, e.g. BANK or EXPENSE (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&currency, "currency", "", "currency (defaults to the reporting currency)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent account")
	cmd.Flags().StringVar(&transfer, "default-transfer", "", "account that completes one-split transactions")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().BoolVar(&placeholder, "placeholder", false, "group account that cannot hold splits")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "hide from listings")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "mark as favorite")

	return cmd
}

func newAccountListCommand(bookDir *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *bookDir, func(s *session) error {
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				list := chart.Visible()
				if all {
					list = chart.All()
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ACCOUNT\tTYPE\tCURRENCY\tFLAGS\tID")
				for _, a := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", chart.FullName(a.ID), a.Type, a.Currency, flags(a), a.ID)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include hidden accounts")
	return cmd
}

func flags(a model.Account) string {
	var f []byte
	if a.Placeholder {
		f = append(f, 'P')
	}
	if a.Hidden {
		f = append(f, 'H')
	}
	if a.Favorite {
		f = append(f, '*')
	}
	if len(f) == 0 {
		return "-"
	}
	return string(f)
}

func newAccountMoveCommand(bookDir *string) *cobra.Command {
	var to string
	var top bool

	cmd := &cobra.Command{
		Use:   "move <account>",
		Short: "Re-parent an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (to == "") == !top {
				return fmt.Errorf("exactly one of --to or --top is required")
			}
			return withSession(cmd, *bookDir, func(s *session) error {
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				acct, err := resolve(chart, args[0])
				if err != nil {
					return err
				}
				parentID := ""
				if !top {
					p, err := resolve(chart, to)
					if err != nil {
						return err
					}
					parentID = p.ID
				}
				return s.book.SetParent(s.ctx, acct.ID, parentID)
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "new parent account")
	cmd.Flags().BoolVar(&top, "top", false, "make the account top-level")
	return cmd
}

func newAccountDeleteCommand(bookDir *string) *cobra.Command {
	var splits, splitTarget, children, childTarget string

	cmd := &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete an account, disposing of its splits and children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d ledger.Disposition
			switch splits {
			case "move":
				d.Splits = ledger.SplitsMove
			case "imbalance":
				d.Splits = ledger.SplitsToImbalance
			case "delete":
				d.Splits = ledger.SplitsDelete
			default:
				return fmt.Errorf("--splits must be move, imbalance or delete")
			}
			switch children {
			case "move":
				d.Children = ledger.ChildrenMove
			case "delete":
				d.Children = ledger.ChildrenDelete
			default:
				return fmt.Errorf("--children must be move or delete")
			}

			return withSession(cmd, *bookDir, func(s *session) error {
				chart, err := s.book.Chart(s.ctx)
				if err != nil {
					return err
				}
				acct, err := resolve(chart, args[0])
				if err != nil {
					return err
				}
				if splitTarget != "" {
					t, err := resolve(chart, splitTarget)
					if err != nil {
						return err
					}
					d.SplitTarget = t.ID
				}
				if childTarget != "" {
					t, err := resolve(chart, childTarget)
					if err != nil {
						return err
					}
					d.ChildTarget = t.ID
				}
				if err := s.book.DeleteAccount(s.ctx, acct.ID, d); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", chart.FullName(acct.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&splits, "splits", "", "what to do with its splits: move, imbalance or delete (required)")
	_ = cmd.MarkFlagRequired("splits")
	cmd.Flags().StringVar(&splitTarget, "split-target", "", "account receiving the splits with --splits move")
	cmd.Flags().StringVar(&children, "children", "move", "what to do with child accounts: move or delete")
	cmd.Flags().StringVar(&childTarget, "child-target", "", "new parent for the children (default: the deleted account's parent)")
	return cmd
}
