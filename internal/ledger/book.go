// Package ledger ties the chart, the auto-balancer and the balance engine to
// a persistent store. Book is the entry point used by the CLI.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cleared-dev/pocketbook/internal/accounts"
	"github.com/cleared-dev/pocketbook/internal/id"
	"github.com/cleared-dev/pocketbook/internal/journal"
	"github.com/cleared-dev/pocketbook/internal/logging"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
	"github.com/cleared-dev/pocketbook/internal/store"
)

// Book is a ledger on top of a store.Store. It holds no state of its own
// between calls; every operation reads a fresh chart from the store.
type Book struct {
	store    store.Store
	mode     journal.Mode
	maxDepth int
	log      *slog.Logger
}

// Option configures a Book.
type Option func(*Book)

// WithMode selects double- or single-entry balancing. The default is DoubleEntry.
func WithMode(m journal.Mode) Option {
	return func(b *Book) { b.mode = m }
}

// WithMaxDepth caps hierarchy walks.
func WithMaxDepth(n int) Option {
	return func(b *Book) {
		if n > 0 {
			b.maxDepth = n
		}
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(b *Book) {
		if l != nil {
			b.log = l
		}
	}
}

// New returns a Book over s.
func New(s store.Store, opts ...Option) *Book {
	b := &Book{
		store:    s,
		mode:     journal.DoubleEntry,
		maxDepth: accounts.DefaultMaxDepth,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Store returns the underlying store.
func (b *Book) Store() store.Store { return b.store }

// Mode returns the balancing mode.
func (b *Book) Mode() journal.Mode { return b.mode }

func (b *Book) logger(ctx context.Context) *slog.Logger {
	if l, ok := logging.Lookup(ctx); ok {
		return l
	}
	return b.log
}

// Chart loads a snapshot of the account graph.
func (b *Book) Chart(ctx context.Context) (*accounts.Service, error) {
	accts, err := b.store.LoadAccounts(ctx, store.AccountFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading chart: %w", err)
	}
	svc, err := accounts.NewService(accts, accounts.WithMaxDepth(b.maxDepth))
	if err != nil {
		return nil, fmt.Errorf("loading chart: %w", err)
	}
	return svc, nil
}

// CreateAccount adds acct to the chart. An empty ID is generated.
func (b *Book) CreateAccount(ctx context.Context, acct model.Account) (model.Account, error) {
	chart, err := b.Chart(ctx)
	if err != nil {
		return model.Account{}, err
	}
	if acct.ID == "" {
		acct.ID = id.New()
	}
	if err := chart.Add(acct); err != nil {
		return model.Account{}, fmt.Errorf("creating account %q: %w", acct.Name, err)
	}
	acct, _ = chart.Get(acct.ID)
	if err := b.store.SaveAccount(ctx, acct); err != nil {
		return model.Account{}, err
	}
	b.logger(ctx).Info("account created", "account_id", acct.ID, "name", chart.FullName(acct.ID), "type", acct.Type)
	return acct, nil
}

// UpdateAccount replaces an account's attributes. An account that has
// splits cannot become a placeholder or change currency.
func (b *Book) UpdateAccount(ctx context.Context, acct model.Account) error {
	chart, err := b.Chart(ctx)
	if err != nil {
		return err
	}
	old, ok := chart.Get(acct.ID)
	if !ok {
		return fmt.Errorf("%w: account %s", model.ErrUnknownEntity, acct.ID)
	}
	if (acct.Placeholder && !old.Placeholder) || money.Code(acct.Currency) != old.Currency {
		used, err := b.hasSplits(ctx, acct.ID)
		if err != nil {
			return err
		}
		if used && acct.Placeholder && !old.Placeholder {
			return fmt.Errorf("%w: account %s already has splits", model.ErrPlaceholderAccount, acct.ID)
		}
		if used && money.Code(acct.Currency) != old.Currency {
			return fmt.Errorf("%w: account %s has splits in %s", money.ErrCurrencyMismatch, acct.ID, old.Currency)
		}
	}
	if err := chart.Update(acct); err != nil {
		return fmt.Errorf("updating account %s: %w", acct.ID, err)
	}
	acct, _ = chart.Get(acct.ID)
	return b.store.SaveAccount(ctx, acct)
}

// SetParent moves an account under parentID, or to the top level when
// parentID is empty.
func (b *Book) SetParent(ctx context.Context, accountID, parentID string) error {
	chart, err := b.Chart(ctx)
	if err != nil {
		return err
	}
	if err := chart.SetParent(accountID, parentID); err != nil {
		return err
	}
	acct, _ := chart.Get(accountID)
	if err := b.store.SaveAccount(ctx, acct); err != nil {
		return err
	}
	b.logger(ctx).Info("account moved", "account_id", accountID, "parent", parentID)
	return nil
}

// SetDefaultTransfer sets or, with an empty targetID, clears the account a
// lone split is completed against.
func (b *Book) SetDefaultTransfer(ctx context.Context, accountID, targetID string) error {
	chart, err := b.Chart(ctx)
	if err != nil {
		return err
	}
	if err := chart.SetDefaultTransfer(accountID, targetID); err != nil {
		return err
	}
	acct, _ := chart.Get(accountID)
	return b.store.SaveAccount(ctx, acct)
}

func (b *Book) hasSplits(ctx context.Context, accountID string) (bool, error) {
	txns, err := b.store.TransactionsForAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	return len(txns) > 0, nil
}

// imbalanceIDs returns the ids of the imbalance accounts present in chart.
func imbalanceIDs(chart *accounts.Service) map[string]bool {
	out := make(map[string]bool)
	for _, a := range chart.All() {
		if accounts.IsImbalance(a) {
			out[a.ID] = true
		}
	}
	return out
}

// saveNewImbalance persists imbalance accounts created in chart since before.
func (b *Book) saveNewImbalance(ctx context.Context, chart *accounts.Service, before map[string]bool) error {
	for _, a := range chart.All() {
		if accounts.IsImbalance(a) && !before[a.ID] {
			if err := b.store.SaveAccount(ctx, a); err != nil {
				return fmt.Errorf("saving imbalance account: %w", err)
			}
			b.logger(ctx).Info("imbalance account created", "account_id", a.ID, "currency", a.Currency)
		}
	}
	return nil
}
