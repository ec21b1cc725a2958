package ledger

import (
	"context"
	"fmt"

	"github.com/cleared-dev/pocketbook/internal/accounts"
	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
	"github.com/cleared-dev/pocketbook/internal/store"
)

// engine prefetches the postings of ids inside w into an index and returns
// an engine over it.
func (b *Book) engine(ctx context.Context, chart *accounts.Service, ids []string, w balance.Window) (*balance.Engine, error) {
	ix := balance.NewIndex()
	for _, aid := range ids {
		postings, err := b.store.LoadSplitsForAccount(ctx, aid, w)
		if err != nil {
			return nil, fmt.Errorf("loading postings of %s: %w", aid, err)
		}
		ix.Add(postings...)
	}
	return balance.NewEngine(chart, ix, balance.WithMaxDepth(b.maxDepth)), nil
}

// AccountBalance is the signed sum of an account's own splits in w.
func (b *Book) AccountBalance(ctx context.Context, accountID string, w balance.Window) (money.Money, error) {
	chart, err := b.Chart(ctx)
	if err != nil {
		return money.Money{}, err
	}
	e, err := b.engine(ctx, chart, []string{accountID}, w)
	if err != nil {
		return money.Money{}, err
	}
	return e.AccountBalance(accountID, w)
}

// SubtreeBalance includes same-currency descendants.
func (b *Book) SubtreeBalance(ctx context.Context, accountID string, w balance.Window) (money.Money, error) {
	chart, err := b.Chart(ctx)
	if err != nil {
		return money.Money{}, err
	}
	ids, err := chart.SubtreeIDs(accountID)
	if err != nil {
		return money.Money{}, err
	}
	e, err := b.engine(ctx, chart, ids, w)
	if err != nil {
		return money.Money{}, err
	}
	return e.SubtreeBalance(accountID, w)
}

// MultiAccountBalance sums the own balances of accountIDs, which must share
// one currency.
func (b *Book) MultiAccountBalance(ctx context.Context, accountIDs []string, w balance.Window) (money.Money, error) {
	chart, err := b.Chart(ctx)
	if err != nil {
		return money.Money{}, err
	}
	e, err := b.engine(ctx, chart, accountIDs, w)
	if err != nil {
		return money.Money{}, err
	}
	return e.MultiAccountBalance(accountIDs, w)
}

// AggregateTypeBalance sums the non-placeholder accounts of the given types
// in currency.
func (b *Book) AggregateTypeBalance(ctx context.Context, types []model.AccountType, currency string, w balance.Window) (money.Money, error) {
	chart, err := b.Chart(ctx)
	if err != nil {
		return money.Money{}, err
	}
	matching, err := b.store.LoadAccounts(ctx, store.AccountFilter{Types: types, Currency: currency})
	if err != nil {
		return money.Money{}, err
	}
	ids := make([]string, 0, len(matching))
	for _, a := range matching {
		if !a.Placeholder {
			ids = append(ids, a.ID)
		}
	}
	e, err := b.engine(ctx, chart, ids, w)
	if err != nil {
		return money.Money{}, err
	}
	return e.AggregateTypeBalance(types, currency, w)
}

// Line is one row of a chart report. Err is set when the balances of this
// account could not be computed; Own and Subtree are then zero.
type Line struct {
	Account  model.Account
	FullName string
	Depth    int
	Own      money.Money
	Subtree  money.Money
	Err      error
}

// Report returns every visible account in hierarchy order with its own and
// subtree balance in w. Hidden accounts and their descendants are left out
// unless includeHidden is set. A balance failure is kept on its line and
// does not stop the other lines.
func (b *Book) Report(ctx context.Context, w balance.Window, includeHidden bool) ([]Line, error) {
	chart, err := b.Chart(ctx)
	if err != nil {
		return nil, err
	}
	all := chart.All()
	ids := make([]string, 0, len(all))
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	e, err := b.engine(ctx, chart, ids, w)
	if err != nil {
		return nil, err
	}

	var lines []Line
	var visit func(a model.Account, depth int) error
	visit = func(a model.Account, depth int) error {
		if a.Hidden && !includeHidden {
			return nil
		}
		if depth > b.maxDepth {
			return fmt.Errorf("%w: below account %s", model.ErrHierarchyTooDeep, a.ID)
		}
		line := Line{Account: a, FullName: chart.FullName(a.ID), Depth: depth}
		own, err := e.AccountBalance(a.ID, w)
		if err == nil {
			line.Own = own
			line.Subtree, err = e.SubtreeBalance(a.ID, w)
		}
		if err != nil {
			line.Own, line.Subtree = money.Zero(a.Currency), money.Zero(a.Currency)
			line.Err = err
			b.logger(ctx).Warn("account balance unavailable", "account_id", a.ID, "error", err)
		}
		lines = append(lines, line)
		for _, c := range chart.Children(a.ID) {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, a := range all {
		if a.IsTopLevel() {
			if err := visit(a, 0); err != nil {
				return nil, err
			}
		}
	}
	return lines, nil
}
