package balance

import (
	"fmt"
	"slices"

	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

// DefaultMaxDepth caps SubtreeBalance recursion.
const DefaultMaxDepth = 128

// Chart is the read-only account graph the engine walks.
type Chart interface {
	Get(accountID string) (model.Account, bool)
	Children(accountID string) []model.Account
	All() []model.Account
}

// SplitSource supplies the postings of one account inside a window.
type SplitSource interface {
	SplitsForAccount(accountID string, w Window) ([]Posting, error)
}

// Engine computes balances over a Chart and a SplitSource.
type Engine struct {
	chart    Chart
	splits   SplitSource
	maxDepth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// NewEngine returns an Engine reading chart and splits.
func NewEngine(chart Chart, splits SplitSource, opts ...Option) *Engine {
	e := &Engine{chart: chart, splits: splits, maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(e)
	}
	return e
}

// AccountBalance sums SignedAmount over the account's own postings in w.
// The result is in the account's currency; a posting in any other currency
// fails with money.ErrCurrencyMismatch.
func (e *Engine) AccountBalance(accountID string, w Window) (money.Money, error) {
	acct, ok := e.chart.Get(accountID)
	if !ok {
		return money.Money{}, fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
	}
	return e.own(acct, w)
}

func (e *Engine) own(acct model.Account, w Window) (money.Money, error) {
	postings, err := e.splits.SplitsForAccount(acct.ID, w)
	if err != nil {
		return money.Money{}, fmt.Errorf("loading splits of %s: %w", acct.ID, err)
	}
	total := money.Zero(acct.Currency)
	for _, p := range postings {
		if !w.Contains(p.Timestamp) {
			continue
		}
		total, err = total.Add(SignedAmount(p.Split, acct))
		if err != nil {
			return money.Money{}, fmt.Errorf("account %s, split %s: %w", acct.ID, p.Split.ID, err)
		}
	}
	return total, nil
}

// SubtreeBalance returns the account's own balance plus the subtree balance
// of every child in the same currency. A child in another currency is
// skipped together with everything below it.
func (e *Engine) SubtreeBalance(rootID string, w Window) (money.Money, error) {
	root, ok := e.chart.Get(rootID)
	if !ok {
		return money.Money{}, fmt.Errorf("%w: account %s", model.ErrUnknownEntity, rootID)
	}
	return e.subtree(root, w, 0)
}

func (e *Engine) subtree(acct model.Account, w Window, depth int) (money.Money, error) {
	if depth > e.maxDepth {
		return money.Money{}, fmt.Errorf("%w: below account %s", model.ErrHierarchyTooDeep, acct.ID)
	}
	total, err := e.own(acct, w)
	if err != nil {
		return money.Money{}, err
	}
	for _, child := range e.chart.Children(acct.ID) {
		if child.Currency != acct.Currency {
			continue
		}
		sub, err := e.subtree(child, w, depth+1)
		if err != nil {
			return money.Money{}, err
		}
		if total, err = total.Add(sub); err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}

// MultiAccountBalance sums AccountBalance over accountIDs, which must share
// one currency. An empty list yields the zero Money with no currency.
func (e *Engine) MultiAccountBalance(accountIDs []string, w Window) (money.Money, error) {
	var total money.Money
	for i, aid := range accountIDs {
		b, err := e.AccountBalance(aid, w)
		if err != nil {
			return money.Money{}, err
		}
		if i == 0 {
			total = b
			continue
		}
		if total, err = total.Add(b); err != nil {
			return money.Money{}, fmt.Errorf("account %s: %w", aid, err)
		}
	}
	return total, nil
}

// AggregateTypeBalance sums the balances of every non-placeholder account
// whose type is in types and whose currency is currency. Accounts in other
// currencies are excluded.
func (e *Engine) AggregateTypeBalance(types []model.AccountType, currency string, w Window) (money.Money, error) {
	currency = money.Code(currency)
	var ids []string
	for _, a := range e.chart.All() {
		if a.Placeholder || a.Currency != currency || !slices.Contains(types, a.Type) {
			continue
		}
		ids = append(ids, a.ID)
	}
	if len(ids) == 0 {
		return money.Zero(currency), nil
	}
	return e.MultiAccountBalance(ids, w)
}
