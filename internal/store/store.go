// Package store defines the persistence contract the ledger core talks to.
// Implementations live in subpackages.
package store

import (
	"context"
	"errors"
	"slices"

	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

// ErrAccountInUse is returned when deleting an account still referenced by
// splits or child accounts.
var ErrAccountInUse = errors.New("account in use")

// Store durably keeps accounts and transactions by identifier. Lookups of
// missing ids fail with model.ErrUnknownEntity.
type Store interface {
	LoadAccount(ctx context.Context, accountID string) (model.Account, error)
	// LoadAccounts enumerates accounts matching filter in creation order.
	LoadAccounts(ctx context.Context, filter AccountFilter) ([]model.Account, error)
	SaveAccount(ctx context.Context, acct model.Account) error
	DeleteAccount(ctx context.Context, accountID string) error

	LoadTransaction(ctx context.Context, txnID string) (*model.Transaction, error)
	// LoadSplitsForAccount returns the account's postings inside w,
	// ordered by transaction timestamp.
	LoadSplitsForAccount(ctx context.Context, accountID string, w balance.Window) ([]balance.Posting, error)
	// TransactionsForAccount returns every transaction with a split against accountID.
	TransactionsForAccount(ctx context.Context, accountID string) ([]*model.Transaction, error)
	// SaveTransaction persists a transaction and all of its splits, or nothing.
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, txnID string) error
}

// AccountFilter selects accounts by type and currency. Zero fields match all.
type AccountFilter struct {
	Types    []model.AccountType
	Currency string
}

// Match reports whether a passes the filter.
func (f AccountFilter) Match(a model.Account) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, a.Type) {
		return false
	}
	if f.Currency != "" && money.Code(f.Currency) != a.Currency {
		return false
	}
	return true
}
