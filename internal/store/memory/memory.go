// Package memory is an in-process Store, used for tests and scratch books.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
	"github.com/cleared-dev/pocketbook/internal/store"
)

// Store keeps copies of everything it is given.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
	accOrder []string
	txns     map[string]*model.Transaction
	txnOrder []string
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]model.Account),
		txns:     make(map[string]*model.Transaction),
	}
}

func (s *Store) LoadAccount(_ context.Context, accountID string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
	}
	return a, nil
}

func (s *Store) LoadAccounts(_ context.Context, filter store.AccountFilter) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Account
	for _, aid := range s.accOrder {
		if a := s.accounts[aid]; filter.Match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) SaveAccount(_ context.Context, acct model.Account) error {
	if acct.ID == "" {
		return fmt.Errorf("saving account %q: missing id", acct.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct.ParentID != "" {
		if _, ok := s.accounts[acct.ParentID]; !ok {
			return fmt.Errorf("%w: parent %s", model.ErrUnknownEntity, acct.ParentID)
		}
	}
	acct.Currency = money.Code(acct.Currency)
	if _, ok := s.accounts[acct.ID]; !ok {
		s.accOrder = append(s.accOrder, acct.ID)
	}
	s.accounts[acct.ID] = acct
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
	}
	for _, a := range s.accounts {
		if a.ParentID == accountID {
			return fmt.Errorf("%w: %s has child %s", store.ErrAccountInUse, accountID, a.ID)
		}
	}
	for _, txn := range s.txns {
		if slices.Contains(txn.Accounts(), accountID) {
			return fmt.Errorf("%w: %s has splits in %s", store.ErrAccountInUse, accountID, txn.ID())
		}
	}
	delete(s.accounts, accountID)
	s.accOrder = slices.DeleteFunc(s.accOrder, func(x string) bool { return x == accountID })
	return nil
}

func (s *Store) LoadTransaction(_ context.Context, txnID string) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.txns[txnID]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", model.ErrUnknownEntity, txnID)
	}
	return txn.Copy(), nil
}

func (s *Store) LoadSplitsForAccount(_ context.Context, accountID string, w balance.Window) ([]balance.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []balance.Posting
	for _, tid := range s.txnOrder {
		txn := s.txns[tid]
		if !w.Contains(txn.Timestamp) {
			continue
		}
		for _, sp := range txn.Splits() {
			if sp.AccountID == accountID {
				out = append(out, balance.Posting{Split: sp, Timestamp: txn.Timestamp})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b balance.Posting) int { return a.Timestamp.Compare(b.Timestamp) })
	return out, nil
}

func (s *Store) TransactionsForAccount(_ context.Context, accountID string) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Transaction
	for _, tid := range s.txnOrder {
		if txn := s.txns[tid]; slices.Contains(txn.Accounts(), accountID) {
			out = append(out, txn.Copy())
		}
	}
	return out, nil
}

func (s *Store) SaveTransaction(_ context.Context, txn *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, aid := range txn.Accounts() {
		if _, ok := s.accounts[aid]; !ok {
			return fmt.Errorf("saving transaction %s: %w: account %s", txn.ID(), model.ErrUnknownEntity, aid)
		}
	}
	if _, ok := s.txns[txn.ID()]; !ok {
		s.txnOrder = append(s.txnOrder, txn.ID())
	}
	s.txns[txn.ID()] = txn.Copy()
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, txnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[txnID]; !ok {
		return fmt.Errorf("%w: transaction %s", model.ErrUnknownEntity, txnID)
	}
	delete(s.txns, txnID)
	s.txnOrder = slices.DeleteFunc(s.txnOrder, func(x string) bool { return x == txnID })
	return nil
}
