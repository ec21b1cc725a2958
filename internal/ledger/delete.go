package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cleared-dev/pocketbook/internal/accounts"
	"github.com/cleared-dev/pocketbook/internal/journal"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

// ErrInvalidDisposition is returned when a deletion target is unusable.
var ErrInvalidDisposition = errors.New("invalid disposition")

// SplitPolicy says what happens to the splits of a deleted account.
type SplitPolicy int

const (
	// SplitsMove reassigns them to Disposition.SplitTarget.
	SplitsMove SplitPolicy = iota
	// SplitsToImbalance reassigns them to the imbalance account of their
	// transaction's currency.
	SplitsToImbalance
	// SplitsDelete removes them. Transactions left without real splits are
	// deleted; the others are rebalanced.
	SplitsDelete
)

func (p SplitPolicy) String() string {
	switch p {
	case SplitsMove:
		return "move"
	case SplitsToImbalance:
		return "imbalance"
	case SplitsDelete:
		return "delete"
	}
	return fmt.Sprintf("SplitPolicy(%d)", int(p))
}

// ChildPolicy says what happens to the children of a deleted account.
type ChildPolicy int

const (
	// ChildrenMove re-parents the direct children to Disposition.ChildTarget,
	// or to the deleted account's own parent when ChildTarget is empty.
	ChildrenMove ChildPolicy = iota
	// ChildrenDelete deletes the whole subtree. The split policy applies
	// to every account in it.
	ChildrenDelete
)

func (p ChildPolicy) String() string {
	switch p {
	case ChildrenMove:
		return "move"
	case ChildrenDelete:
		return "delete"
	}
	return fmt.Sprintf("ChildPolicy(%d)", int(p))
}

// Disposition describes an account deletion.
type Disposition struct {
	Splits      SplitPolicy
	SplitTarget string
	Children    ChildPolicy
	ChildTarget string
}

// DeleteAccount removes an account after disposing of its splits and children
// as d says. Every check runs before the first write.
func (b *Book) DeleteAccount(ctx context.Context, accountID string, d Disposition) error {
	chart, err := b.Chart(ctx)
	if err != nil {
		return err
	}
	acct, ok := chart.Get(accountID)
	if !ok {
		return fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
	}

	removed := []string{accountID}
	if d.Children == ChildrenDelete {
		if removed, err = chart.SubtreeIDs(accountID); err != nil {
			return err
		}
	}
	gone := make(map[string]bool, len(removed))
	for _, aid := range removed {
		gone[aid] = true
	}

	newParent := ""
	switch d.Children {
	case ChildrenMove:
		newParent = d.ChildTarget
		if newParent == "" {
			newParent = acct.ParentID
		}
		if newParent != "" && (!chart.Exists(newParent) || gone[newParent] || chart.IsDescendantOf(newParent, accountID)) {
			return fmt.Errorf("%w: cannot move children of %s to %s", ErrInvalidDisposition, accountID, newParent)
		}
	case ChildrenDelete:
	default:
		return fmt.Errorf("%w: child policy %v", ErrInvalidDisposition, d.Children)
	}

	switch d.Splits {
	case SplitsMove:
		target, ok := chart.Get(d.SplitTarget)
		if !ok || gone[target.ID] || target.Placeholder {
			return fmt.Errorf("%w: cannot move splits of %s to %q", ErrInvalidDisposition, accountID, d.SplitTarget)
		}
	case SplitsToImbalance, SplitsDelete:
	default:
		return fmt.Errorf("%w: split policy %v", ErrInvalidDisposition, d.Splits)
	}

	// Affected transactions.
	var affected []*model.Transaction
	seen := make(map[string]bool)
	for _, aid := range removed {
		txns, err := b.store.TransactionsForAccount(ctx, aid)
		if err != nil {
			return err
		}
		for _, txn := range txns {
			if !seen[txn.ID()] {
				seen[txn.ID()] = true
				affected = append(affected, txn)
			}
		}
	}

	// Rework the chart snapshot first so rebalancing never targets a
	// removed account.
	before := imbalanceIDs(chart)
	var moved []string
	if d.Children == ChildrenMove {
		for _, c := range chart.Children(accountID) {
			if err := chart.SetParent(c.ID, newParent); err != nil {
				return err
			}
			moved = append(moved, c.ID)
		}
	}
	var relinked []string
	for _, a := range chart.All() {
		if gone[a.DefaultTransferID] && !gone[a.ID] {
			relinked = append(relinked, a.ID)
		}
	}
	for _, aid := range slices.Backward(removed) {
		if err := chart.Remove(aid); err != nil {
			return err
		}
	}

	bal := journal.NewBalancer(chart, b.mode)
	var rewrite, drop []*model.Transaction
	for _, txn := range affected {
		for _, sp := range txn.Splits() {
			if !gone[sp.AccountID] {
				continue
			}
			if sp.Imbalance {
				// Rebalancing recreates it if still needed.
				err = txn.RemoveSplit(sp.ID)
			} else {
				err = dispose(chart, txn, sp, d)
			}
			if err != nil {
				return fmt.Errorf("transaction %s: %w", txn.ID(), err)
			}
		}
		if len(txn.RealSplits()) == 0 {
			drop = append(drop, txn)
			continue
		}
		if _, err := bal.Balance(txn); err != nil {
			return err
		}
		if err := journal.Check(txn, chart); err != nil {
			return fmt.Errorf("transaction %s: %w", txn.ID(), err)
		}
		rewrite = append(rewrite, txn)
	}

	// Writes, ordered so no stored row references a missing account.
	if err := b.saveNewImbalance(ctx, chart, before); err != nil {
		return err
	}
	for _, txn := range rewrite {
		if err := b.store.SaveTransaction(ctx, txn); err != nil {
			return err
		}
	}
	for _, txn := range drop {
		if err := b.store.DeleteTransaction(ctx, txn.ID()); err != nil {
			return err
		}
	}
	for _, aid := range append(moved, relinked...) {
		a, _ := chart.Get(aid)
		if err := b.store.SaveAccount(ctx, a); err != nil {
			return err
		}
	}
	for _, aid := range slices.Backward(removed) {
		if err := b.store.DeleteAccount(ctx, aid); err != nil {
			return err
		}
	}

	b.logger(ctx).Info("account deleted",
		"account_id", accountID,
		"removed", len(removed),
		"splits", d.Splits.String(),
		"children", d.Children.String(),
		"rewritten", len(rewrite),
		"dropped", len(drop))
	return nil
}

// dispose applies the split policy to one real split of a removed account.
func dispose(chart *accounts.Service, txn *model.Transaction, sp model.Split, d Disposition) error {
	switch d.Splits {
	case SplitsMove:
		target, _ := chart.Get(d.SplitTarget)
		if target.Currency != txn.Currency() {
			return fmt.Errorf("%w: cannot move split %s into %s account %q",
				money.ErrCurrencyMismatch, sp.ID, target.Currency, target.Name)
		}
		_, err := txn.MoveSplit(sp.ID, d.SplitTarget)
		return err
	case SplitsToImbalance:
		imb, err := chart.ImbalanceAccount(txn.Currency())
		if err != nil {
			return err
		}
		_, err = txn.MoveSplit(sp.ID, imb.ID)
		return err
	default:
		return txn.RemoveSplit(sp.ID)
	}
}
