package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/cleared-dev/pocketbook/internal/accounts"
	"github.com/cleared-dev/pocketbook/internal/journal"
	"github.com/cleared-dev/pocketbook/internal/model"
)

// PostTransaction balances, validates and saves txn. On success txn holds
// the stored form, including any synthesized split; on failure it is
// unchanged and nothing is written.
func (b *Book) PostTransaction(ctx context.Context, txn *model.Transaction) (journal.Result, error) {
	chart, err := b.Chart(ctx)
	if err != nil {
		return journal.Result{}, err
	}
	return b.post(ctx, chart, txn)
}

func (b *Book) post(ctx context.Context, chart *accounts.Service, txn *model.Transaction) (journal.Result, error) {
	before := imbalanceIDs(chart)
	work := txn.Copy()
	res, err := journal.NewBalancer(chart, b.mode).Balance(work)
	if err != nil {
		return journal.Result{}, err
	}
	if err := journal.Check(work, chart); err != nil {
		return journal.Result{}, fmt.Errorf("transaction %s: %w", work.ID(), err)
	}
	if err := b.saveNewImbalance(ctx, chart, before); err != nil {
		return journal.Result{}, err
	}
	if err := b.store.SaveTransaction(ctx, work); err != nil {
		return journal.Result{}, err
	}
	*txn = *work

	log := b.logger(ctx)
	if res.Changed() {
		log.Info("transaction balanced", "txn_id", txn.ID(), "imbalance", res.Imbalance.String(),
			"added", len(res.Added), "removed", len(res.Removed))
	}
	log.Debug("transaction saved", "txn_id", txn.ID(), "splits", len(txn.Splits()))
	return res, nil
}

// Transaction loads a transaction by id.
func (b *Book) Transaction(ctx context.Context, txnID string) (*model.Transaction, error) {
	return b.store.LoadTransaction(ctx, txnID)
}

// DeleteTransaction removes a transaction and all of its splits.
func (b *Book) DeleteTransaction(ctx context.Context, txnID string) error {
	if err := b.store.DeleteTransaction(ctx, txnID); err != nil {
		return err
	}
	b.logger(ctx).Info("transaction deleted", "txn_id", txnID)
	return nil
}

// RemoveSplit deletes one split and rebalances what is left. Removing the
// last real split fails with model.ErrTransactionEmpty and saves nothing;
// delete the transaction instead.
func (b *Book) RemoveSplit(ctx context.Context, txnID, splitID string) (journal.Result, error) {
	txn, err := b.store.LoadTransaction(ctx, txnID)
	if err != nil {
		return journal.Result{}, err
	}
	if err := txn.RemoveSplit(splitID); err != nil {
		return journal.Result{}, err
	}
	return b.PostTransaction(ctx, txn)
}

// CloneTemplate posts a copy of a template transaction at ts.
func (b *Book) CloneTemplate(ctx context.Context, templateID string, ts time.Time) (*model.Transaction, error) {
	tmpl, err := b.store.LoadTransaction(ctx, templateID)
	if err != nil {
		return nil, err
	}
	clone := tmpl.Clone(ts)
	if _, err := b.PostTransaction(ctx, clone); err != nil {
		return nil, fmt.Errorf("cloning %s: %w", templateID, err)
	}
	b.logger(ctx).Info("template cloned", "template_id", templateID, "txn_id", clone.ID())
	return clone, nil
}

// NextOccurrence returns when a recurring template is next due after last.
// ok is false for a transaction without recurrence.
func NextOccurrence(tmpl *model.Transaction, last time.Time) (time.Time, bool) {
	if tmpl.Recurrence == nil {
		return time.Time{}, false
	}
	return tmpl.Recurrence.Next(last), true
}
