package journal

import (
	"fmt"

	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

// Mode selects how one-split transactions are completed.
type Mode int

const (
	// DoubleEntry completes a lone split against its account's default
	// transfer account when one is set, else against the imbalance account.
	DoubleEntry Mode = iota
	// SingleEntry always completes a lone split against the imbalance account.
	SingleEntry
)

func (m Mode) String() string {
	if m == SingleEntry {
		return "single-entry"
	}
	return "double-entry"
}

// Chart is what the Balancer needs from the account graph.
type Chart interface {
	Get(accountID string) (model.Account, bool)
	ImbalanceAccount(currency string) (model.Account, error)
}

// Result reports what Balance did.
type Result struct {
	Imbalance money.Money // net of the real splits before balancing
	Added     []model.Split
	Removed   []model.Split
}

// Changed reports whether the transaction was modified.
func (r Result) Changed() bool { return len(r.Added) > 0 || len(r.Removed) > 0 }

// Balancer makes transactions net to zero.
type Balancer struct {
	chart Chart
	mode  Mode
}

// NewBalancer returns a Balancer resolving imbalance accounts through chart.
func NewBalancer(chart Chart, mode Mode) *Balancer {
	return &Balancer{chart: chart, mode: mode}
}

// Mode returns the balancing mode.
func (b *Balancer) Mode() Mode { return b.mode }

// Balance brings txn to a zero net.
//
// An unbalanced transaction gets exactly one synthesized split against the
// currency's imbalance account that cancels the net. A balanced one loses any
// synthesized split left from earlier edits. Running Balance on its own
// output changes nothing. A transaction without real splits fails with
// model.ErrTransactionEmpty. On error txn is left untouched.
func (b *Balancer) Balance(txn *model.Transaction) (Result, error) {
	posted := txn.RealSplits()
	if len(posted) == 0 {
		return Result{}, fmt.Errorf("balancing %s: %w", txn.ID(), model.ErrTransactionEmpty)
	}
	net, err := balance.Net(posted, txn.Currency())
	if err != nil {
		return Result{}, fmt.Errorf("balancing %s: %w", txn.ID(), err)
	}

	res := Result{Imbalance: net}
	synthetic := txn.ImbalanceSplits()
	work := txn.Copy()

	if net.IsZero() {
		if err := dropSynthetic(work, synthetic, &res); err != nil {
			return Result{}, err
		}
		*txn = *work
		return res, nil
	}

	amount := net.Abs()
	typ := model.Credit
	if net.IsNegative() {
		typ = model.Debit
	}

	if target, ok := b.transferTarget(posted, txn.Currency()); ok {
		if err := dropSynthetic(work, synthetic, &res); err != nil {
			return Result{}, err
		}
		s, err := work.AddSplit(target.ID, amount, typ, "")
		if err != nil {
			return Result{}, fmt.Errorf("balancing %s: %w", txn.ID(), err)
		}
		res.Added = append(res.Added, s)
		*txn = *work
		return res, nil
	}

	imb, err := b.chart.ImbalanceAccount(txn.Currency())
	if err != nil {
		return Result{}, fmt.Errorf("balancing %s: %w", txn.ID(), err)
	}
	if len(synthetic) == 1 {
		s := synthetic[0]
		if s.AccountID == imb.ID && s.Type == typ && s.Amount.Equal(amount) {
			return res, nil
		}
	}
	if err := dropSynthetic(work, synthetic, &res); err != nil {
		return Result{}, err
	}
	s, err := work.AddImbalanceSplit(imb.ID, amount, typ)
	if err != nil {
		return Result{}, fmt.Errorf("balancing %s: %w", txn.ID(), err)
	}
	res.Added = append(res.Added, s)
	*txn = *work
	return res, nil
}

// transferTarget returns the default transfer account that completes a
// lone split in double-entry mode. Placeholders and accounts in another
// currency cannot take the counter-split.
func (b *Balancer) transferTarget(posted []model.Split, currency string) (model.Account, bool) {
	if b.mode != DoubleEntry || len(posted) != 1 {
		return model.Account{}, false
	}
	acct, ok := b.chart.Get(posted[0].AccountID)
	if !ok || acct.DefaultTransferID == "" || acct.DefaultTransferID == acct.ID {
		return model.Account{}, false
	}
	target, ok := b.chart.Get(acct.DefaultTransferID)
	if !ok || target.Placeholder || target.Currency != currency {
		return model.Account{}, false
	}
	return target, true
}

func dropSynthetic(work *model.Transaction, synthetic []model.Split, res *Result) error {
	for _, s := range synthetic {
		if err := work.RemoveSplit(s.ID); err != nil {
			return err
		}
		res.Removed = append(res.Removed, s)
	}
	return nil
}
