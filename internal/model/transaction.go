package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/cleared-dev/pocketbook/internal/id"
	"github.com/cleared-dev/pocketbook/internal/money"
)

// Transaction is an ordered group of splits sharing one timestamp and currency.
// It owns its splits; identity fields of a split never change once added.
type Transaction struct {
	id       string
	currency string
	splits   []Split

	Description string
	Timestamp   time.Time
	Note        string
	Exported    bool
	Recurrence  *Period // non-nil for scheduled templates
}

// NewTransaction creates an empty transaction with a fresh identifier.
func NewTransaction(description, currency string, ts time.Time) *Transaction {
	return &Transaction{
		id:          id.New(),
		currency:    money.Code(currency),
		Description: description,
		Timestamp:   ts,
	}
}

// RestoreTransaction recreates a transaction with a known identifier.
// Stores use it when loading; splits are added back with RestoreSplit.
func RestoreTransaction(txnID, currency string) *Transaction {
	return &Transaction{id: txnID, currency: money.Code(currency)}
}

func (t *Transaction) ID() string       { return t.id }
func (t *Transaction) Currency() string { return t.currency }

// Splits returns a copy of all splits in order.
func (t *Transaction) Splits() []Split {
	return slices.Clone(t.splits)
}

// RealSplits returns the splits not synthesized by the auto-balancer.
func (t *Transaction) RealSplits() []Split {
	return t.filter(false)
}

// ImbalanceSplits returns the synthesized splits.
func (t *Transaction) ImbalanceSplits() []Split {
	return t.filter(true)
}

func (t *Transaction) filter(imbalance bool) []Split {
	var out []Split
	for _, s := range t.splits {
		if s.Imbalance == imbalance {
			out = append(out, s)
		}
	}
	return out
}

// Split returns the split with the given id.
func (t *Transaction) Split(splitID string) (Split, bool) {
	if i := t.index(splitID); i >= 0 {
		return t.splits[i], true
	}
	return Split{}, false
}

// AddSplit appends a split against accountID.
func (t *Transaction) AddSplit(accountID string, amount money.Money, typ SplitType, memo string) (Split, error) {
	return t.add(accountID, amount, typ, memo, false)
}

// AddImbalanceSplit appends a synthesized balancing split.
func (t *Transaction) AddImbalanceSplit(accountID string, amount money.Money, typ SplitType) (Split, error) {
	return t.add(accountID, amount, typ, "", true)
}

func (t *Transaction) add(accountID string, amount money.Money, typ SplitType, memo string, imbalance bool) (Split, error) {
	if accountID == "" {
		return Split{}, fmt.Errorf("%w: split without account", ErrUnknownEntity)
	}
	if err := checkSplitValues(t.currency, amount, typ); err != nil {
		return Split{}, err
	}
	s := Split{
		ID:            id.New(),
		TransactionID: t.id,
		AccountID:     accountID,
		Amount:        amount,
		Type:          typ,
		Memo:          memo,
		Imbalance:     imbalance,
	}
	t.splits = append(t.splits, s)
	return s, nil
}

// RestoreSplit adds a previously persisted split, keeping its identifier.
func (t *Transaction) RestoreSplit(s Split) error {
	if s.ID == "" || s.AccountID == "" {
		return fmt.Errorf("%w: split identity incomplete", ErrUnknownEntity)
	}
	if s.TransactionID != "" && s.TransactionID != t.id {
		return fmt.Errorf("split %s belongs to transaction %s, not %s", s.ID, s.TransactionID, t.id)
	}
	if t.index(s.ID) >= 0 {
		return fmt.Errorf("duplicate split %s", s.ID)
	}
	if err := checkSplitValues(t.currency, s.Amount, s.Type); err != nil {
		return err
	}
	s.TransactionID = t.id
	t.splits = append(t.splits, s)
	return nil
}

// RemoveSplit removes a split by id.
func (t *Transaction) RemoveSplit(splitID string) error {
	i := t.index(splitID)
	if i < 0 {
		return fmt.Errorf("%w: split %s", ErrUnknownEntity, splitID)
	}
	t.splits = slices.Delete(t.splits, i, i+1)
	return nil
}

// SetSplitAmount changes a split's magnitude.
func (t *Transaction) SetSplitAmount(splitID string, amount money.Money) error {
	return t.update(splitID, func(s *Split) error {
		if err := checkSplitValues(t.currency, amount, s.Type); err != nil {
			return err
		}
		s.Amount = amount
		return nil
	})
}

// SetSplitType changes a split's direction.
func (t *Transaction) SetSplitType(splitID string, typ SplitType) error {
	return t.update(splitID, func(s *Split) error {
		if !typ.Valid() {
			return fmt.Errorf("invalid split type %q", typ)
		}
		s.Type = typ
		return nil
	})
}

// SetSplitMemo changes a split's memo.
func (t *Transaction) SetSplitMemo(splitID, memo string) error {
	return t.update(splitID, func(s *Split) error {
		s.Memo = memo
		return nil
	})
}

func (t *Transaction) update(splitID string, fn func(*Split) error) error {
	i := t.index(splitID)
	if i < 0 {
		return fmt.Errorf("%w: split %s", ErrUnknownEntity, splitID)
	}
	s := t.splits[i]
	if err := fn(&s); err != nil {
		return err
	}
	t.splits[i] = s
	return nil
}

// MoveSplit replaces a split with an identical one against accountID.
// The replacement gets a new identifier and keeps the original position.
func (t *Transaction) MoveSplit(splitID, accountID string) (Split, error) {
	i := t.index(splitID)
	if i < 0 {
		return Split{}, fmt.Errorf("%w: split %s", ErrUnknownEntity, splitID)
	}
	if accountID == "" {
		return Split{}, fmt.Errorf("%w: split without account", ErrUnknownEntity)
	}
	s := t.splits[i]
	s.ID = id.New()
	s.AccountID = accountID
	t.splits[i] = s
	return s, nil
}

// Accounts returns the distinct account ids referenced by the splits.
func (t *Transaction) Accounts() []string {
	var ids []string
	for _, s := range t.splits {
		if !slices.Contains(ids, s.AccountID) {
			ids = append(ids, s.AccountID)
		}
	}
	return ids
}

// Copy returns a deep copy with the same identifiers.
func (t *Transaction) Copy() *Transaction {
	c := *t
	c.splits = slices.Clone(t.splits)
	if t.Recurrence != nil {
		p := *t.Recurrence
		c.Recurrence = &p
	}
	return &c
}

// Clone returns a new transaction at ts with fresh identifiers and the same
// real splits. Synthesized splits are dropped; the clone is not a template.
func (t *Transaction) Clone(ts time.Time) *Transaction {
	c := NewTransaction(t.Description, t.currency, ts)
	c.Note = t.Note
	for _, s := range t.RealSplits() {
		// Values were validated when s was added.
		_, _ = c.AddSplit(s.AccountID, s.Amount, s.Type, s.Memo)
	}
	return c
}

func (t *Transaction) index(splitID string) int {
	return slices.IndexFunc(t.splits, func(s Split) bool { return s.ID == splitID })
}
