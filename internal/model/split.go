package model

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/pocketbook/internal/money"
)

// SplitType is the direction of a split.
type SplitType string

const (
	Debit  SplitType = "DEBIT"
	Credit SplitType = "CREDIT"
)

// Valid reports whether t is Debit or Credit.
func (t SplitType) Valid() bool { return t == Debit || t == Credit }

// Opposite returns Credit for Debit and Debit for Credit.
func (t SplitType) Opposite() SplitType {
	if t == Debit {
		return Credit
	}
	return Debit
}

// ParseSplitType accepts "debit"/"credit" in any case, or "dr"/"cr".
func ParseSplitType(s string) (SplitType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBIT", "DR":
		return Debit, nil
	case "CREDIT", "CR":
		return Credit, nil
	}
	return "", fmt.Errorf("unknown split type %q", s)
}

// Split is one movement of money against one account within a transaction.
// Amount is a non-negative magnitude; direction is carried by Type.
type Split struct {
	ID            string
	TransactionID string
	AccountID     string
	Amount        money.Money
	Type          SplitType
	Memo          string
	Imbalance     bool // synthesized by the auto-balancer
}

// IsPair reports whether s and o form a simple transfer: same transaction,
// equal amount and currency, opposite types.
func (s Split) IsPair(o Split) bool {
	return s.ID != o.ID &&
		s.TransactionID == o.TransactionID &&
		s.Type == o.Type.Opposite() &&
		s.Amount.Equal(o.Amount)
}

func checkSplitValues(currency string, amount money.Money, typ SplitType) error {
	if amount.Currency() != currency {
		return fmt.Errorf("%w: split in %s, transaction in %s", money.ErrCurrencyMismatch, amount.Currency(), currency)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: split amount %s is negative", money.ErrInvalidAmount, amount)
	}
	if !typ.Valid() {
		return fmt.Errorf("invalid split type %q", typ)
	}
	return nil
}
