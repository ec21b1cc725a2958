package journal

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	TransactionID string
	SplitID       string // empty for transaction-level violations
	Err           error
	Description   string
}

func (e ValidationError) Error() string {
	if e.SplitID == "" {
		return fmt.Sprintf("transaction %s: %s", e.TransactionID, e.Description)
	}
	return fmt.Sprintf("transaction %s split %s: %s", e.TransactionID, e.SplitID, e.Description)
}

// Unwrap returns the sentinel error of the violated invariant.
func (e ValidationError) Unwrap() error { return e.Err }

// AccountChecker resolves account ids.
type AccountChecker interface {
	Get(accountID string) (model.Account, bool)
}

// Validate checks a transaction against the chart and returns every violation:
// at least one real split, known and non-placeholder accounts in the
// transaction's currency, split currency and sign, and a zero net.
func Validate(txn *model.Transaction, accounts AccountChecker) []ValidationError {
	var errs []ValidationError
	add := func(splitID string, err error, format string, args ...any) {
		errs = append(errs, ValidationError{
			TransactionID: txn.ID(),
			SplitID:       splitID,
			Err:           err,
			Description:   fmt.Sprintf(format, args...),
		})
	}

	if len(txn.RealSplits()) == 0 {
		add("", model.ErrTransactionEmpty, "no real splits")
	}

	splits := txn.Splits()
	currencyOK := true
	for _, s := range splits {
		acct, ok := accounts.Get(s.AccountID)
		if !ok {
			add(s.ID, model.ErrUnknownEntity, "unknown account %s", s.AccountID)
		} else {
			if acct.Placeholder {
				add(s.ID, model.ErrPlaceholderAccount, "account %q is a placeholder", acct.Name)
			}
			// No conversion happens here; amounts must already be in the account's currency.
			if acct.Currency != txn.Currency() {
				add(s.ID, money.ErrCurrencyMismatch, "account %q holds %s, transaction in %s", acct.Name, acct.Currency, txn.Currency())
			}
		}

		if s.Amount.Currency() != txn.Currency() {
			currencyOK = false
			add(s.ID, money.ErrCurrencyMismatch, "amount in %s, transaction in %s", s.Amount.Currency(), txn.Currency())
		}
		if s.Amount.IsNegative() {
			add(s.ID, money.ErrInvalidAmount, "negative amount %s", s.Amount)
		}
		if !s.Type.Valid() {
			add(s.ID, money.ErrInvalidAmount, "invalid split type %q", s.Type)
		}
	}

	if currencyOK && len(splits) > 0 {
		net, err := balance.Net(splits, txn.Currency())
		if err != nil {
			add("", err, "computing net: %v", err)
		} else if !net.IsZero() {
			add("", model.ErrUnbalanced, "splits net to %s %s", net, net.Currency())
		}
	}

	return errs
}

// Check is Validate folded into a single error, or nil.
func Check(txn *model.Transaction, accounts AccountChecker) error {
	verrs := Validate(txn, accounts)
	if len(verrs) == 0 {
		return nil
	}
	errs := make([]error, len(verrs))
	for i, ve := range verrs {
		errs[i] = ve
	}
	return fmt.Errorf("validation failed: %w", errors.Join(errs...))
}
