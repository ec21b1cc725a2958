package balance

import (
	"fmt"

	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

// SignedAmount returns +amount when the split's type matches the account's
// normal balance side and -amount otherwise.
func SignedAmount(s model.Split, acct model.Account) money.Money {
	return signed(s, model.NormalBalanceSide(acct.Type))
}

func signed(s model.Split, normal model.SplitType) money.Money {
	if s.Type == normal {
		return s.Amount
	}
	return s.Amount.Neg()
}

// Net returns the sum of debits minus the sum of credits in currency.
// A transaction is balanced exactly when its Net is zero.
func Net(splits []model.Split, currency string) (money.Money, error) {
	total := money.Zero(currency)
	for _, s := range splits {
		var err error
		total, err = total.Add(signed(s, model.Debit))
		if err != nil {
			return money.Money{}, fmt.Errorf("split %s: %w", s.ID, err)
		}
	}
	return total, nil
}
