package model

import (
	"fmt"
	"strings"
)

// AccountType classifies accounts. The set is closed.
type AccountType string

const (
	AccountTypeAsset      AccountType = "ASSET"
	AccountTypeCash       AccountType = "CASH"
	AccountTypeBank       AccountType = "BANK"
	AccountTypeCredit     AccountType = "CREDIT"
	AccountTypeLiability  AccountType = "LIABILITY"
	AccountTypeEquity     AccountType = "EQUITY"
	AccountTypeIncome     AccountType = "INCOME"
	AccountTypeExpense    AccountType = "EXPENSE"
	AccountTypePayable    AccountType = "PAYABLE"
	AccountTypeReceivable AccountType = "RECEIVABLE"
	AccountTypeCurrency   AccountType = "CURRENCY"
	AccountTypeStock      AccountType = "STOCK"
	AccountTypeMutual     AccountType = "MUTUAL"
	AccountTypeTrading    AccountType = "TRADING"
	AccountTypeRoot       AccountType = "ROOT"
)

// AccountTypes lists every account type in declaration order.
func AccountTypes() []AccountType {
	return []AccountType{
		AccountTypeAsset, AccountTypeCash, AccountTypeBank, AccountTypeCredit,
		AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense,
		AccountTypePayable, AccountTypeReceivable, AccountTypeCurrency, AccountTypeStock,
		AccountTypeMutual, AccountTypeTrading, AccountTypeRoot,
	}
}

// normalSide is the lookup table behind NormalBalanceSide.
var normalSide = map[AccountType]SplitType{
	AccountTypeAsset:      Debit,
	AccountTypeCash:       Debit,
	AccountTypeBank:       Debit,
	AccountTypeExpense:    Debit,
	AccountTypeReceivable: Debit,
	AccountTypeStock:      Debit,
	AccountTypeMutual:     Debit,
	AccountTypeCredit:     Credit,
	AccountTypeLiability:  Credit,
	AccountTypeEquity:     Credit,
	AccountTypeIncome:     Credit,
	AccountTypePayable:    Credit,
	AccountTypeCurrency:   Credit,
	AccountTypeTrading:    Credit,
	AccountTypeRoot:       Credit,
}

// Valid reports whether t is a member of the closed set.
func (t AccountType) Valid() bool {
	_, ok := normalSide[t]
	return ok
}

// ParseAccountType parses an account type name.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown account type %q", s)
	}
	return t, nil
}

// NormalBalanceSide returns the split type that increases an account of type t.
// Unknown types are treated as credit-normal.
func NormalBalanceSide(t AccountType) SplitType {
	if side, ok := normalSide[t]; ok {
		return side
	}
	return Credit
}

// Account is a node in the account forest.
type Account struct {
	ID                string
	Name              string
	Type              AccountType
	Currency          string
	ParentID          string // "" = top-level
	Placeholder       bool
	DefaultTransferID string
	Hidden            bool
	Favorite          bool
	Color             string // display only, e.g. "#4CAF50"
	Description       string
}

// IsTopLevel reports whether the account has no parent.
func (a Account) IsTopLevel() bool { return a.ParentID == "" }
