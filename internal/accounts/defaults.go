package accounts

import (
	"github.com/cleared-dev/pocketbook/internal/id"
	"github.com/cleared-dev/pocketbook/internal/model"
)

type chartNode struct {
	name        string
	typ         model.AccountType
	placeholder bool
	color       string
	children    []chartNode
}

// DefaultChart returns a starter personal-finance chart in currency.
// Every call generates fresh identifiers.
func DefaultChart(currency string) []model.Account {
	var out []model.Account
	for _, n := range personalChart() {
		out = appendNode(out, n, "", currency)
	}
	return out
}

func appendNode(out []model.Account, n chartNode, parentID, currency string) []model.Account {
	a := model.Account{
		ID:          id.New(),
		Name:        n.name,
		Type:        n.typ,
		Currency:    currency,
		ParentID:    parentID,
		Placeholder: n.placeholder,
		Color:       n.color,
	}
	out = append(out, a)
	for _, c := range n.children {
		out = appendNode(out, c, a.ID, currency)
	}
	return out
}

func personalChart() []chartNode {
	return []chartNode{
		{name: "Assets", typ: model.AccountTypeAsset, placeholder: true, color: "#388E3C", children: []chartNode{
			{name: "Current Assets", typ: model.AccountTypeAsset, placeholder: true, children: []chartNode{
				{name: "Cash in Wallet", typ: model.AccountTypeCash},
				{name: "Checking Account", typ: model.AccountTypeBank},
				{name: "Savings Account", typ: model.AccountTypeBank},
			}},
		}},
		{name: "Liabilities", typ: model.AccountTypeLiability, placeholder: true, color: "#D32F2F", children: []chartNode{
			{name: "Credit Card", typ: model.AccountTypeCredit},
		}},
		{name: "Income", typ: model.AccountTypeIncome, placeholder: true, color: "#1976D2", children: []chartNode{
			{name: "Salary", typ: model.AccountTypeIncome},
			{name: "Interest Income", typ: model.AccountTypeIncome},
		}},
		{name: "Expenses", typ: model.AccountTypeExpense, placeholder: true, color: "#F57C00", children: []chartNode{
			{name: "Groceries", typ: model.AccountTypeExpense},
			{name: "Dining", typ: model.AccountTypeExpense},
			{name: "Rent", typ: model.AccountTypeExpense},
			{name: "Utilities", typ: model.AccountTypeExpense},
			{name: "Transport", typ: model.AccountTypeExpense},
		}},
		{name: "Equity", typ: model.AccountTypeEquity, placeholder: true, children: []chartNode{
			{name: "Opening Balances", typ: model.AccountTypeEquity},
		}},
	}
}
