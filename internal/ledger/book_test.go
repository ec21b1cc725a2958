package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocketbook/internal/accounts"
	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/journal"
	"github.com/cleared-dev/pocketbook/internal/logging"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
	"github.com/cleared-dev/pocketbook/internal/store"
	"github.com/cleared-dev/pocketbook/internal/store/memory"
)

var jan = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	book     *Book
	mem      *memory.Store
	assets   model.Account
	checking model.Account
	savings  model.Account
	wallet   model.Account
	food     model.Account
	salary   model.Account
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	mem := memory.New()
	f := &fixture{mem: mem, book: New(mem, append([]Option{WithLogger(logging.Discard())}, opts...)...)}
	f.assets = f.create(t, model.Account{Name: "Assets", Type: model.AccountTypeAsset, Currency: "USD", Placeholder: true})
	f.checking = f.create(t, model.Account{Name: "Checking", Type: model.AccountTypeBank, Currency: "USD", ParentID: f.assets.ID})
	f.savings = f.create(t, model.Account{Name: "Savings", Type: model.AccountTypeBank, Currency: "USD", ParentID: f.assets.ID})
	f.wallet = f.create(t, model.Account{Name: "Euro Wallet", Type: model.AccountTypeCash, Currency: "EUR", ParentID: f.assets.ID})
	f.food = f.create(t, model.Account{Name: "Groceries", Type: model.AccountTypeExpense, Currency: "USD"})
	f.salary = f.create(t, model.Account{Name: "Salary", Type: model.AccountTypeIncome, Currency: "USD"})
	return f
}

func (f *fixture) create(t *testing.T, a model.Account) model.Account {
	t.Helper()
	got, err := f.book.CreateAccount(context.Background(), a)
	require.NoError(t, err)
	return got
}

// post records an n-split transaction; each leg is account, amount, type.
func (f *fixture) post(t *testing.T, ts time.Time, legs ...leg) *model.Transaction {
	t.Helper()
	txn := newTxn(t, ts, legs...)
	_, err := f.book.PostTransaction(context.Background(), txn)
	require.NoError(t, err)
	return txn
}

type leg struct {
	account string
	amount  string
	typ     model.SplitType
}

func newTxn(t *testing.T, ts time.Time, legs ...leg) *model.Transaction {
	t.Helper()
	txn := model.NewTransaction("test", "USD", ts)
	for _, l := range legs {
		_, err := txn.AddSplit(l.account, money.MustParse(l.amount, "USD"), l.typ, "")
		require.NoError(t, err)
	}
	return txn
}

func (f *fixture) balance(t *testing.T, accountID string) string {
	t.Helper()
	m, err := f.book.AccountBalance(context.Background(), accountID, balance.All)
	require.NoError(t, err)
	return m.String()
}

func (f *fixture) imbalance(t *testing.T) (model.Account, bool) {
	t.Helper()
	chart, err := f.book.Chart(context.Background())
	require.NoError(t, err)
	return chart.FindImbalance("USD")
}

func TestPostBalanced(t *testing.T) {
	f := newFixture(t)
	txn := f.post(t, jan, leg{f.food.ID, "12.50", model.Debit}, leg{f.checking.ID, "12.50", model.Credit})

	assert.Len(t, txn.Splits(), 2)
	assert.Equal(t, "12.50", f.balance(t, f.food.ID))
	assert.Equal(t, "-12.50", f.balance(t, f.checking.ID))
	_, ok := f.imbalance(t)
	assert.False(t, ok, "balanced postings need no imbalance account")
}

func TestPostLoneSplitUsesImbalance(t *testing.T) {
	f := newFixture(t)
	txn := f.post(t, jan, leg{f.food.ID, "9.99", model.Debit})

	require.Len(t, txn.Splits(), 2)
	imb, ok := f.imbalance(t)
	require.True(t, ok)
	assert.True(t, imb.Hidden)
	assert.Equal(t, "Imbalance-USD", imb.Name)

	stored, err := f.mem.LoadAccount(context.Background(), imb.ID)
	require.NoError(t, err)
	assert.Equal(t, imb, stored)
	assert.Equal(t, "-9.99", f.balance(t, imb.ID))

	// A second unbalanced posting reuses the same account.
	f.post(t, jan, leg{f.food.ID, "1.01", model.Debit})
	bank, err := f.mem.LoadAccounts(context.Background(), store.AccountFilter{Types: []model.AccountType{model.AccountTypeBank}})
	require.NoError(t, err)
	assert.Len(t, bank, 3)
	assert.Equal(t, "-11.00", f.balance(t, imb.ID))
}

func TestPostDefaultTransfer(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	require.NoError(t, f.book.SetDefaultTransfer(ctx, f.food.ID, f.checking.ID))
	txn := f.post(t, jan, leg{f.food.ID, "4.00", model.Debit})
	require.Len(t, txn.Splits(), 2)
	assert.Empty(t, txn.ImbalanceSplits())
	assert.Equal(t, "-4.00", f.balance(t, f.checking.ID))

	single := newFixture(t, WithMode(journal.SingleEntry))
	require.NoError(t, single.book.SetDefaultTransfer(ctx, single.food.ID, single.checking.ID))
	txn = single.post(t, jan, leg{single.food.ID, "4.00", model.Debit})
	assert.Len(t, txn.ImbalanceSplits(), 1)
	assert.Equal(t, "0.00", single.balance(t, single.checking.ID))
}

func TestPostRejectsPlaceholder(t *testing.T) {
	f := newFixture(t)
	txn := newTxn(t, jan, leg{f.assets.ID, "5.00", model.Debit}, leg{f.salary.ID, "5.00", model.Credit})
	before := txn.Splits()

	_, err := f.book.PostTransaction(context.Background(), txn)
	require.ErrorIs(t, err, model.ErrPlaceholderAccount)
	assert.Equal(t, before, txn.Splits())

	_, err = f.book.Transaction(context.Background(), txn.ID())
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
}

func TestPostRejectsEmpty(t *testing.T) {
	f := newFixture(t)
	txn := model.NewTransaction("nothing", "USD", jan)
	_, err := f.book.PostTransaction(context.Background(), txn)
	assert.ErrorIs(t, err, model.ErrTransactionEmpty)
}

func TestIncomeToBank(t *testing.T) {
	f := newFixture(t)
	txn := f.post(t, jan, leg{f.checking.ID, "1000", model.Debit}, leg{f.salary.ID, "1000", model.Credit})
	assert.Empty(t, txn.ImbalanceSplits())
	assert.Equal(t, "1000.00", f.balance(t, f.checking.ID))
	assert.Equal(t, "1000.00", f.balance(t, f.salary.ID))
}

func TestSubtreeAndAggregateBalances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, jan, leg{f.checking.ID, "1000", model.Debit}, leg{f.salary.ID, "1000", model.Credit})
	f.post(t, jan.AddDate(0, 0, 1), leg{f.savings.ID, "200", model.Debit}, leg{f.checking.ID, "200", model.Credit})

	eur := model.NewTransaction("cash", "EUR", jan)
	_, err := eur.AddSplit(f.wallet.ID, money.MustParse("50", "EUR"), model.Debit, "")
	require.NoError(t, err)
	_, err = f.book.PostTransaction(ctx, eur)
	require.NoError(t, err)

	sub, err := f.book.SubtreeBalance(ctx, f.assets.ID, balance.All)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", sub.String(), "the EUR wallet is left out")
	assert.Equal(t, "USD", sub.Currency())

	multi, err := f.book.MultiAccountBalance(ctx, []string{f.checking.ID, f.savings.ID}, balance.All)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", multi.String())

	agg, err := f.book.AggregateTypeBalance(ctx, []model.AccountType{model.AccountTypeBank, model.AccountTypeCash}, "USD", balance.All)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", agg.String())

	early, err := f.book.AccountBalance(ctx, f.checking.ID, balance.Until(jan))
	require.NoError(t, err)
	assert.Equal(t, "1000.00", early.String())
	late, err := f.book.AccountBalance(ctx, f.checking.ID, balance.Between(jan.AddDate(0, 0, 1), time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, "-200.00", late.String())
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	f.post(t, jan, leg{f.checking.ID, "1000", model.Debit}, leg{f.salary.ID, "1000", model.Credit})
	f.post(t, jan, leg{f.food.ID, "3", model.Debit})

	lines, err := f.book.Report(context.Background(), balance.All, false)
	require.NoError(t, err)
	var names []string
	for _, l := range lines {
		names = append(names, l.FullName)
	}
	assert.Equal(t, []string{"Assets", "Assets:Checking", "Assets:Savings", "Assets:Euro Wallet", "Groceries", "Salary"}, names)
	assert.Equal(t, 1, lines[1].Depth)
	assert.Equal(t, "1000.00", lines[0].Subtree.String())
	assert.Equal(t, "0.00", lines[0].Own.String())

	all, err := f.book.Report(context.Background(), balance.All, true)
	require.NoError(t, err)
	assert.Len(t, all, len(lines)+1)
	assert.True(t, accounts.IsImbalance(all[len(all)-1].Account))
}

func TestReportIsolatesFailedLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, jan, leg{f.checking.ID, "1000", model.Debit}, leg{f.salary.ID, "1000", model.Credit})

	// Written straight to the store, as an older book could hold it.
	legacy := model.NewTransaction("legacy", "EUR", jan)
	_, err := legacy.AddSplit(f.food.ID, money.MustParse("5", "EUR"), model.Debit, "")
	require.NoError(t, err)
	_, err = legacy.AddSplit(f.wallet.ID, money.MustParse("5", "EUR"), model.Credit, "")
	require.NoError(t, err)
	require.NoError(t, f.mem.SaveTransaction(ctx, legacy))

	_, err = f.book.AccountBalance(ctx, f.food.ID, balance.All)
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)

	lines, err := f.book.Report(ctx, balance.All, false)
	require.NoError(t, err)
	byName := make(map[string]Line, len(lines))
	for _, l := range lines {
		byName[l.FullName] = l
	}
	require.Len(t, byName, 6)
	assert.ErrorIs(t, byName["Groceries"].Err, money.ErrCurrencyMismatch)
	assert.True(t, byName["Groceries"].Subtree.IsZero())
	assert.NoError(t, byName["Assets:Checking"].Err)
	assert.Equal(t, "1000.00", byName["Assets:Checking"].Subtree.String())
	assert.Equal(t, "-5.00", byName["Assets:Euro Wallet"].Own.String())
	assert.NoError(t, byName["Salary"].Err)
}

func TestPostRejectsAccountInOtherCurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	txn := newTxn(t, jan, leg{f.wallet.ID, "5", model.Debit}, leg{f.checking.ID, "5", model.Credit})

	_, err := f.book.PostTransaction(ctx, txn)
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
	_, err = f.mem.LoadTransaction(ctx, txn.ID())
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
}

func TestRemoveSplit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	txn := f.post(t, jan, leg{f.food.ID, "7.00", model.Debit}, leg{f.checking.ID, "7.00", model.Credit})
	splits := txn.Splits()

	res, err := f.book.RemoveSplit(ctx, txn.ID(), splits[1].ID)
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)

	got, err := f.book.Transaction(ctx, txn.ID())
	require.NoError(t, err)
	require.Len(t, got.Splits(), 2)
	assert.Len(t, got.ImbalanceSplits(), 1)
	assert.Equal(t, "0.00", f.balance(t, f.checking.ID))

	_, err = f.book.RemoveSplit(ctx, txn.ID(), splits[0].ID)
	require.ErrorIs(t, err, model.ErrTransactionEmpty)
	got, err = f.book.Transaction(ctx, txn.ID())
	require.NoError(t, err)
	assert.Len(t, got.Splits(), 2, "a failed removal saves nothing")

	require.NoError(t, f.book.DeleteTransaction(ctx, txn.ID()))
	assert.Equal(t, "0.00", f.balance(t, f.food.ID))
}

func TestCloneTemplate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tmpl := newTxn(t, jan, leg{f.food.ID, "60", model.Debit}, leg{f.checking.ID, "60", model.Credit})
	tmpl.Recurrence = &model.Period{Multiplier: 1, Unit: model.Month}
	_, err := f.book.PostTransaction(ctx, tmpl)
	require.NoError(t, err)

	next, ok := NextOccurrence(tmpl, tmpl.Timestamp)
	require.True(t, ok)
	assert.Equal(t, time.February, next.Month())

	clone, err := f.book.CloneTemplate(ctx, tmpl.ID(), next)
	require.NoError(t, err)
	assert.NotEqual(t, tmpl.ID(), clone.ID())
	assert.Nil(t, clone.Recurrence)
	assert.True(t, next.Equal(clone.Timestamp))
	assert.Equal(t, "120.00", f.balance(t, f.food.ID))

	_, ok = NextOccurrence(clone, next)
	assert.False(t, ok)
}

func TestUpdateAccountGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, jan, leg{f.food.ID, "2", model.Debit}, leg{f.checking.ID, "2", model.Credit})

	food := f.food
	food.Placeholder = true
	assert.ErrorIs(t, f.book.UpdateAccount(ctx, food), model.ErrPlaceholderAccount)

	food = f.food
	food.Currency = "EUR"
	assert.ErrorIs(t, f.book.UpdateAccount(ctx, food), money.ErrCurrencyMismatch)

	savings := f.savings
	savings.Name = "Rainy Day"
	savings.Placeholder = true
	require.NoError(t, f.book.UpdateAccount(ctx, savings))
	got, err := f.mem.LoadAccount(ctx, f.savings.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rainy Day", got.Name)
	assert.True(t, got.Placeholder)
}

func TestSetParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.book.SetParent(ctx, f.savings.ID, f.checking.ID))
	got, err := f.mem.LoadAccount(ctx, f.savings.ID)
	require.NoError(t, err)
	assert.Equal(t, f.checking.ID, got.ParentID)

	assert.ErrorIs(t, f.book.SetParent(ctx, f.assets.ID, f.savings.ID), model.ErrCyclicHierarchy)
	assert.ErrorIs(t, f.book.SetParent(ctx, f.assets.ID, f.assets.ID), model.ErrCyclicHierarchy)

	require.NoError(t, f.book.SetParent(ctx, f.savings.ID, ""))
	got, err = f.mem.LoadAccount(ctx, f.savings.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTopLevel())
}

func TestContextLogger(t *testing.T) {
	f := newFixture(t)
	ctx := logging.ToContext(context.Background(), logging.Discard())
	_, err := f.book.CreateAccount(ctx, model.Account{Name: "Dining", Type: model.AccountTypeExpense, Currency: "USD"})
	require.NoError(t, err)
}
