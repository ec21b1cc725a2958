// Package storetest holds behaviour checks shared by every store.Store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
	"github.com/cleared-dev/pocketbook/internal/store"
)

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("AccountRoundTrip", func(t *testing.T) { testAccountRoundTrip(t, open(t)) })
	t.Run("AccountFilter", func(t *testing.T) { testAccountFilter(t, open(t)) })
	t.Run("UnknownIDs", func(t *testing.T) { testUnknownIDs(t, open(t)) })
	t.Run("TransactionRoundTrip", func(t *testing.T) { testTransactionRoundTrip(t, open(t)) })
	t.Run("SaveReplacesSplits", func(t *testing.T) { testSaveReplacesSplits(t, open(t)) })
	t.Run("SplitsForAccountWindow", func(t *testing.T) { testSplitsForAccountWindow(t, open(t)) })
	t.Run("DistantTimestamps", func(t *testing.T) { testDistantTimestamps(t, open(t)) })
	t.Run("TransactionsForAccount", func(t *testing.T) { testTransactionsForAccount(t, open(t)) })
	t.Run("DeleteAccountInUse", func(t *testing.T) { testDeleteAccountInUse(t, open(t)) })
	t.Run("SaveTransactionUnknownAccount", func(t *testing.T) { testSaveTransactionUnknownAccount(t, open(t)) })
}

var day = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s store.Store) (bank, food model.Account) {
	t.Helper()
	ctx := context.Background()
	assets := model.Account{ID: "assets", Name: "Assets", Type: model.AccountTypeAsset, Currency: "USD", Placeholder: true}
	bank = model.Account{ID: "bank", Name: "Checking", Type: model.AccountTypeBank, Currency: "USD", ParentID: "assets"}
	food = model.Account{ID: "food", Name: "Groceries", Type: model.AccountTypeExpense, Currency: "USD", Color: "#00ff00"}
	for _, a := range []model.Account{assets, bank, food} {
		require.NoError(t, s.SaveAccount(ctx, a))
	}
	return bank, food
}

func purchase(t *testing.T, bankID, foodID, amount string, ts time.Time) *model.Transaction {
	t.Helper()
	txn := model.NewTransaction("groceries", "USD", ts)
	_, err := txn.AddSplit(foodID, money.MustParse(amount, "USD"), model.Debit, "weekly shop")
	require.NoError(t, err)
	_, err = txn.AddSplit(bankID, money.MustParse(amount, "USD"), model.Credit, "")
	require.NoError(t, err)
	return txn
}

func testAccountRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	bank, food := seed(t, s)

	got, err := s.LoadAccount(ctx, bank.ID)
	require.NoError(t, err)
	assert.Equal(t, bank, got)

	food.Name = "Food"
	food.DefaultTransferID = bank.ID
	food.Hidden = true
	require.NoError(t, s.SaveAccount(ctx, food))
	got, err = s.LoadAccount(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, food, got)

	all, err := s.LoadAccounts(ctx, store.AccountFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"assets", "bank", "food"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func testAccountFilter(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed(t, s)
	require.NoError(t, s.SaveAccount(ctx, model.Account{ID: "eur", Name: "Euro Bank", Type: model.AccountTypeBank, Currency: "EUR"}))

	got, err := s.LoadAccounts(ctx, store.AccountFilter{Types: []model.AccountType{model.AccountTypeBank}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.LoadAccounts(ctx, store.AccountFilter{Types: []model.AccountType{model.AccountTypeBank}, Currency: "usd"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bank", got[0].ID)
}

func testUnknownIDs(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.LoadAccount(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
	_, err = s.LoadTransaction(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
	assert.ErrorIs(t, s.DeleteAccount(ctx, "nope"), model.ErrUnknownEntity)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "nope"), model.ErrUnknownEntity)
}

func testTransactionRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	bank, food := seed(t, s)
	txn := purchase(t, bank.ID, food.ID, "42.50", day)
	txn.Note = "receipt in drawer"
	txn.Recurrence = &model.Period{Multiplier: 1, Unit: model.Week}
	require.NoError(t, s.SaveTransaction(ctx, txn))

	got, err := s.LoadTransaction(ctx, txn.ID())
	require.NoError(t, err)
	assert.Equal(t, txn.ID(), got.ID())
	assert.Equal(t, "USD", got.Currency())
	assert.Equal(t, "groceries", got.Description)
	assert.Equal(t, "receipt in drawer", got.Note)
	assert.True(t, txn.Timestamp.Equal(got.Timestamp))
	require.NotNil(t, got.Recurrence)
	assert.Equal(t, "1W", got.Recurrence.String())

	want, have := txn.Splits(), got.Splits()
	require.Len(t, have, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, have[i].ID)
		assert.Equal(t, want[i].AccountID, have[i].AccountID)
		assert.Equal(t, want[i].Type, have[i].Type)
		assert.Equal(t, want[i].Memo, have[i].Memo)
		assert.True(t, want[i].Amount.Equal(have[i].Amount), "split %d amount", i)
	}
}

func testSaveReplacesSplits(t *testing.T, s store.Store) {
	ctx := context.Background()
	bank, food := seed(t, s)
	txn := purchase(t, bank.ID, food.ID, "10.00", day)
	require.NoError(t, s.SaveTransaction(ctx, txn))

	first := txn.Splits()[0]
	require.NoError(t, txn.RemoveSplit(first.ID))
	require.NoError(t, s.SaveTransaction(ctx, txn))

	got, err := s.LoadTransaction(ctx, txn.ID())
	require.NoError(t, err)
	require.Len(t, got.Splits(), 1)
	_, ok := got.Split(first.ID)
	assert.False(t, ok)
}

func testSplitsForAccountWindow(t *testing.T, s store.Store) {
	ctx := context.Background()
	bank, food := seed(t, s)
	for i, amt := range []string{"1.00", "2.00", "3.00"} {
		require.NoError(t, s.SaveTransaction(ctx, purchase(t, bank.ID, food.ID, amt, day.AddDate(0, 0, i))))
	}

	all, err := s.LoadSplitsForAccount(ctx, food.ID, balance.All)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1.00", all[0].Split.Amount.String())
	assert.Equal(t, "3.00", all[2].Split.Amount.String())

	// Both bounds are inclusive.
	mid, err := s.LoadSplitsForAccount(ctx, food.ID, balance.Between(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)))
	require.NoError(t, err)
	require.Len(t, mid, 2)
	assert.Equal(t, "2.00", mid[0].Split.Amount.String())

	upTo, err := s.LoadSplitsForAccount(ctx, bank.ID, balance.Until(day))
	require.NoError(t, err)
	require.Len(t, upTo, 1)
	assert.Equal(t, model.Credit, upTo[0].Split.Type)
}

func testDistantTimestamps(t *testing.T, s store.Store) {
	ctx := context.Background()
	bank, food := seed(t, s)
	dates := []time.Time{
		time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1969, 12, 31, 23, 59, 59, 250, time.UTC),
		time.Date(2300, 1, 1, 8, 30, 0, 123456789, time.UTC),
	}
	for i, d := range dates {
		txn := purchase(t, bank.ID, food.ID, []string{"1.00", "2.00", "3.00"}[i], d)
		require.NoError(t, s.SaveTransaction(ctx, txn))
		got, err := s.LoadTransaction(ctx, txn.ID())
		require.NoError(t, err)
		assert.True(t, d.Equal(got.Timestamp), "saved %s, loaded %s", d, got.Timestamp)
	}

	all, err := s.LoadSplitsForAccount(ctx, food.ID, balance.All)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, p := range all {
		assert.True(t, dates[i].Equal(p.Timestamp), "posting %d at %s", i, p.Timestamp)
	}

	late, err := s.LoadSplitsForAccount(ctx, food.ID, balance.Between(dates[2], time.Time{}))
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, "3.00", late[0].Split.Amount.String())

	early, err := s.LoadSplitsForAccount(ctx, food.ID, balance.Until(dates[1].Add(-time.Nanosecond)))
	require.NoError(t, err)
	require.Len(t, early, 1)
	assert.Equal(t, "1.00", early[0].Split.Amount.String())
}

func testTransactionsForAccount(t *testing.T, s store.Store) {
	ctx := context.Background()
	bank, food := seed(t, s)
	a := purchase(t, bank.ID, food.ID, "5.00", day)
	b := purchase(t, bank.ID, food.ID, "6.00", day.Add(time.Hour))
	require.NoError(t, s.SaveTransaction(ctx, a))
	require.NoError(t, s.SaveTransaction(ctx, b))

	got, err := s.TransactionsForAccount(ctx, food.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID(), got[0].ID())
	assert.Equal(t, b.ID(), got[1].ID())

	got, err = s.TransactionsForAccount(ctx, "assets")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testDeleteAccountInUse(t *testing.T, s store.Store) {
	ctx := context.Background()
	bank, food := seed(t, s)
	txn := purchase(t, bank.ID, food.ID, "5.00", day)
	require.NoError(t, s.SaveTransaction(ctx, txn))

	assert.ErrorIs(t, s.DeleteAccount(ctx, "assets"), store.ErrAccountInUse)
	assert.ErrorIs(t, s.DeleteAccount(ctx, food.ID), store.ErrAccountInUse)

	require.NoError(t, s.DeleteTransaction(ctx, txn.ID()))
	require.NoError(t, s.DeleteAccount(ctx, food.ID))
	_, err := s.LoadAccount(ctx, food.ID)
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
}

func testSaveTransactionUnknownAccount(t *testing.T, s store.Store) {
	ctx := context.Background()
	bank, _ := seed(t, s)
	txn := purchase(t, bank.ID, "ghost", "5.00", day)
	require.Error(t, s.SaveTransaction(ctx, txn))

	_, err := s.LoadTransaction(ctx, txn.ID())
	assert.ErrorIs(t, err, model.ErrUnknownEntity, "a failed save must leave nothing behind")
}
