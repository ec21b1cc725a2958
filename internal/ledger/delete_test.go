package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

func TestDeleteAccountMoveSplits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dining := f.create(t, model.Account{Name: "Dining", Type: model.AccountTypeExpense, Currency: "USD"})
	txn := f.post(t, jan, leg{f.food.ID, "12.50", model.Debit}, leg{f.checking.ID, "12.50", model.Credit})

	require.NoError(t, f.book.DeleteAccount(ctx, f.food.ID, Disposition{Splits: SplitsMove, SplitTarget: dining.ID}))

	_, err := f.mem.LoadAccount(ctx, f.food.ID)
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
	assert.Equal(t, "12.50", f.balance(t, dining.ID))

	got, err := f.book.Transaction(ctx, txn.ID())
	require.NoError(t, err)
	require.Len(t, got.Splits(), 2)
	assert.Equal(t, dining.ID, got.Splits()[0].AccountID)
	assert.NotEqual(t, txn.Splits()[0].ID, got.Splits()[0].ID, "a moved split is a new split")
	assert.Empty(t, got.ImbalanceSplits())
}

func TestDeleteAccountMoveSplitsOtherCurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	txn := f.post(t, jan, leg{f.food.ID, "12.50", model.Debit}, leg{f.checking.ID, "12.50", model.Credit})

	err := f.book.DeleteAccount(ctx, f.food.ID, Disposition{Splits: SplitsMove, SplitTarget: f.wallet.ID})
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = f.mem.LoadAccount(ctx, f.food.ID)
	require.NoError(t, err, "nothing was written")
	got, err := f.book.Transaction(ctx, txn.ID())
	require.NoError(t, err)
	assert.Equal(t, txn.Splits(), got.Splits())
}

func TestDeleteAccountToImbalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, jan, leg{f.food.ID, "8", model.Debit}, leg{f.checking.ID, "8", model.Credit})

	require.NoError(t, f.book.DeleteAccount(ctx, f.food.ID, Disposition{Splits: SplitsToImbalance}))

	imb, ok := f.imbalance(t)
	require.True(t, ok)
	assert.Equal(t, "8.00", f.balance(t, imb.ID))
	assert.Equal(t, "-8.00", f.balance(t, f.checking.ID))
}

func TestDeleteAccountDeleteSplits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	shared := f.post(t, jan, leg{f.food.ID, "8", model.Debit}, leg{f.checking.ID, "8", model.Credit})
	lone := f.post(t, jan, leg{f.food.ID, "3", model.Debit})

	require.NoError(t, f.book.DeleteAccount(ctx, f.food.ID, Disposition{Splits: SplitsDelete}))

	got, err := f.book.Transaction(ctx, shared.ID())
	require.NoError(t, err)
	require.Len(t, got.RealSplits(), 1)
	assert.Len(t, got.ImbalanceSplits(), 1, "the remainder is rebalanced")

	_, err = f.book.Transaction(ctx, lone.ID())
	assert.ErrorIs(t, err, model.ErrUnknownEntity, "nothing real was left")
}

func TestDeleteAccountMoveChildren(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.book.DeleteAccount(ctx, f.assets.ID, Disposition{Splits: SplitsDelete}))

	for _, aid := range []string{f.checking.ID, f.savings.ID, f.wallet.ID} {
		a, err := f.mem.LoadAccount(ctx, aid)
		require.NoError(t, err)
		assert.True(t, a.IsTopLevel(), a.Name)
	}

	// Children can also go under an explicit account.
	f = newFixture(t)
	require.NoError(t, f.book.DeleteAccount(ctx, f.assets.ID, Disposition{Splits: SplitsDelete, ChildTarget: f.food.ID}))
	a, err := f.mem.LoadAccount(ctx, f.savings.ID)
	require.NoError(t, err)
	assert.Equal(t, f.food.ID, a.ParentID)
}

func TestDeleteAccountCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, jan, leg{f.checking.ID, "100", model.Debit}, leg{f.salary.ID, "100", model.Credit})
	require.NoError(t, f.book.SetDefaultTransfer(ctx, f.food.ID, f.checking.ID))

	require.NoError(t, f.book.DeleteAccount(ctx, f.assets.ID, Disposition{Splits: SplitsToImbalance, Children: ChildrenDelete}))

	for _, aid := range []string{f.assets.ID, f.checking.ID, f.savings.ID, f.wallet.ID} {
		_, err := f.mem.LoadAccount(ctx, aid)
		assert.ErrorIs(t, err, model.ErrUnknownEntity)
	}
	imb, ok := f.imbalance(t)
	require.True(t, ok)
	assert.Equal(t, "100.00", f.balance(t, imb.ID))

	food, err := f.mem.LoadAccount(ctx, f.food.ID)
	require.NoError(t, err)
	assert.Empty(t, food.DefaultTransferID, "links to deleted accounts are cleared")
}

func TestDeleteImbalanceAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	txn := f.post(t, jan, leg{f.food.ID, "5", model.Debit})
	old, ok := f.imbalance(t)
	require.True(t, ok)

	require.NoError(t, f.book.DeleteAccount(ctx, old.ID, Disposition{Splits: SplitsDelete}))

	fresh, ok := f.imbalance(t)
	require.True(t, ok, "rebalancing recreates the imbalance account")
	assert.NotEqual(t, old.ID, fresh.ID)
	got, err := f.book.Transaction(ctx, txn.ID())
	require.NoError(t, err)
	require.Len(t, got.ImbalanceSplits(), 1)
	assert.Equal(t, fresh.ID, got.ImbalanceSplits()[0].AccountID)
}

func TestDeleteAccountInvalidDisposition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, jan, leg{f.food.ID, "1", model.Debit}, leg{f.checking.ID, "1", model.Credit})

	tests := []struct {
		name    string
		account string
		d       Disposition
	}{
		{"no split target", f.food.ID, Disposition{Splits: SplitsMove}},
		{"placeholder split target", f.food.ID, Disposition{Splits: SplitsMove, SplitTarget: f.assets.ID}},
		{"split target removed too", f.assets.ID, Disposition{Splits: SplitsMove, SplitTarget: f.checking.ID, Children: ChildrenDelete}},
		{"children under own subtree", f.assets.ID, Disposition{Splits: SplitsDelete, ChildTarget: f.checking.ID}},
		{"unknown child target", f.assets.ID, Disposition{Splits: SplitsDelete, ChildTarget: "ghost"}},
		{"bad split policy", f.food.ID, Disposition{Splits: SplitPolicy(9)}},
		{"bad child policy", f.food.ID, Disposition{Splits: SplitsDelete, Children: ChildPolicy(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.book.DeleteAccount(ctx, tt.account, tt.d)
			assert.ErrorIs(t, err, ErrInvalidDisposition)
		})
	}

	// Nothing was touched.
	assert.Equal(t, "1.00", f.balance(t, f.food.ID))
	_, err := f.mem.LoadAccount(ctx, f.assets.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.book.DeleteAccount(ctx, "ghost", Disposition{Splits: SplitsDelete}), model.ErrUnknownEntity)
}
