package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
	"github.com/cleared-dev/pocketbook/internal/store"
	"github.com/cleared-dev/pocketbook/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestSaveTransactionCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SaveAccount(ctx, model.Account{ID: "a", Name: "A", Type: model.AccountTypeBank, Currency: "USD"}))

	txn := model.NewTransaction("x", "USD", time.Now())
	sp, err := txn.AddSplit("a", money.MustParse("1", "USD"), model.Debit, "")
	require.NoError(t, err)
	require.NoError(t, s.SaveTransaction(ctx, txn))

	require.NoError(t, txn.SetSplitMemo(sp.ID, "changed after save"))
	got, err := s.LoadTransaction(ctx, txn.ID())
	require.NoError(t, err)
	stored, _ := got.Split(sp.ID)
	assert.Empty(t, stored.Memo)
}

func TestSaveAccountUnknownParent(t *testing.T) {
	err := New().SaveAccount(context.Background(), model.Account{ID: "a", Name: "A", Type: model.AccountTypeBank, Currency: "USD", ParentID: "missing"})
	assert.ErrorIs(t, err, model.ErrUnknownEntity)
}
