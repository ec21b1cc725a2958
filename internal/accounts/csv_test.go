package accounts

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocketbook/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: "a1", Name: "Checking", Type: model.AccountTypeBank, Currency: "USD", Favorite: true, Color: "#4CAF50"},
		{ID: "a2", Name: "Groceries", Type: model.AccountTypeExpense, Currency: "USD", ParentID: "a3", DefaultTransferID: "a1", Description: "Food, etc."},
		{ID: "a3", Name: "Expenses", Type: model.AccountTypeExpense, Currency: "USD", Placeholder: true, Hidden: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestReadAccountsEmpty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnmarshalAccountErrors(t *testing.T) {
	_, err := UnmarshalAccount([]string{"a"})
	assert.Error(t, err)

	row := MarshalAccount(model.Account{ID: "a", Name: "A", Type: model.AccountTypeBank, Currency: "USD"})
	row[colType] = "SAVINGS"
	_, err = UnmarshalAccount(row)
	assert.Error(t, err)

	row = MarshalAccount(model.Account{ID: "a", Name: "A", Type: model.AccountTypeBank, Currency: "USD"})
	row[colHidden] = "maybe"
	_, err = UnmarshalAccount(row)
	assert.Error(t, err)
}

func TestBlankFlagsDefaultFalse(t *testing.T) {
	row := MarshalAccount(model.Account{ID: "a", Name: "A", Type: model.AccountTypeBank, Currency: "USD"})
	row[colPlaceholder], row[colHidden], row[colFavorite] = "", "", ""
	a, err := UnmarshalAccount(row)
	require.NoError(t, err)
	assert.False(t, a.Placeholder || a.Hidden || a.Favorite)
}

func TestSaveLoadFile(t *testing.T) {
	svc := mustService(t, DefaultChart("USD")...)
	path := filepath.Join(t.TempDir(), "accounts", "chart.csv")
	require.NoError(t, svc.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, svc.All(), loaded.All())
	assert.Equal(t, "Assets:Current Assets:Checking Account", loaded.FullName(loaded.ByType(model.AccountTypeBank)[0].ID))
}
