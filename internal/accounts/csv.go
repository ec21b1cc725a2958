package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cleared-dev/pocketbook/internal/model"
)

const (
	numFields       = 11
	colID           = 0
	colName         = 1
	colType         = 2
	colCurrency     = 3
	colParent       = 4
	colPlaceholder  = 5
	colTransfer     = 6
	colHidden       = 7
	colFavorite     = 8
	colColor        = 9
	colDesc         = 10
	chartHeaderLine = "account_id,name,type,currency,parent_id,placeholder,default_transfer_id,hidden,favorite,color,description"
)

// ReadAccounts reads a chart CSV.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(chartHeaderLine, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colCurrency] = acct.Currency
	row[colParent] = acct.ParentID
	row[colPlaceholder] = strconv.FormatBool(acct.Placeholder)
	row[colTransfer] = acct.DefaultTransferID
	row[colHidden] = strconv.FormatBool(acct.Hidden)
	row[colFavorite] = strconv.FormatBool(acct.Favorite)
	row[colColor] = acct.Color
	row[colDesc] = acct.Description
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	typ, err := model.ParseAccountType(record[colType])
	if err != nil {
		return model.Account{}, err
	}

	flags := make([]bool, 3)
	for i, col := range []int{colPlaceholder, colHidden, colFavorite} {
		if record[col] == "" {
			continue
		}
		flags[i], err = strconv.ParseBool(record[col])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing flag %q: %w", record[col], err)
		}
	}

	return model.Account{
		ID:                record[colID],
		Name:              record[colName],
		Type:              typ,
		Currency:          record[colCurrency],
		ParentID:          record[colParent],
		Placeholder:       flags[0],
		DefaultTransferID: record[colTransfer],
		Hidden:            flags[1],
		Favorite:          flags[2],
		Color:             record[colColor],
		Description:       record[colDesc],
	}, nil
}

// LoadFile reads a chart CSV from path and returns a Service.
func LoadFile(path string, opts ...Option) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts, opts...)
}

// SaveFile writes the chart of accounts to path.
func (s *Service) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating chart dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.All()); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
