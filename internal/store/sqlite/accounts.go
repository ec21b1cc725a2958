package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patrickmn/go-cache"

	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
	"github.com/cleared-dev/pocketbook/internal/store"
)

const accountColumns = `id, name, type, currency, parent_id, placeholder,
	default_transfer_id, hidden, favorite, color, description`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (model.Account, error) {
	var (
		a                             model.Account
		typ                           string
		parent                        sql.NullString
		placeholder, hidden, favorite int
	)
	err := r.Scan(&a.ID, &a.Name, &typ, &a.Currency, &parent, &placeholder,
		&a.DefaultTransferID, &hidden, &favorite, &a.Color, &a.Description)
	if err != nil {
		return model.Account{}, err
	}
	a.Type = model.AccountType(typ)
	a.ParentID = parent.String
	a.Placeholder = placeholder != 0
	a.Hidden = hidden != 0
	a.Favorite = favorite != 0
	return a, nil
}

func (s *Store) LoadAccount(ctx context.Context, accountID string) (model.Account, error) {
	if v, ok := s.accounts.Get(accountID); ok {
		return v.(model.Account), nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("loading account %s: %w", accountID, err)
	}
	s.accounts.Set(a.ID, a, cache.DefaultExpiration)
	return a, nil
}

func (s *Store) LoadAccounts(ctx context.Context, filter store.AccountFilter) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		s.accounts.Set(a.ID, a, cache.DefaultExpiration)
		if filter.Match(a) {
			out = append(out, a)
		}
	}
	return out, rows.Err()
}

func (s *Store) SaveAccount(ctx context.Context, acct model.Account) error {
	if acct.ID == "" {
		return fmt.Errorf("saving account %q: missing id", acct.Name)
	}
	acct.Currency = money.Code(acct.Currency)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			currency = excluded.currency,
			parent_id = excluded.parent_id,
			placeholder = excluded.placeholder,
			default_transfer_id = excluded.default_transfer_id,
			hidden = excluded.hidden,
			favorite = excluded.favorite,
			color = excluded.color,
			description = excluded.description`,
		acct.ID, acct.Name, string(acct.Type), acct.Currency, nullString(acct.ParentID),
		boolInt(acct.Placeholder), acct.DefaultTransferID, boolInt(acct.Hidden),
		boolInt(acct.Favorite), acct.Color, acct.Description)
	if err != nil {
		s.accounts.Delete(acct.ID)
		return fmt.Errorf("saving account %s: %w", acct.ID, err)
	}
	s.accounts.Set(acct.ID, acct, cache.DefaultExpiration)
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var refs int
		err := tx.QueryRowContext(ctx, `
			SELECT (SELECT COUNT(*) FROM accounts WHERE parent_id = ?)
			     + (SELECT COUNT(*) FROM splits WHERE account_id = ?)`,
			accountID, accountID).Scan(&refs)
		if err != nil {
			return fmt.Errorf("checking references to %s: %w", accountID, err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: %s has %d references", store.ErrAccountInUse, accountID, refs)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
		if err != nil {
			return fmt.Errorf("deleting account %s: %w", accountID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
		}
		s.accounts.Delete(accountID)
		return nil
	})
}
