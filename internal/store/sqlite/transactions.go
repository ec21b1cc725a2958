package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocketbook/internal/balance"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

func (s *Store) LoadTransaction(ctx context.Context, txnID string) (*model.Transaction, error) {
	return loadTransaction(ctx, s.db, txnID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadTransaction(ctx context.Context, q querier, txnID string) (*model.Transaction, error) {
	var (
		currency, recurrence string
		postedAt, nanos      int64
		exported             int
		desc, note           string
	)
	err := q.QueryRowContext(ctx, `
		SELECT currency, description, posted_at, posted_nanos, note, exported, recurrence
		FROM transactions WHERE id = ?`, txnID).
		Scan(&currency, &desc, &postedAt, &nanos, &note, &exported, &recurrence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", model.ErrUnknownEntity, txnID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading transaction %s: %w", txnID, err)
	}

	txn := model.RestoreTransaction(txnID, currency)
	txn.Description = desc
	txn.Timestamp = time.Unix(postedAt, nanos).UTC()
	txn.Note = note
	txn.Exported = exported != 0
	if recurrence != "" {
		p, err := model.ParsePeriod(recurrence)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txnID, err)
		}
		txn.Recurrence = &p
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, account_id, amount, type, memo, imbalance
		FROM splits WHERE transaction_id = ? ORDER BY position`, txnID)
	if err != nil {
		return nil, fmt.Errorf("loading splits of %s: %w", txnID, err)
	}
	defer rows.Close()
	for rows.Next() {
		sp, err := scanSplit(rows, txn.Currency())
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txnID, err)
		}
		if err := txn.RestoreSplit(sp); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txnID, err)
		}
	}
	return txn, rows.Err()
}

func scanSplit(r rowScanner, currency string) (model.Split, error) {
	var (
		sp        model.Split
		amount    string
		typ       string
		imbalance int
	)
	if err := r.Scan(&sp.ID, &sp.AccountID, &amount, &typ, &sp.Memo, &imbalance); err != nil {
		return model.Split{}, fmt.Errorf("scanning split: %w", err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Split{}, fmt.Errorf("split %s amount %q: %w", sp.ID, amount, err)
	}
	sp.Amount = money.New(d, currency)
	sp.Type = model.SplitType(typ)
	sp.Imbalance = imbalance != 0
	return sp, nil
}

func (s *Store) LoadSplitsForAccount(ctx context.Context, accountID string, w balance.Window) ([]balance.Posting, error) {
	var (
		b    strings.Builder
		args = []any{accountID}
	)
	b.WriteString(`
		SELECT s.id, s.account_id, s.amount, s.type, s.memo, s.imbalance,
		       s.transaction_id, t.currency, t.posted_at, t.posted_nanos
		FROM splits s JOIN transactions t ON t.id = s.transaction_id
		WHERE s.account_id = ?`)
	if !w.Start.IsZero() {
		b.WriteString(` AND (t.posted_at, t.posted_nanos) >= (?, ?)`)
		args = append(args, w.Start.Unix(), w.Start.Nanosecond())
	}
	if !w.End.IsZero() {
		b.WriteString(` AND (t.posted_at, t.posted_nanos) <= (?, ?)`)
		args = append(args, w.End.Unix(), w.End.Nanosecond())
	}
	b.WriteString(` ORDER BY t.posted_at, t.posted_nanos, t.rowid, s.position`)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("loading splits for %s: %w", accountID, err)
	}
	defer rows.Close()

	var out []balance.Posting
	for rows.Next() {
		var (
			sp                    model.Split
			amount, typ, currency string
			imbalance             int
			postedAt, nanos       int64
		)
		if err := rows.Scan(&sp.ID, &sp.AccountID, &amount, &typ, &sp.Memo, &imbalance,
			&sp.TransactionID, &currency, &postedAt, &nanos); err != nil {
			return nil, fmt.Errorf("scanning split: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("split %s amount %q: %w", sp.ID, amount, err)
		}
		sp.Amount = money.New(d, currency)
		sp.Type = model.SplitType(typ)
		sp.Imbalance = imbalance != 0
		out = append(out, balance.Posting{Split: sp, Timestamp: time.Unix(postedAt, nanos).UTC()})
	}
	return out, rows.Err()
}

func (s *Store) TransactionsForAccount(ctx context.Context, accountID string) ([]*model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id FROM transactions t
		WHERE EXISTS (SELECT 1 FROM splits s WHERE s.transaction_id = t.id AND s.account_id = ?)
		ORDER BY t.posted_at, t.posted_nanos, t.rowid`, accountID)
	if err != nil {
		return nil, fmt.Errorf("finding transactions for %s: %w", accountID, err)
	}
	var ids []string
	for rows.Next() {
		var tid string
		if err := rows.Scan(&tid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning transaction id: %w", err)
		}
		ids = append(ids, tid)
	}
	// The pool holds a single connection; release it before loading.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*model.Transaction, 0, len(ids))
	for _, tid := range ids {
		txn, err := s.LoadTransaction(ctx, tid)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, nil
}

func (s *Store) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	recurrence := ""
	if txn.Recurrence != nil {
		recurrence = txn.Recurrence.String()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, currency, description, posted_at, posted_nanos, note, exported, recurrence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				currency = excluded.currency,
				description = excluded.description,
				posted_at = excluded.posted_at,
				posted_nanos = excluded.posted_nanos,
				note = excluded.note,
				exported = excluded.exported,
				recurrence = excluded.recurrence`,
			txn.ID(), txn.Currency(), txn.Description, txn.Timestamp.Unix(), txn.Timestamp.Nanosecond(),
			txn.Note, boolInt(txn.Exported), recurrence)
		if err != nil {
			return fmt.Errorf("saving transaction %s: %w", txn.ID(), err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM splits WHERE transaction_id = ?`, txn.ID()); err != nil {
			return fmt.Errorf("clearing splits of %s: %w", txn.ID(), err)
		}
		for i, sp := range txn.Splits() {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO splits (id, transaction_id, position, account_id, amount, type, memo, imbalance)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				sp.ID, txn.ID(), i, sp.AccountID, sp.Amount.String(), string(sp.Type),
				sp.Memo, boolInt(sp.Imbalance))
			if err != nil {
				return fmt.Errorf("saving split %s of %s: %w", sp.ID, txn.ID(), err)
			}
		}
		return nil
	})
}

func (s *Store) DeleteTransaction(ctx context.Context, txnID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM splits WHERE transaction_id = ?`, txnID); err != nil {
			return fmt.Errorf("deleting splits of %s: %w", txnID, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, txnID)
		if err != nil {
			return fmt.Errorf("deleting transaction %s: %w", txnID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: transaction %s", model.ErrUnknownEntity, txnID)
		}
		return nil
	})
}
