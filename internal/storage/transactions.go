package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

const transactionColumns = `id, owner_key, kind, amount_cents, category, description,
	occurred_at, status, is_recurring, contract_id, created_at`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := r.insertTransaction(ctx, r.db, t)
	if err != nil {
		return core.Transaction{}, err
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"owner_key", t.OwnerKey,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)
	return t, nil
}

func (r *SQLiteRepository) insertTransaction(ctx context.Context, q queryer, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = newID()
	t.CreatedAt = r.now().UTC()
	_, err := q.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerKey, string(t.Kind), t.Amount.Cents, t.Category, t.Description,
		toMillis(t.OccurredAt), string(t.Status), boolToInt(t.IsRecurring), t.ContractID,
		toMillis(t.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	t.OccurredAt = fromMillis(toMillis(t.OccurredAt))
	t.CreatedAt = fromMillis(toMillis(t.CreatedAt))
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions WHERE id = ? AND owner_key = ?`, id, owner)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE transactions
		SET kind = ?, amount_cents = ?, category = ?, description = ?, occurred_at = ?,
		    status = ?, is_recurring = ?, contract_id = ?
		WHERE id = ? AND owner_key = ?`,
		string(t.Kind), t.Amount.Cents, t.Category, t.Description, toMillis(t.OccurredAt),
		string(t.Status), boolToInt(t.IsRecurring), t.ContractID, t.ID, t.OwnerKey)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOneRow(res, "transaction", t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_key = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(res, "transaction", id)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, owner string, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_key = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at, created_at`,
		owner, toMillis(start), toMillis(end))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByContract(ctx context.Context, owner, contractID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_key = ? AND contract_id = ?
		ORDER BY occurred_at, created_at`,
		owner, contractID)
	if err != nil {
		return nil, fmt.Errorf("list contract transactions: %w", err)
	}
	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                 core.Transaction
		kind, status      string
		occurred, created int64
		recurring         int
	)
	err := s.Scan(&t.ID, &t.OwnerKey, &kind, &t.Amount.Cents, &t.Category, &t.Description,
		&occurred, &status, &recurring, &t.ContractID, &created)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.Status = core.ParseSettlementStatus(status)
	t.OccurredAt = fromMillis(occurred)
	t.CreatedAt = fromMillis(created)
	t.IsRecurring = recurring != 0
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func expectOneRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, core.ErrNotFound)
	}
	return nil
}
