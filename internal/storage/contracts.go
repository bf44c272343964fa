package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const contractColumns = `id, owner_key, contract_type, description, category, total_cents, paid_cents,
	start_date, due_date, installment_count, installments_paid, monthly_rate, version, created_at`

func (r *SQLiteRepository) CreateContract(ctx context.Context, c core.Contract) (core.Contract, error) {
	if err := c.Validate(); err != nil {
		return core.Contract{}, err
	}
	c.ID = newID()
	c.Version = 1
	c.CreatedAt = fromMillis(toMillis(r.now()))
	_, err := r.db.ExecContext(ctx, `INSERT INTO contracts (`+contractColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerKey, string(c.Type), c.Description, string(c.Category),
		c.TotalAmount.Cents, c.PaidAmount.Cents, nullMillis(c.StartDate), nullMillis(c.DueDate),
		c.InstallmentCount, c.InstallmentsPaid, c.MonthlyInterestRate.String(), c.Version,
		toMillis(c.CreatedAt))
	if err != nil {
		return core.Contract{}, fmt.Errorf("insert contract: %w", err)
	}
	c.StartDate = fromNullMillis(nullMillis(c.StartDate))
	c.DueDate = fromNullMillis(nullMillis(c.DueDate))
	return c, nil
}

func (r *SQLiteRepository) GetContract(ctx context.Context, owner, id string) (core.Contract, error) {
	return getContract(ctx, r.db, owner, id)
}

func getContract(ctx context.Context, q queryer, owner, id string) (core.Contract, error) {
	row := q.QueryRowContext(ctx, `SELECT `+contractColumns+`
		FROM contracts WHERE id = ? AND owner_key = ?`, id, owner)
	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contract{}, fmt.Errorf("contract %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListContracts(ctx context.Context, owner string) ([]core.Contract, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contractColumns+`
		FROM contracts WHERE owner_key = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var out []core.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateContract(ctx context.Context, c core.Contract) (core.Contract, error) {
	return updateContract(ctx, r.db, c)
}

// updateContract writes c only if the stored version still equals c.Version.
func updateContract(ctx context.Context, q queryer, c core.Contract) (core.Contract, error) {
	if err := c.Validate(); err != nil {
		return core.Contract{}, err
	}
	res, err := q.ExecContext(ctx, `UPDATE contracts
		SET contract_type = ?, description = ?, category = ?, total_cents = ?, paid_cents = ?,
		    start_date = ?, due_date = ?, installment_count = ?, installments_paid = ?,
		    monthly_rate = ?, version = version + 1
		WHERE id = ? AND owner_key = ? AND version = ?`,
		string(c.Type), c.Description, string(c.Category), c.TotalAmount.Cents, c.PaidAmount.Cents,
		nullMillis(c.StartDate), nullMillis(c.DueDate), c.InstallmentCount, c.InstallmentsPaid,
		c.MonthlyInterestRate.String(), c.ID, c.OwnerKey, c.Version)
	if err != nil {
		return core.Contract{}, fmt.Errorf("update contract: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Contract{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, err := getContract(ctx, q, c.OwnerKey, c.ID); err != nil {
			return core.Contract{}, err
		}
		return core.Contract{}, fmt.Errorf("contract %s at version %d: %w", c.ID, c.Version, core.ErrConflict)
	}
	c.Version++
	return c, nil
}

func (r *SQLiteRepository) DeleteContract(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ? AND owner_key = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	return expectOneRow(res, "contract", id)
}

// RecordPayment implements ports.PaymentRecorder: the contract update and the
// companion ledger entry commit together or not at all.
func (r *SQLiteRepository) RecordPayment(ctx context.Context, c core.Contract, entry core.Transaction) (core.Contract, core.Transaction, error) {
	var (
		updated core.Contract
		saved   core.Transaction
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if updated, err = updateContract(ctx, tx, c); err != nil {
			return err
		}
		if saved, err = r.insertTransaction(ctx, tx, entry); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return core.Contract{}, core.Transaction{}, fmt.Errorf("record payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded in SQLite",
		"contract_id", updated.ID,
		"transaction_id", saved.ID,
		"amount_cents", saved.Amount.Cents,
		"version", updated.Version)
	return updated, saved, nil
}

func scanContract(s rowScanner) (core.Contract, error) {
	var (
		c              core.Contract
		typ, cat, rate string
		start, due     sql.NullInt64
		created        int64
	)
	err := s.Scan(&c.ID, &c.OwnerKey, &typ, &c.Description, &cat, &c.TotalAmount.Cents,
		&c.PaidAmount.Cents, &start, &due, &c.InstallmentCount, &c.InstallmentsPaid,
		&rate, &c.Version, &created)
	if err != nil {
		return core.Contract{}, err
	}
	c.Type = core.ContractType(typ)
	c.Category = core.FinancingCategory(cat)
	c.StartDate = fromNullMillis(start)
	c.DueDate = fromNullMillis(due)
	c.CreatedAt = fromMillis(created)
	if c.MonthlyInterestRate, err = decimal.NewFromString(rate); err != nil {
		return core.Contract{}, fmt.Errorf("parse monthly rate %q: %w", rate, err)
	}
	return c, nil
}
