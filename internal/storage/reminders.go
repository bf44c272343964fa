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

const reminderColumns = `id, owner_key, description, at, lead_time, created_at`

func (r *SQLiteRepository) CreateReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	if err := rem.Validate(); err != nil {
		return core.Reminder{}, err
	}
	rem.ID = newID()
	rem.CreatedAt = fromMillis(toMillis(r.now()))
	_, err := r.db.ExecContext(ctx, `INSERT INTO reminders (`+reminderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.OwnerKey, rem.Description, reminderAt(rem), rem.LeadTime, toMillis(rem.CreatedAt))
	if err != nil {
		return core.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	if rem.IsDated() {
		at := fromMillis(toMillis(*rem.At))
		rem.At = &at
	}
	return rem, nil
}

func (r *SQLiteRepository) GetReminder(ctx context.Context, owner, id string) (core.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reminderColumns+`
		FROM reminders WHERE id = ? AND owner_key = ?`, id, owner)
	rem, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reminder{}, fmt.Errorf("reminder %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

func (r *SQLiteRepository) UpdateReminder(ctx context.Context, rem core.Reminder) error {
	if err := rem.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET description = ?, at = ?, lead_time = ?
		WHERE id = ? AND owner_key = ?`,
		rem.Description, reminderAt(rem), rem.LeadTime, rem.ID, rem.OwnerKey)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return expectOneRow(res, "reminder", rem.ID)
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ? AND owner_key = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return expectOneRow(res, "reminder", id)
}

func (r *SQLiteRepository) ListDatedReminders(ctx context.Context, owner string, start, end time.Time) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reminderColumns+`
		FROM reminders
		WHERE owner_key = ? AND at IS NOT NULL AND at >= ? AND at <= ?
		ORDER BY at`, owner, toMillis(start), toMillis(end))
	if err != nil {
		return nil, fmt.Errorf("list dated reminders: %w", err)
	}
	return collectReminders(rows)
}

func (r *SQLiteRepository) ListUndatedReminders(ctx context.Context, owner string) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reminderColumns+`
		FROM reminders
		WHERE owner_key = ? AND at IS NULL
		ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list undated reminders: %w", err)
	}
	return collectReminders(rows)
}

func (r *SQLiteRepository) DeleteUndatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE at IS NULL AND created_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete undated reminders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Undated reminders removed", "count", n, "cutoff", cutoff)
	}
	return int(n), nil
}

func reminderAt(rem core.Reminder) sql.NullInt64 {
	if !rem.IsDated() {
		return sql.NullInt64{}
	}
	return nullMillis(*rem.At)
}

func scanReminder(s rowScanner) (core.Reminder, error) {
	var (
		rem     core.Reminder
		at      sql.NullInt64
		created int64
	)
	if err := s.Scan(&rem.ID, &rem.OwnerKey, &rem.Description, &at, &rem.LeadTime, &created); err != nil {
		return core.Reminder{}, err
	}
	if at.Valid {
		t := fromMillis(at.Int64)
		rem.At = &t
	}
	rem.CreatedAt = fromMillis(created)
	return rem, nil
}

func collectReminders(rows *sql.Rows) ([]core.Reminder, error) {
	defer rows.Close()
	var out []core.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return out, nil
}
