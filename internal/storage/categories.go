package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) ListCategories(ctx context.Context, owner string, kind core.Kind) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, owner_key, name, kind, is_default
		FROM categories WHERE owner_key = ? AND kind = ? ORDER BY name`, owner, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c         core.Category
			k         string
			isDefault int
		)
		if err := rows.Scan(&c.ID, &c.OwnerKey, &c.Name, &k, &isDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.Kind(k)
		c.IsDefault = isDefault != 0
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// CreateCategories inserts all categories in one transaction. Names that
// already exist for the owner and kind are skipped.
func (r *SQLiteRepository) CreateCategories(ctx context.Context, cats []core.Category) ([]core.Category, error) {
	for _, c := range cats {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	out := make([]core.Category, 0, len(cats))
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range cats {
			c.ID = newID()
			res, err := tx.ExecContext(ctx, `INSERT INTO categories (id, owner_key, name, kind, is_default)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (owner_key, kind, name) DO NOTHING`,
				c.ID, c.OwnerKey, c.Name, string(c.Kind), boolToInt(c.IsDefault))
			if err != nil {
				return fmt.Errorf("insert category %q: %w", c.Name, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				out = append(out, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND owner_key = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return expectOneRow(res, "category", id)
}
