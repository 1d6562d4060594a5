package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budgetwise/internal/core"
)

// InsertCategory creates a category and returns the assigned id.
func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, type, icon, color, is_system)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, string(c.Type), c.Icon, c.Color, boolToInt(c.IsSystem))
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetCategory fetches a category visible to the user (their own or system).
func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, icon, color, is_system
		FROM categories
		WHERE id = ? AND (user_id = ? OR is_system = 1)`, id, userID)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories returns system categories plus the user's own.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, icon, color, is_system
		FROM categories
		WHERE user_id = ? OR is_system = 1
		ORDER BY is_system DESC, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory removes a non-system category owned by the user. System
// category protection is enforced in the service layer; this guard is a
// backstop.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM categories WHERE id = ? AND user_id = ? AND is_system = 0`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// CountSystemCategories reports how many system categories exist; used to
// make seeding idempotent.
func (r *SQLiteRepository) CountSystemCategories(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM categories WHERE is_system = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count system categories: %w", err)
	}
	return n, nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c        core.Category
		typ      string
		isSystem int
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &typ, &c.Icon, &c.Color, &isSystem); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.IsSystem = isSystem != 0
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
