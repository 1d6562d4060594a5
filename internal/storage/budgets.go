package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/core"
)

// InsertBudget creates a budget and returns the assigned id.
func (r *SQLiteRepository) InsertBudget(ctx context.Context, b core.Budget) (int64, error) {
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category_id, amount, period, start_date, end_date, alert_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount.String(), string(b.Period),
		b.StartDate.String(), b.EndDate.String(), b.AlertThreshold.String(),
		createdAt.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetBudget fetches a budget owned by the user.
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount, period, start_date, end_date, alert_threshold, created_at
		FROM budgets
		WHERE id = ? AND user_id = ?`, id, userID)

	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns all budgets for the user, newest period first.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount, period, start_date, end_date, alert_threshold, created_at
		FROM budgets
		WHERE user_id = ?
		ORDER BY start_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountOverlappingBudgets counts budgets for the same category whose period
// intersects [start, end].
func (r *SQLiteRepository) CountOverlappingBudgets(ctx context.Context, userID, categoryID int64, start, end core.Date) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM budgets
		WHERE user_id = ? AND category_id = ?
		  AND start_date <= ? AND end_date >= ?`,
		userID, categoryID, end.String(), start.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count overlapping budgets: %w", err)
	}
	return n, nil
}

// DeleteBudget removes a budget owned by the user.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		amount    string
		period    string
		start     string
		end       string
		threshold string
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &amount, &period, &start, &end, &threshold, &createdAt); err != nil {
		return core.Budget{}, err
	}

	b.Period = core.BudgetPeriod(period)

	var err error
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Budget{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if b.AlertThreshold, err = decimal.NewFromString(threshold); err != nil {
		return core.Budget{}, fmt.Errorf("parse alert threshold %q: %w", threshold, err)
	}
	if b.StartDate, err = core.ParseDate(start); err != nil {
		return core.Budget{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	if b.EndDate, err = core.ParseDate(end); err != nil {
		return core.Budget{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		b.CreatedAt = t
	}
	return b, nil
}
