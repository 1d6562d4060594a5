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

// InsertGoal creates a savings goal and returns the assigned id.
func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.SavingsGoal) (int64, error) {
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	deadline := ""
	if !g.Deadline.IsZero() {
		deadline = g.Deadline.String()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals (user_id, name, target_amount, deadline, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.TargetAmount.String(), deadline, string(g.Status),
		createdAt.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetGoal fetches a savings goal owned by the user.
func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_amount, deadline, status, created_at
		FROM savings_goals
		WHERE id = ? AND user_id = ?`, id, userID)

	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// ListGoals returns the user's goals. Deleted goals are excluded unless
// includeDeleted is set.
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64, includeDeleted bool) ([]core.SavingsGoal, error) {
	query := `
		SELECT id, user_id, name, target_amount, deadline, status, created_at
		FROM savings_goals
		WHERE user_id = ?`
	if !includeDeleted {
		query += ` AND status != 'DELETED'`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoalStatus moves a goal between ACTIVE and COMPLETED. Deletion
// goes through MarkGoalDeleted, which guards against repeat transitions.
func (r *SQLiteRepository) UpdateGoalStatus(ctx context.Context, userID, id int64, status core.GoalStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals SET status = ? WHERE id = ? AND user_id = ?`,
		string(status), id, userID)
	if err != nil {
		return fmt.Errorf("update goal status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal status rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// MarkGoalDeleted transitions a goal to DELETED. The update matches only
// non-deleted rows, so concurrent deleters race for a single winning
// transition; the losers see ErrNotFound.
func (r *SQLiteRepository) MarkGoalDeleted(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals SET status = 'DELETED'
		WHERE id = ? AND user_id = ? AND status != 'DELETED'`, id, userID)
	if err != nil {
		return fmt.Errorf("mark goal deleted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark goal deleted rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanGoal(row rowScanner) (core.SavingsGoal, error) {
	var (
		g         core.SavingsGoal
		target    string
		deadline  string
		status    string
		createdAt string
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &target, &deadline, &status, &createdAt); err != nil {
		return core.SavingsGoal{}, err
	}

	g.Status = core.GoalStatus(status)

	var err error
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse target amount %q: %w", target, err)
	}
	if deadline != "" {
		if g.Deadline, err = core.ParseDate(deadline); err != nil {
			return core.SavingsGoal{}, fmt.Errorf("parse deadline %q: %w", deadline, err)
		}
	}
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		g.CreatedAt = t
	}
	return g, nil
}
