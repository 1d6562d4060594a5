// Package storage is the SQLite persistence layer. It owns row <->
// domain mapping and nothing else: versioning, locking and caching live
// one layer up.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "any".
type TransactionFilter struct {
	Type        core.TransactionType
	CategoryID  int64
	From        core.Date
	To          core.Date
	Origin      core.OriginType
	OriginRef   int64
	IncludeVoid bool
	Limit       int
}

// InsertTransaction appends one row and returns the assigned id.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(user_id, type, amount, category_id, description, transaction_date, origin_type, origin_ref, void, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		tx.UserID, string(tx.Type), tx.Amount.String(), tx.CategoryID, tx.Description,
		tx.Date.String(), string(tx.Origin.Type), tx.Origin.RefID, createdAt.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetTransaction fetches a single transaction owned by the user.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, amount, category_id, description, transaction_date, origin_type, origin_ref, void, created_at
		FROM transactions
		WHERE id = ? AND user_id = ?`, id, userID)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// VoidTransaction soft-deletes a transaction. The row stays in place for
// the audit trail. Returns ErrNotFound when the id is unknown or already
// void.
func (r *SQLiteRepository) VoidTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET void = 1
		WHERE id = ? AND user_id = ? AND void = 0`, id, userID)
	if err != nil {
		return fmt.Errorf("void transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("void transaction rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListTransactions returns the user's transactions matching the filter,
// most recent first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	var (
		conds = []string{"user_id = ?"}
		args  = []any{userID}
	)

	if !f.IncludeVoid {
		conds = append(conds, "void = 0")
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.CategoryID != 0 {
		conds = append(conds, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		conds = append(conds, "transaction_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "transaction_date <= ?")
		args = append(args, f.To.String())
	}
	if f.Origin != "" {
		conds = append(conds, "origin_type = ?")
		args = append(args, string(f.Origin))
	}
	if f.OriginRef != 0 {
		conds = append(conds, "origin_ref = ?")
		args = append(args, f.OriginRef)
	}

	query := `
		SELECT id, user_id, type, amount, category_id, description, transaction_date, origin_type, origin_ref, void, created_at
		FROM transactions
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY transaction_date DESC, created_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CategoryInUse reports whether any transaction references the category.
func (r *SQLiteRepository) CategoryInUse(ctx context.Context, categoryID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM transactions WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("category in use: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx         core.Transaction
		typ        string
		amount     string
		date       string
		originType string
		void       int
		createdAt  string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &typ, &amount, &tx.CategoryID, &tx.Description,
		&date, &originType, &tx.Origin.RefID, &void, &createdAt); err != nil {
		return core.Transaction{}, err
	}

	tx.Type = core.TransactionType(typ)
	tx.Origin.Type = core.OriginType(originType)
	tx.Void = void != 0

	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if tx.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		tx.CreatedAt = t
	}
	return tx, nil
}
