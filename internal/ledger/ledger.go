// Package ledger is the single source of truth for monetary totals. Every
// balance, budget spent amount and goal progress in the system is a
// projection over the transactions it holds.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"budgetwise/internal/core"
	"budgetwise/internal/storage"
)

// Store is the persistence surface the ledger needs.
type Store interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	VoidTransaction(ctx context.Context, userID, id int64) error
	ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
}

// Ledger serializes mutations per user and maintains the per-user version
// counter that gates cache validity. Mutations for different users never
// contend; reads never take the mutation lock.
type Ledger struct {
	store Store

	mu    sync.Mutex // guards users
	users map[int64]*userState
}

type userState struct {
	mu      sync.Mutex // serializes this user's mutations
	version atomic.Uint64
}

func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		users: make(map[int64]*userState),
	}
}

func (l *Ledger) user(userID int64) *userState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.users[userID]
	if !ok {
		s = &userState{}
		l.users[userID] = s
	}
	return s
}

// Version returns the user's current ledger version. It advances on every
// mutation, and the advance is visible before the mutating call returns.
func (l *Ledger) Version(userID int64) uint64 {
	return l.user(userID).version.Load()
}

// Append validates and persists a transaction, bumps the user's version
// and returns the stored transaction with its assigned id.
func (l *Ledger) Append(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.CategoryID != 0 {
		if _, err := l.store.GetCategory(ctx, tx.UserID, tx.CategoryID); err != nil {
			return core.Transaction{}, fmt.Errorf("resolve category %d: %w", tx.CategoryID, err)
		}
	}

	u := l.user(tx.UserID)
	u.mu.Lock()
	defer u.mu.Unlock()

	id, err := l.store.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id
	version := u.version.Add(1)

	slog.DebugContext(ctx, "Ledger entry appended",
		"user_id", tx.UserID,
		"transaction_id", id,
		"type", tx.Type,
		"origin", tx.Origin.Type,
		"ledger_version", version)

	return tx, nil
}

// Retract voids a transaction without deleting it, preserving the audit
// trail, and bumps the user's version. Fails with ErrNotFound when the id
// is unknown or already void.
func (l *Ledger) Retract(ctx context.Context, userID, id int64) error {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := l.store.VoidTransaction(ctx, userID, id); err != nil {
		return err
	}
	version := u.version.Add(1)

	slog.DebugContext(ctx, "Ledger entry retracted",
		"user_id", userID,
		"transaction_id", id,
		"ledger_version", version)
	return nil
}

// List returns the user's active transactions matching the filter, most
// recent first.
func (l *Ledger) List(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	return l.store.ListTransactions(ctx, userID, f)
}

// Get returns a single transaction owned by the user.
func (l *Ledger) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return l.store.GetTransaction(ctx, userID, id)
}

// SumByFilter aggregates the amounts of the user's active transactions
// matching the filter. Results are never cached here; caching happens one
// layer up where the parameters are part of the key.
func (l *Ledger) SumByFilter(ctx context.Context, userID int64, f storage.TransactionFilter) (decimal.Decimal, error) {
	txs, err := l.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total, nil
}
