package services

import (
	"context"
	"sync"

	"budgetwise/internal/core"
	"budgetwise/internal/storage"
)

// fakeStore backs the service tests: it implements the ledger's Store plus
// the budget, goal and category surfaces, with filter support for the
// fields the services actually use.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	txs        map[int64]core.Transaction
	budgets    map[int64]core.Budget
	goals      map[int64]core.SavingsGoal
	categories map[int64]core.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		txs:     make(map[int64]core.Transaction),
		budgets: make(map[int64]core.Budget),
		goals:   make(map[int64]core.SavingsGoal),
		categories: map[int64]core.Category{
			1: {ID: 1, Name: "Groceries", Type: core.Expense, IsSystem: true},
			2: {ID: 2, Name: "Rent", Type: core.Expense, IsSystem: true},
		},
	}
}

func (m *fakeStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *fakeStore) InsertTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = m.id()
	m.txs[tx.ID] = tx
	return tx.ID, nil
}

func (m *fakeStore) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (m *fakeStore) VoidTransaction(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.UserID != userID || tx.Void {
		return core.ErrNotFound
	}
	tx.Void = true
	m.txs[id] = tx
	return nil
}

func (m *fakeStore) ListTransactions(_ context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, tx := range m.txs {
		if tx.UserID != userID {
			continue
		}
		if tx.Void && !f.IncludeVoid {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.CategoryID != 0 && tx.CategoryID != f.CategoryID {
			continue
		}
		if f.Origin != "" && tx.Origin.Type != f.Origin {
			continue
		}
		if f.OriginRef != 0 && tx.Origin.RefID != f.OriginRef {
			continue
		}
		if !f.From.IsZero() && tx.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && f.To.Before(tx.Date) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (m *fakeStore) GetCategory(_ context.Context, userID, id int64) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || (!c.IsSystem && c.UserID != userID) {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (m *fakeStore) InsertCategory(_ context.Context, c core.Category) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *fakeStore) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Category
	for _, c := range m.categories {
		if c.IsSystem || c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *fakeStore) DeleteCategory(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.IsSystem || c.UserID != userID {
		return core.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *fakeStore) CountSystemCategories(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.categories {
		if c.IsSystem {
			n++
		}
	}
	return n, nil
}

func (m *fakeStore) CategoryInUse(_ context.Context, categoryID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.txs {
		if tx.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func (m *fakeStore) InsertBudget(_ context.Context, b core.Budget) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	m.budgets[b.ID] = b
	return b.ID, nil
}

func (m *fakeStore) GetBudget(_ context.Context, userID, id int64) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (m *fakeStore) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *fakeStore) CountOverlappingBudgets(_ context.Context, userID, categoryID int64, start, end core.Date) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.budgets {
		if b.UserID != userID || b.CategoryID != categoryID {
			continue
		}
		if !end.Before(b.StartDate) && !b.EndDate.Before(start) {
			n++
		}
	}
	return n, nil
}

func (m *fakeStore) DeleteBudget(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return core.ErrNotFound
	}
	delete(m.budgets, id)
	return nil
}

func (m *fakeStore) InsertGoal(_ context.Context, g core.SavingsGoal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = m.id()
	m.goals[g.ID] = g
	return g.ID, nil
}

func (m *fakeStore) GetGoal(_ context.Context, userID, id int64) (core.SavingsGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	return g, nil
}

func (m *fakeStore) ListGoals(_ context.Context, userID int64, includeDeleted bool) ([]core.SavingsGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.SavingsGoal
	for _, g := range m.goals {
		if g.UserID != userID {
			continue
		}
		if g.Status == core.GoalDeleted && !includeDeleted {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *fakeStore) MarkGoalDeleted(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID || g.Status == core.GoalDeleted {
		return core.ErrNotFound
	}
	g.Status = core.GoalDeleted
	m.goals[id] = g
	return nil
}

func (m *fakeStore) UpdateGoalStatus(_ context.Context, userID, id int64, status core.GoalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return core.ErrNotFound
	}
	g.Status = status
	m.goals[id] = g
	return nil
}
