package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/ledger"
	"budgetwise/internal/storage"
)

// BudgetStore is the storage surface the budget service needs.
type BudgetStore interface {
	InsertBudget(ctx context.Context, b core.Budget) (int64, error)
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	CountOverlappingBudgets(ctx context.Context, userID, categoryID int64, start, end core.Date) (int, error)
	DeleteBudget(ctx context.Context, userID, id int64) error
	GetCategory(ctx context.Context, userID, id int64) (core.Category, error)
}

// BudgetView is a budget with its spending projection. Spent is computed
// from the ledger on every read; it is never stored.
type BudgetView struct {
	core.Budget
	Spent              decimal.Decimal `json:"spent"`
	Remaining          decimal.Decimal `json:"remaining"`
	ProgressPercentage decimal.Decimal `json:"progressPercentage"`
	AlertTriggered     bool            `json:"alertTriggered"`
}

type BudgetService struct {
	store  BudgetStore
	ledger *ledger.Ledger
	cache  *cache.Manager
}

func NewBudgetService(store BudgetStore, l *ledger.Ledger, c *cache.Manager) *BudgetService {
	return &BudgetService{store: store, ledger: l, cache: c}
}

// Create validates the budget and rejects one whose category already has a
// budget overlapping the requested window.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if _, err := s.store.GetCategory(ctx, b.UserID, b.CategoryID); err != nil {
		return core.Budget{}, err
	}

	overlapping, err := s.store.CountOverlappingBudgets(ctx, b.UserID, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("check overlap: %w", err)
	}
	if overlapping > 0 {
		return core.Budget{}, core.ErrBudgetOverlap
	}

	b.CreatedAt = time.Now().UTC()
	id, err := s.store.InsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	b.ID = id
	return b, nil
}

// Get returns one budget with its projection.
func (s *BudgetService) Get(ctx context.Context, userID, id int64) (BudgetView, error) {
	b, err := s.store.GetBudget(ctx, userID, id)
	if err != nil {
		return BudgetView{}, err
	}
	return s.project(ctx, b)
}

// List returns all of the user's budgets with projections.
func (s *BudgetService) List(ctx context.Context, userID int64) ([]BudgetView, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		view, err := s.project(ctx, b)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteBudget(ctx, userID, id)
}

// project computes the spent total for one budget: every active expense in
// the budget's category inside its date window, regardless of origin. The
// projection is cached per budget, gated by the ledger version like every
// other aggregate.
func (s *BudgetService) project(ctx context.Context, b core.Budget) (BudgetView, error) {
	key := cache.NewKey(b.UserID, cache.MetricBudgetSpent, cache.P("budget", b.ID))
	spent, err := cache.Get(ctx, s.cache, key, func(ctx context.Context) (decimal.Decimal, error) {
		return s.ledger.SumByFilter(ctx, b.UserID, storage.TransactionFilter{
			Type:       core.Expense,
			CategoryID: b.CategoryID,
			From:       b.StartDate,
			To:         b.EndDate,
		})
	})
	if err != nil {
		return BudgetView{}, fmt.Errorf("budget spent: %w", err)
	}

	progress := core.Percent(spent, b.Amount)
	return BudgetView{
		Budget:             b,
		Spent:              spent,
		Remaining:          b.Amount.Sub(spent),
		ProgressPercentage: progress,
		AlertTriggered:     b.AlertThreshold.IsPositive() && progress.GreaterThanOrEqual(b.AlertThreshold),
	}, nil
}
