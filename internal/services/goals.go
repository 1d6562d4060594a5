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

// GoalStore is the storage surface the goal service needs.
type GoalStore interface {
	InsertGoal(ctx context.Context, g core.SavingsGoal) (int64, error)
	GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error)
	ListGoals(ctx context.Context, userID int64, includeDeleted bool) ([]core.SavingsGoal, error)
}

// GoalView is a savings goal with its projections. CurrentAmount is
// contributions minus refunds, computed from the ledger on every read.
type GoalView struct {
	core.SavingsGoal
	CurrentAmount          decimal.Decimal `json:"currentAmount"`
	ProgressPercentage     decimal.Decimal `json:"progressPercentage"`
	RequiredMonthlySavings decimal.Decimal `json:"requiredMonthlySavings"`
}

type GoalService struct {
	store  GoalStore
	ledger *ledger.Ledger
	cache  *cache.Manager

	now func() time.Time
}

func NewGoalService(store GoalStore, l *ledger.Ledger, c *cache.Manager) *GoalService {
	return &GoalService{store: store, ledger: l, cache: c, now: time.Now}
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	g.Status = core.GoalActive
	g.CreatedAt = time.Now().UTC()

	id, err := s.store.InsertGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert goal: %w", err)
	}
	g.ID = id
	return g, nil
}

func (s *GoalService) Get(ctx context.Context, userID, id int64) (GoalView, error) {
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalView{}, err
	}
	if g.Status == core.GoalDeleted {
		return GoalView{}, core.ErrNotFound
	}
	return s.project(ctx, g)
}

// List returns the user's non-deleted goals with projections.
func (s *GoalService) List(ctx context.Context, userID int64) ([]GoalView, error) {
	goals, err := s.store.ListGoals(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		view, err := s.project(ctx, g)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// project derives the goal's saved amount from its tagged ledger entries.
// The projection is cached per goal, gated by the ledger version.
func (s *GoalService) project(ctx context.Context, g core.SavingsGoal) (GoalView, error) {
	key := cache.NewKey(g.UserID, cache.MetricGoalProgress, cache.P("goal", g.ID))
	current, err := cache.Get(ctx, s.cache, key, func(ctx context.Context) (decimal.Decimal, error) {
		contributed, err := s.ledger.SumByFilter(ctx, g.UserID, storage.TransactionFilter{
			Origin:    core.OriginGoalContribution,
			OriginRef: g.ID,
		})
		if err != nil {
			return decimal.Zero, err
		}
		refunded, err := s.ledger.SumByFilter(ctx, g.UserID, storage.TransactionFilter{
			Origin:    core.OriginGoalRefund,
			OriginRef: g.ID,
		})
		if err != nil {
			return decimal.Zero, err
		}
		return contributed.Sub(refunded), nil
	})
	if err != nil {
		return GoalView{}, fmt.Errorf("goal progress: %w", err)
	}

	return GoalView{
		SavingsGoal:            g,
		CurrentAmount:          current,
		ProgressPercentage:     core.Percent(current, g.TargetAmount),
		RequiredMonthlySavings: s.requiredMonthly(g, current),
	}, nil
}

// requiredMonthly spreads the remaining amount over the months left until
// the deadline. Zero without a deadline, with a past deadline, or once the
// target is reached.
func (s *GoalService) requiredMonthly(g core.SavingsGoal, current decimal.Decimal) decimal.Decimal {
	if g.Deadline.IsZero() {
		return decimal.Zero
	}
	remaining := g.TargetAmount.Sub(current)
	if !remaining.IsPositive() {
		return decimal.Zero
	}

	now := s.now().UTC()
	months := (g.Deadline.Year()-now.Year())*12 + int(g.Deadline.Month()) - int(now.Month())
	if months < 1 {
		months = 1
	}
	if g.Deadline.Time.Before(now) {
		return decimal.Zero
	}
	return remaining.Div(decimal.NewFromInt(int64(months))).Round(2)
}
