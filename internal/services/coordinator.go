// Package services orchestrates multi-step operations across the ledger,
// the cache and storage: contributions, refunds, projections and seeding.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/ledger"
	"budgetwise/internal/storage"
)

// Descriptions of generated transactions. Clients group by these, so the
// wording is part of the contract.
const (
	budgetContributionDescription = "Budget Contribution"
	goalContributionPrefix        = "Savings Goal Contribution: "
	goalWithdrawalPrefix          = "Withdrawal from Savings Goal: "
	goalRefundFormat              = "Savings Goal Deleted: %s (Returned)"
)

// writeMetrics is every cached metric a ledger write can stale.
var writeMetrics = []string{
	cache.MetricDashboardSummary,
	cache.MetricMonthlyTrends,
	cache.MetricCategoryBreakdown,
	cache.MetricRecentTransactions,
	cache.MetricPredictions,
	cache.MetricBudgetSpent,
	cache.MetricGoalProgress,
}

// EventPublisher mirrors ledger mutations to the message broker. A nil
// publisher disables mirroring; the write path never fails on it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, txID, userID int64, version uint64, retracted bool) error
}

// Invalidator is the cache surface the coordinator drives after writes.
type Invalidator interface {
	Invalidate(ctx context.Context, userID int64, metrics ...string) error
}

// CoordinatorStore is the budget/goal storage the coordinator reads and
// updates around ledger writes.
type CoordinatorStore interface {
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
	GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error)
	UpdateGoalStatus(ctx context.Context, userID, id int64, status core.GoalStatus) error
	// MarkGoalDeleted transitions the goal to DELETED and fails with
	// ErrNotFound when it already is, so concurrent deleters resolve to a
	// single winner.
	MarkGoalDeleted(ctx context.Context, userID, id int64) error
}

// Coordinator runs every ledger mutation: direct transactions, budget and
// goal contributions, and goal deletion refunds. Each mutation follows the
// same sequence: write the ledger, invalidate the user's cached metrics,
// then publish the event. Invalidation failure after a successful write is
// a consistency failure and is reported as one.
type Coordinator struct {
	ledger    *ledger.Ledger
	cache     Invalidator
	store     CoordinatorStore
	publisher EventPublisher
	retries   int
}

func NewCoordinator(l *ledger.Ledger, c Invalidator, store CoordinatorStore, publisher EventPublisher, retries int) *Coordinator {
	if retries < 0 {
		retries = 0
	}
	return &Coordinator{
		ledger:    l,
		cache:     c,
		store:     store,
		publisher: publisher,
		retries:   retries,
	}
}

// CreateTransaction appends a manual transaction.
func (c *Coordinator) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Origin = core.ManualOrigin()
	return c.append(ctx, tx)
}

// RetractTransaction voids a transaction. The entry stays in the store but
// disappears from every aggregate.
func (c *Coordinator) RetractTransaction(ctx context.Context, userID, id int64) error {
	if err := c.ledger.Retract(ctx, userID, id); err != nil {
		return err
	}
	if err := c.invalidate(ctx, userID); err != nil {
		return err
	}
	c.publish(ctx, id, userID, true)
	return nil
}

// ContributeToBudget records spending against a budget as an expense in
// the budget's category, tagged with the budget's identity. A blank
// description falls back to the contract wording.
func (c *Coordinator) ContributeToBudget(ctx context.Context, userID, budgetID int64, amount decimal.Decimal, description string, date core.Date) (core.Transaction, error) {
	budget, err := c.store.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return core.Transaction{}, err
	}

	if strings.TrimSpace(description) == "" {
		description = budgetContributionDescription
	}
	tx := core.Transaction{
		UserID:      userID,
		Type:        core.Expense,
		Amount:      amount,
		CategoryID:  budget.CategoryID,
		Description: description,
		Date:        date,
		Origin:      core.BudgetContribution(budget.ID),
	}
	return c.append(ctx, tx)
}

// ContributeToGoal moves money into a savings goal. The expense is
// uncategorized so goal savings never pollute category analytics. Reaching
// the target flips the goal to COMPLETED.
func (c *Coordinator) ContributeToGoal(ctx context.Context, userID, goalID int64, amount decimal.Decimal, description string, date core.Date) (core.Transaction, error) {
	goal, err := c.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.Transaction{}, err
	}
	if goal.Status != core.GoalActive {
		return core.Transaction{}, core.ErrGoalInactive
	}

	if strings.TrimSpace(description) == "" {
		description = goalContributionPrefix + goal.Name
	}
	tx := core.Transaction{
		UserID:      userID,
		Type:        core.Expense,
		Amount:      amount,
		Description: description,
		Date:        date,
		Origin:      core.GoalContribution(goal.ID),
	}
	appended, err := c.append(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := c.netContributed(ctx, userID, goal.ID)
	if err != nil {
		return appended, fmt.Errorf("check goal completion: %w", err)
	}
	if saved.GreaterThanOrEqual(goal.TargetAmount) {
		if err := c.store.UpdateGoalStatus(ctx, userID, goal.ID, core.GoalCompleted); err != nil {
			return appended, fmt.Errorf("complete goal: %w", err)
		}
		slog.InfoContext(ctx, "Savings goal completed",
			"user_id", userID, "goal_id", goal.ID, "saved", saved)
	}
	return appended, nil
}

// WithdrawFromGoal takes part of a goal's saved money back out as income.
// The withdrawal is capped by the goal's current amount, and a COMPLETED
// goal dropping back under its target becomes ACTIVE again.
func (c *Coordinator) WithdrawFromGoal(ctx context.Context, userID, goalID int64, amount decimal.Decimal, date core.Date) (core.Transaction, error) {
	goal, err := c.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.Transaction{}, err
	}
	if goal.Status == core.GoalDeleted {
		return core.Transaction{}, core.ErrNotFound
	}

	saved, err := c.netContributed(ctx, userID, goal.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("net contributed: %w", err)
	}
	if saved.LessThan(amount) {
		return core.Transaction{}, core.ErrInsufficientGoal
	}

	tx := core.Transaction{
		UserID:      userID,
		Type:        core.Income,
		Amount:      amount,
		Description: goalWithdrawalPrefix + goal.Name,
		Date:        date,
		Origin:      core.GoalRefund(goal.ID),
	}
	appended, err := c.append(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	if goal.Status == core.GoalCompleted && saved.Sub(amount).LessThan(goal.TargetAmount) {
		if err := c.store.UpdateGoalStatus(ctx, userID, goal.ID, core.GoalActive); err != nil {
			return appended, fmt.Errorf("reactivate goal: %w", err)
		}
		slog.InfoContext(ctx, "Savings goal reverted to active",
			"user_id", userID, "goal_id", goal.ID)
	}
	return appended, nil
}

// DeleteGoal marks a goal DELETED and returns its net contributed amount
// to the user's balance as a single income entry. A goal with nothing
// contributed produces no refund.
func (c *Coordinator) DeleteGoal(ctx context.Context, userID, goalID int64) error {
	goal, err := c.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return err
	}
	if goal.Status == core.GoalDeleted {
		return core.ErrNotFound
	}

	// Win the DELETED transition before touching the ledger. The store
	// update matches only non-deleted rows, so of any concurrent deleters
	// exactly one gets past this point and appends the refund.
	if err := c.store.MarkGoalDeleted(ctx, userID, goal.ID); err != nil {
		return err
	}

	net, err := c.netContributed(ctx, userID, goal.ID)
	if err != nil {
		return fmt.Errorf("net contributed: %w", err)
	}
	if net.IsPositive() {
		refund := core.Transaction{
			UserID:      userID,
			Type:        core.Income,
			Amount:      net,
			Description: fmt.Sprintf(goalRefundFormat, goal.Name),
			Date:        core.Today(),
			Origin:      core.GoalRefund(goal.ID),
		}
		if _, err := c.append(ctx, refund); err != nil {
			return fmt.Errorf("refund goal: %w", err)
		}
		return nil
	}
	return c.invalidate(ctx, userID)
}

// netContributed is contributions minus refunds for one goal.
func (c *Coordinator) netContributed(ctx context.Context, userID, goalID int64) (decimal.Decimal, error) {
	contributed, err := c.ledger.SumByFilter(ctx, userID, storage.TransactionFilter{
		Origin:    core.OriginGoalContribution,
		OriginRef: goalID,
	})
	if err != nil {
		return decimal.Zero, err
	}
	refunded, err := c.ledger.SumByFilter(ctx, userID, storage.TransactionFilter{
		Origin:    core.OriginGoalRefund,
		OriginRef: goalID,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return contributed.Sub(refunded), nil
}

// append is the shared write path: ledger append, then invalidation, then
// a best-effort event publish.
func (c *Coordinator) append(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	appended, err := c.ledger.Append(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := c.invalidate(ctx, appended.UserID); err != nil {
		return appended, err
	}
	c.publish(ctx, appended.ID, appended.UserID, false)
	return appended, nil
}

// invalidate drops the user's cached metrics, retrying before declaring a
// consistency failure. The ledger write has already happened at this
// point, so giving up means readers could see stale aggregates.
func (c *Coordinator) invalidate(ctx context.Context, userID int64) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err = c.cache.Invalidate(ctx, userID, writeMetrics...); err == nil {
			return nil
		}
		slog.WarnContext(ctx, "Cache invalidation failed",
			"user_id", userID, "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("%w: invalidate after write: %v", core.ErrConsistency, err)
}

func (c *Coordinator) publish(ctx context.Context, txID, userID int64, retracted bool) {
	if c.publisher == nil {
		return
	}
	version := c.ledger.Version(userID)
	if err := c.publisher.PublishLedgerEvent(ctx, txID, userID, version, retracted); err != nil {
		// The write already succeeded; the mirror catches up later.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"transaction_id", txID, "user_id", userID, "error", err)
	}
}
