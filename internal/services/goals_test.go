package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/ledger"
)

func newGoalFixture() (*fakeStore, *Coordinator, *GoalService) {
	store := newFakeStore()
	l := ledger.New(store)
	c := cache.NewManager(l)
	coord := NewCoordinator(l, c, store, nil, 3)
	svc := NewGoalService(store, l, c)
	svc.now = func() time.Time { return time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC) }
	return store, coord, svc
}

func TestCreateGoalDefaultsToActive(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newGoalFixture()

	g, err := svc.Create(ctx, core.SavingsGoal{
		UserID:       1,
		Name:         "Emergency Fund",
		TargetAmount: decimal.RequireFromString("3000"),
	})
	require.NoError(t, err)
	assert.NotZero(t, g.ID)
	assert.Equal(t, core.GoalActive, g.Status)
}

func TestCreateGoalValidation(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newGoalFixture()

	_, err := svc.Create(ctx, core.SavingsGoal{UserID: 1, Name: "  ", TargetAmount: decimal.RequireFromString("10")})
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	_, err = svc.Create(ctx, core.SavingsGoal{UserID: 1, Name: "Bad", TargetAmount: decimal.Zero})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestGoalProjection(t *testing.T) {
	ctx := context.Background()
	_, coord, svc := newGoalFixture()

	g, err := svc.Create(ctx, core.SavingsGoal{
		UserID:       1,
		Name:         "Vacation",
		TargetAmount: decimal.RequireFromString("2000"),
		Deadline:     core.NewDate(2026, 12, 15),
	})
	require.NoError(t, err)

	_, err = coord.ContributeToGoal(ctx, 1, g.ID, decimal.RequireFromString("500"), "", core.NewDate(2026, 8, 1))
	require.NoError(t, err)

	view, err := svc.Get(ctx, 1, g.ID)
	require.NoError(t, err)

	assert.True(t, view.CurrentAmount.Equal(decimal.RequireFromString("500")))
	assert.True(t, view.ProgressPercentage.Equal(decimal.RequireFromString("25.00")))
	// 1500 remaining over the 4 months to mid-December.
	assert.True(t, view.RequiredMonthlySavings.Equal(decimal.RequireFromString("375.00")),
		"required = %s", view.RequiredMonthlySavings)
}

func TestGoalProjectionWithoutDeadline(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newGoalFixture()

	g, err := svc.Create(ctx, core.SavingsGoal{
		UserID:       1,
		Name:         "Someday",
		TargetAmount: decimal.RequireFromString("100"),
	})
	require.NoError(t, err)

	view, err := svc.Get(ctx, 1, g.ID)
	require.NoError(t, err)
	assert.True(t, view.RequiredMonthlySavings.IsZero())
}

func TestListGoalsExcludesDeleted(t *testing.T) {
	ctx := context.Background()
	_, coord, svc := newGoalFixture()

	kept, err := svc.Create(ctx, core.SavingsGoal{UserID: 1, Name: "Kept", TargetAmount: decimal.RequireFromString("100")})
	require.NoError(t, err)
	doomed, err := svc.Create(ctx, core.SavingsGoal{UserID: 1, Name: "Doomed", TargetAmount: decimal.RequireFromString("100")})
	require.NoError(t, err)

	require.NoError(t, coord.DeleteGoal(ctx, 1, doomed.ID))

	views, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, kept.ID, views[0].ID)

	_, err = svc.Get(ctx, 1, doomed.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
