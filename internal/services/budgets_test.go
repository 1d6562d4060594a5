package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/ledger"
)

func newBudgetFixture() (*fakeStore, *ledger.Ledger, *BudgetService) {
	store := newFakeStore()
	l := ledger.New(store)
	c := cache.NewManager(l)
	return store, l, NewBudgetService(store, l, c)
}

func augustBudget(amount string) core.Budget {
	return core.Budget{
		UserID:         1,
		CategoryID:     1,
		Amount:         decimal.RequireFromString(amount),
		Period:         core.PeriodMonthly,
		StartDate:      core.NewDate(2026, 8, 1),
		EndDate:        core.NewDate(2026, 8, 31),
		AlertThreshold: decimal.RequireFromString("80"),
	}
}

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newBudgetFixture()

	b, err := svc.Create(ctx, augustBudget("400"))
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
}

func TestCreateBudgetRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newBudgetFixture()

	_, err := svc.Create(ctx, augustBudget("400"))
	require.NoError(t, err)

	// Same category, window touching the existing one.
	overlapping := augustBudget("200")
	overlapping.StartDate = core.NewDate(2026, 8, 20)
	overlapping.EndDate = core.NewDate(2026, 9, 20)
	_, err = svc.Create(ctx, overlapping)
	assert.ErrorIs(t, err, core.ErrBudgetOverlap)

	// A different category may overlap freely.
	other := augustBudget("200")
	other.CategoryID = 2
	_, err = svc.Create(ctx, other)
	assert.NoError(t, err)
}

func TestCreateBudgetUnknownCategory(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newBudgetFixture()

	b := augustBudget("400")
	b.CategoryID = 99
	_, err := svc.Create(ctx, b)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBudgetProjection(t *testing.T) {
	ctx := context.Background()
	_, l, svc := newBudgetFixture()

	b, err := svc.Create(ctx, augustBudget("400"))
	require.NoError(t, err)

	spend := func(amount string, date core.Date, origin core.Origin) {
		t.Helper()
		_, err := l.Append(ctx, core.Transaction{
			UserID:      1,
			Type:        core.Expense,
			Amount:      decimal.RequireFromString(amount),
			CategoryID:  1,
			Description: "groceries run",
			Date:        date,
			Origin:      origin,
		})
		require.NoError(t, err)
	}

	spend("100", core.NewDate(2026, 8, 5), core.ManualOrigin())
	spend("250", core.NewDate(2026, 8, 12), core.BudgetContribution(b.ID))
	// Outside the window: must not count.
	spend("999", core.NewDate(2026, 7, 5), core.ManualOrigin())

	view, err := svc.Get(ctx, 1, b.ID)
	require.NoError(t, err)

	assert.True(t, view.Spent.Equal(decimal.RequireFromString("350")), "spent = %s", view.Spent)
	assert.True(t, view.Remaining.Equal(decimal.RequireFromString("50")))
	assert.True(t, view.ProgressPercentage.Equal(decimal.RequireFromString("87.50")))
	assert.True(t, view.AlertTriggered)
}

func TestBudgetProjectionRecomputesAfterWrite(t *testing.T) {
	ctx := context.Background()
	_, l, svc := newBudgetFixture()

	b, err := svc.Create(ctx, augustBudget("400"))
	require.NoError(t, err)

	view, err := svc.Get(ctx, 1, b.ID)
	require.NoError(t, err)
	require.True(t, view.Spent.IsZero())

	_, err = l.Append(ctx, core.Transaction{
		UserID:      1,
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("40"),
		CategoryID:  1,
		Description: "groceries run",
		Date:        core.NewDate(2026, 8, 10),
		Origin:      core.ManualOrigin(),
	})
	require.NoError(t, err)

	// The version bump alone makes the cached projection stale.
	view, err = svc.Get(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.True(t, view.Spent.Equal(decimal.RequireFromString("40")))
}
