package analytics

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/storage"
)

// memLedger is an in-memory LedgerReader honoring the filter fields the
// engine uses: type, date window and limit.
type memLedger struct {
	mu    sync.Mutex
	txs   []core.Transaction
	calls atomic.Int32
}

func (m *memLedger) add(tx core.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = int64(len(m.txs) + 1)
	m.txs = append(m.txs, tx)
}

func (m *memLedger) List(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Transaction
	for _, tx := range m.txs {
		if tx.UserID != userID || tx.Void {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && tx.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && tx.Date.After(f.To.Time) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type memCategories struct {
	names map[int64]string
}

func (m *memCategories) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	var cats []core.Category
	for id, name := range m.names {
		cats = append(cats, core.Category{ID: id, UserID: userID, Name: name})
	}
	return cats, nil
}

type stubVersions struct {
	v atomic.Uint64
}

func (s *stubVersions) Version(userID int64) uint64 { return s.v.Load() }

type fixture struct {
	engine   *Engine
	ledger   *memLedger
	versions *stubVersions
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	ledger := &memLedger{}
	versions := &stubVersions{}
	engine := NewEngine(ledger, &memCategories{names: map[int64]string{
		1: "Groceries",
		2: "Transport",
		3: "Rent",
	}}, cache.NewManager(versions))
	engine.now = func() time.Time { return now }
	return &fixture{engine: engine, ledger: ledger, versions: versions}
}

func expense(userID, categoryID int64, amount string, date core.Date) core.Transaction {
	return core.Transaction{
		UserID:      userID,
		Type:        core.Expense,
		Amount:      decimal.RequireFromString(amount),
		CategoryID:  categoryID,
		Description: "test expense",
		Date:        date,
		Origin:      core.ManualOrigin(),
	}
}

func income(userID int64, amount string, date core.Date) core.Transaction {
	return core.Transaction{
		UserID:      userID,
		Type:        core.Income,
		Amount:      decimal.RequireFromString(amount),
		Description: "test income",
		Date:        date,
		Origin:      core.ManualOrigin(),
	}
}

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

	f.ledger.add(income(1, "2500.00", core.NewDate(2026, 8, 1)))
	f.ledger.add(expense(1, 1, "120.50", core.NewDate(2026, 8, 3)))
	f.ledger.add(expense(1, 2, "79.50", core.NewDate(2026, 8, 5)))
	f.ledger.add(expense(2, 1, "999.00", core.NewDate(2026, 8, 5)))

	s, err := f.engine.DashboardSummary(ctx, 1)
	require.NoError(t, err)

	assert.True(t, s.TotalIncome.Equal(decimal.RequireFromString("2500.00")))
	assert.True(t, s.TotalExpenses.Equal(decimal.RequireFromString("200.00")))
	assert.True(t, s.Balance.Equal(decimal.RequireFromString("2300.00")))
	assert.Equal(t, 3, s.TransactionCount)
}

func TestDashboardSummaryServedFromCacheUntilVersionBump(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))
	f.ledger.add(income(1, "100", core.NewDate(2026, 8, 1)))

	_, err := f.engine.DashboardSummary(ctx, 1)
	require.NoError(t, err)
	_, err = f.engine.DashboardSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.ledger.calls.Load())

	f.versions.v.Add(1)
	_, err = f.engine.DashboardSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.ledger.calls.Load())
}

func TestCategoryBreakdownWindowDependsOnMonths(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

	// Inside both windows.
	f.ledger.add(expense(1, 1, "50.00", core.NewDate(2026, 7, 10)))
	// Five months back: inside the 6-month window, outside the 3-month one.
	f.ledger.add(expense(1, 2, "200.00", core.NewDate(2026, 3, 10)))

	three, err := f.engine.CategoryBreakdown(ctx, 1, 3)
	require.NoError(t, err)
	six, err := f.engine.CategoryBreakdown(ctx, 1, 6)
	require.NoError(t, err)

	assert.Len(t, three, 1)
	assert.Len(t, six, 2, "different months parameters must not share a cache entry")
}

func TestCategoryBreakdownSortedWithPercentages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

	f.ledger.add(expense(1, 1, "25.00", core.NewDate(2026, 8, 1)))
	f.ledger.add(expense(1, 1, "25.00", core.NewDate(2026, 8, 2)))
	f.ledger.add(expense(1, 3, "150.00", core.NewDate(2026, 8, 3)))
	// Income never shows up in an expense breakdown.
	f.ledger.add(income(1, "1000.00", core.NewDate(2026, 8, 1)))

	rows, err := f.engine.CategoryBreakdown(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Rent", rows[0].CategoryName)
	assert.True(t, rows[0].Total.Equal(decimal.RequireFromString("150.00")))
	assert.True(t, rows[0].Percentage.Equal(decimal.RequireFromString("75.00")))
	assert.Equal(t, 1, rows[0].TransactionCount)

	assert.Equal(t, "Groceries", rows[1].CategoryName)
	assert.True(t, rows[1].Percentage.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, 2, rows[1].TransactionCount)
}

func TestMonthlyTrendsHasExactlyRequestedMonths(t *testing.T) {
	ctx := context.Background()

	for _, months := range []int{1, 3, 6, 12} {
		f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))
		f.ledger.add(income(1, "1000.00", core.NewDate(2026, 8, 1)))
		f.ledger.add(expense(1, 1, "400.00", core.NewDate(2026, 8, 2)))
		f.ledger.add(expense(1, 1, "100.00", core.NewDate(2026, 6, 2)))

		trends, err := f.engine.MonthlyTrends(ctx, 1, months)
		require.NoError(t, err)
		require.Len(t, trends, months, "months=%d", months)

		last := trends[months-1]
		assert.Equal(t, "Aug 2026", last.Month)
		assert.True(t, last.NetSavings.Equal(decimal.RequireFromString("600.00")))

		if months < 3 {
			continue
		}
		assert.Equal(t, "Jun 2026", trends[months-3].Month)
		assert.True(t, trends[months-3].NetSavings.Equal(decimal.RequireFromString("-100.00")))

		// Months without activity still appear, zeroed.
		assert.True(t, trends[months-2].Income.IsZero())
		assert.True(t, trends[months-2].Expenses.IsZero())
	}
}

func TestRecentTransactionsLimitIsPartOfTheKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

	for day := 1; day <= 8; day++ {
		f.ledger.add(expense(1, 1, "10.00", core.NewDate(2026, 8, day)))
	}

	five, err := f.engine.RecentTransactions(ctx, 1, 5)
	require.NoError(t, err)
	all, err := f.engine.RecentTransactions(ctx, 1, 20)
	require.NoError(t, err)

	assert.Len(t, five, 5)
	assert.Len(t, all, 8)
	assert.Equal(t, core.NewDate(2026, 8, 8), five[0].Date, "most recent first")
}

func TestPredictionsTrendAndOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

	// Groceries ramp up sharply over six months.
	amounts := []string{"100", "100", "100", "200", "300", "400"}
	for i, a := range amounts {
		f.ledger.add(expense(1, 1, a, core.NewDate(2026, 3+i, 5)))
	}
	// Rent is flat.
	for i := 0; i < 6; i++ {
		f.ledger.add(expense(1, 3, "800", core.NewDate(2026, 3+i, 1)))
	}

	preds, err := f.engine.Predictions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, preds, 3)

	total := preds[0]
	assert.Equal(t, TotalPredictionName, total.CategoryName)

	rent := preds[1]
	assert.Equal(t, "Rent", rent.CategoryName)
	assert.Equal(t, TrendStable, rent.Trend)
	assert.True(t, rent.PredictedAmount.Equal(decimal.RequireFromString("800.00")))
	assert.True(t, rent.HistoricalAverage.Equal(decimal.RequireFromString("800.00")))

	groceries := preds[2]
	assert.Equal(t, "Groceries", groceries.CategoryName)
	assert.Equal(t, TrendRising, groceries.Trend)
	assert.True(t, groceries.PredictedAmount.GreaterThan(groceries.HistoricalAverage))
}

func TestPredictionsConfidenceBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

	// One flat month: low coverage, perfect stability.
	f.ledger.add(expense(1, 1, "100", core.NewDate(2026, 8, 1)))
	sparse, err := f.engine.Predictions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sparse, 2)
	assert.Greater(t, sparse[1].Confidence, 0.0)
	assert.LessOrEqual(t, sparse[1].Confidence, 100.0)

	// Full flat history must score higher than a single observation.
	full := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 6; i++ {
		full.ledger.add(expense(1, 1, "100", core.NewDate(2026, 3+i, 1)))
	}
	steady, err := full.engine.Predictions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, steady, 2)
	assert.Greater(t, steady[1].Confidence, sparse[1].Confidence)
	assert.Equal(t, 100.0, steady[1].Confidence)
}

func TestPredictionsEmptyHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC))

	preds, err := f.engine.Predictions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, preds)
}
