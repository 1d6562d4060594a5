// Package analytics computes aggregate views over the ledger: dashboard
// totals, category breakdowns, monthly trend series and per-category
// spending predictions. Every view is served through the cache manager,
// keyed by the full parameter set of the query.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/storage"
)

const (
	defaultTrendMonths = 6
	defaultRecentLimit = 10
)

// LedgerReader is the read-only ledger surface the engine consumes.
type LedgerReader interface {
	List(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)
}

// CategoryLister resolves category names for breakdowns and predictions.
type CategoryLister interface {
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
}

type Engine struct {
	ledger     LedgerReader
	categories CategoryLister
	cache      *cache.Manager

	// now is swappable in tests; aggregation windows are relative to it.
	now func() time.Time
}

func NewEngine(ledger LedgerReader, categories CategoryLister, cacheManager *cache.Manager) *Engine {
	return &Engine{
		ledger:     ledger,
		categories: categories,
		cache:      cacheManager,
		now:        time.Now,
	}
}

// Summary is the dashboard headline: totals over all active transactions.
type Summary struct {
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transactionCount"`
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	CategoryID       int64           `json:"categoryId"`
	CategoryName     string          `json:"categoryName"`
	Total            decimal.Decimal `json:"total"`
	Percentage       decimal.Decimal `json:"percentage"`
	TransactionCount int             `json:"transactionCount"`
}

// MonthlyTrend is one calendar month of a trend series.
type MonthlyTrend struct {
	Month      string          `json:"month"`
	Income     decimal.Decimal `json:"income"`
	Expenses   decimal.Decimal `json:"expenses"`
	NetSavings decimal.Decimal `json:"netSavings"`
}

// DashboardSummary sums all active transactions by type. Cached per user,
// version-gated.
func (e *Engine) DashboardSummary(ctx context.Context, userID int64) (Summary, error) {
	key := cache.NewKey(userID, cache.MetricDashboardSummary)
	return cache.Get(ctx, e.cache, key, func(ctx context.Context) (Summary, error) {
		txs, err := e.ledger.List(ctx, userID, storage.TransactionFilter{})
		if err != nil {
			return Summary{}, fmt.Errorf("dashboard summary: %w", err)
		}

		s := Summary{
			TotalIncome:   decimal.Zero,
			TotalExpenses: decimal.Zero,
		}
		for _, tx := range txs {
			switch tx.Type {
			case core.Income:
				s.TotalIncome = s.TotalIncome.Add(tx.Amount)
			case core.Expense:
				s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
			}
		}
		s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
		s.TransactionCount = len(txs)
		return s, nil
	})
}

// CategoryBreakdown groups the trailing months' expenses by category,
// descending by total. The months parameter is part of the cache key.
func (e *Engine) CategoryBreakdown(ctx context.Context, userID int64, months int) ([]CategoryTotal, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}

	key := cache.NewKey(userID, cache.MetricCategoryBreakdown, cache.P("months", months))
	return cache.Get(ctx, e.cache, key, func(ctx context.Context) ([]CategoryTotal, error) {
		from, to := e.trailingWindow(months)
		txs, err := e.ledger.List(ctx, userID, storage.TransactionFilter{
			Type: core.Expense,
			From: from,
			To:   to,
		})
		if err != nil {
			return nil, fmt.Errorf("category breakdown: %w", err)
		}

		totals := make(map[int64]decimal.Decimal)
		counts := make(map[int64]int)
		grandTotal := decimal.Zero
		for _, tx := range txs {
			if tx.CategoryID == 0 {
				continue
			}
			totals[tx.CategoryID] = totals[tx.CategoryID].Add(tx.Amount)
			counts[tx.CategoryID]++
			grandTotal = grandTotal.Add(tx.Amount)
		}

		names, err := e.categoryNames(ctx, userID)
		if err != nil {
			return nil, err
		}

		breakdown := make([]CategoryTotal, 0, len(totals))
		for id, total := range totals {
			breakdown = append(breakdown, CategoryTotal{
				CategoryID:       id,
				CategoryName:     names.lookup(id),
				Total:            total,
				Percentage:       core.Percent(total, grandTotal),
				TransactionCount: counts[id],
			})
		}
		sort.Slice(breakdown, func(i, j int) bool {
			if !breakdown[i].Total.Equal(breakdown[j].Total) {
				return breakdown[i].Total.GreaterThan(breakdown[j].Total)
			}
			return breakdown[i].CategoryID < breakdown[j].CategoryID
		})
		return breakdown, nil
	})
}

// MonthlyTrends returns one entry per calendar month in the trailing
// window, oldest first. The series always has exactly months entries.
func (e *Engine) MonthlyTrends(ctx context.Context, userID int64, months int) ([]MonthlyTrend, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}

	key := cache.NewKey(userID, cache.MetricMonthlyTrends, cache.P("months", months))
	return cache.Get(ctx, e.cache, key, func(ctx context.Context) ([]MonthlyTrend, error) {
		from, to := e.trailingWindow(months)
		txs, err := e.ledger.List(ctx, userID, storage.TransactionFilter{From: from, To: to})
		if err != nil {
			return nil, fmt.Errorf("monthly trends: %w", err)
		}

		type bucket struct{ income, expenses decimal.Decimal }
		buckets := make(map[string]*bucket, months)

		now := e.now().UTC()
		trends := make([]MonthlyTrend, 0, months)
		for i := months - 1; i >= 0; i-- {
			m := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
			label := m.Format("Jan 2006")
			buckets[m.Format("2006-01")] = &bucket{income: decimal.Zero, expenses: decimal.Zero}
			trends = append(trends, MonthlyTrend{Month: label})
		}

		for _, tx := range txs {
			b, ok := buckets[tx.Date.Format("2006-01")]
			if !ok {
				continue
			}
			switch tx.Type {
			case core.Income:
				b.income = b.income.Add(tx.Amount)
			case core.Expense:
				b.expenses = b.expenses.Add(tx.Amount)
			}
		}

		for i := range trends {
			m := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1 - i), 0)
			b := buckets[m.Format("2006-01")]
			trends[i].Income = b.income
			trends[i].Expenses = b.expenses
			trends[i].NetSavings = b.income.Sub(b.expenses)
		}
		return trends, nil
	})
}

// RecentTransactions returns the user's most recent active transactions.
// The limit is part of the cache key.
func (e *Engine) RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	key := cache.NewKey(userID, cache.MetricRecentTransactions, cache.P("limit", limit))
	return cache.Get(ctx, e.cache, key, func(ctx context.Context) ([]core.Transaction, error) {
		txs, err := e.ledger.List(ctx, userID, storage.TransactionFilter{Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("recent transactions: %w", err)
		}
		return txs, nil
	})
}

// trailingWindow returns [first day of (now - months + 1), today].
func (e *Engine) trailingWindow(months int) (core.Date, core.Date) {
	now := e.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	return core.Date{Time: first}, core.NewDate(now.Year(), int(now.Month()), now.Day())
}

type nameIndex map[int64]string

func (n nameIndex) lookup(id int64) string {
	if name, ok := n[id]; ok {
		return name
	}
	return fmt.Sprintf("Category %d", id)
}

func (e *Engine) categoryNames(ctx context.Context, userID int64) (nameIndex, error) {
	cats, err := e.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(nameIndex, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}
