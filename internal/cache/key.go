package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Metric names for cached aggregate views. Invalidation operates on these
// names; every parameter variant of a metric shares its name.
const (
	MetricDashboardSummary   = "dashboard_summary"
	MetricMonthlyTrends      = "dashboard_trends"
	MetricCategoryBreakdown  = "dashboard_breakdown"
	MetricRecentTransactions = "recent_transactions"
	MetricPredictions        = "predictions"
	MetricBudgetSpent        = "budget_spent"
	MetricGoalProgress       = "goal_progress"
)

// Param is one query parameter that affected a cached computation.
type Param struct {
	Name  string
	Value string
}

// P builds a Param from any printable value.
func P(name string, value any) Param {
	return Param{Name: name, Value: fmt.Sprint(value)}
}

// Key identifies one cached computation: the owning user, the metric name
// and the complete parameter set of the query. Two queries that differ in
// any parameter produce different keys; a key that omits a parameter its
// result depends on is a correctness bug, so callers pass every parameter
// they received.
type Key struct {
	UserID int64
	Metric string
	Params []Param
}

// NewKey builds a cache key from the full parameter set of a query.
func NewKey(userID int64, metric string, params ...Param) Key {
	return Key{UserID: userID, Metric: metric, Params: params}
}

// Encode renders the key deterministically: parameters are sorted by name
// so construction order never produces distinct keys for the same query.
func (k Key) Encode() string {
	var b strings.Builder
	b.WriteString(metricPrefix(k.UserID, k.Metric))

	params := make([]Param, len(k.Params))
	copy(params, k.Params)
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })

	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// metricPrefix is shared by Encode and Invalidate so that invalidating a
// metric always covers all of its parameter variants.
func metricPrefix(userID int64, metric string) string {
	return fmt.Sprintf("%d|%s|", userID, metric)
}
