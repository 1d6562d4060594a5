package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/storage"
)

// Trend direction of a category's recent spending relative to its history.
const (
	TrendRising  = "RISING"
	TrendFalling = "FALLING"
	TrendStable  = "STABLE"
)

const (
	predictionLookbackMonths = 6

	// Recent-vs-history ratio beyond which spending counts as moving.
	trendThreshold = 0.10

	// Adjustment applied to the historical average when a trend is detected.
	trendAdjustment = 0.05
)

// TotalPredictionName labels the aggregate row prepended to the
// per-category predictions.
const TotalPredictionName = "Total Monthly Expenses"

// Prediction estimates next month's spending for one category.
type Prediction struct {
	CategoryID        int64           `json:"categoryId"`
	CategoryName      string          `json:"categoryName"`
	PredictedAmount   decimal.Decimal `json:"predictedAmount"`
	HistoricalAverage decimal.Decimal `json:"historicalAverage"`
	Trend             string          `json:"trend"`
	Confidence        float64         `json:"confidence"`
}

// Predictions estimates next month's expenses per category from the last
// six months of spending. The first row is the aggregate across all
// categories; the rest are sorted by predicted amount, descending.
func (e *Engine) Predictions(ctx context.Context, userID int64) ([]Prediction, error) {
	key := cache.NewKey(userID, cache.MetricPredictions)
	return cache.Get(ctx, e.cache, key, func(ctx context.Context) ([]Prediction, error) {
		from, to := e.trailingWindow(predictionLookbackMonths)
		txs, err := e.ledger.List(ctx, userID, storage.TransactionFilter{
			Type: core.Expense,
			From: from,
			To:   to,
		})
		if err != nil {
			return nil, fmt.Errorf("predictions: %w", err)
		}

		// Chronological monthly totals per category. Months with no
		// spending in a category are absent, not zero: a category used in
		// two of six months is predicted from those two observations.
		perCategory := make(map[int64]map[string]decimal.Decimal)
		perMonth := make(map[string]decimal.Decimal)
		for _, tx := range txs {
			month := tx.Date.Format("2006-01")
			byMonth, ok := perCategory[tx.CategoryID]
			if !ok {
				byMonth = make(map[string]decimal.Decimal)
				perCategory[tx.CategoryID] = byMonth
			}
			byMonth[month] = byMonth[month].Add(tx.Amount)
			perMonth[month] = perMonth[month].Add(tx.Amount)
		}
		if len(perMonth) == 0 {
			return []Prediction{}, nil
		}

		names, err := e.categoryNames(ctx, userID)
		if err != nil {
			return nil, err
		}

		predictions := make([]Prediction, 0, len(perCategory)+1)
		for id, byMonth := range perCategory {
			p := predictFromSeries(monthlySeries(byMonth))
			p.CategoryID = id
			if id == 0 {
				p.CategoryName = "Uncategorized"
			} else {
				p.CategoryName = names.lookup(id)
			}
			predictions = append(predictions, p)
		}
		sort.Slice(predictions, func(i, j int) bool {
			if !predictions[i].PredictedAmount.Equal(predictions[j].PredictedAmount) {
				return predictions[i].PredictedAmount.GreaterThan(predictions[j].PredictedAmount)
			}
			return predictions[i].CategoryID < predictions[j].CategoryID
		})

		total := predictFromSeries(monthlySeries(perMonth))
		total.CategoryName = TotalPredictionName
		return append([]Prediction{total}, predictions...), nil
	})
}

// monthlySeries flattens a month->total map into chronological order.
func monthlySeries(byMonth map[string]decimal.Decimal) []decimal.Decimal {
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	series := make([]decimal.Decimal, len(months))
	for i, m := range months {
		series[i] = byMonth[m]
	}
	return series
}

// predictFromSeries turns a chronological series of monthly totals into a
// prediction. The trend compares the recent half of the series against the
// whole; confidence grows with the number of observed months and shrinks
// with their variance.
func predictFromSeries(series []decimal.Decimal) Prediction {
	sum := decimal.Zero
	for _, v := range series {
		sum = sum.Add(v)
	}
	n := len(series)
	avg := sum.Div(decimal.NewFromInt(int64(n)))

	recent := series[n-(n+1)/2:]
	recentSum := decimal.Zero
	for _, v := range recent {
		recentSum = recentSum.Add(v)
	}
	recentAvg := recentSum.Div(decimal.NewFromInt(int64(len(recent))))

	trend := TrendStable
	predicted := avg
	threshold := decimal.NewFromFloat(trendThreshold)
	if avg.IsPositive() {
		ratio := recentAvg.Sub(avg).Div(avg)
		switch {
		case ratio.GreaterThan(threshold):
			trend = TrendRising
			predicted = avg.Mul(decimal.NewFromFloat(1 + trendAdjustment))
		case ratio.LessThan(threshold.Neg()):
			trend = TrendFalling
			predicted = avg.Mul(decimal.NewFromFloat(1 - trendAdjustment))
		}
	}

	return Prediction{
		PredictedAmount:   predicted.Round(2),
		HistoricalAverage: avg.Round(2),
		Trend:             trend,
		Confidence:        confidence(series, avg),
	}
}

// confidence scores a prediction between 0 and 100. Half of the score is
// coverage of the lookback window, half is stability: the latter decays
// with the coefficient of variation of the monthly totals.
func confidence(series []decimal.Decimal, avg decimal.Decimal) float64 {
	monthsScore := 50 * float64(len(series)) / float64(predictionLookbackMonths)
	if monthsScore > 50 {
		monthsScore = 50
	}

	stabilityScore := 0.0
	if avg.IsPositive() {
		mean, _ := avg.Float64()
		var sq float64
		for _, v := range series {
			f, _ := v.Float64()
			sq += (f - mean) * (f - mean)
		}
		stddev := math.Sqrt(sq / float64(len(series)))
		cv := stddev / mean
		stabilityScore = 50 / (1 + cv)
	}

	score := monthsScore + stabilityScore
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return math.Round(score*10) / 10
}
