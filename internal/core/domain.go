package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	// OriginManual marks a transaction entered directly by the user.
	OriginManual OriginType = "MANUAL"
	// OriginBudgetContribution marks an expense generated by contributing
	// to a budget; RefID is the budget id.
	OriginBudgetContribution OriginType = "BUDGET_CONTRIBUTION"
	// OriginGoalContribution marks an expense generated by contributing to
	// a savings goal; RefID is the goal id.
	OriginGoalContribution OriginType = "GOAL_CONTRIBUTION"
	// OriginGoalRefund marks the income entry emitted when a goal with net
	// contributions is deleted; RefID is the goal id.
	OriginGoalRefund OriginType = "GOAL_REFUND"
)

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalDeleted   GoalStatus = "DELETED"
)

const (
	PeriodMonthly BudgetPeriod = "MONTHLY"
	PeriodWeekly  BudgetPeriod = "WEEKLY"
	PeriodYearly  BudgetPeriod = "YEARLY"
)

type (
	TransactionType string
	OriginType      string
	GoalStatus      string
	BudgetPeriod    string

	Date struct {
		time.Time
	}

	// Origin is the tagged variant identifying where a transaction came
	// from. RefID is zero for MANUAL and the owning construct id otherwise.
	Origin struct {
		Type  OriginType `json:"type"`
		RefID int64      `json:"refId,omitempty"`
	}

	// Transaction is a single ledger entry. Amount is always positive; the
	// sign of its effect on the balance is determined by Type. Void entries
	// stay in the store for audit but are excluded from every aggregate.
	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		CategoryID  int64           `json:"categoryId,omitempty"` // 0 = uncategorized
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Origin      Origin          `json:"origin"`
		Void        bool            `json:"void,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// Budget owns only its configuration. Spent totals are projections over
	// the ledger and are never stored.
	Budget struct {
		ID             int64           `json:"id"`
		UserID         int64           `json:"userId"`
		CategoryID     int64           `json:"categoryId"`
		Amount         decimal.Decimal `json:"amount"`
		Period         BudgetPeriod    `json:"period"`
		StartDate      Date            `json:"startDate"`
		EndDate        Date            `json:"endDate"`
		AlertThreshold decimal.Decimal `json:"alertThreshold"` // percent, 0-100
		CreatedAt      time.Time       `json:"createdAt"`
	}

	// SavingsGoal owns name/target/deadline. Its current amount is the sum
	// of its contribution transactions minus its refund transactions.
	SavingsGoal struct {
		ID           int64           `json:"id"`
		UserID       int64           `json:"userId"`
		Name         string          `json:"name"`
		TargetAmount decimal.Decimal `json:"targetAmount"`
		Deadline     Date            `json:"deadline"`
		Status       GoalStatus      `json:"status"`
		CreatedAt    time.Time       `json:"createdAt"`
	}

	Category struct {
		ID       int64           `json:"id"`
		UserID   int64           `json:"userId,omitempty"` // 0 for system categories
		Name     string          `json:"name"`
		Type     TransactionType `json:"type"`
		Icon     string          `json:"icon,omitempty"`
		Color    string          `json:"color,omitempty"`
		IsSystem bool            `json:"isSystem"`
	}
)

func ManualOrigin() Origin { return Origin{Type: OriginManual} }

func BudgetContribution(budgetID int64) Origin {
	return Origin{Type: OriginBudgetContribution, RefID: budgetID}
}

func GoalContribution(goalID int64) Origin {
	return Origin{Type: OriginGoalContribution, RefID: goalID}
}

func GoalRefund(goalID int64) Origin {
	return Origin{Type: OriginGoalRefund, RefID: goalID}
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today is the current date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDateRange
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDateRange
	}
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON renders dates as "YYYY-MM-DD"; the zero date is null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d is strictly before other, comparing dates only.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (o Origin) Validate() error {
	switch o.Type {
	case OriginManual:
		return nil
	case OriginBudgetContribution, OriginGoalContribution, OriginGoalRefund:
		if o.RefID <= 0 {
			return ErrNotFound
		}
		return nil
	default:
		return ErrInvalidType
	}
}

func (t Transaction) Validate() error {
	if t.Type != Income && t.Type != Expense {
		return ErrInvalidType
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrEmptyDescription
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return t.Origin.Validate()
}

func (b Budget) Validate() error {
	if b.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if err := b.StartDate.Validate(); err != nil {
		return err
	}
	if err := b.EndDate.Validate(); err != nil {
		return err
	}
	if b.EndDate.Before(b.StartDate) {
		return ErrInvalidDateRange
	}
	if b.AlertThreshold.IsNegative() || b.AlertThreshold.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidAmount
	}
	switch b.Period {
	case PeriodMonthly, PeriodWeekly, PeriodYearly:
	default:
		return ErrInvalidDateRange
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 || len(c.Name) > 100 {
		return ErrEmptyDescription
	}
	if c.Type != Income && c.Type != Expense {
		return ErrInvalidType
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyDescription
	}
	if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !g.Deadline.IsZero() && g.Deadline.Before(Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}) {
		return ErrInvalidDateRange
	}
	return nil
}
