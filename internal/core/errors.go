package core

import "errors"

// Error taxonomy surfaced to callers. Handlers map these onto HTTP status
// codes; everything else is treated as an internal error.
var (
	// ErrNotFound means a referenced budget, goal, category or transaction
	// does not exist (or is already void).
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidAmount means an amount was zero, negative or malformed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDateRange means a period was malformed or inverted.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrPermissionDenied means a mutation touched a system-owned resource.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConsistency means cache invalidation could not be applied after a
	// successful ledger write, even after retries.
	ErrConsistency = errors.New("cache invalidation failed after ledger write")

	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrGoalInactive     = errors.New("goal is not active")
	ErrInsufficientGoal = errors.New("insufficient funds in savings goal")
	ErrCategoryInUse    = errors.New("category is referenced by transactions")
	ErrBudgetOverlap    = errors.New("budget already exists for this category and period")
)
