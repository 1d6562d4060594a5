package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldTxID       = "transaction_id"
	FieldBudgetID   = "budget_id"
	FieldGoalID     = "goal_id"
	FieldCategoryID = "category_id"
	FieldMetric     = "metric"
	FieldVersion    = "ledger_version"
	FieldAmount     = "amount"
	FieldMonths     = "months"
	FieldLimit      = "limit"
)
