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
	FieldEntryID    = "entry_id"
	FieldDate       = "date"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldCents      = "amount_cents"
	FieldBalance    = "balance_cents"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentAuth     = "auth"
	ComponentInsights = "insights"
)

// Operations defines standard operation names.
const (
	OpDeposit    = "deposit"
	OpWithdrawal = "withdrawal"
	OpEntry      = "daily_entry"
	OpRevise     = "revise_entry"
	OpReset      = "reset"
	OpDashboard  = "dashboard"
	OpRegister   = "register"
	OpLogin      = "login"
)
