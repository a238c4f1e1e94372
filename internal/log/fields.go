package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldTransaction = "transaction_id"
	FieldLabel       = "label"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldKeyword     = "keyword"
	FieldAmount      = "amount"
	FieldCatMethod   = "categorization_method"
	FieldReviewCount = "review_count"
	FieldModel       = "model"
	FieldQueue       = "queue"
	FieldSeq         = "seq"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentCoach      = "coach"
	ComponentCategorize = "categorize"
	ComponentOracle     = "oracle"
	ComponentLedger     = "ledger"
	ComponentBudget     = "budget"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentExport     = "export"
	ComponentSecurity   = "security"
	ComponentRateLimit  = "rate_limit"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpList      = "list"
	OpAppend    = "append"
	OpClassify  = "classify"
	OpLearn     = "learn"
	OpPropose   = "propose"
	OpReconcile = "reconcile"
	OpSync      = "sync"
	OpValidate  = "validate"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)
