package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldCategory    = "category"
	FieldProduct     = "product"
	FieldTier        = "tier"
	FieldSnapshotID  = "snapshot_id"
	FieldFileName    = "file_name"
	FieldRows        = "rows"
	FieldRowsApplied = "rows_applied"
	FieldRowsSkipped = "rows_skipped"
	FieldTotalSales  = "total_sales"
	FieldDrinkCups   = "total_drink_cups"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentTally    = "tally"
	ComponentSnapshot = "snapshot"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpIncrement = "increment"
	OpDecrement = "decrement"
	OpSave      = "save"
	OpLoad      = "load"
	OpExport    = "export"
	OpSync      = "sync"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithCounter adds the product a counter mutation touched
func (f LogFields) WithCounter(category, product, tier string) LogFields {
	f[FieldCategory] = category
	f[FieldProduct] = product
	f[FieldTier] = tier
	return f
}

// WithSnapshot adds snapshot identity fields. A zero id is omitted.
func (f LogFields) WithSnapshot(id int64, fileName string) LogFields {
	if id != 0 {
		f[FieldSnapshotID] = id
	}
	if fileName != "" {
		f[FieldFileName] = fileName
	}
	return f
}

// WithLoad adds the row counts of a report load
func (f LogFields) WithLoad(rows, applied, skipped int) LogFields {
	f[FieldRows] = rows
	f[FieldRowsApplied] = applied
	f[FieldRowsSkipped] = skipped
	return f
}

// WithTotals adds the headline grand totals
func (f LogFields) WithTotals(drinkCups int, totalSales int64) LogFields {
	f[FieldDrinkCups] = drinkCups
	f[FieldTotalSales] = totalSales
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
