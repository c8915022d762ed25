package log

import "finsphere/internal/core"

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldCycleID    = "cycle_id"
	FieldAgent      = "agent"
	FieldActionID   = "action_id"
	FieldActionType = "action_type"
	FieldStatus     = "status"
	FieldApproval   = "approval_required"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentOrchestrator = "orchestrator"
	ComponentExecutor     = "executor"
	ComponentAgent        = "agent"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentScheduler    = "scheduler"
)

// Operations defines standard operation names
const (
	OpCycle    = "cycle"
	OpApprove  = "approve"
	OpReject   = "reject"
	OpExecute  = "execute"
	OpPublish  = "publish"
	OpUpsert   = "upsert"
	OpQuery    = "query"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithCycle(id string) LogFields {
	f[FieldCycleID] = id
	return f
}

// WithAction adds the identifying fields of an agent action.
func (f LogFields) WithAction(a core.AgentAction) LogFields {
	f[FieldActionID] = a.ID
	f[FieldActionType] = string(a.ActionType)
	f[FieldAgent] = a.AgentName
	f[FieldStatus] = string(a.Status)
	f[FieldApproval] = a.ApprovalRequired
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(method, path string, statusCode int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
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
