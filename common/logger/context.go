package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Reconciliation code enriches the context once (issue number, delivery, action) and every
// log line below it carries those fields.
type LogFields struct {
	IssueNumber *int    // GitHub issue number
	DeliveryID  *string // X-GitHub-Delivery of the webhook that triggered the work
	Action      *string // issue action (e.g., "opened", "labeled")
	TaskID      *string // delayed task ID
	Component   string  // Component name (OTel semantic convention style, e.g., "studiobot.worker.scheduler")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.IssueNumber != nil {
		result.IssueNumber = new.IssueNumber
	}
	if new.DeliveryID != nil {
		result.DeliveryID = new.DeliveryID
	}
	if new.Action != nil {
		result.Action = new.Action
	}
	if new.TaskID != nil {
		result.TaskID = new.TaskID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{IssueNumber: logger.Ptr(n)})
func Ptr[T any](v T) *T {
	return &v
}
