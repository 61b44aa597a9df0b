package logging

import (
	"context"
	"log/slog"

	"rekogexport/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for export run identifiers.
	FieldRunID = "run_id"
	// FieldSplit is the standardized structured logging key for dataset split kinds.
	FieldSplit = "split"
	// FieldEntryIndex is the standardized structured logging key for manifest entry positions.
	FieldEntryIndex = "entry_index"
	// FieldEventType marks lines that summarize a lifecycle event.
	FieldEventType = "event_type"
	// FieldErrorHint carries a short operator-facing next step.
	FieldErrorHint = "error_hint"
	// FieldFailureKind carries the error taxonomy bucket of a failed run.
	FieldFailureKind = "failure_kind"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if split, ok := services.SplitFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSplit, split))
	}
	if idx, ok := services.EntryIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldEntryIndex, idx))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
