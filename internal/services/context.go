package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	splitKey   contextKey = "split"
	entryIDKey contextKey = "entry_index"
)

// WithRunID annotates context with the export run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the export run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSplit annotates context with the dataset split being exported.
func WithSplit(ctx context.Context, split string) context.Context {
	if split == "" {
		return ctx
	}
	return context.WithValue(ctx, splitKey, split)
}

// SplitFromContext returns the split name if present.
func SplitFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(splitKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithEntryIndex annotates context with the manifest entry position.
func WithEntryIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, entryIDKey, index)
}

// EntryIndexFromContext extracts the manifest entry position if present.
func EntryIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(entryIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}
