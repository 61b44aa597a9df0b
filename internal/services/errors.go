package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrService       = errors.New("labeling service error")
	ErrFetch         = errors.New("object fetch error")
	ErrConfiguration = errors.New("configuration error")
	ErrParse         = errors.New("manifest parse error")
)

// Wrap builds an error message that includes split context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, split, operation, message string, err error) error {
	detail := buildDetail(split, operation, message)
	if marker == nil {
		marker = ErrService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind maps an export error to the short label persisted in the run
// journal and shown by the history command.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrService):
		return "service"
	default:
		return "unknown"
	}
}

func buildDetail(split, operation, message string) string {
	parts := make([]string, 0, 3)
	if split = strings.TrimSpace(split); split != "" {
		parts = append(parts, split)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "export failure"
	}
	return strings.Join(parts, ": ")
}
