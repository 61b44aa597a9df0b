package journal

import (
	"database/sql"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, project, destination, label_format, status, failure_kind, error_message, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		project     sql.NullString
		statusStr   string
		failureKind sql.NullString
		message     sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&project,
		&run.Destination,
		&run.LabelFormat,
		&statusStr,
		&failureKind,
		&message,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Project = project.String
	run.Status = Status(statusStr)
	run.FailureKind = failureKind.String
	run.ErrorMessage = message.String
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return &run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
