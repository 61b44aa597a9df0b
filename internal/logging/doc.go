// Package logging assembles structured slog loggers for the exporter.
//
// Console output is either a compact human format or JSON. When a log
// directory is configured, a rotating JSON log file is written alongside the
// console stream. WithContext tags lines with the run id, split, and entry
// index carried on a context, and NewNop gives tests and optional wiring a
// logger that discards everything.
package logging
