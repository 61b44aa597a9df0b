// Package logs reads the JSON log file written by internal/logging.
//
// Tail returns the last N matching lines with bounded memory and an offset the
// caller can pass back to follow new output. Lines are filtered by run id or
// minimum level after decoding, so `rekogexport logs --run <id>` shows one
// export even when several runs share a rotated file.
package logs
