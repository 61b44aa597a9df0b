package logs

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"rekogexport/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// timeKey matches the key internal/logging writes timestamps under.
const timeKey = "ts"

// Entry is one decoded JSON log line. Attrs keeps every field that is not
// promoted to a struct field.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RunID     string
	Split     string
	Attrs     map[string]any
	Raw       string
}

// ParseEntry decodes a JSON log line. Non-JSON lines return ok=false.
func ParseEntry(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, false
	}
	fields := map[string]any{}
	if err := json.UnmarshalFromString(trimmed, &fields); err != nil {
		return Entry{}, false
	}
	entry := Entry{Raw: line}
	entry.Level = strings.ToUpper(take(fields, slog.LevelKey))
	entry.Message = take(fields, slog.MessageKey)
	entry.Component = take(fields, logging.FieldComponent)
	entry.RunID = take(fields, logging.FieldRunID)
	entry.Split = take(fields, logging.FieldSplit)
	if raw := take(fields, timeKey); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			entry.Time = ts
		}
	}
	delete(fields, slog.SourceKey)
	entry.Attrs = fields
	return entry, true
}

func take(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	delete(fields, key)
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Filter selects entries. Zero values match everything.
type Filter struct {
	RunID    string
	MinLevel slog.Level
}

func (f Filter) active() bool {
	return f.RunID != "" || f.MinLevel > slog.LevelDebug
}

// Match reports whether line passes the filter. Lines that are not JSON only
// match an inactive filter.
func (f Filter) Match(line string) bool {
	if !f.active() {
		return true
	}
	entry, ok := ParseEntry(line)
	if !ok {
		return false
	}
	if f.RunID != "" && !strings.HasPrefix(entry.RunID, f.RunID) {
		return false
	}
	return levelOf(entry.Level) >= f.MinLevel
}

func levelOf(label string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(label)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Format renders an entry as a single console line.
func Format(entry Entry) string {
	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(entry.Time.Local().Format(time.DateTime))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", entry.Level)
	if entry.Component != "" {
		b.WriteString("[" + entry.Component + "] ")
	}
	if entry.Split != "" {
		b.WriteString(entry.Split + ": ")
	}
	b.WriteString(entry.Message)
	for _, key := range slices.Sorted(maps.Keys(entry.Attrs)) {
		fmt.Fprintf(&b, " %s=%v", key, entry.Attrs[key])
	}
	return b.String()
}
