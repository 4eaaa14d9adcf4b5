package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"deepresearch/internal/logging"
)

// Record is one line of the log file. Lines that are not JSON keep only Raw
// and Message.
type Record struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RunID     string
	Attrs     map[string]any
	Raw       string
}

var reservedKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {}, "source": {},
	logging.FieldComponent: {}, logging.FieldRunID: {},
}

// ParseRecord decodes a JSON log line.
func ParseRecord(line string) Record {
	rec := Record{Raw: line, Message: line}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return rec
	}
	rec.Message, _ = fields["msg"].(string)
	rec.Level, _ = fields["level"].(string)
	rec.Component, _ = fields[logging.FieldComponent].(string)
	rec.RunID, _ = fields[logging.FieldRunID].(string)
	if ts, ok := fields["ts"].(string); ok {
		rec.Time, _ = time.Parse(time.RFC3339, ts)
	}
	for key, value := range fields {
		if _, skip := reservedKeys[key]; skip {
			continue
		}
		if rec.Attrs == nil {
			rec.Attrs = make(map[string]any)
		}
		rec.Attrs[key] = value
	}
	return rec
}

// Structured reports whether the line decoded as JSON.
func (r Record) Structured() bool {
	return r.Level != "" || r.Message != r.Raw
}

// Format renders the record as "15:04:05 LEVEL [component] message k=v".
func (r Record) Format() string {
	if !r.Structured() {
		return r.Raw
	}
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Local().Format(time.TimeOnly))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(r.Level))
	if r.Component != "" {
		fmt.Fprintf(&b, "[%s] ", r.Component)
	}
	b.WriteString(r.Message)
	if r.RunID != "" {
		fmt.Fprintf(&b, " %s=%s", logging.FieldRunID, r.RunID)
	}
	keys := make([]string, 0, len(r.Attrs))
	for k := range r.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, r.Attrs[k])
	}
	return b.String()
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	RunID     string
	Component string
	// MinLevel drops records below it; nil keeps every level.
	MinLevel slog.Leveler
}

// ParseLevel accepts debug, info, warn, or error.
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(value) == "" {
		return slog.LevelDebug, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", value)
	}
	return level, nil
}

// Match reports whether r passes the filter. Unstructured lines pass only an
// empty filter.
func (f Filter) Match(r Record) bool {
	if !r.Structured() {
		return f.RunID == "" && f.Component == "" && f.MinLevel == nil
	}
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	if f.Component != "" && !strings.EqualFold(r.Component, f.Component) {
		return false
	}
	if f.MinLevel != nil {
		level, err := ParseLevel(r.Level)
		if err == nil && level < f.MinLevel.Level() {
			return false
		}
	}
	return true
}
