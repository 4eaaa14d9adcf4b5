package research

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TraceIDPlaceholder is replaced with the run's trace id in trace URL templates.
const TraceIDPlaceholder = "{trace_id}"

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the base logger. Nil keeps the no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxConcurrency bounds how many searches run at once. Zero or negative
// runs every planned search concurrently.
func WithMaxConcurrency(limit int) Option {
	return func(o *Orchestrator) {
		if limit < 0 {
			limit = 0
		}
		o.maxConcurrency = limit
	}
}

// WithSearchTimeout bounds each search task. A task that exceeds it is
// recorded as failed. Zero disables the bound.
func WithSearchTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.searchTimeout = max(timeout, 0)
	}
}

// WithStageTimeouts bounds the plan, write, and notify stages. Zero disables
// the corresponding bound.
func WithStageTimeouts(plan, write, notify time.Duration) Option {
	return func(o *Orchestrator) {
		o.planTimeout = max(plan, 0)
		o.writeTimeout = max(write, 0)
		o.notifyTimeout = max(notify, 0)
	}
}

// WithTraceIDGenerator overrides trace id generation.
func WithTraceIDGenerator(generate func() string) Option {
	return func(o *Orchestrator) {
		if generate != nil {
			o.newTraceID = generate
		}
	}
}

// WithTraceURLTemplate makes the first checkpoint link to a trace viewer.
// The template must contain {trace_id}.
func WithTraceURLTemplate(template string) Option {
	return func(o *Orchestrator) {
		o.traceURLTemplate = strings.TrimSpace(template)
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// NewTraceID returns a fresh "trace_<32 hex>" identifier.
func NewTraceID() string {
	return "trace_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
