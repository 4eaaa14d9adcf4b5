package research

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"deepresearch/internal/logging"
	"deepresearch/internal/services"
)

// Orchestrator sequences planning, searching, writing, and delivery for a
// query. It holds no per-run state and may serve concurrent runs.
type Orchestrator struct {
	planner  Planner
	executor SearchExecutor
	writer   ReportWriter
	notifier Notifier

	logger           *slog.Logger
	observer         Observer
	maxConcurrency   int
	searchTimeout    time.Duration
	planTimeout      time.Duration
	writeTimeout     time.Duration
	notifyTimeout    time.Duration
	newTraceID       func() string
	traceURLTemplate string
}

// New constructs an Orchestrator. All four collaborators are required.
func New(planner Planner, executor SearchExecutor, writer ReportWriter, notifier Notifier, opts ...Option) (*Orchestrator, error) {
	switch {
	case planner == nil:
		return nil, errors.New("research: planner is required")
	case executor == nil:
		return nil, errors.New("research: search executor is required")
	case writer == nil:
		return nil, errors.New("research: report writer is required")
	case notifier == nil:
		return nil, errors.New("research: notifier is required")
	}
	o := &Orchestrator{
		planner:    planner,
		executor:   executor,
		writer:     writer,
		notifier:   notifier,
		logger:     logging.NewNop(),
		observer:   nopObserver{},
		newTraceID: NewTraceID,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.traceURLTemplate != "" && !strings.Contains(o.traceURLTemplate, TraceIDPlaceholder) {
		return nil, fmt.Errorf("research: trace url template must contain %s", TraceIDPlaceholder)
	}
	o.logger = logging.NewComponentLogger(o.logger, "research")
	return o, nil
}

// Run returns the lazy progress stream for one research run. Each range over
// the sequence starts an independent run. The stream ends after the Final
// event, after a single error pair, or when the consumer stops ranging, which
// cancels the run.
func (o *Orchestrator) Run(ctx context.Context, query string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		traceID := o.newTraceID()
		runCtx = services.WithRunID(runCtx, traceID)
		r := &run{
			o:      o,
			ctx:    runCtx,
			id:     traceID,
			query:  strings.TrimSpace(query),
			state:  StateInit,
			yield:  yield,
			logger: logging.WithContext(runCtx, o.logger),
		}
		r.execute()
	}
}

// Execute drains Run and returns the artifact together with the Info events
// observed before it.
func (o *Orchestrator) Execute(ctx context.Context, query string) (ReportArtifact, []Event, error) {
	var (
		history  []Event
		artifact ReportArtifact
	)
	for event, err := range o.Run(ctx, query) {
		if err != nil {
			return ReportArtifact{}, history, err
		}
		if event.Kind == EventFinal && event.Artifact != nil {
			artifact = *event.Artifact
			continue
		}
		history = append(history, event)
	}
	if artifact.Empty() {
		return ReportArtifact{}, history, ErrCanceled
	}
	return artifact, history, nil
}

type run struct {
	o      *Orchestrator
	ctx    context.Context
	id     string
	query  string
	state  State
	yield  func(Event, error) bool
	logger *slog.Logger
}

func (r *run) execute() {
	started := time.Now()
	r.logger.Info("research run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String(logging.FieldQuery, r.query),
	)

	if !r.emit(CheckpointTrace, r.traceMessage()) {
		return
	}

	plan, ok := r.plan()
	if !ok {
		return
	}
	if !r.emit(CheckpointPlanned, fmt.Sprintf("Searches planned, starting %d %s...", plan.Len(), pluralize(plan.Len(), "search", "searches"))) {
		return
	}

	results, ok := r.search(plan)
	if !ok {
		return
	}
	if !r.emit(CheckpointSearched, fmt.Sprintf("Searches complete (%d of %d succeeded), writing report...", len(results), plan.Len())) {
		return
	}

	artifact, ok := r.write(results)
	if !ok {
		return
	}
	if !r.emit(CheckpointWritten, "Report written, sending notification...") {
		return
	}

	ack, ok := r.notify(artifact)
	if !ok {
		return
	}
	if !r.emit(CheckpointNotified, fmt.Sprintf("Report delivered via %s, research complete!", ack.Channel)) {
		return
	}

	r.transition(StateDone)
	r.logger.Info("research run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("search_count", plan.Len()),
		logging.Int("result_count", len(results)),
		logging.String("delivery_channel", ack.Channel),
		logging.Duration("duration", time.Since(started)),
	)
	r.yield(finalEvent(artifact), nil)
}

func (r *run) traceMessage() string {
	if tpl := r.o.traceURLTemplate; tpl != "" {
		return "View trace: " + strings.ReplaceAll(tpl, TraceIDPlaceholder, r.id)
	}
	return "Trace ID: " + r.id
}

func (r *run) plan() (SearchPlan, bool) {
	r.transition(StatePlanning)
	if r.query == "" {
		return SearchPlan{}, r.fail(StatePlanning, ErrPlanning,
			services.Wrap(services.ErrValidation, string(StatePlanning), "validate query", "query is empty", nil))
	}

	ctx, cancel := r.stageContext(StatePlanning, r.o.planTimeout)
	defer cancel()
	logger := logging.WithContext(ctx, r.o.logger)
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	plan, err := r.o.planner.Plan(ctx, r.query)
	if err != nil {
		return SearchPlan{}, r.fail(StatePlanning, ErrPlanning, err)
	}
	plan = plan.clone()
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("search_count", plan.Len()),
	)
	return plan, true
}

func (r *run) write(results []string) (ReportArtifact, bool) {
	r.transition(StateWriting)
	ctx, cancel := r.stageContext(StateWriting, r.o.writeTimeout)
	defer cancel()
	logger := logging.WithContext(ctx, r.o.logger)
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("result_count", len(results)),
	)

	artifact, err := r.o.writer.Write(ctx, r.query, results)
	if err == nil && artifact.Empty() {
		err = errors.New("writer returned an empty report")
	}
	if err != nil {
		return ReportArtifact{}, r.fail(StateWriting, ErrWriting, err)
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("report_title", artifact.Title),
		logging.Int("report_chars", len(artifact.MarkdownBody)),
	)
	return artifact, true
}

func (r *run) notify(artifact ReportArtifact) (Acknowledgement, bool) {
	r.transition(StateNotifying)
	ctx, cancel := r.stageContext(StateNotifying, r.o.notifyTimeout)
	defer cancel()
	logger := logging.WithContext(ctx, r.o.logger)
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	ack, err := r.o.notifier.Deliver(ctx, artifact)
	if err != nil {
		return Acknowledgement{}, r.fail(StateNotifying, ErrNotify, err)
	}
	if ack.Channel == "" {
		ack.Channel = "unknown"
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("delivery_channel", ack.Channel),
		logging.String("delivery_reference", ack.Reference),
	)
	return ack, true
}

// stageContext derives the stage context, applying timeout when positive.
func (r *run) stageContext(stage State, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := services.WithStage(r.ctx, string(stage))
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// emit yields an Info event. It returns false when the consumer stopped
// ranging, after moving the run to StateCanceled.
func (r *run) emit(checkpoint Checkpoint, message string) bool {
	r.logger.Debug("checkpoint",
		logging.String(logging.FieldEventType, "checkpoint"),
		logging.String("checkpoint", string(checkpoint)),
		logging.String("message", message),
	)
	if r.yield(infoEvent(checkpoint, message), nil) {
		return true
	}
	r.transition(StateCanceled)
	r.logger.Info("research run abandoned by consumer",
		logging.String(logging.FieldEventType, "run_abandoned"),
		logging.String("checkpoint", string(checkpoint)),
	)
	return false
}

// fail terminates the run with a stage error, or with ErrCanceled when the
// caller's context ended first. It always returns false.
func (r *run) fail(stage State, sentinel, cause error) bool {
	if ctxErr := r.ctx.Err(); ctxErr != nil {
		r.cancel(stage, cause)
		return false
	}
	err := fmt.Errorf("%w: %w", sentinel, cause)
	r.transition(StateFailed)
	logging.ErrorWithContext(r.logger, "research run failed", "stage_failure",
		logging.String(logging.FieldStage, string(stage)),
		logging.String("error_kind", services.Kind(cause)),
		logging.String(logging.FieldErrorHint, failureHint(stage)),
		logging.Error(err),
	)
	r.yield(Event{}, err)
	return false
}

func (r *run) cancel(stage State, cause error) {
	err := fmt.Errorf("%w: %w", ErrCanceled, context.Cause(r.ctx))
	r.transition(StateCanceled)
	r.logger.Info("research run canceled",
		logging.String(logging.FieldEventType, "run_canceled"),
		logging.String(logging.FieldStage, string(stage)),
		logging.Any("stage_error", cause),
	)
	r.yield(Event{}, err)
}

func (r *run) transition(to State) {
	from := r.state
	if !CanTransition(from, to) {
		logging.ErrorWithContext(r.logger, "invalid state transition ignored", "invalid_transition",
			logging.String("from", string(from)),
			logging.String("to", string(to)),
			logging.String(logging.FieldErrorHint, "report this as a bug"),
		)
		return
	}
	r.state = to
	r.logger.Debug("state changed",
		logging.String(logging.FieldEventType, "state_change"),
		logging.String("from", string(from)),
		logging.String("to", string(to)),
	)
	r.o.observer.StateChanged(r.id, from, to)
}

func failureHint(stage State) string {
	switch stage {
	case StatePlanning:
		return "check the planner model and API key (deepresearch status)"
	case StateWriting:
		return "check the writer model, its timeout, and the API key"
	case StateNotifying:
		return "verify notification credentials with deepresearch test-notify"
	default:
		return "check logs for details"
	}
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
