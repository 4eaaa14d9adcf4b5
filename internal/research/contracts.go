package research

import "context"

// Planner turns a query into a search plan.
type Planner interface {
	Plan(ctx context.Context, query string) (SearchPlan, error)
}

// SearchExecutor runs one planned search. Implementations report every
// internal error through Failure instead of panicking or returning early,
// and must be safe for concurrent use.
type SearchExecutor interface {
	Execute(ctx context.Context, item SearchPlanItem) SearchOutcome
}

// ReportWriter synthesizes a report from the aggregated search texts.
// results may be empty.
type ReportWriter interface {
	Write(ctx context.Context, query string, results []string) (ReportArtifact, error)
}

// Notifier delivers a finished report.
type Notifier interface {
	Deliver(ctx context.Context, artifact ReportArtifact) (Acknowledgement, error)
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(ctx context.Context, query string) (SearchPlan, error)

func (f PlannerFunc) Plan(ctx context.Context, query string) (SearchPlan, error) {
	return f(ctx, query)
}

// SearchExecutorFunc adapts a function to SearchExecutor.
type SearchExecutorFunc func(ctx context.Context, item SearchPlanItem) SearchOutcome

func (f SearchExecutorFunc) Execute(ctx context.Context, item SearchPlanItem) SearchOutcome {
	return f(ctx, item)
}

// ReportWriterFunc adapts a function to ReportWriter.
type ReportWriterFunc func(ctx context.Context, query string, results []string) (ReportArtifact, error)

func (f ReportWriterFunc) Write(ctx context.Context, query string, results []string) (ReportArtifact, error) {
	return f(ctx, query, results)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, artifact ReportArtifact) (Acknowledgement, error)

func (f NotifierFunc) Deliver(ctx context.Context, artifact ReportArtifact) (Acknowledgement, error) {
	return f(ctx, artifact)
}
