package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"deepresearch/internal/logging"
)

// search runs every plan item through the executor and returns the texts of
// successful outcomes in completion order. It returns false only when the run
// was canceled; individual failures are logged and dropped.
func (r *run) search(plan SearchPlan) ([]string, bool) {
	r.transition(StateSearching)
	ctx, cancel := r.stageContext(StateSearching, 0)
	defer cancel()
	logger := logging.WithContext(ctx, r.o.logger)

	total := plan.Len()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("search_count", total),
		logging.Int("max_concurrency", r.o.maxConcurrency),
	)

	results := make([]string, 0, total)
	completed := 0
	for outcome := range r.fanOut(ctx, plan.Searches) {
		completed++
		r.o.observer.SearchSettled(r.id, outcome, completed, total)
		if outcome.OK() {
			results = append(results, outcome.Text)
			logger.Info("search completed",
				logging.String(logging.FieldEventType, "search_complete"),
				logging.String(logging.FieldQuery, outcome.Item.Query),
				logging.Int("completed", completed),
				logging.Int("total", total),
			)
			continue
		}
		logging.WarnWithContext(logger, "search failed; result dropped", "search_failed",
			logging.String(logging.FieldQuery, outcome.Item.Query),
			logging.Int("completed", completed),
			logging.Int("total", total),
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, "check the search provider and its credentials"),
			logging.String(logging.FieldImpact, "report is written without this search"),
		)
	}

	if err := r.ctx.Err(); err != nil {
		r.cancel(StateSearching, err)
		return nil, false
	}

	if len(results) == 0 && total > 0 {
		logging.WarnWithContext(logger, "no searches succeeded; writing report from the query alone", "search_all_failed",
			logging.Int("total", total),
			logging.String(logging.FieldErrorHint, "check the search provider status with deepresearch status"),
			logging.String(logging.FieldImpact, "report has no web sources"),
		)
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("succeeded", len(results)),
		logging.Int("failed", total-len(results)),
	)
	return results, true
}

// fanOut launches one task per item on a bounded pool and returns a channel
// that yields each outcome as it settles. The channel is closed once every
// task has settled.
func (r *run) fanOut(ctx context.Context, items []SearchPlanItem) <-chan SearchOutcome {
	outcomes := make(chan SearchOutcome, len(items))
	p := pool.New()
	if r.o.maxConcurrency > 0 {
		p = p.WithMaxGoroutines(r.o.maxConcurrency)
	}
	go func() {
		defer close(outcomes)
		for _, item := range items {
			p.Go(func() {
				outcomes <- r.searchOne(ctx, item)
			})
		}
		p.Wait()
	}()
	return outcomes
}

// searchOne executes a single search under the per-task timeout. The executor
// runs on its own goroutine so a call that ignores ctx cannot hold the
// barrier past its deadline.
func (r *run) searchOne(ctx context.Context, item SearchPlanItem) SearchOutcome {
	if err := ctx.Err(); err != nil {
		return Failure(item, fmt.Errorf("%w: %w", ErrSearchTask, err))
	}
	taskCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.o.searchTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, r.o.searchTimeout)
	}
	defer cancel()

	done := make(chan SearchOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- Failure(item, fmt.Errorf("%w: panic: %v", ErrSearchTask, rec))
			}
		}()
		done <- r.o.executor.Execute(taskCtx, item)
	}()

	var outcome SearchOutcome
	select {
	case outcome = <-done:
	case <-taskCtx.Done():
		outcome = Failure(item, taskCtx.Err())
	}
	if outcome.OK() && taskCtx.Err() != nil {
		outcome = Failure(item, taskCtx.Err())
	}

	outcome.Item = item
	if !outcome.OK() && !errors.Is(outcome.Err, ErrSearchTask) {
		outcome.Err = fmt.Errorf("%w: %w", ErrSearchTask, outcome.Err)
	}
	return outcome
}
