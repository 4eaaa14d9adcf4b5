package planner

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"deepresearch/internal/logging"
	"deepresearch/internal/research"
	"deepresearch/internal/services"
	"deepresearch/internal/services/llm"
)

const stageName = "planning"

// jsonCompleter abstracts the LLM JSON-completion call for testability.
type jsonCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options configures a Planner.
type Options struct {
	// HowManySearches is the number of searches requested from the model.
	HowManySearches int
	// MaxSearches truncates the plan when positive.
	MaxSearches int
	Logger      *slog.Logger
}

// Planner implements research.Planner on top of an LLM.
type Planner struct {
	client      jsonCompleter
	howMany     int
	maxSearches int
	logger      *slog.Logger
}

var _ research.Planner = (*Planner)(nil)

// New constructs a Planner.
func New(client jsonCompleter, opts Options) (*Planner, error) {
	if client == nil {
		return nil, errors.New("planner: llm client is required")
	}
	howMany := opts.HowManySearches
	if howMany <= 0 {
		howMany = 5
	}
	return &Planner{
		client:      client,
		howMany:     howMany,
		maxSearches: max(opts.MaxSearches, 0),
		logger:      logging.NewComponentLogger(opts.Logger, "planner"),
	}, nil
}

type planResponse struct {
	Searches []struct {
		Reason string `json:"reason"`
		Query  string `json:"query"`
	} `json:"searches"`
}

// Plan asks the model for searches. Items with a blank query are dropped and
// queries that differ only in case or whitespace are collapsed to the first
// one; the plan is truncated to MaxSearches.
func (p *Planner) Plan(ctx context.Context, query string) (research.SearchPlan, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return research.SearchPlan{}, services.Wrap(services.ErrValidation, stageName, "plan searches", "query is empty", nil)
	}
	logger := logging.WithContext(ctx, p.logger)

	raw, err := p.client.CompleteJSON(ctx, SearchPlanPrompt, buildUserPrompt(query, p.howMany))
	if err != nil {
		return research.SearchPlan{}, services.Wrap(markerFor(err), stageName, "plan searches", "llm request failed", err)
	}

	var resp planResponse
	if err := llm.DecodeLLMJSON(raw, &resp); err != nil {
		return research.SearchPlan{}, services.Wrap(services.ErrExternalTool, stageName, "decode plan", "model returned malformed JSON", err)
	}

	plan := research.SearchPlan{Searches: make([]research.SearchPlanItem, 0, len(resp.Searches))}
	seen := make(map[string]struct{}, len(resp.Searches))
	dropped := 0
	for _, s := range resp.Searches {
		q := strings.Join(strings.Fields(s.Query), " ")
		key := strings.ToLower(q)
		if q == "" {
			dropped++
			continue
		}
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		plan.Searches = append(plan.Searches, research.SearchPlanItem{Query: q, Reason: strings.TrimSpace(s.Reason)})
	}
	truncated := 0
	if p.maxSearches > 0 && len(plan.Searches) > p.maxSearches {
		truncated = len(plan.Searches) - p.maxSearches
		plan.Searches = plan.Searches[:p.maxSearches]
	}

	logger.Info("search plan ready",
		logging.String(logging.FieldEventType, "search_plan"),
		logging.Int("requested", p.howMany),
		logging.Int("planned", plan.Len()),
		logging.Int("dropped", dropped),
		logging.Int("truncated", truncated),
	)
	for i, item := range plan.Searches {
		logger.Debug("planned search",
			logging.Int("index", i+1),
			logging.String(logging.FieldQuery, item.Query),
			logging.String("reason", item.Reason),
		)
	}
	return plan, nil
}

func markerFor(err error) error {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return services.ErrConfiguration
	}
	return services.MarkerFor(err)
}
