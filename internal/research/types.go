package research

import (
	"strings"
	"time"
)

// SearchPlanItem is one planned web search. Items are passed by value and
// never mutated after the planner returns them.
type SearchPlanItem struct {
	Query  string `json:"query" yaml:"query"`
	Reason string `json:"reason" yaml:"reason"`
}

// SearchPlan is the planner's ordered list of searches.
type SearchPlan struct {
	Searches []SearchPlanItem `json:"searches" yaml:"searches"`
}

// Len reports the number of planned searches.
func (p SearchPlan) Len() int { return len(p.Searches) }

func (p SearchPlan) clone() SearchPlan {
	return SearchPlan{Searches: append([]SearchPlanItem(nil), p.Searches...)}
}

// SearchOutcome is the settled result of one search task. Build it with
// Success or Failure.
type SearchOutcome struct {
	Item SearchPlanItem
	Text string
	Err  error
}

// Success records a search that produced text.
func Success(item SearchPlanItem, text string) SearchOutcome {
	return SearchOutcome{Item: item, Text: text}
}

// Failure records a search that produced nothing usable. A nil err is
// replaced with ErrSearchTask so the outcome always reads as failed.
func Failure(item SearchPlanItem, err error) SearchOutcome {
	if err == nil {
		err = ErrSearchTask
	}
	return SearchOutcome{Item: item, Err: err}
}

// OK reports whether the search succeeded.
func (o SearchOutcome) OK() bool { return o.Err == nil }

// ReportArtifact is the synthesized report. MarkdownBody is the renderable
// body delivered to notification transports and yielded in the Final event.
type ReportArtifact struct {
	Title             string   `json:"title"`
	ShortSummary      string   `json:"short_summary"`
	MarkdownBody      string   `json:"markdown_report"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Empty reports whether the artifact has no body.
func (a ReportArtifact) Empty() bool {
	return strings.TrimSpace(a.MarkdownBody) == ""
}

// Acknowledgement confirms delivery of a report.
type Acknowledgement struct {
	Channel     string    `json:"channel"`
	Reference   string    `json:"reference,omitempty"`
	DeliveredAt time.Time `json:"delivered_at"`
}
