package writer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"deepresearch/internal/logging"
	"deepresearch/internal/research"
	"deepresearch/internal/services"
	"deepresearch/internal/services/llm"
	"deepresearch/internal/textutil"
)

const stageName = "writing"

type jsonCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Writer implements research.ReportWriter.
type Writer struct {
	client jsonCompleter
	logger *slog.Logger
}

var _ research.ReportWriter = (*Writer)(nil)

// New constructs a Writer.
func New(client jsonCompleter, logger *slog.Logger) (*Writer, error) {
	if client == nil {
		return nil, errors.New("writer: llm client is required")
	}
	return &Writer{client: client, logger: logging.NewComponentLogger(logger, "writer")}, nil
}

type reportData struct {
	ShortSummary      string   `json:"short_summary"`
	MarkdownReport    string   `json:"markdown_report"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Write produces the report. An empty markdown body is an error.
func (w *Writer) Write(ctx context.Context, query string, results []string) (research.ReportArtifact, error) {
	logger := logging.WithContext(ctx, w.logger)

	raw, err := w.client.CompleteJSON(ctx, ReportPrompt, buildUserPrompt(query, results))
	if err != nil {
		marker := services.MarkerFor(err)
		if errors.Is(err, llm.ErrMissingAPIKey) {
			marker = services.ErrConfiguration
		}
		return research.ReportArtifact{}, services.Wrap(marker, stageName, "write report", "llm request failed", err)
	}

	var data reportData
	if err := llm.DecodeLLMJSON(raw, &data); err != nil {
		return research.ReportArtifact{}, services.Wrap(services.ErrExternalTool, stageName, "decode report", "model returned malformed JSON", err)
	}
	body := strings.TrimSpace(data.MarkdownReport)
	if body == "" {
		return research.ReportArtifact{}, services.Wrap(services.ErrExternalTool, stageName, "decode report", "markdown_report is empty", nil)
	}

	questions := make([]string, 0, len(data.FollowUpQuestions))
	for _, q := range data.FollowUpQuestions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}

	artifact := research.ReportArtifact{
		Title:             textutil.TitleCase(query),
		ShortSummary:      strings.TrimSpace(data.ShortSummary),
		MarkdownBody:      body,
		FollowUpQuestions: questions,
	}
	logger.Info("report synthesized",
		logging.String(logging.FieldEventType, "report_written"),
		logging.Int("source_count", len(results)),
		logging.Int("words", len(strings.Fields(body))),
		logging.Int("follow_up_questions", len(questions)),
	)
	return artifact, nil
}
