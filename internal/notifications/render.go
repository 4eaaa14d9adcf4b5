package notifications

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"deepresearch/internal/research"
	"deepresearch/internal/textutil"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// fullMarkdown is the report body followed by its follow-up questions.
func fullMarkdown(artifact research.ReportArtifact) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(artifact.MarkdownBody))
	if len(artifact.FollowUpQuestions) > 0 {
		b.WriteString("\n\n## Follow-up questions\n\n")
		for _, q := range artifact.FollowUpQuestions {
			if q = strings.TrimSpace(q); q != "" {
				fmt.Fprintf(&b, "- %s\n", q)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// RenderMarkdown returns artifact as a standalone markdown document: a title
// heading, the summary as a quote, then the body and follow-ups.
func RenderMarkdown(artifact research.ReportArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", subject(artifact))
	if summary := strings.TrimSpace(artifact.ShortSummary); summary != "" {
		fmt.Fprintf(&b, "> %s\n\n", summary)
	}
	b.WriteString(fullMarkdown(artifact))
	return b.String()
}

func renderHTML(artifact research.ReportArtifact) (string, error) {
	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(fullMarkdown(artifact)), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&page, "<title>%s</title>", html.EscapeString(subject(artifact)))
	page.WriteString("</head><body style=\"font-family:sans-serif;max-width:760px;margin:auto;line-height:1.5\">\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.String(), nil
}

func subject(artifact research.ReportArtifact) string {
	if title := strings.TrimSpace(artifact.Title); title != "" {
		return title
	}
	return "Research report"
}

func summaryText(artifact research.ReportArtifact, limit int) string {
	text := strings.TrimSpace(artifact.ShortSummary)
	if text == "" {
		text = artifact.MarkdownBody
	}
	return textutil.Truncate(text, limit)
}
