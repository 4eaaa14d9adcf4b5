package writer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"deepresearch/internal/services"
)

type stubCompleter struct {
	response   string
	err        error
	userPrompt string
}

func (s *stubCompleter) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	s.userPrompt = userPrompt
	return s.response, s.err
}

func TestWriteBuildsArtifact(t *testing.T) {
	stub := &stubCompleter{response: `{"short_summary":" Prices fell. ","markdown_report":"# Report\n\nBody","follow_up_questions":["What next?"," "]}`}
	w, err := New(stub, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	artifact, err := w.Write(context.Background(), "battery storage prices", []string{"first summary", "second summary"})
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if artifact.Title != "Battery Storage Prices" {
		t.Fatalf("unexpected title %q", artifact.Title)
	}
	if artifact.ShortSummary != "Prices fell." || artifact.MarkdownBody != "# Report\n\nBody" {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
	if len(artifact.FollowUpQuestions) != 1 {
		t.Fatalf("expected blank follow-ups dropped, got %v", artifact.FollowUpQuestions)
	}
	for _, want := range []string{"Original query: battery storage prices", "[1]\nfirst summary", "[2]\nsecond summary"} {
		if !strings.Contains(stub.userPrompt, want) {
			t.Fatalf("expected %q in prompt %q", want, stub.userPrompt)
		}
	}
}

func TestWriteWithoutResultsSaysSo(t *testing.T) {
	stub := &stubCompleter{response: `{"markdown_report":"body"}`}
	w, _ := New(stub, nil)
	if _, err := w.Write(context.Background(), "q", nil); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if !strings.Contains(stub.userPrompt, "no web sources") {
		t.Fatalf("expected prompt to mention missing sources, got %q", stub.userPrompt)
	}
}

func TestWriteErrors(t *testing.T) {
	tests := []struct {
		name string
		stub *stubCompleter
	}{
		{"llm error", &stubCompleter{err: errors.New("boom")}},
		{"malformed", &stubCompleter{response: "nope"}},
		{"empty body", &stubCompleter{response: `{"short_summary":"x","markdown_report":"  "}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := New(tt.stub, nil)
			_, err := w.Write(context.Background(), "q", []string{"r"})
			if !errors.Is(err, services.ErrExternalTool) {
				t.Fatalf("expected external tool error, got %v", err)
			}
		})
	}
}

func TestBuildUserPromptTruncatesLongResults(t *testing.T) {
	prompt := buildUserPrompt("q", []string{strings.Repeat("x", maxResultChars+50)})
	if !strings.Contains(prompt, strings.Repeat("x", maxResultChars)+"...") {
		t.Fatal("expected long result to be truncated with ellipsis")
	}
	if strings.Contains(prompt, strings.Repeat("x", maxResultChars+1)) {
		t.Fatal("result was not truncated")
	}
}
