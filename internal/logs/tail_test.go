package logs_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deepresearch/internal/logs"
)

const sampleLog = `{"ts":"2026-03-01T10:00:00Z","level":"info","msg":"search plan ready","component":"planner","run_id":"trace_a","planned":3}
{"ts":"2026-03-01T10:00:01Z","level":"debug","msg":"cache miss","component":"search","run_id":"trace_a"}
plain text line
{"ts":"2026-03-01T10:00:02Z","level":"warn","msg":"search failed","component":"search","run_id":"trace_a","query":"x"}
{"ts":"2026-03-01T10:05:00Z","level":"info","msg":"search plan ready","component":"planner","run_id":"trace_b","planned":2}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deepresearch.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastReturnsTrailingRecords(t *testing.T) {
	path := writeLog(t, sampleLog)

	records, offset, err := logs.NewTailer(path, logs.Filter{}, 0).Last(2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if offset != int64(len(sampleLog)) {
		t.Fatalf("offset = %d, want %d", offset, len(sampleLog))
	}
	if len(records) != 2 || records[0].Message != "search failed" || records[1].RunID != "trace_b" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestLastAppliesFilter(t *testing.T) {
	path := writeLog(t, sampleLog)

	tests := []struct {
		name   string
		filter logs.Filter
		want   []string
	}{
		{"run", logs.Filter{RunID: "trace_a"}, []string{"search plan ready", "cache miss", "search failed"}},
		{"component", logs.Filter{Component: "SEARCH"}, []string{"cache miss", "search failed"}},
		{"level", logs.Filter{MinLevel: slog.LevelWarn}, []string{"search failed"}},
		{"none", logs.Filter{}, []string{"search plan ready", "cache miss", "plain text line", "search failed", "search plan ready"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, _, err := logs.NewTailer(path, tt.filter, 0).Last(10)
			if err != nil {
				t.Fatalf("Last: %v", err)
			}
			if len(records) != len(tt.want) {
				t.Fatalf("got %d records, want %d: %+v", len(records), len(tt.want), records)
			}
			for i, rec := range records {
				if rec.Message != tt.want[i] {
					t.Fatalf("record %d = %q, want %q", i, rec.Message, tt.want[i])
				}
			}
		})
	}
}

func TestLastMissingFile(t *testing.T) {
	records, offset, err := logs.NewTailer(filepath.Join(t.TempDir(), "missing.log"), logs.Filter{}, 0).Last(5)
	if err != nil || len(records) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %v %d %v", records, offset, err)
	}
}

func TestFormat(t *testing.T) {
	rec := logs.ParseRecord(`{"ts":"2026-03-01T10:00:02Z","level":"warn","msg":"search failed","component":"search","run_id":"trace_a","query":"x","attempt":2}`)
	got := rec.Format()
	for _, want := range []string{"WARN", "[search] search failed", "run_id=trace_a", "attempt=2 query=x"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Format() = %q, missing %q", got, want)
		}
	}
	if plain := logs.ParseRecord("not json"); plain.Structured() || plain.Format() != "not json" {
		t.Fatalf("unexpected plain record %+v", plain)
	}
}

func TestParseLevel(t *testing.T) {
	if level, err := logs.ParseLevel("WARN"); err != nil || level != slog.LevelWarn {
		t.Fatalf("ParseLevel(WARN) = %v, %v", level, err)
	}
	if _, err := logs.ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestFollowEmitsAppendedRecords(t *testing.T) {
	path := writeLog(t, "start\n")
	tailer := logs.NewTailer(path, logs.Filter{}, 20*time.Millisecond)

	_, offset, err := tailer.Last(1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	got := make(chan logs.Record, 4)
	done := make(chan error, 1)
	go func() {
		done <- tailer.Follow(ctx, offset, func(rec logs.Record) error {
			got <- rec
			return nil
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("partial"); err != nil {
		t.Fatalf("append: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := f.WriteString(" line\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	select {
	case rec := <-got:
		if rec.Raw != "partial line" {
			t.Fatalf("unexpected record %q", rec.Raw)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not emit")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop")
	}
}

func TestFollowRestartsAfterTruncate(t *testing.T) {
	path := writeLog(t, "one\ntwo\n")
	tailer := logs.NewTailer(path, logs.Filter{}, 20*time.Millisecond)

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	got := make(chan string, 4)
	go func() {
		_ = tailer.Follow(ctx, 8, func(rec logs.Record) error {
			got <- rec.Raw
			return nil
		})
	}()

	select {
	case line := <-got:
		if line != "fresh" {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not restart after truncation")
	}
}
