package notifications

import (
	"errors"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"deepresearch/internal/research"
)

func TestAvailablePathSkipsTakenNames(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	f := newFileTransport(dir, func() time.Time { return now })
	taken := map[string]bool{
		filepath.Join(dir, "20260504-093000-report.md"):   true,
		filepath.Join(dir, "20260504-093000-report-2.md"): true,
	}
	f.exists = func(path string) (bool, error) { return taken[path], nil }

	path, err := f.availablePath(research.ReportArtifact{Title: "Report"})
	if err != nil {
		t.Fatalf("availablePath: %v", err)
	}
	if want := filepath.Join(dir, "20260504-093000-report-3.md"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
}

func TestAvailablePathReturnsStatErrors(t *testing.T) {
	f := newFileTransport(t.TempDir(), nil)
	calls := 0
	f.exists = func(string) (bool, error) {
		calls++
		return false, syscall.EACCES
	}

	if _, err := f.availablePath(research.ReportArtifact{Title: "Report"}); !errors.Is(err, syscall.EACCES) {
		t.Fatalf("expected EACCES, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single stat attempt, got %d", calls)
	}
}

func TestAvailablePathGivesUpWhenEveryNameIsTaken(t *testing.T) {
	f := newFileTransport(t.TempDir(), nil)
	calls := 0
	f.exists = func(string) (bool, error) {
		calls++
		return true, nil
	}

	if _, err := f.availablePath(research.ReportArtifact{Title: "Report"}); err == nil {
		t.Fatal("expected error when no name is free")
	}
	if calls != reportNameAttempts {
		t.Fatalf("calls = %d, want %d", calls, reportNameAttempts)
	}
}
