package notifications

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"deepresearch/internal/fileutil"
	"deepresearch/internal/research"
	"deepresearch/internal/textutil"
)

const (
	reportLockName    = ".deepresearch-reports.lock"
	reportSlugMaxLen  = 60
	reportLockTimeout = 5 * time.Second
	reportLockRetry   = 50 * time.Millisecond
	// reportNameAttempts caps the numbered suffixes tried per timestamp.
	reportNameAttempts = 1000
)

// fileTransport saves reports as markdown under a directory. Concurrent
// processes serialize on a lock file so names never collide.
type fileTransport struct {
	dir    string
	now    func() time.Time
	exists func(string) (bool, error)
}

func newFileTransport(dir string, now func() time.Time) *fileTransport {
	if now == nil {
		now = time.Now
	}
	return &fileTransport{dir: dir, now: now, exists: fileutil.Exists}
}

func (f *fileTransport) Name() string { return "file" }

func (f *fileTransport) Send(ctx context.Context, artifact research.ReportArtifact) (string, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	lock := flock.New(filepath.Join(f.dir, reportLockName))
	lockCtx, cancel := context.WithTimeout(ctx, reportLockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, reportLockRetry)
	if err != nil {
		return "", fmt.Errorf("lock report dir: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("lock report dir: %s is busy", f.dir)
	}
	defer func() { _ = lock.Unlock() }()

	path, err := f.availablePath(artifact)
	if err != nil {
		return "", err
	}
	if err := fileutil.WriteFileAtomic(path, []byte(RenderMarkdown(artifact)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func (f *fileTransport) availablePath(artifact research.ReportArtifact) (string, error) {
	base := fmt.Sprintf("%s-%s", f.now().Format("20060102-150405"), textutil.SanitizeToken(subject(artifact), reportSlugMaxLen))
	path := filepath.Join(f.dir, base+".md")
	for i := 2; i <= reportNameAttempts+1; i++ {
		taken, err := f.exists(path)
		if err != nil {
			return "", fmt.Errorf("check report path: %w", err)
		}
		if !taken {
			return path, nil
		}
		path = filepath.Join(f.dir, fmt.Sprintf("%s-%d.md", base, i))
	}
	return "", fmt.Errorf("no free report name for %s after %d attempts", base, reportNameAttempts)
}
