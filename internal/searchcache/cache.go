package searchcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"deepresearch/internal/logging"
)

// Condense modes. A digest and an LLM summary of the same query are
// separate entries.
const (
	ModeDigest  = "digest"
	ModeSummary = "summary"
)

// Entry is one cached search summary.
type Entry struct {
	Provider    string    `json:"provider" yaml:"provider"`
	Mode        string    `json:"mode" yaml:"mode"`
	Query       string    `json:"query" yaml:"query"`
	Summary     string    `json:"summary" yaml:"summary"`
	ResultCount int       `json:"result_count" yaml:"result_count"`
	CachedAt    time.Time `json:"cached_at" yaml:"cached_at"`
}

// Options configures a Cache.
type Options struct {
	// TTL bounds entry age; zero keeps entries forever.
	TTL    time.Duration
	Logger *slog.Logger
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Cache is a SQLite-backed store of search summaries. A nil *Cache is a valid
// disabled cache: lookups miss and writes are dropped.
type Cache struct {
	db     *sql.DB
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Open creates or connects to the cache database at path, creating parent
// directories as needed.
func Open(ctx context.Context, path string, opts Options) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("search cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cache := &Cache{
		db:     db,
		path:   path,
		ttl:    max(opts.TTL, 0),
		now:    now,
		logger: logging.NewComponentLogger(opts.Logger, "searchcache"),
	}
	if err := cache.initSchema(ensureContext(ctx)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// dsn applies pragmas through the connection string so every pooled
// connection gets them.
func dsn(path string) string {
	values := url.Values{}
	for _, pragma := range pragmas {
		values.Add("_pragma", pragma)
	}
	return "file:" + path + "?" + values.Encode()
}

// Path returns the database file location.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the fresh entry for provider, mode and query. Expired
// entries are reported as misses and left for Purge.
func (c *Cache) Lookup(ctx context.Context, provider, mode, query string) (Entry, bool, error) {
	key := NormalizeQuery(query)
	if c == nil || key == "" {
		return Entry{}, false, nil
	}
	if strings.TrimSpace(mode) == "" {
		mode = ModeDigest
	}
	ctx = ensureContext(ctx)

	var (
		entry    Entry
		cachedAt int64
	)
	err := retryOnBusy(ctx, func() error {
		return c.db.QueryRowContext(ctx,
			`SELECT provider, mode, query, summary, result_count, cached_at
			   FROM search_results WHERE provider = ? AND mode = ? AND query_key = ?`,
			provider, mode, key,
		).Scan(&entry.Provider, &entry.Mode, &entry.Query, &entry.Summary, &entry.ResultCount, &cachedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup cached search: %w", err)
	}
	entry.CachedAt = time.Unix(0, cachedAt).UTC()
	if c.expired(entry.CachedAt) {
		c.logger.Debug("cached search expired",
			logging.String("provider", provider),
			logging.String("mode", mode),
			logging.String(logging.FieldQuery, query),
			logging.Duration("age", c.now().Sub(entry.CachedAt)))
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Store inserts or replaces the entry. CachedAt defaults to now and Mode to
// ModeDigest.
func (c *Cache) Store(ctx context.Context, entry Entry) error {
	key := NormalizeQuery(entry.Query)
	if key == "" {
		return errors.New("search query cannot be empty")
	}
	if strings.TrimSpace(entry.Mode) == "" {
		entry.Mode = ModeDigest
	}
	if c == nil {
		return nil
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = c.now()
	}
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, execErr := c.db.ExecContext(ctx,
			`INSERT INTO search_results (provider, mode, query_key, query, summary, result_count, cached_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(provider, mode, query_key) DO UPDATE SET
			   query = excluded.query,
			   summary = excluded.summary,
			   result_count = excluded.result_count,
			   cached_at = excluded.cached_at`,
			entry.Provider, entry.Mode, key, strings.TrimSpace(entry.Query), entry.Summary, entry.ResultCount, entry.CachedAt.UnixNano(),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("store cached search: %w", err)
	}
	c.logger.Debug("cached search summary",
		logging.String("provider", entry.Provider),
		logging.String("mode", entry.Mode),
		logging.String(logging.FieldQuery, entry.Query),
		logging.Int("result_count", entry.ResultCount))
	return nil
}

// List returns all entries, newest first, including expired ones.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	if c == nil {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	rows, err := c.db.QueryContext(ctx,
		`SELECT provider, mode, query, summary, result_count, cached_at
		   FROM search_results ORDER BY cached_at DESC, query ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cached searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			cachedAt int64
		)
		if err := rows.Scan(&entry.Provider, &entry.Mode, &entry.Query, &entry.Summary, &entry.ResultCount, &cachedAt); err != nil {
			return nil, fmt.Errorf("scan cached search: %w", err)
		}
		entry.CachedAt = time.Unix(0, cachedAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached searches: %w", err)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (c *Cache) Count(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	var count int
	if err := c.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM search_results").Scan(&count); err != nil {
		return 0, fmt.Errorf("count cached searches: %w", err)
	}
	return count, nil
}

// Clear removes every entry and returns how many were deleted.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	removed, err := c.deleteWhere(ctx, "DELETE FROM search_results")
	if err != nil {
		return 0, fmt.Errorf("clear search cache: %w", err)
	}
	c.logger.Debug("cleared search cache", logging.Any("removed", removed))
	return removed, nil
}

// Purge removes entries older than the TTL. Without a TTL it is a no-op.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	if c == nil || c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-c.ttl).UnixNano()
	removed, err := c.deleteWhere(ctx, "DELETE FROM search_results WHERE cached_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge search cache: %w", err)
	}
	return removed, nil
}

func (c *Cache) deleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	if err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = c.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *Cache) expired(cachedAt time.Time) bool {
	return c.ttl > 0 && c.now().Sub(cachedAt) > c.ttl
}

// NormalizeQuery lowercases the query and collapses whitespace.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}
