// Package store caches weave reports in SQLite, keyed by a digest of the
// inputs that produced them. Repeated CLI runs over unchanged models and
// aspect files reuse the cached report instead of weaving again.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/chazu/weft/pkg/weave"
)

var (
	// ErrReportNotFound indicates no report is cached for a digest.
	ErrReportNotFound = errors.New("report not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	digest     TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	report     TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// timeFormat sorts lexically in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Store is a report cache backed by a SQLite database.
type Store struct {
	db      *sql.DB
	dbPath  string
	logger  *zap.Logger
	cache   map[string]*weave.Report
	cacheMu sync.RWMutex
	closed  bool
}

// Config holds store configuration options.
type Config struct {
	DBPath string      // Path to the database (defaults to <user cache dir>/weft/reports.db)
	Logger *zap.Logger // Defaults to a no-op logger
}

// New opens (creating if needed) the report database.
// If cfg is nil, defaults are used.
func New(cfg *Config) (*Store, error) {
	s := &Store{
		cache:  make(map[string]*weave.Report),
		logger: zap.NewNop(),
	}
	if cfg != nil && cfg.Logger != nil {
		s.logger = cfg.Logger
	}

	if cfg != nil && cfg.DBPath != "" {
		s.dbPath = cfg.DBPath
	} else {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("getting cache dir: %w", err)
		}
		s.dbPath = filepath.Join(dir, "weft", "reports.db")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Debug("report store opened", zap.String("path", s.dbPath))
	return s, nil
}

// Path returns the database file in use.
func (s *Store) Path() string { return s.dbPath }

// Close closes the database connection. Closing twice is a no-op.
func (s *Store) Close() error {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cache = make(map[string]*weave.Report)

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the report cached under digest.
func (s *Store) Get(digest string) (*weave.Report, error) {
	s.cacheMu.RLock()
	report, ok := s.cache[digest]
	closed := s.closed
	s.cacheMu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return report, nil
	}

	var data string
	err := s.db.QueryRow("SELECT report FROM reports WHERE digest = ?", digest).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, digest)
		}
		return nil, fmt.Errorf("querying report: %w", err)
	}

	report, err = weave.DecodeReport([]byte(data))
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	if !s.closed {
		s.cache[digest] = report
	}
	s.cacheMu.Unlock()

	s.logger.Debug("report loaded", zap.String("digest", digest), zap.Stringer("id", report.ID))
	return report, nil
}

// Put stores report under digest, replacing any previous entry.
func (s *Store) Put(digest string, report *weave.Report) error {
	data, err := report.Encode()
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO reports (digest, id, report, created_at) VALUES (?, ?, json(?), ?)",
		digest, report.ID.String(), string(data), time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	s.cache[digest] = report

	s.logger.Debug("report stored", zap.String("digest", digest), zap.Stringer("id", report.ID))
	return nil
}

// Delete removes a report from the database and cache.
func (s *Store) Delete(digest string) error {
	s.cacheMu.Lock()
	closed := s.closed
	delete(s.cache, digest)
	s.cacheMu.Unlock()
	if closed {
		return ErrClosed
	}

	if _, err := s.db.Exec("DELETE FROM reports WHERE digest = ?", digest); err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}

// Digests returns every cached digest in sorted order.
func (s *Store) Digests() ([]string, error) {
	rows, err := s.db.Query("SELECT digest FROM reports")
	if err != nil {
		return nil, fmt.Errorf("querying digests: %w", err)
	}
	defer rows.Close()

	var digests []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning digest: %w", err)
		}
		digests = append(digests, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating digests: %w", err)
	}
	sort.Strings(digests)
	return digests, nil
}

// Prune deletes reports stored before cutoff and returns how many went.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	s.FlushCache()

	res, err := s.db.Exec("DELETE FROM reports WHERE created_at < ?", cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("pruning reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning reports: %w", err)
	}
	s.logger.Info("pruned report cache", zap.Int64("removed", n))
	return n, nil
}

// FlushCache clears the in-memory cache.
func (s *Store) FlushCache() {
	s.cacheMu.Lock()
	s.cache = make(map[string]*weave.Report)
	s.cacheMu.Unlock()
}

// InputDigest hashes the inputs of a weave. Each input is length-prefixed so
// moving bytes between inputs changes the digest.
func InputDigest(inputs ...[]byte) string {
	h := sha256.New()
	for _, in := range inputs {
		fmt.Fprintf(h, "%d:", len(in))
		h.Write(in)
	}
	return hex.EncodeToString(h.Sum(nil))
}
