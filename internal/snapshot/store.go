// Package snapshot persists analysis results as immutable, timestamped
// records in SQLite, keyed by URL. The store is append-only: snapshots
// are never updated or deleted, corrections are new snapshots.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/reviewrise/healthscan/internal/types"
)

// schema is the append-only snapshot table. JSON columns carry the
// structured sub-records; created_at is unix nanoseconds for cheap
// ordering.
const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id              TEXT PRIMARY KEY,
	url             TEXT NOT NULL,
	health_score    REAL NOT NULL,
	weights_version TEXT NOT NULL,
	category_scores TEXT NOT NULL,
	recommendations TEXT NOT NULL,
	strategic       TEXT,
	summary         TEXT,
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_url_created
	ON snapshots (url, created_at DESC);
`

// pragmas applied at open: WAL for concurrent readers during appends,
// busy_timeout so concurrent saves queue instead of erroring.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
}

// Store is the append-only snapshot store.
type Store struct {
	db *sql.DB

	// mu guards lastCreatedAt, keeping created_at monotonic per insert
	mu            sync.Mutex
	lastCreatedAt time.Time

	now func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (or creates) the snapshot database at path. Use ":memory:"
// for tests.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, ErrMissingPath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating snapshot schema: %w", err)
	}

	store := &Store{
		db:  db,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// nextCreatedAt returns a UTC timestamp strictly after every previously
// assigned one, so created_at ordering matches insert ordering even when
// saves land within clock resolution.
func (s *Store) nextCreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if !ts.After(s.lastCreatedAt) {
		ts = s.lastCreatedAt.Add(time.Microsecond)
	}
	s.lastCreatedAt = ts

	return ts
}

// Save appends a snapshot and returns its assigned id. The caller's
// snapshot is completed with the store-assigned id and timestamp.
func (s *Store) Save(ctx context.Context, snap *types.HealthSnapshot) (string, error) {
	if snap == nil {
		return "", ErrNilSnapshot
	}
	if snap.URL == "" {
		return "", ErrMissingURL
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating snapshot id: %w", err)
	}

	createdAt := s.nextCreatedAt()

	categoryScores, err := json.Marshal(snap.CategoryScores)
	if err != nil {
		return "", fmt.Errorf("encoding category scores: %w", err)
	}

	recommendations, err := json.Marshal(snap.Recommendations)
	if err != nil {
		return "", fmt.Errorf("encoding recommendations: %w", err)
	}

	var strategic []byte
	if len(snap.StrategicRecommendations) > 0 {
		strategic, err = json.Marshal(snap.StrategicRecommendations)
		if err != nil {
			return "", fmt.Errorf("encoding strategic recommendations: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, url, health_score, weights_version, category_scores, recommendations, strategic, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), snap.URL, snap.HealthScore, snap.WeightsVersion,
		string(categoryScores), string(recommendations), nullableText(strategic), nullableString(snap.Summary),
		createdAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	snap.ID = id.String()
	snap.CreatedAt = createdAt

	return snap.ID, nil
}

// FindLatest returns the most recent snapshot for the URL by created_at,
// or ErrNotFound when the URL has never been analyzed.
func (s *Store) FindLatest(ctx context.Context, url string) (*types.HealthSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, health_score, weights_version, category_scores, recommendations, strategic, summary, created_at
		FROM snapshots
		WHERE url = ?
		ORDER BY created_at DESC
		LIMIT 1`, url)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return snap, err
}

// Count returns the number of snapshots for the URL, or across all URLs
// when url is empty.
func (s *Store) Count(ctx context.Context, url string) (int64, error) {
	var (
		count int64
		err   error
	)

	if url == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE url = ?`, url).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("counting snapshots: %w", err)
	}

	return count, nil
}

// History returns up to limit snapshots for the URL ordered by
// created_at descending.
func (s *Store) History(ctx context.Context, url string, limit int) ([]types.HealthSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, health_score, weights_version, category_scores, recommendations, strategic, summary, created_at
		FROM snapshots
		WHERE url = ?
		ORDER BY created_at DESC
		LIMIT ?`, url, limit)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows close error is non-critical

	var history []types.HealthSnapshot

	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *snap)
	}

	return history, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for scanSnapshot.
type scanner interface {
	Scan(dest ...any) error
}

// scanSnapshot decodes one snapshot row back into its typed form.
func scanSnapshot(row scanner) (*types.HealthSnapshot, error) {
	var (
		snap            types.HealthSnapshot
		categoryScores  string
		recommendations string
		strategic       sql.NullString
		summary         sql.NullString
		createdAt       int64
	)

	if err := row.Scan(&snap.ID, &snap.URL, &snap.HealthScore, &snap.WeightsVersion,
		&categoryScores, &recommendations, &strategic, &summary, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(categoryScores), &snap.CategoryScores); err != nil {
		return nil, fmt.Errorf("decoding category scores: %w", err)
	}

	if err := json.Unmarshal([]byte(recommendations), &snap.Recommendations); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
	}

	if strategic.Valid && strategic.String != "" {
		if err := json.Unmarshal([]byte(strategic.String), &snap.StrategicRecommendations); err != nil {
			return nil, fmt.Errorf("decoding strategic recommendations: %w", err)
		}
	}

	snap.Summary = summary.String
	snap.CreatedAt = time.Unix(0, createdAt).UTC()

	return &snap, nil
}

// nullableText converts optional JSON to a NULL-able column value.
func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// nullableString converts an optional string to a NULL-able column value.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
