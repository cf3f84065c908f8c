// Package datasetdb keeps a SQLite manifest of every dataset flush: which
// buckets were written, how many blocks each one saw and the sampled rows
// themselves, so runs can be compared without re-reading the CSV files.
package datasetdb

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/blockfeatures/internal/featurelog"
)

// Store is a featurelog.Sink backed by a SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// Config contains configuration for Store.
type Config struct {
	// Path of the database file; ":memory:" is not supported because the
	// pool may open several connections.
	Path string
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// Open opens (creating if needed) the database at cfg.Path and migrates it
// to the latest schema.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: cfg.Path, logger: logger}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name implements featurelog.Sink.
func (s *Store) Name() string { return "sqlite:" + s.path }

// WriteSnapshot implements featurelog.Sink. Each call is a new run; the
// run and all of its rows commit together or not at all.
func (s *Store) WriteSnapshot(snap featurelog.Snapshot) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	runID := uuid.NewString()
	if _, err = tx.Exec(
		`INSERT INTO flush_runs (run_id, dataset, qp, taken_unix_nanos, bucket_count) VALUES (?, ?, ?, ?, ?)`,
		runID, snap.Dataset, snap.QP, snap.TakenAt.UnixNano(), len(snap.Buckets),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	bucketStmt, err := tx.Prepare(`INSERT INTO flush_buckets (run_id, bucket, observed, sampled) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare bucket insert: %w", err)
	}
	defer bucketStmt.Close()
	rowStmt, err := tx.Prepare(`INSERT INTO sampled_rows (run_id, bucket, row_index, tag, fields) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer rowStmt.Close()

	for _, b := range snap.Buckets {
		if _, err = bucketStmt.Exec(runID, b.Bucket, int64(b.Observed), len(b.Records)); err != nil {
			return fmt.Errorf("insert bucket %s: %w", b.Bucket, err)
		}
		for i, rec := range b.Records {
			// fields are plain numbers, so a comma join is unambiguous
			if _, err = rowStmt.Exec(runID, b.Bucket, i, string(rec.Tag), strings.Join(rec.Fields, ",")); err != nil {
				return fmt.Errorf("insert row %s/%d: %w", b.Bucket, i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Run is one recorded flush.
type Run struct {
	ID          string
	Dataset     string
	QP          int
	TakenAt     time.Time
	BucketCount int
}

// BucketSummary is the per-bucket counters of one run.
type BucketSummary struct {
	Bucket   string
	Observed uint64
	Sampled  int
}

// TagCount is the number of sampled rows of a bucket carrying one tag.
type TagCount struct {
	Bucket string
	Tag    featurelog.Tag
	Count  int
}

// Runs lists the flushes of dataset, oldest first. An empty dataset lists
// every run.
func (s *Store) Runs(dataset string) ([]Run, error) {
	query := `SELECT run_id, dataset, qp, taken_unix_nanos, bucket_count FROM flush_runs`
	var args []any
	if dataset != "" {
		query += ` WHERE dataset = ?`
		args = append(args, dataset)
	}
	query += ` ORDER BY taken_unix_nanos, run_id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var nanos int64
		if err := rows.Scan(&r.ID, &r.Dataset, &r.QP, &nanos, &r.BucketCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.TakenAt = time.Unix(0, nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent flush of dataset at qp, or nil when
// there is none.
func (s *Store) LatestRun(dataset string, qp int) (*Run, error) {
	var r Run
	var nanos int64
	err := s.db.QueryRow(
		`SELECT run_id, dataset, qp, taken_unix_nanos, bucket_count FROM flush_runs
		 WHERE dataset = ? AND qp = ? ORDER BY taken_unix_nanos DESC, rowid DESC LIMIT 1`,
		dataset, qp,
	).Scan(&r.ID, &r.Dataset, &r.QP, &nanos, &r.BucketCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	r.TakenAt = time.Unix(0, nanos)
	return &r, nil
}

// Buckets returns the bucket counters of a run, sorted by label.
func (s *Store) Buckets(runID string) ([]BucketSummary, error) {
	rows, err := s.db.Query(
		`SELECT bucket, observed, sampled FROM flush_buckets WHERE run_id = ? ORDER BY bucket`, runID)
	if err != nil {
		return nil, fmt.Errorf("query buckets: %w", err)
	}
	defer rows.Close()

	var out []BucketSummary
	for rows.Next() {
		var b BucketSummary
		var observed int64
		if err := rows.Scan(&b.Bucket, &observed, &b.Sampled); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		b.Observed = uint64(observed)
		out = append(out, b)
	}
	return out, rows.Err()
}

// TagCounts returns how often each tag occurs among a run's sampled rows,
// sorted by bucket then tag.
func (s *Store) TagCounts(runID string) ([]TagCount, error) {
	rows, err := s.db.Query(
		`SELECT bucket, tag, COUNT(*) FROM sampled_rows WHERE run_id = ?
		 GROUP BY bucket, tag ORDER BY bucket, tag`, runID)
	if err != nil {
		return nil, fmt.Errorf("query tag counts: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		var tag string
		if err := rows.Scan(&tc.Bucket, &tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		tc.Tag = featurelog.Tag(tag)
		out = append(out, tc)
	}
	return out, rows.Err()
}

// SampledRows returns the stored rows of one bucket of a run, in slot order.
func (s *Store) SampledRows(runID, bucket string) ([]featurelog.CompletedRecord, error) {
	rows, err := s.db.Query(
		`SELECT tag, fields FROM sampled_rows WHERE run_id = ? AND bucket = ? ORDER BY row_index`,
		runID, bucket)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []featurelog.CompletedRecord
	for rows.Next() {
		var tag, fields string
		if err := rows.Scan(&tag, &fields); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, featurelog.CompletedRecord{Fields: strings.Split(fields, ","), Tag: featurelog.Tag(tag)})
	}
	return out, rows.Err()
}

var _ featurelog.Sink = (*Store)(nil)
