package featurelog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/blockfeatures/internal/fsutil"
	"github.com/banshee-data/blockfeatures/internal/security"
)

// BucketSample is the sampled content of one block-size bucket.
type BucketSample struct {
	Bucket   string
	Observed uint64
	Records  []CompletedRecord
}

// Snapshot is everything one flush writes.
type Snapshot struct {
	Dataset string
	QP      int
	Header  []string
	TakenAt time.Time
	Buckets []BucketSample
}

// Sink persists flushed snapshots. Implementations are called outside the
// logger lock, possibly from several goroutines.
type Sink interface {
	Name() string
	WriteSnapshot(snap Snapshot) error
}

// CSVSink writes one file per bucket, named by FileName, under Dir.
type CSVSink struct {
	dir string
	fs  fsutil.FileSystem

	mu sync.Mutex
}

// NewCSVSink writes into dir through fsys (fsutil.OSFileSystem{} for disk).
func NewCSVSink(dir string, fsys fsutil.FileSystem) *CSVSink {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &CSVSink{dir: dir, fs: fsys}
}

// Name implements Sink.
func (s *CSVSink) Name() string { return "csv:" + s.dir }

// FileName is the dataset file of one bucket: <dataset>_<qp>_<bucket>.csv.
// Only the dataset part is shortened, so distinct buckets never share a
// file.
func FileName(dataset string, qp int, bucket string) string {
	return security.SanitizeFilename(dataset) + "_" + strconv.Itoa(qp) + "_" +
		security.SanitizeFilename(bucket) + ".csv"
}

// WriteSnapshot rewrites every bucket file of snap. A failing bucket does
// not stop the others; the first error is returned.
func (s *CSVSink) WriteSnapshot(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}

	var firstErr error
	for _, b := range snap.Buckets {
		if err := s.writeBucket(snap, b); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("bucket %s: %w", b.Bucket, err)
		}
	}
	return firstErr
}

func (s *CSVSink) writeBucket(snap Snapshot, b BucketSample) error {
	path, err := security.JoinWithin(s.dir, FileName(snap.Dataset, snap.QP, b.Bucket))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(snap.Header); err != nil {
		return err
	}
	for _, rec := range b.Records {
		if err := w.Write(rec.Row()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	// write beside the target and swap, so readers never see a partial file
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := s.fs.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
