// Package featurelog correlates per-block feature rows with the coding
// decision that follows them and keeps a bounded uniform sample of the
// completed rows for every block size.
//
// A Logger is shared by all encoder workers. Its instrumentation calls
// (StartRecord, CloseRecord) never fail and never block on I/O: anything
// unexpected degrades to dropping the observation.
package featurelog

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/banshee-data/blockfeatures/internal/blockfeat"
	"github.com/banshee-data/blockfeatures/internal/timeutil"
)

// Config configures a Logger.
type Config struct {
	// Capacity is the per-bucket reservoir size; <= 0 uses DefaultCapacity.
	Capacity int
	// Seed fixes the sampling sequence. Nil seeds from the clock.
	Seed *uint64
	// Sinks receive every flush. Sink errors are logged and returned
	// from Flush/Close but never abort the other sinks.
	Sinks []Sink
	// Clock stamps snapshots; nil uses the real clock.
	Clock timeutil.Clock
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// Logger is the process-wide record coordinator. The zero value is not
// usable; construct with New and pass it to whatever needs it.
type Logger struct {
	sinks    []Sink
	logger   *log.Logger
	clock    timeutil.Clock
	capacity int

	// writeMu is held from snapshot through the sink writes, so snapshots
	// reach the sinks in the order they were taken. Taken before mu.
	writeMu sync.Mutex

	// mu guards everything below, including the generator.
	mu         sync.Mutex
	configured bool
	closed     bool
	dataset    string
	qp         int
	rng        *rand.Rand
	pending    map[Key]pendingRecord
	buckets    map[string]*reservoir
}

// New creates an unconfigured Logger. Until Configure is called every
// operation is a no-op.
func New(cfg Config) *Logger {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	clock := timeutil.OrReal(cfg.Clock)
	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = uint64(clock.Now().UnixNano())
	}
	return &Logger{
		sinks:    append([]Sink(nil), cfg.Sinks...),
		logger:   logger,
		clock:    clock,
		capacity: capacity,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		pending:  make(map[Key]pendingRecord),
		buckets:  make(map[string]*reservoir),
	}
}

// Configure names the dataset the logger writes. Only the first call has
// any effect.
func (l *Logger) Configure(dataset string, qp int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.configured {
		return
	}
	l.configured = true
	l.dataset = dataset
	l.qp = qp
	l.logger.Printf("featurelog: configured dataset=%s qp=%d capacity=%d", dataset, qp, l.capacity)
}

// Dataset returns the configured dataset name and QP.
func (l *Logger) Dataset() (string, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dataset, l.qp
}

// StartRecord opens a record for the block identified by id and returns
// the key that CloseRecord needs. It returns NoKey and stores nothing when
// the logger is not configured or already closed. A second StartRecord for
// the same identity replaces the pending row.
func (l *Logger) StartRecord(id Identity, fv *blockfeat.FeatureVector, qp int) Key {
	if l == nil || fv == nil {
		return NoKey
	}
	// cheap check before formatting; re-checked under the lock
	l.mu.Lock()
	ready := l.configured && !l.closed
	l.mu.Unlock()
	if !ready {
		return NoKey
	}

	rec := newPendingRecord(id, qp, fv)
	key := id.Key()

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.configured || l.closed {
		return NoKey
	}
	l.pending[key] = rec
	return key
}

// CloseRecord completes the pending record for key with tag and offers it
// to its block-size reservoir. Unknown keys are ignored.
func (l *Logger) CloseRecord(key Key, tag Tag) {
	if l == nil || key == NoKey {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.configured || l.closed {
		return
	}
	rec, ok := l.pending[key]
	if !ok {
		return
	}
	delete(l.pending, key)

	r := l.buckets[rec.bucket]
	if r == nil {
		r = newReservoir(l.capacity)
		l.buckets[rec.bucket] = r
	}
	r.offer(CompletedRecord{Fields: rec.fields, Tag: tag}, l.rng)
}

// Flush writes the current sample of every non-empty bucket to all sinks.
// Repeated calls rewrite the same destinations. It is a no-op before
// Configure and after Close.
func (l *Logger) Flush() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	if !l.configured || l.closed {
		l.mu.Unlock()
		return nil
	}
	snap := l.snapshotLocked()
	l.mu.Unlock()

	return l.write(snap)
}

// Close performs the final flush and stops accepting records. Pending
// records that never received a decision are discarded. Later calls are
// no-ops.
func (l *Logger) Close() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	if !l.configured || l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	snap := l.snapshotLocked()
	orphans := len(l.pending)
	l.pending = make(map[Key]pendingRecord)
	l.mu.Unlock()

	if orphans > 0 {
		l.logger.Printf("featurelog: discarding %d records without a decision", orphans)
	}
	return l.write(snap)
}

func (l *Logger) snapshotLocked() Snapshot {
	snap := Snapshot{
		Dataset: l.dataset,
		QP:      l.qp,
		Header:  Header(),
		TakenAt: l.clock.Now(),
	}
	for label, r := range l.buckets {
		if len(r.rows) == 0 {
			continue
		}
		snap.Buckets = append(snap.Buckets, BucketSample{
			Bucket:   label,
			Observed: r.seen,
			Records:  r.snapshot(),
		})
	}
	sort.Slice(snap.Buckets, func(i, j int) bool {
		return snap.Buckets[i].Bucket < snap.Buckets[j].Bucket
	})
	return snap
}

func (l *Logger) write(snap Snapshot) error {
	if len(snap.Buckets) == 0 {
		return nil
	}
	var errs []error
	for _, s := range l.sinks {
		if err := s.WriteSnapshot(snap); err != nil {
			l.logger.Printf("featurelog: sink %s: %v", s.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		l.logger.Printf("featurelog: wrote %d buckets to %s", len(snap.Buckets), s.Name())
	}
	return errors.Join(errs...)
}

// BucketStats are the counters of one block-size bucket.
type BucketStats struct {
	Bucket   string
	Observed uint64
	Sampled  int
}

// Stats summarises the logger state.
type Stats struct {
	Configured bool
	Closed     bool
	Pending    int
	Buckets    []BucketStats
}

// Stats returns a consistent view of the counters, buckets sorted by label.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Stats{
		Configured: l.configured,
		Closed:     l.closed,
		Pending:    len(l.pending),
	}
	for label, r := range l.buckets {
		st.Buckets = append(st.Buckets, BucketStats{Bucket: label, Observed: r.seen, Sampled: len(r.rows)})
	}
	sort.Slice(st.Buckets, func(i, j int) bool { return st.Buckets[i].Bucket < st.Buckets[j].Bucket })
	return st
}
