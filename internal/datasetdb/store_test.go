package datasetdb

import (
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/blockfeatures/internal/blockfeat"
	"github.com/banshee-data/blockfeatures/internal/featurelog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{
		Path:   filepath.Join(t.TempDir(), "manifest.db"),
		Logger: log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(takenAt time.Time) featurelog.Snapshot {
	return featurelog.Snapshot{
		Dataset: "BQSquare",
		QP:      32,
		Header:  featurelog.Header(),
		TakenAt: takenAt,
		Buckets: []featurelog.BucketSample{
			{
				Bucket:   "16x8",
				Observed: 40,
				Records: []featurelog.CompletedRecord{
					{Fields: []string{"0", "16", "0", "16", "8", "32"}, Tag: featurelog.TagDCT2DCT2},
				},
			},
			{
				Bucket:   "8x8",
				Observed: 9000,
				Records: []featurelog.CompletedRecord{
					{Fields: []string{"0", "0", "0", "8", "8", "32", "31.5"}, Tag: featurelog.TagSkip},
					{Fields: []string{"1", "8", "0", "8", "8", "32", "12"}, Tag: featurelog.TagDST7DST7},
					{Fields: []string{"2", "8", "8", "8", "8", "32", "0.25"}, Tag: featurelog.TagSkip},
				},
			},
		},
	}
}

func TestOpen_MigratesSchema(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	version, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	assert.Contains(t, s.Name(), "manifest.db")
}

func TestOpen_ReopenIsNoChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.db")
	quiet := log.New(io.Discard, "", 0)
	s, err := Open(Config{Path: path, Logger: quiet})
	require.NoError(t, err)
	require.NoError(t, s.WriteSnapshot(testSnapshot(time.Unix(100, 0))))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: path, Logger: quiet})
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs("")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	taken := time.Unix(1700000000, 123)
	require.NoError(t, s.WriteSnapshot(testSnapshot(taken)))

	run, err := s.LatestRun("BQSquare", 32)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 2, run.BucketCount)
	assert.True(t, run.TakenAt.Equal(taken))
	assert.Len(t, run.ID, 36)

	buckets, err := s.Buckets(run.ID)
	require.NoError(t, err)
	assert.Equal(t, []BucketSummary{
		{Bucket: "16x8", Observed: 40, Sampled: 1},
		{Bucket: "8x8", Observed: 9000, Sampled: 3},
	}, buckets)

	counts, err := s.TagCounts(run.ID)
	require.NoError(t, err)
	want := []TagCount{
		{Bucket: "16x8", Tag: featurelog.TagDCT2DCT2, Count: 1},
		{Bucket: "8x8", Tag: featurelog.TagDST7DST7, Count: 1},
		{Bucket: "8x8", Tag: featurelog.TagSkip, Count: 2},
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("TagCounts mismatch (-want +got):\n%s", diff)
	}

	rows, err := s.SampledRows(run.ID, "8x8")
	require.NoError(t, err)
	if diff := cmp.Diff(testSnapshot(taken).Buckets[1].Records, rows); diff != "" {
		t.Errorf("SampledRows mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSnapshot_EachFlushIsARun(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	require.NoError(t, s.WriteSnapshot(testSnapshot(time.Unix(10, 0))))
	later := testSnapshot(time.Unix(20, 0))
	later.Buckets = later.Buckets[1:]
	require.NoError(t, s.WriteSnapshot(later))

	other := testSnapshot(time.Unix(30, 0))
	other.Dataset = "BasketballPass"
	require.NoError(t, s.WriteSnapshot(other))

	runs, err := s.Runs("BQSquare")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].BucketCount)
	assert.Equal(t, 1, runs[1].BucketCount)

	latest, err := s.LatestRun("BQSquare", 32)
	require.NoError(t, err)
	assert.Equal(t, runs[1].ID, latest.ID)

	all, err := s.Runs("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.LatestRun("BQSquare", 22)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_AsLoggerSink(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	seed := uint64(5)
	l := featurelog.New(featurelog.Config{
		Capacity: 4,
		Seed:     &seed,
		Sinks:    []featurelog.Sink{s},
		Logger:   log.New(io.Discard, "", 0),
	})
	l.Configure("BlowingBubbles", 27)

	samples := make([]int16, 16)
	fv := blockfeat.Extract(blockfeat.NewBlock(4, 4, samples), blockfeat.NewBlock(4, 4, samples))
	for i := 0; i < 10; i++ {
		key := l.StartRecord(featurelog.Identity{POC: i, Width: 4, Height: 4}, &fv, 27)
		l.CloseRecord(key, featurelog.TagDCT2DCT2)
	}
	require.NoError(t, l.Close())

	run, err := s.LatestRun("BlowingBubbles", 27)
	require.NoError(t, err)
	require.NotNil(t, run)
	buckets, err := s.Buckets(run.ID)
	require.NoError(t, err)
	assert.Equal(t, []BucketSummary{{Bucket: "4x4", Observed: 10, Sampled: 4}}, buckets)

	rows, err := s.SampledRows(run.ID, "4x4")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Len(t, rows[0].Row(), len(featurelog.Header()))
}
