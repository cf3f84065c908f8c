package datasetreport

import (
	"io"
	"log"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/blockfeatures/internal/datasetdb"
	"github.com/banshee-data/blockfeatures/internal/featurelog"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
)

func manifestRecord(w, h int, tag featurelog.Tag) featurelog.CompletedRecord {
	fields := make([]string, len(featurelog.Header())-1)
	for i := range fields {
		fields[i] = "0"
	}
	fields[3] = strconv.Itoa(w)
	fields[4] = strconv.Itoa(h)
	return featurelog.CompletedRecord{Fields: fields, Tag: tag}
}

func seedManifest(t *testing.T) *datasetdb.Store {
	t.Helper()
	store, err := datasetdb.Open(datasetdb.Config{
		Path:   filepath.Join(t.TempDir(), "manifest.db"),
		Logger: log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	snaps := []featurelog.Snapshot{
		{
			Dataset: "seq", QP: 32, TakenAt: time.Unix(100, 0),
			Buckets: []featurelog.BucketSample{{Bucket: "8x8", Observed: 2, Records: []featurelog.CompletedRecord{
				manifestRecord(8, 8, featurelog.TagSkip),
				manifestRecord(8, 8, featurelog.TagSkip),
			}}},
		},
		{
			Dataset: "seq", QP: 32, TakenAt: time.Unix(200, 0),
			Buckets: []featurelog.BucketSample{
				{Bucket: "16x8", Observed: 1, Records: []featurelog.CompletedRecord{
					manifestRecord(16, 8, featurelog.TagDST7DST7),
				}},
				{Bucket: "8x8", Observed: 30, Records: []featurelog.CompletedRecord{
					manifestRecord(8, 8, featurelog.TagSkip),
					manifestRecord(8, 8, featurelog.TagDCT2DCT2),
					manifestRecord(8, 8, featurelog.TagDCT2DCT2),
				}},
			},
		},
		{
			Dataset: "other", QP: 22, TakenAt: time.Unix(300, 0),
			Buckets: []featurelog.BucketSample{{Bucket: "4x4", Observed: 1, Records: []featurelog.CompletedRecord{
				manifestRecord(4, 4, featurelog.TagDCT2DCT2),
			}}},
		},
	}
	for _, snap := range snaps {
		snap.Header = featurelog.Header()
		require.NoError(t, store.WriteSnapshot(snap))
	}
	return store
}

func TestLoadManifest_KeepsLatestRunPerDataset(t *testing.T) {
	t.Parallel()

	m, err := LoadManifest(seedManifest(t))
	require.NoError(t, err)
	assert.Equal(t, uint(1), m.SchemaVersion)
	assert.Equal(t, 3, m.Runs)
	require.Len(t, m.Latest, 2)

	seq := m.Latest[0]
	assert.Equal(t, "seq", seq.Run.Dataset)
	assert.Equal(t, 32, seq.Run.QP)
	assert.Equal(t, 2, seq.Runs)
	assert.Equal(t, time.Unix(200, 0).UnixNano(), seq.Run.TakenAt.UnixNano())
	assert.Equal(t, []BucketTags{
		{Bucket: "8x8", Width: 8, Height: 8, Total: 3, Counts: map[featurelog.Tag]int{
			featurelog.TagSkip: 1, featurelog.TagDCT2DCT2: 2,
		}},
		{Bucket: "16x8", Width: 16, Height: 8, Total: 1, Counts: map[featurelog.Tag]int{
			featurelog.TagDST7DST7: 1,
		}},
	}, seq.Buckets)

	other := m.Latest[1]
	assert.Equal(t, "other", other.Run.Dataset)
	assert.Equal(t, 1, other.Runs)
	require.Len(t, other.Buckets, 1)
	assert.Equal(t, 1, other.Buckets[0].Counts[featurelog.TagDCT2DCT2])
}

func TestLoadManifest_Empty(t *testing.T) {
	t.Parallel()

	store, err := datasetdb.Open(datasetdb.Config{
		Path:   filepath.Join(t.TempDir(), "empty.db"),
		Logger: log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	defer store.Close()

	m, err := LoadManifest(store)
	require.NoError(t, err)
	assert.Zero(t, m.Runs)
	assert.Empty(t, m.Latest)
}

func TestRestoreRun_RecreatesDatasetFiles(t *testing.T) {
	t.Parallel()

	store := seedManifest(t)
	m, err := LoadManifest(store)
	require.NoError(t, err)

	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, RestoreRun(store, m.Latest[0].Run, featurelog.NewCSVSink("restored", fs)))

	s, err := Load(fs, "restored")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		featurelog.FileName("seq", 32, "8x8"),
		featurelog.FileName("seq", 32, "16x8"),
	}, s.Files)
	assert.Equal(t, 4, s.Rows)
	assert.Zero(t, s.Skipped)
	assert.Equal(t, m.Latest[0].Buckets, s.Buckets)
}
