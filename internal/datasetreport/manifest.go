package datasetreport

import (
	"fmt"

	"github.com/banshee-data/blockfeatures/internal/datasetdb"
	"github.com/banshee-data/blockfeatures/internal/featurelog"
	"github.com/banshee-data/blockfeatures/internal/geometry"
)

// ManifestRun is the latest flush of one (dataset, QP) pair with the tag
// balance of its sampled rows.
type ManifestRun struct {
	Run     datasetdb.Run
	Runs    int // flushes recorded for the pair
	Buckets []BucketTags
}

// Manifest summarises a SQLite dataset manifest.
type Manifest struct {
	SchemaVersion uint
	Runs          int
	Latest        []ManifestRun
}

// LoadManifest reads every flush recorded in store and keeps the newest
// per (dataset, QP), in order of first appearance.
func LoadManifest(store *datasetdb.Store) (*Manifest, error) {
	version, dirty, err := store.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("schema version: %w", err)
	}
	if dirty {
		return nil, fmt.Errorf("manifest schema version %d is dirty", version)
	}

	runs, err := store.Runs("")
	if err != nil {
		return nil, err
	}
	m := &Manifest{SchemaVersion: version, Runs: len(runs)}

	type pair struct {
		dataset string
		qp      int
	}
	index := make(map[pair]int)
	for _, r := range runs {
		k := pair{r.Dataset, r.QP}
		if i, ok := index[k]; ok {
			m.Latest[i].Runs++
			continue
		}
		index[k] = len(m.Latest)
		m.Latest = append(m.Latest, ManifestRun{Runs: 1})
	}
	for k, i := range index {
		latest, err := store.LatestRun(k.dataset, k.qp)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, fmt.Errorf("run of %s qp=%d disappeared", k.dataset, k.qp)
		}
		m.Latest[i].Run = *latest
		if m.Latest[i].Buckets, err = runTags(store, latest.ID); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func runTags(store *datasetdb.Store, runID string) ([]BucketTags, error) {
	counts, err := store.TagCounts(runID)
	if err != nil {
		return nil, err
	}
	var out []BucketTags
	byLabel := make(map[string]int)
	for _, tc := range counts {
		i, ok := byLabel[tc.Bucket]
		if !ok {
			w, h, err := geometry.ParseBucket(tc.Bucket)
			if err != nil {
				return nil, fmt.Errorf("run %s: %w", runID, err)
			}
			i = len(out)
			byLabel[tc.Bucket] = i
			out = append(out, BucketTags{Bucket: tc.Bucket, Width: w, Height: h, Counts: make(map[featurelog.Tag]int)})
		}
		out[i].Counts[tc.Tag] += tc.Count
		out[i].Total += tc.Count
	}
	sortBuckets(out)
	return out, nil
}

// RestoreRun rewrites the sampled rows of one stored flush through sink,
// e.g. a featurelog.CSVSink to recreate lost dataset files.
func RestoreRun(store *datasetdb.Store, run datasetdb.Run, sink featurelog.Sink) error {
	buckets, err := store.Buckets(run.ID)
	if err != nil {
		return err
	}
	snap := featurelog.Snapshot{
		Dataset: run.Dataset,
		QP:      run.QP,
		Header:  featurelog.Header(),
		TakenAt: run.TakenAt,
	}
	for _, b := range buckets {
		rows, err := store.SampledRows(run.ID, b.Bucket)
		if err != nil {
			return err
		}
		snap.Buckets = append(snap.Buckets, featurelog.BucketSample{
			Bucket:   b.Bucket,
			Observed: b.Observed,
			Records:  rows,
		})
	}
	if err := sink.WriteSnapshot(snap); err != nil {
		return fmt.Errorf("restore run %s: %w", run.ID, err)
	}
	return nil
}
