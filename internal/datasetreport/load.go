// Package datasetreport summarises collected datasets: how the transform
// decisions are distributed within every block-size bucket.
package datasetreport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/blockfeatures/internal/featurelog"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
	"github.com/banshee-data/blockfeatures/internal/geometry"
)

// ErrNoDatasets is returned when a directory holds no dataset files.
var ErrNoDatasets = errors.New("no dataset files found")

// BucketTags counts decision tags for one block size.
type BucketTags struct {
	Bucket string
	Width  int
	Height int
	Total  int
	Counts map[featurelog.Tag]int
}

// Summary is the aggregate of every dataset file in a directory.
type Summary struct {
	Files   []string
	Rows    int
	Skipped int // rows that could not be attributed to a bucket
	Buckets []BucketTags
}

// Bucket returns the counts for label, or nil.
func (s *Summary) Bucket(label string) *BucketTags {
	for i := range s.Buckets {
		if s.Buckets[i].Bucket == label {
			return &s.Buckets[i]
		}
	}
	return nil
}

// Load reads every *.csv file in dir. Files whose header lacks the W, H or
// tag columns are reported as errors; malformed rows are skipped and
// counted.
func Load(fsys fsutil.FileSystem, dir string) (*Summary, error) {
	names, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}

	s := &Summary{}
	byLabel := make(map[string]*BucketTags)
	for _, name := range names {
		if filepath.Ext(name) != ".csv" || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := fsys.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if err := s.add(byLabel, data); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		s.Files = append(s.Files, name)
	}
	if len(s.Files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoDatasets)
	}

	for _, b := range byLabel {
		s.Buckets = append(s.Buckets, *b)
	}
	sortBuckets(s.Buckets)
	return s, nil
}

// sortBuckets orders buckets by area, then width.
func sortBuckets(buckets []BucketTags) {
	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.Width*a.Height != b.Width*b.Height {
			return a.Width*a.Height < b.Width*b.Height
		}
		return a.Width < b.Width
	})
}

func (s *Summary) add(byLabel map[string]*BucketTags, data []byte) error {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	wCol, hCol := indexOf(header, "W"), indexOf(header, "H")
	tagCol := len(header) - 1
	if wCol < 0 || hCol < 0 || header[tagCol] != featurelog.TagColumn {
		return fmt.Errorf("not a dataset file: header %v", header)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if len(row) != len(header) {
			s.Skipped++
			continue
		}
		w, errW := strconv.Atoi(row[wCol])
		h, errH := strconv.Atoi(row[hCol])
		if errW != nil || errH != nil || w <= 0 || h <= 0 {
			s.Skipped++
			continue
		}

		label := geometry.Bucket(w, h)
		b := byLabel[label]
		if b == nil {
			b = &BucketTags{Bucket: label, Width: w, Height: h, Counts: make(map[featurelog.Tag]int)}
			byLabel[label] = b
		}
		b.Counts[featurelog.Tag(row[tagCol])]++
		b.Total++
		s.Rows++
	}
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// Tags returns the tags present in b, in the canonical tag order followed
// by any unrecognised labels sorted by name.
func (b *BucketTags) Tags() []featurelog.Tag {
	var out []featurelog.Tag
	known := make(map[featurelog.Tag]bool)
	for _, t := range featurelog.Tags() {
		known[t] = true
		if b.Counts[t] > 0 {
			out = append(out, t)
		}
	}
	var extra []featurelog.Tag
	for t := range b.Counts {
		if !known[t] {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
