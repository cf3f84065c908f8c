package datasetreport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/blockfeatures/internal/config"
	"github.com/banshee-data/blockfeatures/internal/featurelog"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
)

func datasetCSV(t *testing.T, w, h int, tags ...featurelog.Tag) []byte {
	t.Helper()
	header := featurelog.Header()
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	require.NoError(t, cw.Write(header))
	for i, tag := range tags {
		row := make([]string, len(header))
		for j := range row {
			row[j] = "0"
		}
		row[0] = strconv.Itoa(i)
		row[3] = strconv.Itoa(w)
		row[4] = strconv.Itoa(h)
		row[len(row)-1] = string(tag)
		require.NoError(t, cw.Write(row))
	}
	cw.Flush()
	require.NoError(t, cw.Error())
	return buf.Bytes()
}

func seedDatasets(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.MkdirAll("datasets", 0o755))
	files := map[string][]byte{
		"a_32_8x8.csv":  datasetCSV(t, 8, 8, featurelog.TagSkip, featurelog.TagSkip, featurelog.TagDCT2DCT2),
		"b_32_8x8.csv":  datasetCSV(t, 8, 8, featurelog.TagDST7DST7),
		"a_32_16x4.csv": datasetCSV(t, 16, 4, featurelog.TagDCT8DCT8, "LEGACY"),
		"notes.txt":     []byte("ignored"),
	}
	for name, data := range files {
		require.NoError(t, fs.WriteFile(filepath.Join("datasets", name), data, 0o644))
	}
	// leftover temp file from an interrupted flush
	require.NoError(t, fs.WriteFile(filepath.Join("datasets", ".a_32_8x8.csv.tmp"), []byte("junk"), 0o644))
	return fs
}

func TestLoad_CountsTagsPerBucket(t *testing.T) {
	t.Parallel()

	s, err := Load(seedDatasets(t), "datasets")
	require.NoError(t, err)

	assert.Equal(t, []string{"a_32_16x4.csv", "a_32_8x8.csv", "b_32_8x8.csv"}, s.Files)
	assert.Equal(t, 6, s.Rows)
	assert.Zero(t, s.Skipped)
	require.Len(t, s.Buckets, 2)
	assert.Equal(t, "8x8", s.Buckets[0].Bucket, "sorted by area")

	b := s.Bucket("8x8")
	require.NotNil(t, b)
	assert.Equal(t, 4, b.Total)
	assert.Equal(t, 2, b.Counts[featurelog.TagSkip])
	assert.Equal(t, []featurelog.Tag{featurelog.TagDCT2DCT2, featurelog.TagDST7DST7, featurelog.TagSkip}, b.Tags())

	wide := s.Bucket("16x4")
	require.NotNil(t, wide)
	assert.Equal(t, []featurelog.Tag{featurelog.TagDCT8DCT8, "LEGACY"}, wide.Tags())
	assert.Nil(t, s.Bucket("4x4"))
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	_, err := Load(fs, "missing")
	assert.Error(t, err)

	require.NoError(t, fs.MkdirAll("empty", 0o755))
	_, err = Load(fs, "empty")
	assert.True(t, errors.Is(err, ErrNoDatasets))

	require.NoError(t, fs.MkdirAll("bad", 0o755))
	require.NoError(t, fs.WriteFile("bad/x.csv", []byte("a,b,c\n1,2,3\n"), 0o644))
	_, err = Load(fs, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a dataset file")
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.MkdirAll("d", 0o755))
	data := datasetCSV(t, 4, 4, featurelog.TagSkip)
	data = append(data, []byte("1,2,3\n")...)
	require.NoError(t, fs.WriteFile("d/x.csv", data, 0o644))

	s, err := Load(fs, "d")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Rows)
	assert.Equal(t, 1, s.Skipped)
}

func TestGenerate_WritesPNGAndHTML(t *testing.T) {
	t.Parallel()

	fs := seedDatasets(t)
	res, err := Generate(&config.ReportConfig{}, fs, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	require.Len(t, res.PNGs, 2)
	for _, p := range res.PNGs {
		data, err := fs.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "%s is not a PNG", p)
	}
	assert.Equal(t, filepath.Join("report", "8x8_tags.png"), res.PNGs[0])

	html, err := fs.ReadFile(res.HTML)
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "Block 8x8")
	assert.Contains(t, page, "Block 16x4")
	assert.True(t, strings.Contains(page, "echarts"), "page should load echarts")
}

func TestGenerate_HonoursFormats(t *testing.T) {
	t.Parallel()

	fs := seedDatasets(t)
	res, err := Generate(&config.ReportConfig{Formats: []string{config.FormatHTML}}, fs, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	assert.Empty(t, res.PNGs)
	assert.NotEmpty(t, res.HTML)
	assert.Empty(t, fs.Files(filepath.Join("report", "8x8")))
}
