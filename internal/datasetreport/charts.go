package datasetreport

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/blockfeatures/internal/fsutil"
	"github.com/banshee-data/blockfeatures/internal/security"
)

// HTMLFileName is the name of the combined report page.
const HTMLFileName = "report.html"

// PNGFileName is the chart file of one bucket.
func PNGFileName(bucket string) string {
	return security.SanitizeFilename(bucket+"_tags") + ".png"
}

var barColor = color.RGBA{R: 49, G: 104, B: 142, A: 255}

// WritePNG draws one bar chart per bucket into dir and returns the paths
// written.
func WritePNG(s *Summary, fsys fsutil.FileSystem, dir string) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	var written []string
	for i := range s.Buckets {
		b := &s.Buckets[i]
		data, err := renderPNG(b)
		if err != nil {
			return written, fmt.Errorf("bucket %s: %w", b.Bucket, err)
		}
		path, err := security.JoinWithin(dir, PNGFileName(b.Bucket))
		if err != nil {
			return written, err
		}
		if err := fsys.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func renderPNG(b *BucketTags) ([]byte, error) {
	tags := b.Tags()
	values := make(plotter.Values, len(tags))
	names := make([]string, len(tags))
	for i, t := range tags {
		values[i] = float64(b.Counts[t])
		names[i] = string(t)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Block %s - transform decisions (%d rows)", b.Bucket, b.Total)
	p.Y.Label.Text = "Rows"

	bars, err := plotter.NewBarChart(values, vg.Points(28))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML renders every bucket as an interactive bar chart on a single
// page and returns its path.
func WriteHTML(s *Summary, fsys fsutil.FileSystem, dir string) (string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	page := components.NewPage()
	page.PageTitle = "Transform decision datasets"
	for i := range s.Buckets {
		page.AddCharts(bucketBar(&s.Buckets[i]))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return "", fmt.Errorf("render error: %w", err)
	}
	path, err := security.JoinWithin(dir, HTMLFileName)
	if err != nil {
		return "", err
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func bucketBar(b *BucketTags) *charts.Bar {
	tags := b.Tags()
	x := make([]string, len(tags))
	y := make([]opts.BarData, len(tags))
	for i, t := range tags {
		x[i] = string(t)
		y[i] = opts.BarData{Value: b.Counts[t]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Block " + b.Bucket, Subtitle: fmt.Sprintf("rows=%d", b.Total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("decisions", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}
