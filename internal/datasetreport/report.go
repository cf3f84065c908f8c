package datasetreport

import (
	"fmt"
	"log"

	"github.com/banshee-data/blockfeatures/internal/config"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
)

// Result lists what Generate produced.
type Result struct {
	Summary *Summary
	PNGs    []string
	HTML    string
}

// Generate loads the datasets named by cfg and writes the enabled report
// formats.
func Generate(cfg *config.ReportConfig, fsys fsutil.FileSystem, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.Default()
	}
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report config: %w", err)
	}

	s, err := Load(fsys, cfg.GetDatasetDir())
	if err != nil {
		return nil, err
	}
	logger.Printf("datasetreport: %d files, %d rows in %d buckets (%d skipped)",
		len(s.Files), s.Rows, len(s.Buckets), s.Skipped)

	res := &Result{Summary: s}
	out := cfg.GetOutputDir()
	if cfg.Wants(config.FormatPNG) {
		if res.PNGs, err = WritePNG(s, fsys, out); err != nil {
			return res, err
		}
	}
	if cfg.Wants(config.FormatHTML) {
		if res.HTML, err = WriteHTML(s, fsys, out); err != nil {
			return res, err
		}
	}
	return res, nil
}
