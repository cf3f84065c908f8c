package config

import (
	"errors"
	"fmt"
)

// Report output formats.
const (
	FormatPNG  = "png"
	FormatHTML = "html"
)

// ReportConfig configures the dataset summary report.
type ReportConfig struct {
	DatasetDir *string  `json:"dataset_dir,omitempty"`
	OutputDir  *string  `json:"output_dir,omitempty"`
	Formats    []string `json:"formats,omitempty"`
}

// LoadReportConfig loads a ReportConfig from a JSON file.
func LoadReportConfig(path string) (*ReportConfig, error) {
	cfg := &ReportConfig{}
	if err := loadJSON(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ReportConfig) Validate() error {
	if c.DatasetDir != nil && *c.DatasetDir == "" {
		return errors.New("dataset_dir must not be empty")
	}
	if c.OutputDir != nil && *c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	for _, f := range c.Formats {
		if f != FormatPNG && f != FormatHTML {
			return fmt.Errorf("unknown report format %q (want %q or %q)", f, FormatPNG, FormatHTML)
		}
	}
	return nil
}

// GetDatasetDir returns the dataset_dir value or the default.
func (c *ReportConfig) GetDatasetDir() string {
	if c.DatasetDir == nil {
		return "datasets"
	}
	return *c.DatasetDir
}

// GetOutputDir returns the output_dir value or the default.
func (c *ReportConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "report"
	}
	return *c.OutputDir
}

// GetFormats returns the formats value or both formats.
func (c *ReportConfig) GetFormats() []string {
	if len(c.Formats) == 0 {
		return []string{FormatPNG, FormatHTML}
	}
	return append([]string(nil), c.Formats...)
}

// Wants reports whether format f is enabled.
func (c *ReportConfig) Wants(f string) bool {
	for _, g := range c.GetFormats() {
		if g == f {
			return true
		}
	}
	return false
}
