package config

import (
	"errors"
	"fmt"
)

// BatchConfig describes a grid of encoder runs: every sequence at every QP.
// Relative paths are resolved against BaseDir, which is also the working
// directory of each encoder process.
type BatchConfig struct {
	BaseDir        *string  `json:"base_dir,omitempty"`
	EncoderBinary  *string  `json:"encoder_binary,omitempty"`
	BaseCfg        *string  `json:"base_cfg,omitempty"`
	SequenceCfgDir *string  `json:"sequence_cfg_dir,omitempty"`
	Sequences      []string `json:"sequences,omitempty"`
	QPs            []int    `json:"qps,omitempty"`
	Workers        *int     `json:"workers,omitempty"`
	Frames         *int     `json:"frames,omitempty"` // overrides FramesToBeEncoded when set
	ResultsDir     *string  `json:"results_dir,omitempty"`
}

// DefaultQPs are the four common-test-condition QPs.
var DefaultQPs = []int{22, 27, 32, 37}

// LoadBatchConfig loads a BatchConfig from a JSON file.
func LoadBatchConfig(path string) (*BatchConfig, error) {
	cfg := &BatchConfig{}
	if err := loadJSON(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *BatchConfig) Validate() error {
	if c.BaseDir == nil || *c.BaseDir == "" {
		return errors.New("base_dir is required")
	}
	if len(c.Sequences) == 0 {
		return errors.New("sequences must list at least one sequence")
	}
	for _, s := range c.Sequences {
		if s == "" {
			return errors.New("sequences must not contain empty names")
		}
	}
	for _, qp := range c.QPs {
		if qp < 0 || qp > 63 {
			return fmt.Errorf("qps must be between 0 and 63, got %d", qp)
		}
	}
	if c.Workers != nil && *c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", *c.Workers)
	}
	if c.Frames != nil && *c.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", *c.Frames)
	}
	return nil
}

// GetBaseDir returns the base_dir value.
func (c *BatchConfig) GetBaseDir() string {
	if c.BaseDir == nil {
		return ""
	}
	return *c.BaseDir
}

// GetEncoderBinary returns the encoder_binary value or the default.
func (c *BatchConfig) GetEncoderBinary() string {
	if c.EncoderBinary == nil || *c.EncoderBinary == "" {
		return "./bin/EncoderAppStatic"
	}
	return *c.EncoderBinary
}

// GetBaseCfg returns the base_cfg value or the default.
func (c *BatchConfig) GetBaseCfg() string {
	if c.BaseCfg == nil || *c.BaseCfg == "" {
		return "cfg/encoder_randomaccess_vtm.cfg"
	}
	return *c.BaseCfg
}

// GetSequenceCfgDir returns the sequence_cfg_dir value or the default.
func (c *BatchConfig) GetSequenceCfgDir() string {
	if c.SequenceCfgDir == nil || *c.SequenceCfgDir == "" {
		return "cfg/per-sequence"
	}
	return *c.SequenceCfgDir
}

// GetQPs returns the qps value or DefaultQPs.
func (c *BatchConfig) GetQPs() []int {
	if len(c.QPs) == 0 {
		return append([]int(nil), DefaultQPs...)
	}
	return append([]int(nil), c.QPs...)
}

// GetWorkers returns the workers value or the default.
func (c *BatchConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// GetFrames returns the frame-count override and whether one is set.
func (c *BatchConfig) GetFrames() (int, bool) {
	if c.Frames == nil {
		return 0, false
	}
	return *c.Frames, true
}

// GetResultsDir returns the results_dir value or the default.
func (c *BatchConfig) GetResultsDir() string {
	if c.ResultsDir == nil || *c.ResultsDir == "" {
		return "results"
	}
	return *c.ResultsDir
}
