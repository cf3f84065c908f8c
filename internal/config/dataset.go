package config

import (
	"errors"
	"fmt"
	"time"
)

// DefaultReservoirCapacity is the per-bucket sample size.
const DefaultReservoirCapacity = 7000

// DatasetConfig configures feature collection inside one encoder run.
type DatasetConfig struct {
	DatasetName        *string  `json:"dataset_name,omitempty"`
	QP                 *int     `json:"qp,omitempty"`
	ReservoirCapacity  *int     `json:"reservoir_capacity,omitempty"`
	Seed               *uint64  `json:"seed,omitempty"` // unset: time-derived
	OutputDir          *string  `json:"output_dir,omitempty"`
	SQLitePath         *string  `json:"sqlite_path,omitempty"`         // enables the SQLite sink
	CheckpointInterval *string  `json:"checkpoint_interval,omitempty"` // duration string; "0s" flushes only at exit
	EntropyMaxValue    *float64 `json:"entropy_max_value,omitempty"`
}

// ErrMissingDataset is returned when dataset_name is absent or empty.
var ErrMissingDataset = errors.New("dataset_name is required")

// NewDatasetConfig returns a config for dataset at qp with defaults for
// everything else.
func NewDatasetConfig(dataset string, qp int) *DatasetConfig {
	return &DatasetConfig{DatasetName: ptrString(dataset), QP: ptrInt(qp)}
}

// LoadDatasetConfig loads a DatasetConfig from a JSON file.
func LoadDatasetConfig(path string) (*DatasetConfig, error) {
	cfg := &DatasetConfig{}
	if err := loadJSON(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *DatasetConfig) Validate() error {
	if c.DatasetName == nil || *c.DatasetName == "" {
		return ErrMissingDataset
	}
	if c.QP != nil && (*c.QP < 0 || *c.QP > 63) {
		return fmt.Errorf("qp must be between 0 and 63, got %d", *c.QP)
	}
	if c.ReservoirCapacity != nil && *c.ReservoirCapacity <= 0 {
		return fmt.Errorf("reservoir_capacity must be positive, got %d", *c.ReservoirCapacity)
	}
	if c.EntropyMaxValue != nil && *c.EntropyMaxValue <= 0 {
		return fmt.Errorf("entropy_max_value must be positive, got %f", *c.EntropyMaxValue)
	}
	if c.OutputDir != nil && *c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	return parseDuration("checkpoint_interval", c.CheckpointInterval)
}

// GetDatasetName returns the dataset name, or "" when unset.
func (c *DatasetConfig) GetDatasetName() string {
	if c.DatasetName == nil {
		return ""
	}
	return *c.DatasetName
}

// GetQP returns the qp value or the default.
func (c *DatasetConfig) GetQP() int {
	if c.QP == nil {
		return 32
	}
	return *c.QP
}

// GetReservoirCapacity returns the reservoir_capacity value or the default.
func (c *DatasetConfig) GetReservoirCapacity() int {
	if c.ReservoirCapacity == nil {
		return DefaultReservoirCapacity
	}
	return *c.ReservoirCapacity
}

// GetOutputDir returns the output_dir value or the default.
func (c *DatasetConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "datasets"
	}
	return *c.OutputDir
}

// GetSQLitePath returns the sqlite_path value; "" disables the SQLite sink.
func (c *DatasetConfig) GetSQLitePath() string {
	if c.SQLitePath == nil {
		return ""
	}
	return *c.SQLitePath
}

// GetCheckpointInterval parses and returns the CheckpointInterval as a time.Duration.
func (c *DatasetConfig) GetCheckpointInterval() time.Duration {
	if c.CheckpointInterval == nil || *c.CheckpointInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.CheckpointInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GetEntropyMaxValue returns the entropy_max_value value or the default.
func (c *DatasetConfig) GetEntropyMaxValue() float64 {
	if c.EntropyMaxValue == nil {
		return 1024
	}
	return *c.EntropyMaxValue
}
