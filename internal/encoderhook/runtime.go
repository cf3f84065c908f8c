package encoderhook

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/banshee-data/blockfeatures/internal/blockfeat"
	"github.com/banshee-data/blockfeatures/internal/config"
	"github.com/banshee-data/blockfeatures/internal/datasetdb"
	"github.com/banshee-data/blockfeatures/internal/featurelog"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
	"github.com/banshee-data/blockfeatures/internal/timeutil"
)

// Options are the process-level collaborators of a Runtime.
type Options struct {
	// FS receives the CSV files; nil writes to disk.
	FS fsutil.FileSystem
	// Clock drives checkpoints and snapshot times; nil uses the real clock.
	Clock timeutil.Clock
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// Runtime is a configured logger with its sinks, checkpointer and hook.
type Runtime struct {
	Hook   *Hook
	Logger *featurelog.Logger

	checkpointer *featurelog.Checkpointer
	store        *datasetdb.Store
	logger       *log.Logger
}

// Setup builds a Runtime from cfg: a CSV sink under the output directory,
// a SQLite manifest when sqlite_path is set, and a configured Logger.
func Setup(cfg *config.DatasetConfig, opts Options) (*Runtime, error) {
	if cfg == nil {
		return nil, config.ErrMissingDataset
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	sinks := []featurelog.Sink{featurelog.NewCSVSink(cfg.GetOutputDir(), opts.FS)}

	var store *datasetdb.Store
	if path := cfg.GetSQLitePath(); path != "" {
		var err error
		store, err = datasetdb.Open(datasetdb.Config{Path: path, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("open dataset manifest: %w", err)
		}
		sinks = append(sinks, store)
	}

	fl := featurelog.New(featurelog.Config{
		Capacity: cfg.GetReservoirCapacity(),
		Seed:     cfg.Seed,
		Sinks:    sinks,
		Clock:    opts.Clock,
		Logger:   logger,
	})
	fl.Configure(cfg.GetDatasetName(), cfg.GetQP())

	return &Runtime{
		Hook:   NewHook(fl, blockfeat.Options{EntropyMaxValue: cfg.GetEntropyMaxValue()}),
		Logger: fl,
		checkpointer: featurelog.NewCheckpointer(featurelog.CheckpointerConfig{
			Target:   fl,
			Interval: cfg.GetCheckpointInterval(),
			Clock:    opts.Clock,
			Logger:   logger,
		}),
		store:  store,
		logger: logger,
	}, nil
}

// Run checkpoints until ctx is cancelled, then writes the final datasets.
func (r *Runtime) Run(ctx context.Context) error {
	return r.checkpointer.Run(ctx)
}

// Shutdown writes the final datasets, whether or not Run was started, and
// releases the manifest database.
func (r *Runtime) Shutdown() error {
	r.checkpointer.Stop()
	err := r.Logger.Close()
	if r.store != nil {
		err = errors.Join(err, r.store.Close())
	}
	if err != nil {
		r.logger.Printf("encoderhook: shutdown: %v", err)
	}
	return err
}
