// Package encoderhook is the surface an encoder calls into. It turns the
// encoder's per-block callbacks into feature records and owns the wiring
// of the record logger to its sinks.
package encoderhook

import (
	"github.com/banshee-data/blockfeatures/internal/blockfeat"
	"github.com/banshee-data/blockfeatures/internal/featurelog"
	"github.com/banshee-data/blockfeatures/internal/monitoring"
)

// PredictionUnit is a block at the point its prediction is known.
type PredictionUnit struct {
	Identity featurelog.Identity
	QP       int
	Original blockfeat.Block // source samples
	Residual blockfeat.Block // original minus prediction
}

// CodingUnit is a block once its transform has been decided.
type CodingUnit struct {
	Identity featurelog.Identity
	Decision featurelog.Decision
}

// Hook forwards encoder callbacks to a featurelog.Logger. It is safe for
// concurrent use by every encoder worker, and neither callback can panic
// or fail back into the encoder.
type Hook struct {
	logger *featurelog.Logger
	opts   blockfeat.Options
}

// NewHook creates a Hook recording into logger with extraction options opts.
func NewHook(logger *featurelog.Logger, opts blockfeat.Options) *Hook {
	return &Hook{logger: logger, opts: opts}
}

// OnPrediction extracts the block's features and opens its record.
func (h *Hook) OnPrediction(pu PredictionUnit) (key featurelog.Key) {
	if h == nil || h.logger == nil {
		return featurelog.NoKey
	}
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("encoderhook: dropped prediction %s: %v", pu.Identity.Key(), r)
			key = featurelog.NoKey
		}
	}()

	fv := h.opts.Extract(pu.Original, pu.Residual)
	key = h.logger.StartRecord(pu.Identity, &fv, pu.QP)
	if monitoring.DebugEnabled() {
		monitoring.Debugf("encoderhook: start %s mean=%.2f sad=%.0f", key, fv.Pixel.Mean, fv.Residual.SAD)
	}
	return key
}

// OnDecision closes the block's record with the label of its decision.
func (h *Hook) OnDecision(cu CodingUnit) {
	if h == nil || h.logger == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("encoderhook: dropped decision %s: %v", cu.Identity.Key(), r)
		}
	}()

	tag := cu.Decision.Tag()
	h.logger.CloseRecord(cu.Identity.Key(), tag)
	if monitoring.DebugEnabled() {
		monitoring.Debugf("encoderhook: close %s tag=%s", cu.Identity.Key(), tag)
	}
}
