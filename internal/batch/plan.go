// Package batch runs an encoder over a grid of sequences and QPs, a bounded
// number of processes at a time.
package batch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/banshee-data/blockfeatures/internal/config"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
)

// ErrNoFrameCount is returned when a sequence cfg has no FramesToBeEncoded line.
var ErrNoFrameCount = errors.New("FramesToBeEncoded not found")

var framesPattern = regexp.MustCompile(`FramesToBeEncoded\s*:\s*(\d+)`)

// FramesFromCfg returns the first FramesToBeEncoded value in the cfg file.
func FramesFromCfg(fsys fsutil.FileSystem, path string) (int, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return 0, err
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if m := framesPattern.FindSubmatch(sc.Bytes()); m != nil {
			n, err := strconv.Atoi(string(m[1]))
			if err != nil {
				return 0, fmt.Errorf("%s: %w", path, err)
			}
			return n, nil
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return 0, fmt.Errorf("%s: %w", path, ErrNoFrameCount)
}

// Task is one encoder invocation.
type Task struct {
	Sequence    string
	QP          int
	Frames      int
	SequenceCfg string // absolute, or relative to the base dir
	OutputDir   string // per-sequence results directory
}

func (t Task) String() string {
	return fmt.Sprintf("%s | QP=%d | Frames=%d", t.Sequence, t.QP, t.Frames)
}

// LogPath is where the encoder's output for t is kept.
func (t Task) LogPath() string {
	return filepath.Join(t.OutputDir, "logs", fmt.Sprintf("%s_qp%d.log", t.Sequence, t.QP))
}

// ReconPath is the reconstructed video the encoder writes for t.
func (t Task) ReconPath() string {
	return filepath.Join(t.OutputDir, "yuvs", fmt.Sprintf("%s_qp%d.yuv", t.Sequence, t.QP))
}

// resolve anchors a relative path at base.
func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Plan builds one task per (sequence, QP). Sequences whose cfg is missing
// or has no frame count are logged and left out.
func Plan(cfg *config.BatchConfig, fsys fsutil.FileSystem, logger *log.Logger) ([]Task, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	base := cfg.GetBaseDir()
	cfgDir := resolve(base, cfg.GetSequenceCfgDir())
	resultsDir := resolve(base, cfg.GetResultsDir())
	override, hasOverride := cfg.GetFrames()

	var tasks []Task
	for _, seq := range cfg.Sequences {
		seqCfg := filepath.Join(cfgDir, seq+".cfg")
		frames, err := FramesFromCfg(fsys, seqCfg)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Printf("batch: skip %s: cfg not found: %s", seq, seqCfg)
			} else {
				logger.Printf("batch: skip %s: %v", seq, err)
			}
			continue
		}
		if hasOverride {
			frames = override
		}
		for _, qp := range cfg.GetQPs() {
			tasks = append(tasks, Task{
				Sequence:    seq,
				QP:          qp,
				Frames:      frames,
				SequenceCfg: seqCfg,
				OutputDir:   filepath.Join(resultsDir, seq),
			})
		}
	}
	return tasks, nil
}
