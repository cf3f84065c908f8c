package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/blockfeatures/internal/config"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
	"github.com/banshee-data/blockfeatures/internal/timeutil"
)

// Command is a process to run.
type Command struct {
	Dir    string
	Path   string
	Args   []string
	Stdout io.Writer
}

// Runner starts a Command and waits for it.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run implements Runner. Stderr is merged into Stdout.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stdout
	return cmd.Run()
}

// Result is the outcome of one task.
type Result struct {
	Task     Task
	Err      error
	Duration time.Duration
}

// OK reports whether the encoder exited cleanly.
func (r Result) OK() bool { return r.Err == nil }

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("[ERROR] %s | Error: %v", r.Task, r.Err)
	}
	return fmt.Sprintf("[OK] %s | %s", r.Task, r.Duration.Round(time.Millisecond))
}

// Driver runs planned tasks.
type Driver struct {
	baseDir string
	encoder string
	baseCfg string
	workers int
	fs      fsutil.FileSystem
	runner  Runner
	clock   timeutil.Clock
	logger  *log.Logger
}

// DriverConfig contains configuration for Driver.
type DriverConfig struct {
	Batch *config.BatchConfig
	// FS receives the per-task logs; nil writes to disk.
	FS fsutil.FileSystem
	// Runner starts the encoder; nil uses ExecRunner.
	Runner Runner
	// Clock times each task; nil uses the real clock.
	Clock timeutil.Clock
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// NewDriver creates a Driver.
func NewDriver(cfg DriverConfig) *Driver {
	d := &Driver{
		baseDir: cfg.Batch.GetBaseDir(),
		encoder: cfg.Batch.GetEncoderBinary(),
		baseCfg: cfg.Batch.GetBaseCfg(),
		workers: cfg.Batch.GetWorkers(),
		fs:      cfg.FS,
		runner:  cfg.Runner,
		clock:   timeutil.OrReal(cfg.Clock),
		logger:  cfg.Logger,
	}
	if d.fs == nil {
		d.fs = fsutil.OSFileSystem{}
	}
	if d.runner == nil {
		d.runner = ExecRunner{}
	}
	if d.logger == nil {
		d.logger = log.Default()
	}
	return d
}

// Command returns the encoder invocation for t.
func (d *Driver) Command(t Task) Command {
	return Command{
		Dir:  d.baseDir,
		Path: d.encoder,
		Args: []string{
			"-c", d.baseCfg,
			"-c", t.SequenceCfg,
			"-f", strconv.Itoa(t.Frames),
			"-q", strconv.Itoa(t.QP),
			"-o", t.ReconPath(),
		},
	}
}

// Run executes tasks with at most the configured number in flight. A
// failing task does not stop the others. onResult, if non-nil, is called
// once per task as it finishes, never concurrently. Results are returned in
// task order. Tasks not yet started when ctx is cancelled report ctx.Err().
func (d *Driver) Run(ctx context.Context, tasks []Task, onResult func(Result)) []Result {
	results := make([]Result, len(tasks))
	var mu sync.Mutex

	d.logger.Printf("batch: running %d tasks on %d workers", len(tasks), d.workers)

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, t := range tasks {
		g.Go(func() error {
			res := d.runTask(ctx, t)
			mu.Lock()
			results[i] = res
			if onResult != nil {
				onResult(res)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Driver) runTask(ctx context.Context, t Task) Result {
	res := Result{Task: t}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	for _, dir := range []string{filepath.Dir(t.LogPath()), filepath.Dir(t.ReconPath())} {
		if err := d.fs.MkdirAll(dir, 0o755); err != nil {
			res.Err = fmt.Errorf("create %s: %w", dir, err)
			return res
		}
	}

	var out bytes.Buffer
	cmd := d.Command(t)
	cmd.Stdout = &out

	start := d.clock.Now()
	res.Err = d.runner.Run(ctx, cmd)
	res.Duration = d.clock.Since(start)

	if err := d.fs.WriteFile(t.LogPath(), out.Bytes(), 0o644); err != nil {
		d.logger.Printf("batch: %s: write log: %v", t, err)
	}
	return res
}

// Summarise counts successes and failures.
func Summarise(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
