package featurelog

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/banshee-data/blockfeatures/internal/timeutil"
)

// Flusher is the part of Logger a Checkpointer drives.
type Flusher interface {
	Flush() error
	Close() error
}

// Checkpointer periodically flushes a Logger and performs the final Close
// when its context is cancelled or Stop is called. Hosts run it under
// signal.NotifyContext so an ordinary shutdown still writes the datasets.
type Checkpointer struct {
	target   Flusher
	interval time.Duration
	clock    timeutil.Clock
	logger   *log.Logger
	mu       sync.Mutex
	running  bool
	stopped  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// CheckpointerConfig contains configuration for Checkpointer.
type CheckpointerConfig struct {
	// Target is the Flusher to drive (typically a *Logger)
	Target Flusher
	// Interval between intermediate flushes; <= 0 only flushes at shutdown
	Interval time.Duration
	// Clock drives the interval ticker; nil uses the real clock.
	Clock timeutil.Clock
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// NewCheckpointer creates a new Checkpointer.
func NewCheckpointer(cfg CheckpointerConfig) *Checkpointer {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Checkpointer{
		target:   cfg.Target,
		interval: cfg.Interval,
		clock:    timeutil.OrReal(cfg.Clock),
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run blocks until the context is cancelled or Stop() is called, then
// closes the target. Returns nil on clean shutdown. Once Stop has been
// called, Run returns immediately.
func (c *Checkpointer) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running || c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		close(c.doneCh)
		c.mu.Unlock()
	}()

	var tick <-chan time.Time
	if c.interval > 0 {
		ticker := c.clock.NewTicker(c.interval)
		defer ticker.Stop()
		tick = ticker.C()
		c.logger.Printf("Checkpointer started: interval=%v", c.interval)
	} else {
		c.logger.Printf("Checkpointer started: final flush only")
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Printf("Checkpointer stopping due to context cancellation")
			c.closeTarget()
			return nil
		case <-stopCh:
			c.logger.Printf("Checkpointer stopping due to Stop() call")
			c.closeTarget()
			return nil
		case <-tick:
			c.flush()
		}
	}
}

// Stop requests the checkpointer to stop and waits for the final flush.
// It is safe to call multiple times, and before Run.
func (c *Checkpointer) Stop() {
	c.mu.Lock()
	c.stopped = true
	if !c.running {
		c.mu.Unlock()
		return
	}
	select {
	case <-c.stopCh:
		// already closed
	default:
		close(c.stopCh)
	}
	doneCh := c.doneCh
	c.mu.Unlock()

	<-doneCh
}

// IsRunning returns whether the checkpointer is currently running.
func (c *Checkpointer) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Checkpointer) flush() {
	if c.target == nil {
		return
	}
	if err := c.target.Flush(); err != nil {
		c.logger.Printf("Checkpointer: error flushing: %v", err)
	}
}

func (c *Checkpointer) closeTarget() {
	if c.target == nil {
		return
	}
	if err := c.target.Close(); err != nil {
		c.logger.Printf("Checkpointer: error during final flush: %v", err)
	} else {
		c.logger.Printf("Checkpointer: final datasets written")
	}
}
