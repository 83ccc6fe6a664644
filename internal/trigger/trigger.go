package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/scheduler"
	"github.com/robfig/cron/v3"
)

// ErrNotStarted is returned by Stop when Start was never called.
var ErrNotStarted = errors.New("trigger not started")

// Runner runs one automation cycle as of now.
type Runner interface {
	RunCycle(ctx context.Context, now time.Time) scheduler.CycleSummary
}

// Config controls a Trigger.
type Config struct {
	// CronSpec is a standard five-field cron expression.
	CronSpec string
	// Location is the practice's time zone. Cron fires in it and every
	// cycle's now is expressed in it. Nil means UTC.
	Location *time.Location
	// RunOnStartup runs a cycle as soon as Start is called.
	RunOnStartup bool
}

// Trigger runs cycles on schedule and on demand, one at a time.
type Trigger struct {
	runner   Runner
	cfg      Config
	schedule cron.Schedule
	clock    func() time.Time
	logger   *slog.Logger

	// running serializes cycles across the cron and on-demand paths.
	running sync.Mutex
	// startup tracks the run-on-startup cycle, which cron does not own.
	startup sync.WaitGroup

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(t *Trigger) {
		t.clock = clock
	}
}

// New validates cfg and creates a Trigger. Nothing runs until Start.
func New(runner Runner, cfg Config, logger *slog.Logger, opts ...Option) (*Trigger, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	schedule, err := parser().Parse(cfg.CronSpec)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", cfg.CronSpec, err)
	}

	t := &Trigger{
		runner:   runner,
		cfg:      cfg,
		schedule: schedule,
		clock:    time.Now,
		logger:   logger.With(slog.String("component", "trigger")),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func parser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// Start begins the cron schedule and, if configured, runs a cycle in the
// background right away. The startup cycle recovers from panics like a
// scheduled one, and Stop waits for it. Cycles started by the schedule use a context
// derived from ctx.
func (t *Trigger) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cron != nil {
		return
	}

	t.ctx, t.cancel = context.WithCancel(ctx)

	cl := cronLogger{logger: t.logger}
	t.cron = cron.New(
		cron.WithLocation(t.cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	t.cron.Schedule(t.schedule, cron.FuncJob(t.runScheduled))
	t.cron.Start()

	t.logger.Info("automation schedule started",
		slog.String("cron_spec", t.cfg.CronSpec),
		slog.String("timezone", t.cfg.Location.String()),
		slog.Time("next_run", t.Next()))

	if t.cfg.RunOnStartup {
		job := cron.NewChain(cron.Recover(cl)).Then(cron.FuncJob(t.runScheduled))
		t.startup.Add(1)
		go func() {
			defer t.startup.Done()
			job.Run()
		}()
	}
}

// Stop halts the schedule and waits for a running cycle to finish or for
// ctx to expire, whichever comes first.
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	c, cancel := t.cron, t.cancel
	t.mu.Unlock()

	if c == nil {
		return ErrNotStarted
	}

	done := c.Stop()
	defer cancel()

	// The startup cycle is not tracked by cron. On-demand cycles hold the lock.
	finished := make(chan struct{})
	go func() {
		<-done.Done()
		t.startup.Wait()
		t.running.Lock()
		t.running.Unlock()
		close(finished)
	}()

	select {
	case <-finished:
		t.logger.Info("automation schedule stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running cycle: %w", ctx.Err())
	}
}

// RunNow runs a cycle as of the current time, waiting for any cycle already
// in progress to finish first.
func (t *Trigger) RunNow(ctx context.Context) scheduler.CycleSummary {
	return t.RunAt(ctx, t.clock())
}

// RunAt runs a cycle as of now, expressed in the configured location.
func (t *Trigger) RunAt(ctx context.Context, now time.Time) scheduler.CycleSummary {
	t.running.Lock()
	defer t.running.Unlock()
	return t.runner.RunCycle(ctx, now.In(t.cfg.Location))
}

// Next returns when the schedule will next fire.
func (t *Trigger) Next() time.Time {
	return t.schedule.Next(t.clock().In(t.cfg.Location))
}

// Location returns the time zone cycles run in.
func (t *Trigger) Location() *time.Location {
	return t.cfg.Location
}

// runScheduled runs a cycle unless one is already in progress.
func (t *Trigger) runScheduled() {
	if !t.running.TryLock() {
		t.logger.Warn("automation cycle already running, skipping scheduled run")
		return
	}
	defer t.running.Unlock()

	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	t.runner.RunCycle(ctx, t.clock().In(t.cfg.Location))
}
