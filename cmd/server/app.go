package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/config"
	"github.com/phrazzld/practice-scheduler/internal/events"
	"github.com/phrazzld/practice-scheduler/internal/scheduler"
	"github.com/phrazzld/practice-scheduler/internal/service"
	"github.com/phrazzld/practice-scheduler/internal/store"
	"github.com/phrazzld/practice-scheduler/internal/trigger"
)

// application holds the shared dependencies of every subcommand so they can
// be wired once and released together.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	stores store.Stores
	tx     store.Transactor

	ruleService service.RuleService
	taskService service.TaskService

	eventEmitter *events.InMemoryEventEmitter
	lastRun      *scheduler.LastRunRecorder
	scheduler    *scheduler.Scheduler
	trigger      *trigger.Trigger
}

// newApplication wires services, the scheduler and its trigger on top of
// stores and tx. The caller owns the database connection, if any, and sets
// app.db so cleanup can close it.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	stores store.Stores,
	tx store.Transactor,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		stores: stores,
		tx:     tx,
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler timezone: %w", err)
	}

	// Services read "today" in the practice's zone, like the scheduler does.
	clock := func() time.Time { return time.Now().In(loc) }

	app.ruleService, err = service.NewRuleService(stores, tx, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule service: %w", err)
	}
	app.taskService, err = service.NewTaskService(stores, tx, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.lastRun = scheduler.NewLastRunRecorder()
	app.eventEmitter.RegisterHandler(app.lastRun)

	app.scheduler = scheduler.New(stores, tx, app.eventEmitter, logger)

	app.trigger, err = trigger.New(app.scheduler, trigger.Config{
		CronSpec:     cfg.Scheduler.CronSpec,
		Location:     loc,
		RunOnStartup: cfg.Scheduler.RunOnStartup,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create automation trigger: %w", err)
	}

	logger.Info("Application initialized successfully",
		"scheduler_enabled", cfg.Scheduler.Enabled,
		"timezone", loc.String())
	return app, nil
}

// Run serves the API until ctx is cancelled. The automation schedule runs
// alongside it when enabled; manual cycles are available either way.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if app.config.Scheduler.Enabled {
		app.trigger.Start(ctx)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout())
			defer cancel()
			if err := app.trigger.Stop(stopCtx); err != nil {
				app.logger.Error("Failed to stop automation schedule", "error", err)
			}
		}()
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runOnce runs a single cycle as of at, or as of now when at is zero.
func (app *application) runOnce(ctx context.Context, at time.Time) scheduler.CycleSummary {
	if at.IsZero() {
		return app.trigger.RunNow(ctx)
	}
	return app.trigger.RunAt(ctx, at)
}

// cleanup releases application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
		app.db = nil
	}

	app.logger.Info("Application shutdown completed")
}
