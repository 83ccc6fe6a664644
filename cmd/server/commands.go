package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/config"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/platform/postgres"
	"github.com/phrazzld/practice-scheduler/internal/seed"
	"github.com/urfave/cli/v3"
)

var errMissingSeedFile = errors.New("seed file path is required")

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "practice-scheduler",
		Usage: "Recurring obligation scheduler for accounting practices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				Sources: cli.EnvVars("PRACTICE_CONFIG"),
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			newServeCommand(),
			newRunOnceCommand(),
			newMigrateCommand(),
			newSeedCommand(),
		},
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API and the automation schedule",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := openApplication(ctx, cmd)
			if err != nil {
				return err
			}
			return app.Run(ctx)
		},
	}
}

func newRunOnceCommand() *cli.Command {
	return &cli.Command{
		Name:  "run-once",
		Usage: "Run a single automation cycle and print its summary",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "at",
				Usage: "reference time for the cycle (RFC 3339); defaults to now",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			at, err := parseAt(cmd.String("at"))
			if err != nil {
				return err
			}

			app, err := openApplication(ctx, cmd)
			if err != nil {
				return err
			}
			defer app.cleanup()

			summary := app.runOnce(ctx, at)

			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return fmt.Errorf("failed to write cycle summary: %w", err)
			}
			if summary.Errors > 0 {
				return fmt.Errorf("automation cycle finished with %d errors", summary.Errors)
			}
			return nil
		},
	}
}

func newMigrateCommand() *cli.Command {
	sub := func(name, usage string) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runMigration(ctx, cmd, name)
			},
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			sub(postgres.MigrateUp, "Apply all pending migrations"),
			sub(postgres.MigrateDown, "Roll back the latest migration"),
			sub(postgres.MigrateReset, "Roll back every migration"),
			sub(postgres.MigrateStatus, "Show the status of each migration"),
			sub(postgres.MigrateVersion, "Print the current schema version"),
		},
	}
}

func newSeedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Create recurrence rules from a YAML file",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errMissingSeedFile
			}

			// Validate the whole file before touching the database.
			f, err := seed.LoadFile(path)
			if err != nil {
				return err
			}

			app, err := openApplication(ctx, cmd)
			if err != nil {
				return err
			}
			defer app.cleanup()

			created, err := seed.Apply(ctx, app.ruleService, f, app.logger)
			if err != nil {
				return fmt.Errorf("seeded %d of %d rules: %w", len(created), len(f.Rules), err)
			}

			_, err = fmt.Fprintf(cmd.Root().Writer, "seeded %d rules\n", len(created))
			return err
		},
	}
}

// parseAt parses the --at flag. Empty means now and yields the zero time.
func parseAt(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at value %q: expected RFC 3339: %w", raw, err)
	}
	return at, nil
}

// loadConfig loads configuration from the root --config flag and sets up
// the application logger.
func loadConfig(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}

// openApplication loads configuration, connects to PostgreSQL and wires
// the application on top of it.
func openApplication(ctx context.Context, cmd *cli.Command) (*application, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	app, err := newApplication(cfg, log, postgres.NewStores(db, log), postgres.NewTransactor(db, log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.db = db
	return app, nil
}

func runMigration(ctx context.Context, cmd *cli.Command, command string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
		}
	}()

	return postgres.Migrate(ctx, db, command, log)
}
