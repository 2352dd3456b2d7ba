package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/payaid/backend/internal/infrastructure/config"
	"github.com/payaid/backend/internal/infrastructure/logger"
	"github.com/payaid/backend/internal/infrastructure/migration"
	"github.com/payaid/backend/migrations"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "PayAid database migration tool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "read migrations from this directory instead of the embedded set",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "log level: debug, info, warn, error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withMigrator(func(_ *cli.Context, m *migration.Migrator, _ *zap.Logger) error {
					return m.Up()
				}),
			},
			{
				Name:  "down",
				Usage: "roll back all migrations",
				Action: withMigrator(func(_ *cli.Context, m *migration.Migrator, _ *zap.Logger) error {
					return m.Down()
				}),
			},
			{
				Name:      "step",
				Usage:     "apply n migrations (negative rolls back)",
				ArgsUsage: "<n>",
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator, _ *zap.Logger) error {
					n, err := strconv.Atoi(c.Args().First())
					if err != nil {
						return cli.Exit("step count required, e.g. 'migrate step -- -1'", 2)
					}
					return m.Steps(n)
				}),
			},
			{
				Name:      "goto",
				Usage:     "migrate to a specific version",
				ArgsUsage: "<version>",
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator, _ *zap.Logger) error {
					version, err := strconv.ParseUint(c.Args().First(), 10, 32)
					if err != nil {
						return cli.Exit("valid version required", 2)
					}
					return m.GoTo(uint(version))
				}),
			},
			{
				Name:  "version",
				Usage: "show the applied version",
				Action: withMigrator(func(_ *cli.Context, m *migration.Migrator, log *zap.Logger) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					if version == 0 {
						log.Info("No migrations applied")
						return nil
					}
					log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "compare the applied version with the available migrations",
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator, _ *zap.Logger) error {
					st, err := m.Status(migrationSource(c))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "version: %d\ndirty:   %t\nlatest:  %d\npending: %d\n",
						st.Version, st.Dirty, st.Latest, st.Pending)
					return nil
				}),
			},
			{
				Name:      "force",
				Usage:     "set the version without running migrations (recovers a dirty state)",
				ArgsUsage: "<version>",
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator, _ *zap.Logger) error {
					version, err := strconv.Atoi(c.Args().First())
					if err != nil {
						return cli.Exit("valid version required", 2)
					}
					return m.Force(version)
				}),
			},
			{
				Name:  "drop",
				Usage: "drop every database object",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "confirm", Usage: "required; drop is irreversible"},
				},
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator, _ *zap.Logger) error {
					if !c.Bool("confirm") {
						return cli.Exit("drop cancelled, rerun with --confirm", 1)
					}
					return m.Drop()
				}),
			},
			{
				Name:      "create",
				Usage:     "write the next up/down migration pair",
				ArgsUsage: "<name> [description]",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return cli.Exit("migration name required", 2)
					}
					dir := c.String("path")
					if dir == "" {
						dir = "migrations"
					}
					mf, err := migration.CreateMigration(dir, c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "created %s\n        %s\n", mf.UpPath, mf.DownPath)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list available migrations",
				Action: func(c *cli.Context) error {
					files, err := migration.ListMigrations(migrationSource(c))
					if err != nil {
						return err
					}
					for _, f := range files {
						fmt.Fprintf(c.App.Writer, "%06d  %s\n", f.Version, f.Name)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// migrationSource is the --path directory when given, else the embedded migrations
func migrationSource(c *cli.Context) fs.FS {
	if dir := c.String("path"); dir != "" {
		return os.DirFS(dir)
	}
	return migrations.FS
}

type migratorAction func(c *cli.Context, m *migration.Migrator, log *zap.Logger) error

// withMigrator opens the configured database and hands a Migrator to fn
func withMigrator(fn migratorAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		log, err := logger.New(logger.Config{Level: c.String("log-level"), Format: "console", Output: "stdout"})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() {
			_ = log.Sync()
		}()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(c.Context); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		var m *migration.Migrator
		if dir := c.String("path"); dir != "" {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			log.Info("Using migrations from disk", zap.String("path", abs))
			m, err = migration.NewWithFS(db, os.DirFS(abs), log)
			if err != nil {
				return err
			}
		} else {
			m, err = migration.NewWithFS(db, migrations.FS, log)
			if err != nil {
				return err
			}
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Warn("Error closing migrator", zap.Error(err))
			}
		}()

		return fn(c, m, log)
	}
}
