// Command migrate applies the SQL migrations for the tables the generation
// flows read: destinations, packages and itineraries.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/af-corp/tourdesk/internal/config"
)

type options struct {
	command        string
	steps          int
	forceVersion   int
	dbURL          string
	configDir      string
	migrationsPath string
}

func main() {
	var opts options
	flag.StringVar(&opts.command, "direction", "up", "up, down, version or force")
	flag.IntVar(&opts.steps, "steps", 0, "number of steps for up/down (0 = all)")
	flag.IntVar(&opts.forceVersion, "force-version", -1, "version to record with -direction force")
	flag.StringVar(&opts.dbURL, "db-url", "", "database URL (overrides DATABASE_URL and config)")
	flag.StringVar(&opts.configDir, "config", "configs", "path to configuration directory")
	flag.StringVar(&opts.migrationsPath, "path", "migrations", "path to migrations directory")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(opts, logger); err != nil {
		logger.Error("migration failed", "command", opts.command, "error", err)
		os.Exit(1)
	}
}

// resolveDSN prefers the flag, then DATABASE_URL, then the database section
// of tourdesk.yaml.
func resolveDSN(opts options, logger *slog.Logger) string {
	if opts.dbURL != "" {
		return opts.dbURL
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	cfg := config.DefaultConfig()
	if err := config.LoadFile(filepath.Join(opts.configDir, "tourdesk.yaml"), cfg); err != nil {
		logger.Warn("using default database settings", "error", err)
	}
	return cfg.Database.DSN()
}

func run(opts options, logger *slog.Logger) error {
	m, err := migrate.New("file://"+opts.migrationsPath, resolveDSN(opts, logger))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	switch opts.command {
	case "up":
		if opts.steps > 0 {
			err = m.Steps(opts.steps)
		} else {
			err = m.Up()
		}
	case "down":
		if opts.steps > 0 {
			err = m.Steps(-opts.steps)
		} else {
			err = m.Down()
		}
	case "force":
		// Clears the dirty flag after a failed migration was fixed by hand.
		if opts.forceVersion < 0 {
			return errors.New("-force-version is required with -direction force")
		}
		err = m.Force(opts.forceVersion)
	case "version":
	default:
		return fmt.Errorf("unknown direction %q (use up, down, version or force)", opts.command)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info("no migrations applied", "command", opts.command)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	logger.Info("migration complete", "command", opts.command, "version", v, "dirty", dirty)
	return nil
}
