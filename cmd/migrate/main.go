// Command migrate manages the marketplace database schema.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/infrastructure/config"
	"github.com/erp/marketplace/internal/infrastructure/logger"
	"github.com/erp/marketplace/internal/infrastructure/migration"
)

const usage = `usage: migrate [-log-level level] <command> [arg]

commands:
  up             apply pending migrations
  down           roll back every migration
  step <n>       move n versions (negative rolls back)
  version        print the applied version
  force <v>      mark version v as applied without running it

Connection settings come from config.toml and ERP_DATABASE_* variables.`

type command struct {
	needsArg bool
	run      func(m *migration.Migrator, n int, log *zap.Logger) error
}

var commands = map[string]command{
	"up":   {run: func(m *migration.Migrator, _ int, _ *zap.Logger) error { return m.Up() }},
	"down": {run: func(m *migration.Migrator, _ int, _ *zap.Logger) error { return m.Down() }},
	"step": {needsArg: true, run: func(m *migration.Migrator, n int, _ *zap.Logger) error { return m.Steps(n) }},
	"force": {needsArg: true, run: func(m *migration.Migrator, n int, _ *zap.Logger) error {
		return m.Force(n)
	}},
	"version": {run: func(m *migration.Migrator, _ int, log *zap.Logger) error {
		st, err := m.Status()
		if err != nil {
			return err
		}
		log.Info("Schema version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
		return nil
	}},
}

func main() {
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	name, cmd, n, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:   *logLevel,
		Format:  "console",
		Output:  "stdout",
		Service: "erp-marketplace-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(name, cmd, n, log); err != nil {
		log.Error("Migration failed", zap.String("command", name), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func parseArgs(args []string) (string, command, int, error) {
	if len(args) == 0 {
		return "", command{}, 0, fmt.Errorf("missing command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return "", command{}, 0, fmt.Errorf("unknown command %q", args[0])
	}
	if !cmd.needsArg {
		return args[0], cmd, 0, nil
	}
	if len(args) < 2 {
		return "", command{}, 0, fmt.Errorf("%s needs a numeric argument", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return "", command{}, 0, fmt.Errorf("%s: %q is not a number", args[0], args[1])
	}
	return args[0], cmd, n, nil
}

func run(name string, cmd command, n int, log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("reach database: %w", err)
	}

	m, err := migration.New(db, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()

	log.Info("Running migration command", zap.String("command", name))
	return cmd.run(m, n, log)
}
