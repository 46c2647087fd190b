package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/keepup/backend/internal/infrastructure/config"
	"github.com/keepup/backend/internal/infrastructure/logger"
	"github.com/keepup/backend/internal/infrastructure/migration"
)

const defaultMigrationsRoot = "migrations"

func main() {
	var (
		migrationsRoot string
		targetFlag     string
		logLevel       string
	)

	flag.StringVar(&migrationsRoot, "path", "", "Path to migrations root directory (default: ./migrations)")
	flag.StringVar(&targetFlag, "target", "all", "Database target: internal, catalog, or all")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if migrationsRoot == "" {
		migrationsRoot = findMigrationsRoot()
	}
	absRoot, err := filepath.Abs(migrationsRoot)
	if err != nil {
		log.Fatal("Failed to get absolute path", zap.Error(err))
	}
	migrationsRoot = absRoot

	targets, err := resolveTargets(targetFlag)
	if err != nil {
		log.Fatal("Invalid target", zap.Error(err))
	}

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_root", migrationsRoot),
		zap.String("target", targetFlag),
	)

	// create and list work against the filesystem only
	if command == "create" {
		if len(targets) != 1 {
			log.Fatal("create needs a single -target (internal or catalog)")
		}
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate -target <t> create <name> [description]")
		}
		name := args[1]
		description := ""
		if len(args) > 2 {
			description = args[2]
		}

		mf, err := migration.CreateMigration(migrationsRoot, targets[0], name, description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}

		log.Info("Migration created successfully",
			zap.String("target", string(mf.Target)),
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return
	}

	if command == "list" {
		for _, target := range targets {
			migrations, err := migration.ListMigrations(migrationsRoot, target)
			if err != nil {
				log.Fatal("Failed to list migrations", zap.Error(err))
			}

			log.Info("Available migrations",
				zap.String("target", string(target)),
				zap.Int("count", len(migrations)),
			)
			for _, m := range migrations {
				fmt.Println("  -", m)
			}
		}
		return
	}

	// Remaining commands need database connections
	migrators := make([]*migration.Migrator, 0, len(targets))
	for _, target := range targets {
		m, closeDB := openMigrator(cfg, target, migrationsRoot, log)
		defer closeDB()
		defer m.Close()
		migrators = append(migrators, m)
	}

	switch command {
	case "up":
		if err := migration.UpAll(migrators...); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		for _, m := range migrators {
			if err := m.Down(); err != nil {
				log.Fatal("Migration down failed", zap.Error(err))
			}
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if len(migrators) != 1 {
			log.Fatal("step needs a single -target (internal or catalog)")
		}
		if err := migrators[0].Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "version":
		for _, m := range migrators {
			version, dirty, err := m.Version()
			if err != nil {
				log.Fatal("Failed to get version", zap.Error(err))
			}
			if version == 0 {
				log.Info("No migrations applied", zap.String("target", string(m.Target())))
			} else {
				log.Info("Current migration version",
					zap.String("target", string(m.Target())),
					zap.Uint("version", version),
					zap.Bool("dirty", dirty),
				)
			}
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if len(migrators) != 1 {
			log.Fatal("force needs a single -target (internal or catalog)")
		}
		log.Warn("Forcing migration version - use with caution!")
		if err := migrators[0].Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

// openMigrator connects to the target's database and wraps it in a Migrator.
func openMigrator(cfg *config.Config, target migration.Target, migrationsRoot string, log *zap.Logger) (*migration.Migrator, func()) {
	dbCfg := &cfg.Database
	if target == migration.TargetCatalog {
		dbCfg = &cfg.Catalog.Database
	}

	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database",
			zap.String("target", string(target)),
			zap.Error(err),
		)
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database",
			zap.String("target", string(target)),
			zap.Error(err),
		)
	}

	m, err := migration.New(target, db, migrationsRoot, log)
	if err != nil {
		log.Fatal("Failed to create migrator",
			zap.String("target", string(target)),
			zap.Error(err),
		)
	}
	return m, func() { _ = db.Close() }
}

// resolveTargets maps the -target flag to migration targets. The internal
// database always migrates before the catalog.
func resolveTargets(flag string) ([]migration.Target, error) {
	switch flag {
	case "internal":
		return []migration.Target{migration.TargetInternal}, nil
	case "catalog":
		return []migration.Target{migration.TargetCatalog}, nil
	case "all", "":
		return []migration.Target{migration.TargetInternal, migration.TargetCatalog}, nil
	default:
		return nil, fmt.Errorf("unknown target %q (want internal, catalog, or all)", flag)
	}
}

// findMigrationsRoot locates the migrations directory relative to the
// working directory or the executable.
func findMigrationsRoot() string {
	if _, err := os.Stat(defaultMigrationsRoot); err == nil {
		return defaultMigrationsRoot
	}
	execPath, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsRoot)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsRoot
}

func printUsage() {
	fmt.Println(`KeepUp Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations (internal first, then catalog)
  down                  Roll back all migrations
  step <n>              Apply n migrations for one target (positive=up, negative=down)
  version               Show current migration version per target
  force <version>       Force set migration version for one target (use with caution)
  create <name> [desc]  Create a new migration file pair for one target
  list                  List available migrations

Flags:
  -path string          Path to migrations root directory (default: ./migrations)
  -target string        internal, catalog, or all (default: all)
  -log-level string     Log level: debug, info, warn, error (default: info)

Examples:
  # Apply all pending migrations to both databases
  migrate up

  # Roll back the last internal migration
  migrate -target internal step -1

  # Create a new catalog migration
  migrate -target catalog create add_public_homes "Create public_homes table"

  # Check current versions
  migrate version`)
}
