package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/auction-engine/db/migrations"
	"github.com/riskibarqy/auction-engine/internal/app"
	"github.com/riskibarqy/auction-engine/internal/config"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

var errUsage = errors.New("usage")

type command func(m *migrate.Migrate, args []string) error

var commands = map[string]command{
	"up":      runUp,
	"down":    runDown,
	"version": runVersion,
	"force":   runForce,
	"goto":    runGoto,
}

func main() {
	logger := logging.New(logging.LevelInfo, os.Stderr).Named("migration")
	_ = godotenv.Load()

	if err := run(os.Args[1:], logger); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
			os.Exit(2)
		}
		logger.Error("migration failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(args []string, logger *logging.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	store, err := config.LoadStore()
	if err != nil {
		return fmt.Errorf("load store config: %w", err)
	}
	// sqlite deployments create their schema on startup
	if store.Backend != config.StoreSQL {
		return fmt.Errorf("migrations apply to the %q store only, got %q", config.StoreSQL, store.Backend)
	}

	src, origin, err := openSource(os.Getenv("MIGRATIONS_DIR"))
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("migrations", src, app.NormalizeDBURL(store.DBURL, store.DBDisablePreparedBinary))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("close migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	logger.Info("running migration command", "command", name, "source", origin)
	if err := cmd(m, args[1:]); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migration changes")
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// openSource prefers an on-disk directory when MIGRATIONS_DIR is set and falls back to the
// migrations compiled into the binary.
func openSource(dir string) (source.Driver, string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		src, err := iofs.New(migrations.FS, ".")
		if err != nil {
			return nil, "", fmt.Errorf("open embedded migrations: %w", err)
		}
		return src, "embedded", nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolve migrations dir %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, "", fmt.Errorf("migrations dir %q is not a directory", abs)
	}
	sourceURL := "file://" + filepath.ToSlash(abs)
	src, err := source.Open(sourceURL)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", sourceURL, err)
	}
	return src, sourceURL, nil
}

func runUp(m *migrate.Migrate, _ []string) error {
	return m.Up()
}

func runDown(m *migrate.Migrate, args []string) error {
	steps, err := parseSteps(args)
	if err != nil {
		return err
	}
	return m.Steps(-steps)
}

func runVersion(m *migrate.Migrate, _ []string) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("version: none")
		fmt.Println("dirty: false")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("version: %d\n", version)
	fmt.Printf("dirty: %t\n", dirty)
	return nil
}

func runForce(m *migrate.Migrate, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: force requires a version", errUsage)
	}
	version, err := parseVersion(args[0])
	if err != nil {
		return err
	}
	return m.Force(version)
}

func runGoto(m *migrate.Migrate, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: goto requires a target version", errUsage)
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	return m.Migrate(target)
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	return value, nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func printUsage() {
	bin := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down [n]|version|force <version>|goto <version>>\n", bin)
	fmt.Fprintln(os.Stderr, "env: STORE_BACKEND=sql, DB_URL, optional MIGRATIONS_DIR")
}
