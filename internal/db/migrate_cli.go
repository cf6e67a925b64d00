package db

import (
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
)

// RunMigrateCommand handles the 'migrate' subcommand. Output meant for the
// operator goes to out; progress goes through monitoring.Logf.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("missing migrate action")
	}
	action := args[0]
	if action == "help" {
		PrintMigrateHelp(out)
		return nil
	}

	// Open without running migrations; the command manages the schema.
	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	migrations := MigrationsFS()

	switch action {
	case "up":
		monitoring.Logf("Running migrations...")
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
		return printStatus(out, database, migrations)

	case "down":
		monitoring.Logf("Rolling back one migration...")
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
		return printStatus(out, database, migrations)

	case "status":
		return printStatus(out, database, migrations)

	case "version":
		v, err := versionArg(args)
		if err != nil {
			return err
		}
		monitoring.Logf("Migrating to version %d...", v)
		if err := database.MigrateTo(migrations, uint(v)); err != nil {
			return err
		}
		return printStatus(out, database, migrations)

	case "force":
		v, err := versionArg(args)
		if err != nil {
			return err
		}
		monitoring.Logf("Forcing migration version to %d; use only to recover from a dirty state", v)
		if err := database.MigrateForce(migrations, v); err != nil {
			return err
		}
		return printStatus(out, database, migrations)

	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action: %s", action)
	}
}

func versionArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: waittimer migrate %s <version_number>", args[0])
	}
	v, err := strconv.Atoi(args[1])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version number: %s", args[1])
	}
	return v, nil
}

func printStatus(out io.Writer, database *DB, migrations fs.FS) error {
	status, err := database.GetMigrationStatus(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== Migration Status ===")
	fmt.Fprintf(out, "Current version: %d\n", status.Current)
	fmt.Fprintf(out, "Latest available: %d\n", status.Latest)
	fmt.Fprintf(out, "Dirty: %v\n", status.Dirty)
	switch {
	case status.Dirty:
		fmt.Fprintln(out, "Database is in a dirty state. Inspect it, then run: waittimer migrate force <version>")
	case status.Pending() > 0:
		fmt.Fprintf(out, "%d migration(s) pending. Run: waittimer migrate up\n", status.Pending())
	default:
		fmt.Fprintln(out, "Database is up to date.")
	}
	return nil
}

// PrintMigrateHelp displays the help message for the migrate command.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprintln(out, `Database Migration Commands

Usage: waittimer migrate <command> [options]

Commands:
  up              Apply all pending migrations
  down            Rollback one migration
  status          Show current migration status and version
  version <N>     Migrate to specific version N
  force <N>       Force migration version to N (recovery only)
  help            Show this help message

Options:
  -db <path>      Path to database file (default: waittimer.db)`)
}
