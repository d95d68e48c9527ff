// Command migrate manages the orgdesk database schema.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"orgdesk/internal/config"
	"orgdesk/internal/database"
)

// migrator is the subset of *database.DB the commands use.
type migrator interface {
	MigrateUp(path string) (database.MigrationStatus, error)
	MigrateDown(path string, steps int) (database.MigrationStatus, error)
	MigrateVersion(path string) (database.MigrationStatus, error)
	MigrateReset(path string) error
	Close() error
}

type options struct {
	databaseURL    string
	migrationsPath string
	open           func(url string) (migrator, error)
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, openDatabase).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openDatabase(url string) (migrator, error) {
	return database.Open(config.DatabaseConfig{URL: url})
}

func newRootCmd(out io.Writer, open func(string) (migrator, error)) *cobra.Command {
	opts := &options{open: open}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the orgdesk database schema",
		Long: `migrate applies and rolls back the SQL migrations in ./migrations.

Examples:
  migrate up                 # apply all pending migrations
  migrate down 1             # roll back the latest migration
  migrate version            # print the current schema version
  migrate reset --force      # roll back everything`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	root.PersistentFlags().StringVar(&opts.migrationsPath, "path", os.Getenv("MIGRATIONS_PATH"), "migrations directory (default: auto-detect)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: opts.withDB(func(cmd *cobra.Command, db migrator, path string, _ []string) error {
				st, err := db.MigrateUp(path)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: opts.withDB(func(cmd *cobra.Command, db migrator, path string, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid steps %q: %w", args[0], err)
					}
					steps = n
				}
				st, err := db.MigrateDown(path, steps)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: opts.withDB(func(cmd *cobra.Command, db migrator, path string, _ []string) error {
				st, err := db.MigrateVersion(path)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			}),
		},
		newResetCmd(opts),
	)

	return root
}

func newResetCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Roll back every migration (drops all data)",
		Args:  cobra.NoArgs,
		RunE: opts.withDB(func(cmd *cobra.Command, db migrator, path string, _ []string) error {
			if !force {
				return fmt.Errorf("reset drops all users and organisations; rerun with --force")
			}
			if err := db.MigrateReset(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema reset")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm the reset")
	return cmd
}

type dbRunE func(cmd *cobra.Command, db migrator, path string, args []string) error

func (o *options) withDB(fn dbRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if o.databaseURL == "" {
			return fmt.Errorf("database URL is required (--database-url or DATABASE_URL)")
		}

		db, err := o.open(o.databaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		return fn(cmd, db, database.ResolveMigrationsPath(o.migrationsPath), args)
	}
}

func printStatus(w io.Writer, st database.MigrationStatus) {
	if st.Dirty {
		fmt.Fprintf(w, "version %d (dirty: a previous migration failed)\n", st.Version)
		return
	}
	fmt.Fprintf(w, "version %d\n", st.Version)
}
