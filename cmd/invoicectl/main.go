// Command invoicectl administers an invoicer database: users, schema
// migrations, offline PDF and spreadsheet exports, and sync requeueing.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"invoicer/internal/cli"
	"invoicer/internal/config"
	applog "invoicer/internal/log"
	"invoicer/internal/storage"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
	dbPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Administer the invoicer database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default: SQLITE_DB_PATH)")

	root.AddCommand(
		userCmd(a),
		migrateCmd(a),
		invoiceCmd(a),
		expensesCmd(a),
		syncCmd(a),
	)
	return root
}

// init loads .env and the environment. Logs go to stderr so command
// output on stdout stays clean.
func (a *app) init(logOut io.Writer) error {
	cli.LoadEnvFile()
	a.cfg = config.Load()

	lc := applog.DefaultConfig()
	lc.Level = applog.ParseLevel(a.cfg.LogLevel)
	lc.Format = a.cfg.LogFormat
	lc.Component = applog.ComponentCLI
	lc.Output = logOut
	a.logger = applog.New(lc)

	if a.dbPath == "" {
		a.dbPath = a.cfg.SQLiteDBPath
	}
	if a.dbPath == "" {
		return fmt.Errorf("no database path: set --db or SQLITE_DB_PATH")
	}
	return nil
}

// openRepo opens the database, applying pending migrations.
func (a *app) openRepo() (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.dbPath, err)
	}
	return repo, nil
}

func (a *app) closeRepo(repo *storage.SQLiteRepository) {
	if err := repo.Close(); err != nil {
		a.logger.Warn("Database close error", applog.FieldError, err)
	}
}
