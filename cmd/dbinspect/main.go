package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tordrt/dbinspect"
	"github.com/tordrt/dbinspect/internal/config"
	"github.com/tordrt/dbinspect/internal/formatter"
	"github.com/tordrt/dbinspect/internal/logger"
)

// now is the run clock; the banner and the report file name share one reading
var now = time.Now

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "dbinspect",
		Short: "Inspect the tables of a relational database",
		Long: `dbinspect connects to a PostgreSQL, MySQL or SQLite database, reports columns,
constraints, indexes and row counts for every base table, saves the result to a
timestamped JSON or YAML file and prints a summary.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	rootCmd.Flags().String("dsn", "", "Database URL: postgres://, mysql:// or sqlite:// (env DBINSPECT_DSN or DATABASE_URL)")
	rootCmd.Flags().StringP("schema", "s", "", "Schema to inspect (default: public for PostgreSQL, the DSN database for MySQL)")
	rootCmd.Flags().StringP("tables", "t", "", "Specific tables (comma-separated, optional)")
	rootCmd.Flags().String("exclude", "", "Tables to skip (comma-separated)")
	rootCmd.Flags().StringP("output-dir", "d", ".", "Directory for the report file")
	rootCmd.Flags().StringP("file-format", "f", config.FormatJSON, "Report file format: json or yaml")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().String("log-format", "console", "Log format: console or json")
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Config file (default: ./"+config.DefaultConfigFile+" if present)")

	rootCmd.AddCommand(newShowCmd())
	return rootCmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print a saved report on the console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := formatter.ReadReport(args[0])
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}

			f := formatter.NewTextFormatter(cmd.OutOrStdout())
			if err := f.Format(report); err != nil {
				return err
			}
			f.FormatSummary(report)
			return nil
		},
	}
}

// run performs one inspection. Only configuration and connection failures
// are returned; anything later is reported on the console.
func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	log := logger.New(&logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: stderr,
	}).With().Str("run_id", uuid.New().String()).Logger()

	startedAt := now()
	target := dbinspect.RedactURL(cfg.DSN)

	out := formatter.NewTextFormatter(stdout)
	out.FormatHeader(target, startedAt)

	log.Debug().Str("target", target).Msg("connecting")
	session, err := dbinspect.Connect(ctx, cfg.DSN, &dbinspect.Options{
		Tables:        cfg.TableList(),
		ExcludeTables: cfg.ExcludeList(),
		SchemaName:    cfg.Schema,
		Logger:        &log,
	})
	if err != nil {
		out.Failure("Error connecting to database: %v", err)
		return err
	}
	out.Success("Successfully connected to database")

	defer func() {
		if err := session.Close(); err != nil {
			_, _ = fmt.Fprintf(stderr, "warning: failed to close database connection: %v\n", err)
			return
		}
		out.Success("Database connection closed")
	}()

	report, err := session.Inspect(ctx)
	if err != nil {
		out.Failure("Unexpected error: %v", err)
		return nil
	}

	if err := out.Format(report); err != nil {
		out.Failure("Unexpected error: %v", err)
		return nil
	}
	if report.Len() == 0 {
		return nil
	}

	files := formatter.NewFileFormatter(cfg.OutputDir, cfg.FileFormat)
	files.Now = func() time.Time { return startedAt }
	path, err := files.Format(report)
	if err != nil {
		out.Failure("Unexpected error: %v", err)
		return nil
	}
	log.Info().Str("path", path).Msg("report written")

	_, _ = fmt.Fprintln(stdout)
	out.Success("Database structure saved to: %s", path)
	out.FormatSummary(report)
	return nil
}

// exitCode maps the error returned by the root command to the process status
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
