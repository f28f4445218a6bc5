// Package cmd provides the CLI commands for indexsyn.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
	"github.com/Aman-CERP/indexsyn/internal/logging"
	"github.com/Aman-CERP/indexsyn/internal/profiling"
	"github.com/Aman-CERP/indexsyn/pkg/version"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configDir string
	debug     bool
	backend   string
	index     string
	analyzer  string
	lenient   bool
	expand    bool
	profile   profiling.Options
}

var (
	flags          globalFlags
	loggingCleanup func()
	profiler       *profiling.Session
)

// NewRootCmd creates the root command for the indexsyn CLI.
func NewRootCmd() *cobra.Command {
	flags = globalFlags{}

	cmd := &cobra.Command{
		Use:   "indexsyn",
		Short: "Index-backed synonym graph filter",
		Long: `indexsyn loads synonym rules stored as documents in an index,
normalizes them through an analyzer and compiles them into a token
transducer used by the index_synonym_graph token filter.

Rules use the Solr synonym format:
  usa, united states, america        equivalent terms
  ny => new york                      explicit mapping`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("indexsyn version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", ".", "Directory holding .indexsyn.yaml")
	pf.BoolVar(&flags.debug, "debug", false, "Enable debug logging to ~/.indexsyn/logs/ and stderr")
	pf.StringVar(&flags.backend, "backend", "", "Synonym source: opensearch, bleve, sqlite, files")
	pf.StringVar(&flags.index, "index", "", "Index holding synonym documents")
	pf.StringVar(&flags.analyzer, "analyzer", "", "Analyzer used to normalize rule terms")
	pf.BoolVar(&flags.lenient, "lenient", false, "Skip rules with terms the analyzer rejects")
	pf.BoolVar(&flags.expand, "expand", true, "Map every term of an equivalence group to every other")
	pf.StringVar(&flags.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	pf.StringVar(&flags.profile.Heap, "profile-mem", "", "Write memory profile to file")
	pf.StringVar(&flags.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startLoggingAndProfiling
	cmd.PersistentPostRunE = stopLoggingAndProfiling

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newLookupCmd())
	cmd.AddCommand(newDumpCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLoggingAndProfiling installs the default logger and starts any
// requested profiles. Logs go to the configured file; --debug adds the
// debug log file and stderr.
func startLoggingAndProfiling(cmd *cobra.Command, _ []string) error {
	cfg := logging.Config{Level: "warn"}
	if c, err := loadConfig(cmd); err == nil {
		cfg = logging.Config{
			Level:     c.Logging.Level,
			FilePath:  c.Logging.File,
			MaxSizeMB: c.Logging.MaxSizeMB,
			MaxFiles:  c.Logging.MaxFiles,
		}
	}
	if flags.debug {
		dbg := logging.DebugConfig()
		cfg.Level = dbg.Level
		cfg.WriteToStderr = true
		if cfg.FilePath == "" {
			cfg.FilePath = dbg.FilePath
		}
		if err := logging.EnsureLogDir(); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("debug_logging_enabled",
		slog.String("log_file", cfg.FilePath),
		slog.String("version", version.Short()))

	if flags.profile.Enabled() {
		if profiler, err = profiling.Start(flags.profile); err != nil {
			return err
		}
	}
	return nil
}

func stopLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and prints failures in CLI form.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, synerrors.FormatForCLI(err))
	}
	return err
}
