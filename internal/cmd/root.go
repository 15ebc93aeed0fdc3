package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kindaran/pia-stats/internal/config"
	"github.com/kindaran/pia-stats/internal/errs"
	"github.com/kindaran/pia-stats/internal/extract"
	"github.com/kindaran/pia-stats/internal/logging"
)

var (
	cfgFile string
	verbose bool

	// Set up per invocation by PersistentPreRunE.
	cfg    config.Config
	logger *zap.Logger
)

// rootCmd is the base command. Without a subcommand it runs extract.
var rootCmd = &cobra.Command{
	Use:   "piastats",
	Short: "piastats: export speedtest log results to CSV",
	Long: `piastats pulls the Date, Download and Upload lines out of a speedtest
log, groups them into one row per test run and writes the rows to a
timestamped CSV file such as speedtest_20240101120000.csv.

Runs aborted before reporting any speed are skipped.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Args: cobra.ArbitraryArgs,
	RunE: runExtract,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		report(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.piastats.yaml or ./.piastats.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringSliceP("input", "i", nil, "input log files or glob patterns (default: speedtest.log)")
	flags.StringP("output-dir", "d", "", "directory for CSV exports (default: .)")
	flags.String("log-format", "", "log format: console, json")

	_ = viper.BindPFlag("input", flags.Lookup("input"))
	_ = viper.BindPFlag("output.dir", flags.Lookup("output-dir"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

// setup loads the config and builds the logger for this invocation.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		return err
	}
	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	l, err := logging.New(loaded.Log, verbose)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	logger.Debug("configuration loaded",
		zap.String("config_file", viper.ConfigFileUsed()),
		zap.Strings("input", cfg.Input),
		zap.String("output_dir", cfg.Output.Dir))
	return nil
}

// inputs returns the command-line paths, falling back to the config.
func inputs(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Input
}

func newRunner() *extract.Runner {
	return extract.NewRunner(cfg, logger)
}

// report logs a failed invocation through the run logger when one exists.
func report(err error) {
	if logger == nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	fields := []zap.Field{zap.Error(err)}
	if kind := errs.KindOf(err); kind != nil {
		fields = append(fields, zap.String("kind", kind.Error()))
	}
	logger.Error("run failed", fields...)
	_ = logger.Sync()
}
