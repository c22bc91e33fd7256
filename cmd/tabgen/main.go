package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mmrzaf/tabgen/internal/config"
	"github.com/mmrzaf/tabgen/internal/logging"
)

var (
	specsDir   string
	targetsDir string
	runsDBPath string
	cacheDB    string
	logLevel   string
	batchSize  int
	defaultCat []string
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tabgen",
		Short:         "Synthetic tabular data generator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&specsDir, "specs-dir", cfg.SpecsDir, "Table specs directory")
	pf.StringVar(&targetsDir, "targets-dir", cfg.TargetsDir, "Targets directory")
	pf.StringVar(&runsDBPath, "runs-db", cfg.RunsDBPath, "Runs database path")
	pf.StringVar(&cacheDB, "cache-db", cfg.CacheDBPath, "Table cache file (empty disables caching)")
	pf.StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level")
	pf.IntVar(&batchSize, "batch-size", cfg.BatchSize, "Insert batch size")
	pf.StringSliceVar(&defaultCat, "default-categories", cfg.DefaultCategories, "Categories for categorical columns that name none")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(describeCmd())
	rootCmd.AddCommand(specCmd())
	rootCmd.AddCommand(targetCmd())
	rootCmd.AddCommand(runCmd(cfg))
	rootCmd.AddCommand(showcaseCmd())
	return rootCmd
}

// newLogger writes to stderr so that stdout stays clean for table output.
func newLogger() *logging.Logger {
	return logging.NewLoggerWithWriter(logLevel, os.Stderr).WithComponent("cli")
}
