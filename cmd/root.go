package cmd

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/songlens-cli/internal/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Path flags (override config if set)
	flagOutputDir  string
	flagDatasetDir string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "songlens",
	Short: "SongLens: exploratory charts for a songs popularity dataset",
	Long: `SongLens downloads (or reads) a songs dataset, works out which columns hold
popularity, duration, genre, title and artist, and renders a fixed set of
popularity charts into an output directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here: runPipeline reaches rootCmd through applyFlagOverrides.
	rootCmd.RunE = runPipeline
	cobra.OnInitialize(setupLogging, loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.songlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "", "directory for charts and summary (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDatasetDir, "dataset-dir", "", "use a local dataset directory instead of downloading (overrides config)")
}

func setupLogging() {
	log.SetHandler(cli.New(os.Stderr))
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal here; commands that need config report it themselves.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
	applyFlagOverrides(cfg)
}

func applyFlagOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("output-dir") && flagOutputDir != "" {
		c.OutputDir = flagOutputDir
	}
	if f.Changed("dataset-dir") && flagDatasetDir != "" {
		c.DatasetDir = flagDatasetDir
	}
}

// requireConfig returns the loaded configuration or the load error.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(c)
	cfg = c
	return cfg, nil
}
