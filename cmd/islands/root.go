package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/islands"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "islands",
	Short: "Consent-gated telemetry and deferred island activation for server-rendered sites",
	Long: `islands serves a critical shell that works without JavaScript, hands the
visitor's analytics consent to the deferred island bundle exactly once, and
coordinates consent-gated, at-most-once telemetry for each page.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Site configuration (default: islands.yaml found upwards from the working directory)")
}

// loadConfig returns the configuration named by --config, the nearest
// islands.yaml, or an empty configuration.
func loadConfig() (*islands.Config, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, err := islands.FindConfig(wd)
		if err != nil {
			slog.Debug("no site configuration found, using defaults", "dir", wd)
			return &islands.Config{}, nil
		}
		path = found
	}
	slog.Debug("loading site configuration", "path", path)
	return islands.LoadConfig(path)
}

func openSite(cfg *islands.Config, extra ...islands.Option) (*islands.Site, error) {
	opts := append(cfg.Options(), islands.WithLogger(slog.Default()))
	return islands.New(append(opts, extra...)...)
}
