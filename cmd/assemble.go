// Package cmd holds the one-shot subcommands that run outside the daemon
// loop: assembling once, provisioning the encoder, validating configuration,
// and applying updates.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/signcast/signcast/internal/config"
	"github.com/signcast/signcast/internal/daemon"
	"github.com/signcast/signcast/internal/logging"
)

// CreateAssembleCmd creates the assemble command: one full cycle, then exit.
func CreateAssembleCmd() *cobra.Command {
	var configFile string
	var slidesDir string
	var outputDir string
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble the slide video once and exit",
		Long: `Runs a single assembly cycle: scan the slides directory, provision the ` +
			`encoder if needed, and produce the output video. Exits nonzero when no ` +
			`video was produced.`,
		Run: func(_ *cobra.Command, _ []string) {
			format := "text"
			if logJSON {
				format = "json"
			}
			logging.Initialize(logging.Config{Level: "info", Format: format})
			logger := logging.GetLogger("assemble")

			cfg, err := config.LoadAssembly(configFile)
			if err != nil {
				logger.Error("Failed to load configuration", "error", err, "config", configFile)
				os.Exit(1)
			}
			if slidesDir != "" {
				cfg.SlidesDir = slidesDir
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			warnings, err := cfg.Validate()
			if err != nil {
				logger.Error("Invalid configuration", "error", err)
				os.Exit(1)
			}
			for _, warning := range warnings {
				logger.Warn(warning)
			}

			result, err := daemon.New(cfg, nil).RunCycle(context.Background())
			if err != nil {
				logger.Error("Assembly failed", "error", err)
				os.Exit(1)
			}
			logger.Info("Assembly complete", "output", result.OutputPath, "duration", result.Duration)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Path to configuration file")
	cmd.Flags().StringVar(&slidesDir, "slides", "", "Override the slides directory")
	cmd.Flags().StringVar(&outputDir, "output", "", "Override the output directory")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")
	return cmd
}
