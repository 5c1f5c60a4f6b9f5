package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signcast/signcast/internal/config"
	"github.com/signcast/signcast/internal/ffbin"
	"github.com/signcast/signcast/internal/logging"
)

// CreateProvisionCmd creates the provision command: download the encoder
// binaries into the cache ahead of the first assembly.
func CreateProvisionCmd() *cobra.Command {
	var configFile string
	var force bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Download the encoder binaries into the cache",
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})
			logger := logging.GetLogger("provision")

			cfg, err := config.LoadAssembly(configFile)
			if err != nil {
				logger.Error("Failed to load configuration", "error", err, "config", configFile)
				os.Exit(1)
			}

			source, err := ffbin.ParseSource(cfg.BinarySource)
			if err != nil {
				logger.Error("Invalid binary source", "error", err)
				os.Exit(1)
			}

			provisioner, err := ffbin.New(ffbin.Config{Source: source, CustomPath: cfg.BinaryPath})
			if err != nil {
				logger.Error("Failed to create provisioner", "error", err)
				os.Exit(1)
			}

			if force {
				if err := os.RemoveAll(provisioner.CacheDir()); err != nil {
					logger.Error("Failed to clear cache", "error", err)
					os.Exit(1)
				}
			}

			if provisioner.Installed() {
				logger.Info("Encoder already installed", "cache_dir", provisioner.CacheDir())
				return
			}

			lastReported := -10.0
			sink := func(pct float64, message string) {
				// Keep the terminal readable on slow links
				if pct-lastReported >= 10 || pct == 100 {
					fmt.Printf("%3.0f%% %s\n", pct, message)
					lastReported = pct
				}
			}

			if err := provisioner.EnsureInstalled(context.Background(), sink); err != nil {
				logger.Error("Provisioning failed", "error", err)
				os.Exit(1)
			}
			logger.Info("Encoder installed", "cache_dir", provisioner.CacheDir())
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Path to configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Clear the cache and download again")
	return cmd
}
