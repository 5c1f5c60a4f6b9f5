package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signcast/signcast/internal/config"
	"github.com/signcast/signcast/internal/encode"
	"github.com/signcast/signcast/internal/ffbin"
	"github.com/signcast/signcast/internal/hwaccel"
	"github.com/signcast/signcast/internal/logging"
	"github.com/signcast/signcast/internal/sequence"
)

// CreateValidateCmd creates the validate command: check configuration,
// slides, and the encoder binary without encoding anything.
func CreateValidateCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and encoder availability",
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			cfg, err := config.LoadAssembly(configFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "config: %v\n", err)
				os.Exit(1)
			}

			failed := false

			warnings, err := cfg.Validate()
			if err != nil {
				fmt.Printf("config:   FAIL %v\n", err)
				failed = true
			} else {
				fmt.Println("config:   ok")
			}
			for _, warning := range warnings {
				fmt.Printf("          warning: %s\n", warning)
			}

			if _, err := encode.Resolve(cfg); err != nil {
				fmt.Printf("encoding: FAIL %v\n", err)
				failed = true
			} else {
				fmt.Println("encoding: ok")
			}

			if seq, err := sequence.Scan(cfg.SlidesDir); err != nil {
				fmt.Printf("slides:   FAIL %v\n", err)
				failed = true
			} else if err := seq.Validate(); err != nil {
				fmt.Printf("slides:   FAIL %v\n", err)
				failed = true
			} else {
				fmt.Printf("slides:   ok (%d images)\n", seq.Len())
			}

			source, err := ffbin.ParseSource(cfg.BinarySource)
			if err != nil {
				fmt.Printf("encoder:  FAIL %v\n", err)
				failed = true
			} else if provisioner, err := ffbin.New(ffbin.Config{Source: source, CustomPath: cfg.BinaryPath}); err != nil {
				fmt.Printf("encoder:  FAIL %v\n", err)
				failed = true
			} else {
				ok, message := provisioner.ValidateConfiguration()
				status := "ok"
				if !ok {
					status = "FAIL"
					failed = true
				}
				fmt.Printf("encoder:  %s %s\n", status, message)

				if binary := provisioner.Resolve(); cfg.HardwareAccel && binary.Available {
					if encCfg, err := encode.Resolve(cfg); err == nil {
						result := hwaccel.NewProber(binary.Path).Probe(context.Background(), encCfg.Codec)
						if result.Supported {
							fmt.Printf("hwaccel:  ok (%s)\n", result.Encoder)
						} else {
							fmt.Printf("hwaccel:  unsupported: %s\n", result.Message)
						}
					}
				}
			}

			if failed {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Path to configuration file")
	return cmd
}
