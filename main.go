package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signcast/signcast/cmd"
	"github.com/signcast/signcast/internal/api"
	"github.com/signcast/signcast/internal/config"
	"github.com/signcast/signcast/internal/daemon"
	"github.com/signcast/signcast/internal/events"
	"github.com/signcast/signcast/internal/logging"
	"github.com/signcast/signcast/internal/updater"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8080" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Update settings
	UpdateRepository string `help:"GitHub repository for self-updates" default:"signcast/signcast" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Include prerelease versions" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingDaemon   string `help:"Daemon logging level" default:"info" toml:"logging.daemon" env:"LOGGING_DAEMON"`
	LoggingAssemble string `help:"Assembly logging level" default:"info" toml:"logging.assemble" env:"LOGGING_ASSEMBLE"`
	LoggingFfbin    string `help:"Binary provisioning logging level" default:"info" toml:"logging.ffbin" env:"LOGGING_FFBIN"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"daemon":   opts.LoggingDaemon,
				"assemble": opts.LoggingAssemble,
				"ffbin":    opts.LoggingFfbin,
				"api":      opts.LoggingAPI,
			},
		})
		logger := logging.GetLogger("main")

		// Event bus for in-process broadcasting
		eventBus := events.New()

		// Forward log entries onto the bus for live API consumers
		logging.SetEntryCallback(func(entry logging.Entry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.UTC().Format(time.RFC3339),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		assembly, err := config.LoadAssembly(opts.Config)
		if err != nil {
			logger.Warn("Failed to load assembly config, using defaults", "error", err)
		}
		if warnings, validateErr := assembly.Validate(); validateErr != nil {
			logger.Error("Invalid assembly configuration", "error", validateErr)
		} else {
			for _, warning := range warnings {
				logger.Warn(warning)
			}
		}

		d := daemon.New(assembly, eventBus)

		// Reload the assembly section when the config file changes; the
		// whole value is replaced, never patched
		configWatcher := config.NewWatcher(
			opts.Config,
			config.LoadAssembly,
			logging.GetLogger("config"),
		)
		configWatcher.OnReload(func(next config.Assembly) {
			if _, err := next.Validate(); err != nil {
				logger.Warn("Ignoring invalid config reload", "error", err)
				return
			}
			d.ReplaceConfig(next)
		})

		updateService, err := updater.NewService(opts.UpdateRepository, opts.UpdatePrerelease)
		if err != nil {
			logger.Warn("Self-update unavailable", "error", err)
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Daemon:            d,
			Updater:           updateService,
			PrometheusHandler: promhttp.Handler(),
		})

		daemonCtx, stopDaemon := context.WithCancel(context.Background())
		var stopSlidesWatcher func()

		hooks.OnStart(func() {
			if watchErr := configWatcher.Start(); watchErr != nil {
				logger.Warn("Config watcher unavailable", "error", watchErr)
			}
			if stop, watchErr := d.WatchSlides(); watchErr != nil {
				logger.Warn("Slides watcher unavailable", "error", watchErr)
			} else {
				stopSlidesWatcher = stop
			}

			go func() {
				if runErr := d.Run(daemonCtx); runErr != nil && !errors.Is(runErr, context.Canceled) {
					logger.Error("Daemon stopped", "error", runErr)
				}
			}()

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			stopDaemon()
			if stopSlidesWatcher != nil {
				stopSlidesWatcher()
			}
			if stopErr := configWatcher.Stop(); stopErr != nil {
				logger.Error("Error stopping config watcher", "error", stopErr)
			}
		})
	})

	cli.Root().AddCommand(
		cmd.CreateAssembleCmd(),
		cmd.CreateProvisionCmd(),
		cmd.CreateValidateCmd(),
		cmd.CreateUpdateCmd(),
	)

	cli.Run()
}
