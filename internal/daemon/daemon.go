// Package daemon runs the signage cycle: scan the slides directory,
// provision the encoder if needed, assemble the video, and sleep until the
// next interval. Cancellation is honored between phases only; a running
// encode is never interrupted.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signcast/signcast/internal/assemble"
	"github.com/signcast/signcast/internal/config"
	"github.com/signcast/signcast/internal/encode"
	"github.com/signcast/signcast/internal/events"
	"github.com/signcast/signcast/internal/ffbin"
	"github.com/signcast/signcast/internal/hwaccel"
	"github.com/signcast/signcast/internal/logging"
	"github.com/signcast/signcast/internal/metrics"
	"github.com/signcast/signcast/internal/progress"
	"github.com/signcast/signcast/internal/sequence"
)

// Phase windows on the overall cycle progress bar. Provisioning dominates
// the first cycle on a fresh machine; encoding owns the 80-100 band.
const (
	scanBase, scanSpan           = 0, 5
	provisionBase, provisionSpan = 5, 75
	encodeBase, encodeSpan       = 80, 20
)

// Daemon owns the periodic assembly cycle.
type Daemon struct {
	bus    *events.Bus
	logger *slog.Logger

	mu       sync.RWMutex
	assembly config.Assembly

	// wake is poked by the slides watcher to run ahead of the interval
	wake chan struct{}

	orchestrator *assemble.Orchestrator
}

// New builds a daemon around the given assembly settings.
func New(assembly config.Assembly, bus *events.Bus) *Daemon {
	return &Daemon{
		bus:          bus,
		logger:       logging.GetLogger("daemon"),
		assembly:     assembly,
		wake:         make(chan struct{}, 1),
		orchestrator: assemble.NewOrchestrator(bus),
	}
}

// ReplaceConfig swaps in a new assembly configuration. The value is
// replaced wholesale; the next cycle reads the new settings.
func (d *Daemon) ReplaceConfig(assembly config.Assembly) {
	d.mu.Lock()
	d.assembly = assembly
	d.mu.Unlock()
	d.logger.Info("Assembly configuration replaced")
}

// Config returns the current assembly settings.
func (d *Daemon) Config() config.Assembly {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.assembly
}

// Wake requests a cycle ahead of schedule (slides changed, API trigger).
func (d *Daemon) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run loops until ctx is canceled: one cycle, then sleep for the configured
// interval or until woken. Cancellation is checked between cycles, never
// mid-encode.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("Daemon started", "interval_minutes", d.Config().IntervalMinutes)

	for {
		if err := ctx.Err(); err != nil {
			d.logger.Info("Daemon stopping")
			return err
		}

		if _, err := d.RunCycle(ctx); err != nil {
			d.logger.Warn("Cycle failed, will retry next interval", "error", err)
		}

		interval := time.Duration(d.Config().IntervalMinutes) * time.Minute
		if interval <= 0 {
			interval = 30 * time.Minute
		}

		d.setPhase("sleep")
		select {
		case <-ctx.Done():
		case <-d.wake:
			d.logger.Info("Woken ahead of interval")
		case <-time.After(interval):
		}
	}
}

// RunCycle executes one scan-provision-assemble-publish pass.
func (d *Daemon) RunCycle(ctx context.Context) (assemble.Result, error) {
	cfg := d.Config()
	tracker := progress.NewTracker(d.publishProgress)

	// scan
	d.setPhase("scan")
	tracker.EnterPhase("scan", scanBase, scanSpan)

	seq, err := sequence.Scan(cfg.SlidesDir)
	if err != nil {
		return assemble.Result{}, fmt.Errorf("slide scan failed: %w", err)
	}
	if err := seq.Validate(); err != nil {
		return assemble.Result{}, err
	}
	tracker.Report(100, fmt.Sprintf("%d slides found", seq.Len()))

	if err := ctx.Err(); err != nil {
		return assemble.Result{}, err
	}

	// provision
	d.setPhase("assemble")
	tracker.EnterPhase("provision", provisionBase, provisionSpan)

	binary, err := d.resolveBinary(ctx, cfg, tracker)
	if err != nil {
		return assemble.Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return assemble.Result{}, err
	}

	// encode
	encCfg, err := d.resolveEncodeConfig(ctx, cfg, binary, seq.Len())
	if err != nil {
		return assemble.Result{}, err
	}

	tracker.EnterPhase("encode", encodeBase, encodeSpan)

	outputPath := cfg.OutputPath(encCfg.Container)
	result, err := d.orchestrator.Run(ctx, binary.Path, seq, encCfg, outputPath, tracker)
	if err != nil {
		return result, err
	}

	// publish
	d.setPhase("publish")
	tracker.Report(100, "video published")
	d.setPhase("idle")
	return result, nil
}

// resolveBinary applies the source policy and provisions the bundled
// encoder on demand, forwarding download progress into the cycle bar.
func (d *Daemon) resolveBinary(ctx context.Context, cfg config.Assembly, tracker *progress.Tracker) (ffbin.Binary, error) {
	source, err := ffbin.ParseSource(cfg.BinarySource)
	if err != nil {
		return ffbin.Binary{}, err
	}

	provisioner, err := ffbin.New(ffbin.Config{Source: source, CustomPath: cfg.BinaryPath})
	if err != nil {
		return ffbin.Binary{}, err
	}

	binary := provisioner.Resolve()
	if !binary.Available && binary.Source == ffbin.SourceBundled {
		sink := func(pct float64, message string) {
			tracker.Report(pct, message)
			d.publishDownload(pct, message)
		}
		if err := provisioner.EnsureInstalled(ctx, sink); err != nil {
			return ffbin.Binary{}, err
		}
		binary = provisioner.Resolve()
	}

	if !binary.Available {
		d.logger.Warn("Encoder binary not confirmed on disk, spawn may fail", "path", binary.Path)
	}
	return binary, nil
}

// resolveEncodeConfig resolves presets and reconciles the hardware
// acceleration request against a live probe.
func (d *Daemon) resolveEncodeConfig(ctx context.Context, cfg config.Assembly, binary ffbin.Binary, imageCount int) (encode.Config, error) {
	encCfg, err := encode.Resolve(cfg)
	if err != nil {
		return encode.Config{}, err
	}
	encCfg.SlideDuration = encode.EffectiveSlideDuration(cfg, imageCount)

	if cfg.HardwareAccel {
		prober := hwaccel.NewProber(binary.Path)
		result := prober.Probe(ctx, encCfg.Codec)
		reconciled, advisory := hwaccel.Reconcile(encCfg, cfg.HardwareAccel, cfg.HardwareAccelOverride, result)
		if advisory != "" {
			d.logger.Info("Hardware acceleration", "advisory", advisory)
		}
		encCfg = reconciled
	}

	return encCfg, nil
}

func (d *Daemon) setPhase(phase string) {
	metrics.SetCyclePhase(phase)
	if d.bus != nil {
		d.bus.Publish(events.CyclePhaseChangedEvent{
			Phase:     phase,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (d *Daemon) publishProgress(phase string, percent, overall float64, message string) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(events.ProgressEvent{
		Phase:     phase,
		Percent:   percent,
		Overall:   overall,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (d *Daemon) publishDownload(percent float64, message string) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(events.DownloadProgressEvent{
		Source:    "bundled",
		Percent:   percent,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// WatchSlides starts a filesystem watcher on the slides directory that
// wakes the cycle when the renderer drops new images. Returns a stop
// function.
func (d *Daemon) WatchSlides() (func(), error) {
	cfg := d.Config()

	watcher := config.NewWatcher(
		cfg.SlidesDir,
		func(path string) (string, error) { return path, nil },
		logging.GetLogger("daemon"),
		config.WithDebounce[string](5*time.Second),
	)
	watcher.OnReload(func(string) { d.Wake() })

	if err := watcher.Start(); err != nil {
		return nil, err
	}
	return func() { _ = watcher.Stop() }, nil
}
