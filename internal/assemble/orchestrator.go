package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/signcast/signcast/internal/encode"
	"github.com/signcast/signcast/internal/events"
	"github.com/signcast/signcast/internal/filtergraph"
	"github.com/signcast/signcast/internal/logging"
	"github.com/signcast/signcast/internal/metrics"
	"github.com/signcast/signcast/internal/progress"
	"github.com/signcast/signcast/internal/sequence"
)

// Result reports one assembly run.
type Result struct {
	Success    bool
	OutputPath string
	Duration   time.Duration
	Message    string
}

// Orchestrator drives one synchronous assembly run: validate the image set,
// build the filter graph and argument list, spawn the encoder, and judge
// success by the presence of the output artifact.
type Orchestrator struct {
	bus    *events.Bus
	logger *slog.Logger
}

// NewOrchestrator builds an orchestrator. The bus may be nil when no one
// listens (the one-shot CLI path).
func NewOrchestrator(bus *events.Bus) *Orchestrator {
	return &Orchestrator{
		bus:    bus,
		logger: logging.GetLogger("assemble"),
	}
}

// Run assembles the image sequence into a video at outputPath using the
// resolved binary and encode configuration. The run is synchronous; once
// the encoder has started it is not interrupted, and ctx is only consulted
// before the spawn.
func (o *Orchestrator) Run(
	ctx context.Context,
	binaryPath string,
	seq *sequence.ImageSequence,
	cfg encode.Config,
	outputPath string,
	tracker *progress.Tracker,
) (Result, error) {
	started := time.Now()

	// The run executes with its working directory set to the output
	// location, so a relative output path must be anchored first or the
	// artifact check would look in the wrong place.
	if abs, err := filepath.Abs(outputPath); err == nil {
		outputPath = abs
	}

	if err := seq.Validate(); err != nil {
		o.logger.Error("Image set rejected", "dir", seq.Dir, "count", seq.Len(), "error", err)
		return o.fail(started, fmt.Errorf("%w: %v", ErrImageSetTooSmall, err))
	}

	if err := ctx.Err(); err != nil {
		return o.fail(started, err)
	}

	graph, err := filtergraph.Build(seq.Len(), cfg)
	if err != nil {
		return o.fail(started, err)
	}

	args := BuildArgs(seq.Images, cfg, graph, outputPath)

	// The encoder will not create the output directory itself; on a fresh
	// install it does not exist yet.
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return o.fail(started, fmt.Errorf("failed to create output dir: %w", err))
	}

	// A leftover artifact from a previous run would satisfy the existence
	// check even if this encode fails, so it is removed up front.
	if err := removeStale(outputPath); err != nil {
		return o.fail(started, fmt.Errorf("failed to remove stale output: %w", err))
	}

	o.publish(events.AssemblyStartedEvent{
		ImageCount: seq.Len(),
		OutputPath: outputPath,
		Timestamp:  started.UTC().Format(time.RFC3339),
	})
	o.logger.Info("Starting encode",
		"binary", binaryPath,
		"images", seq.Len(),
		"encoder", cfg.Encoder,
		"output", outputPath)

	expectedDuration := float64(seq.Len()) * cfg.SlideDuration

	runner := NewRunner()
	err = runner.Execute(binaryPath, args, outputDir, func(stream, line string) {
		if tracker != nil {
			tracker.Observe(line, expectedDuration)
		}
	})
	if err != nil {
		return o.fail(started, err)
	}

	// The artifact's existence is the sole success criterion; the exit
	// code is not consulted.
	if !fileExists(outputPath) {
		return o.fail(started, ErrEncodeFailed)
	}

	elapsed := time.Since(started)
	metrics.RecordAssembly(true, elapsed, outputPath)
	o.publish(events.AssemblyCompletedEvent{
		Success:    true,
		OutputPath: outputPath,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	o.logger.Info("Encode finished", "output", outputPath, "duration", elapsed)

	return Result{
		Success:    true,
		OutputPath: outputPath,
		Duration:   elapsed,
		Message:    "video assembled",
	}, nil
}

func (o *Orchestrator) fail(started time.Time, err error) (Result, error) {
	elapsed := time.Since(started)
	metrics.RecordAssembly(false, elapsed, "")
	o.publish(events.AssemblyCompletedEvent{
		Success:    false,
		Error:      err.Error(),
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	o.logger.Error("Assembly failed", "error", err, "duration", elapsed)
	return Result{Duration: elapsed, Message: err.Error()}, err
}

func (o *Orchestrator) publish(ev events.Event) {
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

func removeStale(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
