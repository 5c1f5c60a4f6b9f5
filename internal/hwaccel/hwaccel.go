// Package hwaccel probes which hardware encoder, if any, the machine can
// actually use. ffmpeg listing an encoder does not mean the driver stack
// behind it works, so each candidate is exercised with a one-second
// synthetic encode before it is trusted.
package hwaccel

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/signcast/signcast/internal/encode"
	"github.com/signcast/signcast/internal/logging"
)

const probeTimeout = 15 * time.Second

// Result is the advisory outcome of a probe. Unsupported hardware never
// blocks an encode; it only produces a message and a software fallback.
type Result struct {
	Supported bool
	Encoder   string // working hardware encoder name, empty when unsupported
	Message   string
}

// runner executes one candidate probe; swapped out in tests.
type runner func(ctx context.Context, ffmpegPath string, args []string) error

// Prober tests hardware encoder candidates against a resolved ffmpeg binary.
type Prober struct {
	ffmpegPath string
	run        runner
	logger     *slog.Logger
}

// NewProber builds a prober for the given ffmpeg path.
func NewProber(ffmpegPath string) *Prober {
	return &Prober{
		ffmpegPath: ffmpegPath,
		run:        runProbe,
		logger:     logging.GetLogger("hwaccel"),
	}
}

// Probe tries the codec's hardware encoder candidates in preference order
// and returns the first one that completes a synthetic encode.
func (p *Prober) Probe(ctx context.Context, codec encode.Codec) Result {
	candidates := codec.HardwareCandidates()

	for _, candidate := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := p.run(probeCtx, p.ffmpegPath, probeArgs(candidate))
		cancel()

		if err == nil {
			p.logger.Info("Hardware encoder available", "encoder", candidate)
			return Result{
				Supported: true,
				Encoder:   candidate,
				Message:   fmt.Sprintf("hardware encoder %s is available", candidate),
			}
		}
		p.logger.Debug("Hardware encoder candidate failed", "encoder", candidate, "error", err)
	}

	return Result{
		Supported: false,
		Message: fmt.Sprintf("no working hardware encoder for %s (tried %d candidates); software encoding will be used",
			codec.Label(), len(candidates)),
	}
}

// probeArgs builds the synthetic encode: one second of test pattern pushed
// through the candidate encoder and discarded.
func probeArgs(encoder string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc2=duration=1:size=320x240:rate=30",
		"-c:v", encoder,
		"-f", "null", "-",
	}
}

func runProbe(ctx context.Context, ffmpegPath string, args []string) error {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	return cmd.Run()
}

// Reconcile applies the probe result to a resolved encode configuration.
// With acceleration requested and supported, the working hardware encoder
// replaces the software one. When unsupported, the request is dropped in
// favor of software encoding unless the operator set an explicit override;
// either way the advisory message is returned for surfacing.
func Reconcile(cfg encode.Config, wantAccel, override bool, result Result) (encode.Config, string) {
	if !wantAccel {
		return cfg, ""
	}

	if result.Supported {
		return cfg.WithEncoder(result.Encoder), result.Message
	}

	if override {
		// Operator insists; keep the first candidate and let ffmpeg decide
		candidates := cfg.Codec.HardwareCandidates()
		if len(candidates) > 0 {
			return cfg.WithEncoder(candidates[0]),
				result.Message + " (override set, attempting hardware encode anyway)"
		}
	}

	return cfg, result.Message
}
