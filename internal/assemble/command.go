package assemble

import (
	"fmt"
	"os"
	"strconv"

	"github.com/signcast/signcast/internal/encode"
	"github.com/signcast/signcast/internal/filtergraph"
)

// BuildArgs composes the full encoder argument list: one timed, looped
// input clause per image, the rendered filter graph, stream mapping, an
// audio clause only when the configured audio file exists on disk, and the
// encoding flags from the resolved configuration.
func BuildArgs(images []string, cfg encode.Config, graph *filtergraph.Graph, outputPath string) []string {
	// With fades each clip must outlive its transition window, so the
	// input duration is stretched by the fade length.
	inputDuration := cfg.SlideDuration
	if cfg.FadesEnabled() {
		inputDuration += cfg.FadeDuration
	}

	args := make([]string, 0, len(images)*6+32)
	args = append(args, "-hide_banner", "-loglevel", "info", "-stats")

	for _, image := range images {
		args = append(args,
			"-loop", "1",
			"-t", formatDuration(inputDuration),
			"-i", image,
		)
	}

	audio := cfg.AudioFile != "" && fileExists(cfg.AudioFile)
	if audio {
		args = append(args, "-i", cfg.AudioFile)
	}

	args = append(args,
		"-filter_complex", graph.Render(),
		"-map", "["+graph.OutputLabel()+"]",
	)

	if audio {
		// The audio input sits after all image inputs
		args = append(args,
			"-map", fmt.Sprintf("%d:a", len(images)),
			"-shortest",
		)
	}

	args = append(args, "-c:v", cfg.Encoder)
	if cfg.UseCRF {
		args = append(args, "-crf", strconv.Itoa(cfg.CRF))
		if cfg.SpeedPreset != "" {
			args = append(args, "-preset", cfg.SpeedPreset)
		}
		if cfg.MaxRate != "" {
			args = append(args, "-maxrate", cfg.MaxRate)
		}
		if cfg.BufSize != "" {
			args = append(args, "-bufsize", cfg.BufSize)
		}
	} else {
		args = append(args, "-b:v", string(cfg.Bitrate))
	}

	if audio {
		args = append(args, "-c:a", "aac", "-b:a", "192k")
	}

	if cfg.Container == "mp4" {
		// Move the moov atom up front so players can start before the
		// download finishes
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, "-y", outputPath)
	return args
}

func formatDuration(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
