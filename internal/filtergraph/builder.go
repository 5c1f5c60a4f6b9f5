package filtergraph

import (
	"fmt"

	"github.com/signcast/signcast/internal/encode"
)

// Build constructs the filter graph for n input images encoded with cfg.
//
// Every input gets the same normalization chain: scale to fit the canvas
// preserving aspect ratio, pad to the exact canvas size centered, square
// pixels, yuv420p, the target frame rate, and timestamps reset to zero.
// Mixed timing bases across joined streams make encoders reject the graph,
// so the chain is applied uniformly even to inputs already at canvas size.
//
// When fades are enabled, adjacent clips are joined with xfade steps whose
// offsets grow by the slide duration per step. With fades disabled the
// chains feed a single concat. One input maps its chain output directly.
func Build(n int, cfg encode.Config) (*Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("filter graph needs at least 1 input, got %d", n)
	}

	g := &Graph{
		Chains:       make([]Chain, n),
		fadeDuration: cfg.FadeDuration,
		output:       "vout",
	}

	for i := 0; i < n; i++ {
		g.Chains[i] = Chain{
			Input:  fmt.Sprintf("%d:v", i),
			Output: fmt.Sprintf("v%d", i),
			Filters: []Filter{
				{"scale", fmt.Sprintf("%d:%d:force_original_aspect_ratio=decrease", cfg.Width, cfg.Height)},
				{"pad", fmt.Sprintf("%d:%d:(ow-iw)/2:(oh-ih)/2", cfg.Width, cfg.Height)},
				{"setsar", "1"},
				{"format", "yuv420p"},
				{"fps", fmt.Sprintf("%d", cfg.FPS)},
				{"setpts", "PTS-STARTPTS"},
			},
		}
	}

	if n == 1 {
		g.output = g.Chains[0].Output
		return g, nil
	}

	kind := TransitionConcat
	if cfg.FadesEnabled() {
		kind = TransitionCrossfade
	}

	g.Steps = make([]TransitionStep, 0, n-1)
	for i := 1; i < n; i++ {
		g.Steps = append(g.Steps, TransitionStep{
			ClipIndex: i,
			Offset:    float64(i) * cfg.SlideDuration,
			Kind:      kind,
		})
	}

	return g, nil
}

// Plan returns the transition steps, exposed for callers that report on the
// join structure without rendering the script.
func (g *Graph) Plan() []TransitionStep {
	return g.Steps
}
