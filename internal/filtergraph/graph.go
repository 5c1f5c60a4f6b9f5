// Package filtergraph models the ffmpeg filter_complex pipeline that turns a
// set of looped still images into one continuous video stream. The graph is
// built as typed nodes and rendered to filter syntax in a single final step,
// so the structure can be tested without string matching the whole script.
package filtergraph

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is a single named filter with its argument string, e.g.
// {"scale", "1920:1080:force_original_aspect_ratio=decrease"}.
type Filter struct {
	Name string
	Args string
}

func (f Filter) render() string {
	if f.Args == "" {
		return f.Name
	}
	return f.Name + "=" + f.Args
}

// Chain is one input's normalization pipeline: a labeled input stream, a
// sequence of filters, and the labeled output it produces.
type Chain struct {
	Input   string
	Filters []Filter
	Output  string
}

func (c Chain) render() string {
	parts := make([]string, len(c.Filters))
	for i, f := range c.Filters {
		parts[i] = f.render()
	}
	return fmt.Sprintf("[%s]%s[%s]", c.Input, strings.Join(parts, ","), c.Output)
}

// TransitionKind selects how adjacent clips are joined.
type TransitionKind int

const (
	// TransitionCrossfade dissolves between clips over the fade duration.
	TransitionCrossfade TransitionKind = iota
	// TransitionConcat cuts hard from one clip to the next.
	TransitionConcat
)

// TransitionStep joins the running composite with one more clip.
type TransitionStep struct {
	ClipIndex int     // index of the incoming clip
	Offset    float64 // seconds into the composite where the transition starts
	Kind      TransitionKind
}

// Graph is the complete filter pipeline: one normalization chain per input
// and the transition steps that join them. A graph over n inputs always has
// exactly n-1 steps; a single input has none and maps directly.
type Graph struct {
	Chains []Chain
	Steps  []TransitionStep

	fadeDuration float64
	output       string
}

// OutputLabel is the label of the final video stream, for the -map argument.
func (g *Graph) OutputLabel() string {
	return g.output
}

// Render produces the filter_complex script.
func (g *Graph) Render() string {
	segments := make([]string, 0, len(g.Chains)+len(g.Steps)+1)
	for _, c := range g.Chains {
		segments = append(segments, c.render())
	}

	prev := g.Chains[0].Output
	for i, step := range g.Steps {
		label := fmt.Sprintf("x%d", i+1)
		if i == len(g.Steps)-1 {
			label = g.output
		}

		incoming := g.Chains[step.ClipIndex].Output
		switch step.Kind {
		case TransitionCrossfade:
			segments = append(segments, fmt.Sprintf("[%s][%s]xfade=transition=fade:duration=%s:offset=%s[%s]",
				prev, incoming, formatSeconds(g.fadeDuration), formatSeconds(step.Offset), label))
		case TransitionConcat:
			segments = append(segments, fmt.Sprintf("[%s][%s]concat=n=2:v=1:a=0[%s]",
				prev, incoming, label))
		}
		prev = label
	}

	return strings.Join(segments, ";")
}

// formatSeconds renders a duration the way ffmpeg filter args expect:
// no trailing zeros, no exponent.
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
