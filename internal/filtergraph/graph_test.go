package filtergraph

import (
	"strings"
	"testing"

	"github.com/signcast/signcast/internal/encode"
)

func testConfig(fade float64) encode.Config {
	return encode.Config{
		Width:         1920,
		Height:        1080,
		FPS:           30,
		SlideDuration: 8,
		FadeDuration:  fade,
	}
}

func TestBuildSingleImageMapsDirectly(t *testing.T) {
	g, err := Build(1, testConfig(1))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if g.OutputLabel() != "v0" {
		t.Errorf("OutputLabel() = %q, want v0", g.OutputLabel())
	}
	if len(g.Steps) != 0 {
		t.Errorf("single image produced %d transition steps", len(g.Steps))
	}

	script := g.Render()
	if strings.Contains(script, "xfade") || strings.Contains(script, "concat") {
		t.Errorf("single-image script contains a join filter: %s", script)
	}
}

func TestBuildTransitionPlanOffsets(t *testing.T) {
	const n = 5
	g, err := Build(n, testConfig(1))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if len(g.Steps) != n-1 {
		t.Fatalf("plan has %d steps, want %d", len(g.Steps), n-1)
	}

	prev := 0.0
	for i, step := range g.Steps {
		want := float64(i+1) * 8
		if step.Offset != want {
			t.Errorf("step %d offset = %v, want %v", i, step.Offset, want)
		}
		if step.Offset <= prev {
			t.Errorf("step %d offset %v not strictly increasing past %v", i, step.Offset, prev)
		}
		if step.ClipIndex != i+1 {
			t.Errorf("step %d clip index = %d, want %d", i, step.ClipIndex, i+1)
		}
		prev = step.Offset
	}
}

func TestRenderCrossfadeScript(t *testing.T) {
	g, err := Build(3, testConfig(1))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	want := "[0:v]scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,setsar=1,format=yuv420p,fps=30,setpts=PTS-STARTPTS[v0];" +
		"[1:v]scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,setsar=1,format=yuv420p,fps=30,setpts=PTS-STARTPTS[v1];" +
		"[2:v]scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,setsar=1,format=yuv420p,fps=30,setpts=PTS-STARTPTS[v2];" +
		"[v0][v1]xfade=transition=fade:duration=1:offset=8[x1];" +
		"[x1][v2]xfade=transition=fade:duration=1:offset=16[vout]"

	if got := g.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
	if g.OutputLabel() != "vout" {
		t.Errorf("OutputLabel() = %q, want vout", g.OutputLabel())
	}
}

func TestRenderConcatScript(t *testing.T) {
	g, err := Build(3, testConfig(0))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	script := g.Render()
	if got := strings.Count(script, "concat="); got != 2 {
		t.Errorf("3 images want exactly 2 concat filters, got %d: %s", got, script)
	}
	if !strings.Contains(script, "[v0][v1]concat=n=2:v=1:a=0[x1]") ||
		!strings.Contains(script, "[x1][v2]concat=n=2:v=1:a=0[vout]") {
		t.Errorf("concat chain malformed: %s", script)
	}
	if strings.Contains(script, "xfade") {
		t.Errorf("fade-disabled script contains xfade: %s", script)
	}
	for i, step := range g.Steps {
		if step.Kind != TransitionConcat {
			t.Errorf("step %d kind = %v, want concat", i, step.Kind)
		}
	}
}

func TestRenderFractionalDurations(t *testing.T) {
	cfg := testConfig(0.5)
	cfg.SlideDuration = 2.5

	g, err := Build(2, cfg)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	script := g.Render()
	if !strings.Contains(script, "duration=0.5:offset=2.5") {
		t.Errorf("fractional durations rendered wrong: %s", script)
	}
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	if _, err := Build(0, testConfig(1)); err == nil {
		t.Error("Build(0) expected error")
	}
}
