// Package progress turns encoder output lines into normalized 0-100
// percentages and remaps them into the overall cycle progress bar.
package progress

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// Tag prefixes condensed progress lines emitted by the pipeline itself,
// e.g. "PROGRESS download 42%".
const Tag = "PROGRESS"

// TryParse recognizes a tagged progress line: the fixed tag prefix and a
// trailing numeric token ending in '%'. Any other line is a plain diagnostic
// and reports ok=false.
func TryParse(line string) (percent float64, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, Tag) {
		return 0, false
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return 0, false
	}

	last := fields[len(fields)-1]
	if !strings.HasSuffix(last, "%") {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(last, "%"), 64)
	if err != nil {
		return 0, false
	}
	return clamp(value), true
}

// ParseEncoderLine translates ffmpeg's stderr status lines ("frame= ...
// time=00:00:12.34 ...") into a percentage of the expected output duration.
// Lines without a time= field report ok=false.
func ParseEncoderLine(line string, expectedDuration float64) (percent float64, ok bool) {
	if expectedDuration <= 0 {
		return 0, false
	}

	idx := strings.Index(line, "time=")
	if idx == -1 {
		return 0, false
	}

	raw := line[idx+len("time="):]
	if end := strings.IndexByte(raw, ' '); end != -1 {
		raw = raw[:end]
	}

	elapsed, err := parseClock(raw)
	if err != nil {
		return 0, false
	}

	return clamp(elapsed.Seconds() / expectedDuration * 100), true
}

// parseClock parses ffmpeg's HH:MM:SS.cc clock format.
func parseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, strconv.ErrSyntax
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}

	total := float64(hours)*3600 + float64(minutes)*60 + seconds
	return time.Duration(total * float64(time.Second)), nil
}

// MapToOverall linearly remaps a raw 0-100 phase percentage into the
// [base, base+span] window of the overall progress bar.
func MapToOverall(percent, base, span float64) float64 {
	return clamp(base + clamp(percent)/100*span)
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Tracker carries the active phase window so stream readers can report
// overall progress without knowing which cycle phase is running.
type Tracker struct {
	mu    sync.Mutex
	base  float64
	span  float64
	last  float64
	phase string

	sink func(phase string, percent, overall float64, message string)
}

// NewTracker creates a tracker reporting to sink. A nil sink discards
// updates.
func NewTracker(sink func(phase string, percent, overall float64, message string)) *Tracker {
	if sink == nil {
		sink = func(string, float64, float64, string) {}
	}
	return &Tracker{sink: sink, span: 100}
}

// EnterPhase records that raw percentages now belong to the named phase
// occupying [base, base+span] of the overall bar, and reports the phase
// boundary immediately.
func (t *Tracker) EnterPhase(name string, base, span float64) {
	t.mu.Lock()
	t.phase = name
	t.base = base
	t.span = span
	t.last = 0
	t.mu.Unlock()

	t.sink(name, 0, clamp(base), "")
}

// Report forwards a raw phase percentage, remapped into the overall bar.
func (t *Tracker) Report(percent float64, message string) {
	t.mu.Lock()
	t.last = clamp(percent)
	phase, base, span := t.phase, t.base, t.span
	t.mu.Unlock()

	t.sink(phase, clamp(percent), MapToOverall(percent, base, span), message)
}

// Observe inspects one output line: tagged progress lines and encoder
// status lines advance the bar, everything else is relayed as a message at
// the current position.
func (t *Tracker) Observe(line string, expectedDuration float64) {
	if percent, ok := TryParse(line); ok {
		t.Report(percent, "")
		return
	}
	if percent, ok := ParseEncoderLine(line, expectedDuration); ok {
		t.Report(percent, "")
		return
	}

	// Plain diagnostic: relay the line at the current position
	t.mu.Lock()
	phase, base, span, last := t.phase, t.base, t.span, t.last
	t.mu.Unlock()
	t.sink(phase, last, MapToOverall(last, base, span), line)
}
