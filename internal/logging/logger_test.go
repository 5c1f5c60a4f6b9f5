package logging

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		rb.Write(Entry{Message: string(rune('a' + i))})
	}

	entries := rb.ReadAll()
	if len(entries) != 3 {
		t.Fatalf("ReadAll() returned %d entries, want 3", len(entries))
	}

	// Oldest two entries were overwritten
	want := []string{"c", "d", "e"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer(4)
	if got := rb.ReadAll(); got != nil {
		t.Errorf("ReadAll() on empty buffer = %v, want nil", got)
	}
	if rb.Count() != 0 {
		t.Errorf("Count() = %d, want 0", rb.Count())
	}
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry{
		Timestamp: ts,
		Level:     "info",
		Module:    "assemble",
		Message:   "encode finished",
		Attributes: map[string]any{
			"images":   12,
			"duration": "24s",
		},
	}

	line := FormatLine(entry)

	for _, want := range []string{"[INFO]", "[assemble]", "encode finished", "duration=24s", "images=12"} {
		if !strings.Contains(line, want) {
			t.Errorf("FormatLine() = %q, missing %q", line, want)
		}
	}

	// Attributes are sorted for stable output
	if strings.Index(line, "duration=") > strings.Index(line, "images=") {
		t.Errorf("FormatLine() attributes not sorted: %q", line)
	}
}

// recordingHandler counts records at or above its level.
type recordingHandler struct {
	level slog.Level
	count int
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordingHandler) Handle(context.Context, slog.Record) error {
	h.count++
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandlerFansOutByLevel(t *testing.T) {
	verbose := &recordingHandler{level: slog.LevelDebug}
	quiet := &recordingHandler{level: slog.LevelError}

	// Nil destinations are dropped, not dispatched to
	m := NewMultiHandler(verbose, nil, quiet)

	ctx := context.Background()
	if !m.Enabled(ctx, slog.LevelDebug) {
		t.Error("Enabled() = false with a debug destination present")
	}

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "cycle started", 0)
	if err := m.Handle(ctx, rec); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	if verbose.count != 1 {
		t.Errorf("verbose destination received %d records, want 1", verbose.count)
	}
	if quiet.count != 0 {
		t.Errorf("quiet destination received %d records, want 0", quiet.count)
	}
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	a := GetLogger("testmodule")
	b := GetLogger("testmodule")
	if a != b {
		t.Error("GetLogger() returned different instances for the same module")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
	}{
		{"debug", true},
		{"info", true},
		{"WARN", true},
		{"warning", true},
		{"error", true},
		{"verbose", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseLevel(tt.in)
			if (got != nil) != tt.wantOK {
				t.Errorf("parseLevel(%q) = %v, want ok=%v", tt.in, got, tt.wantOK)
			}
		})
	}
}
