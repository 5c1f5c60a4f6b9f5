package progress

import (
	"testing"
)

func TestTryParse(t *testing.T) {
	tests := []struct {
		line    string
		percent float64
		ok      bool
	}{
		{"PROGRESS download 42%", 42, true},
		{"  PROGRESS extract 85%", 85, true},
		{"PROGRESS 100%", 100, true},
		{"PROGRESS overshoot 150%", 100, true},
		{"PROGRESS download", 0, false},
		{"PROGRESS download 42", 0, false},
		{"frame=  120 fps= 30", 0, false},
		{"plain log line", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		percent, ok := TryParse(tt.line)
		if ok != tt.ok || percent != tt.percent {
			t.Errorf("TryParse(%q) = %v, %v; want %v, %v", tt.line, percent, ok, tt.percent, tt.ok)
		}
	}
}

func TestParseEncoderLine(t *testing.T) {
	line := "frame=  300 fps= 30 q=28.0 size=    512KiB time=00:00:10.00 bitrate= 419.4kbits/s speed=1.01x"

	percent, ok := ParseEncoderLine(line, 40)
	if !ok {
		t.Fatal("ParseEncoderLine() did not recognize status line")
	}
	if percent != 25 {
		t.Errorf("percent = %v, want 25", percent)
	}

	// Past the expected duration clamps to 100
	percent, ok = ParseEncoderLine(line, 5)
	if !ok || percent != 100 {
		t.Errorf("overshoot = %v, %v; want 100, true", percent, ok)
	}

	if _, ok := ParseEncoderLine("Press [q] to stop", 40); ok {
		t.Error("non-status line recognized as progress")
	}
	if _, ok := ParseEncoderLine(line, 0); ok {
		t.Error("zero expected duration should not report progress")
	}
}

func TestMapToOverall(t *testing.T) {
	tests := []struct {
		percent, base, span, want float64
	}{
		{0, 80, 20, 80},
		{50, 80, 20, 90},
		{100, 80, 20, 100},
		{100, 0, 100, 100},
		{-10, 80, 20, 80},
		{200, 80, 20, 100},
	}

	for _, tt := range tests {
		if got := MapToOverall(tt.percent, tt.base, tt.span); got != tt.want {
			t.Errorf("MapToOverall(%v, %v, %v) = %v, want %v", tt.percent, tt.base, tt.span, got, tt.want)
		}
	}
}

func TestTrackerRemapsPhases(t *testing.T) {
	type update struct {
		phase   string
		percent float64
		overall float64
		message string
	}
	var updates []update

	tracker := NewTracker(func(phase string, percent, overall float64, message string) {
		updates = append(updates, update{phase, percent, overall, message})
	})

	tracker.EnterPhase("encode", 80, 20)
	tracker.Observe("PROGRESS encode 50%", 0)
	tracker.Observe("frame= 1 time=00:00:30.00 bitrate=x", 40)
	tracker.Observe("some diagnostic", 40)

	if len(updates) != 4 {
		t.Fatalf("got %d updates, want 4", len(updates))
	}

	if updates[0].overall != 80 {
		t.Errorf("phase entry overall = %v, want 80", updates[0].overall)
	}
	if updates[1].percent != 50 || updates[1].overall != 90 {
		t.Errorf("tagged line = %+v, want percent 50 overall 90", updates[1])
	}
	if updates[2].percent != 75 || updates[2].overall != 95 {
		t.Errorf("encoder line = %+v, want percent 75 overall 95", updates[2])
	}
	if updates[3].message != "some diagnostic" || updates[3].percent != 75 {
		t.Errorf("diagnostic = %+v, want message relay at last percent", updates[3])
	}
}

func TestTrackerNilSink(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.EnterPhase("scan", 0, 10)
	tracker.Report(50, "")
}
