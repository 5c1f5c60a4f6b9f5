package encode

import (
	"testing"

	"github.com/signcast/signcast/internal/config"
)

func TestApplyPresetIdempotent(t *testing.T) {
	s := NewSettings(PresetHigh)
	first := *s
	s.ApplyPreset(PresetHigh)
	if *s != first {
		t.Errorf("re-applying active preset changed settings: %+v != %+v", *s, first)
	}
	if s.Active() != PresetHigh {
		t.Errorf("Active() = %v, want high", s.Active())
	}
}

func TestSettersFlipToCustomOnce(t *testing.T) {
	s := NewSettings(PresetMedium)

	// Setting the current value must not disturb the tag
	s.SetFPS(s.FPS())
	if s.Active() != PresetMedium {
		t.Fatalf("no-op SetFPS flipped tag to %v", s.Active())
	}

	s.SetFPS(60)
	if s.Active() != PresetCustom {
		t.Fatalf("SetFPS(60) did not flip tag, got %v", s.Active())
	}

	// Further edits keep it Custom; re-setting the same value is a no-op
	s.SetFPS(60)
	s.SetBitrate(Bitrate8M)
	if s.Active() != PresetCustom {
		t.Errorf("Active() = %v, want custom", s.Active())
	}
	if s.FPS() != 60 || s.Bitrate() != Bitrate8M {
		t.Errorf("values lost: fps=%d bitrate=%v", s.FPS(), s.Bitrate())
	}
}

func TestApplyPresetRestoresFromCustom(t *testing.T) {
	s := NewSettings(PresetLow)
	s.SetResolution(Res4K)
	if s.Active() != PresetCustom {
		t.Fatal("expected custom after resolution change")
	}

	s.ApplyPreset(PresetLow)
	if s.Active() != PresetLow {
		t.Errorf("Active() = %v, want low", s.Active())
	}
	if s.Resolution() != Res720p {
		t.Errorf("Resolution = %v, want %v", s.Resolution(), Res720p)
	}
}

func TestApplyCustomDoesNotOverwrite(t *testing.T) {
	s := NewSettings(PresetUltra)
	before := presetTable[PresetUltra]

	s.ApplyPreset(PresetCustom)
	if s.Active() != PresetCustom {
		t.Errorf("Active() = %v, want custom", s.Active())
	}
	if s.Resolution() != before.Resolution || s.Codec() != before.Codec ||
		s.Bitrate() != before.Bitrate || s.FPS() != before.FPS {
		t.Error("applying Custom overwrote values")
	}
}

func TestParseRoundTrips(t *testing.T) {
	for codec, label := range codecLabels {
		got, err := ParseCodec(label)
		if err != nil || got != codec {
			t.Errorf("ParseCodec(%q) = %v, %v; want %v", label, got, err, codec)
		}
	}
	for res, label := range resolutionLabels {
		got, err := ParseResolution(label)
		if err != nil || got != res {
			t.Errorf("ParseResolution(%q) = %v, %v; want %v", label, got, err, res)
		}
	}
	for bitrate, label := range bitrateLabels {
		got, err := ParseBitrate(label)
		if err != nil || got != bitrate {
			t.Errorf("ParseBitrate(%q) = %v, %v; want %v", label, got, err, bitrate)
		}
	}

	if _, err := ParseResolution("widexshort"); err == nil {
		t.Error("ParseResolution accepted garbage")
	}
	if _, err := ParseBitrate("fast"); err == nil {
		t.Error("ParseBitrate accepted garbage")
	}
}

func TestResolveAppliesOverrides(t *testing.T) {
	a := config.DefaultAssembly()
	a.QualityPreset = "high"
	a.Resolution = "1280x720"
	a.Codec = ""
	a.Bitrate = ""
	a.FPS = 0

	cfg, err := Resolve(a)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}
	// Untouched fields come from the preset
	if cfg.Bitrate != Bitrate8M {
		t.Errorf("Bitrate = %v, want preset 8M", cfg.Bitrate)
	}
	if cfg.FPS != 30 {
		t.Errorf("FPS = %d, want preset 30", cfg.FPS)
	}
	if cfg.Encoder != "libx264" {
		t.Errorf("Encoder = %q, want libx264", cfg.Encoder)
	}
}

func TestResolveDropsRateCapsOutsideCRF(t *testing.T) {
	a := config.DefaultAssembly()
	a.UseCRF = false
	a.MaxRate = "6M"
	a.BufSize = "12M"

	cfg, err := Resolve(a)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cfg.MaxRate != "" || cfg.BufSize != "" {
		t.Errorf("rate caps survived bitrate mode: maxrate=%q bufsize=%q", cfg.MaxRate, cfg.BufSize)
	}

	a.UseCRF = true
	cfg, err = Resolve(a)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if cfg.MaxRate != "6M" || cfg.BufSize != "12M" {
		t.Errorf("rate caps lost in CRF mode: maxrate=%q bufsize=%q", cfg.MaxRate, cfg.BufSize)
	}
}

func TestResolveRejectsBadValues(t *testing.T) {
	a := config.DefaultAssembly()
	a.QualityPreset = "cinematic"
	if _, err := Resolve(a); err == nil {
		t.Error("Resolve() accepted unknown preset")
	}

	a = config.DefaultAssembly()
	a.UseCRF = true
	a.CRF = 99
	if _, err := Resolve(a); err == nil {
		t.Error("Resolve() accepted CRF 99")
	}
}

func TestEffectiveSlideDuration(t *testing.T) {
	a := config.DefaultAssembly()
	a.SlideDuration = 8

	if got := EffectiveSlideDuration(a, 10); got != 8 {
		t.Errorf("EffectiveSlideDuration = %v, want 8", got)
	}

	a.EnforceTotalDuration = true
	a.TotalDuration = 60
	if got := EffectiveSlideDuration(a, 10); got != 6 {
		t.Errorf("EffectiveSlideDuration = %v, want 6", got)
	}

	// Zero total means the flag is ignored
	a.TotalDuration = 0
	if got := EffectiveSlideDuration(a, 10); got != 8 {
		t.Errorf("EffectiveSlideDuration = %v, want 8", got)
	}
}
