package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAssemblyMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadAssembly(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadAssembly() error: %v", err)
	}

	def := DefaultAssembly()
	if cfg != def {
		t.Errorf("LoadAssembly() = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadAssemblyMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[assembly]
slides_dir = "/var/lib/signcast/slides"
fps = 25
fade_duration = 0.5
use_crf = true
crf = 20
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAssembly(path)
	if err != nil {
		t.Fatalf("LoadAssembly() error: %v", err)
	}

	if cfg.SlidesDir != "/var/lib/signcast/slides" {
		t.Errorf("SlidesDir = %q", cfg.SlidesDir)
	}
	if cfg.FPS != 25 {
		t.Errorf("FPS = %d, want 25", cfg.FPS)
	}
	if cfg.FadeDuration != 0.5 {
		t.Errorf("FadeDuration = %v, want 0.5", cfg.FadeDuration)
	}
	if !cfg.UseCRF || cfg.CRF != 20 {
		t.Errorf("UseCRF/CRF = %v/%d, want true/20", cfg.UseCRF, cfg.CRF)
	}
	// Untouched fields keep defaults
	if cfg.Codec != "h264" {
		t.Errorf("Codec = %q, want default h264", cfg.Codec)
	}
	if cfg.SlideDuration != 8 {
		t.Errorf("SlideDuration = %v, want default 8", cfg.SlideDuration)
	}
}

func TestAssemblyValidate(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Assembly)
		wantErr      bool
		wantWarnings int
	}{
		{
			name:   "defaults are valid",
			mutate: func(a *Assembly) {},
		},
		{
			name:    "zero slide duration rejected",
			mutate:  func(a *Assembly) { a.SlideDuration = 0 },
			wantErr: true,
		},
		{
			name:    "negative fade rejected",
			mutate:  func(a *Assembly) { a.FadeDuration = -1 },
			wantErr: true,
		},
		{
			name:    "missing slides dir rejected",
			mutate:  func(a *Assembly) { a.SlidesDir = "" },
			wantErr: true,
		},
		{
			name:         "fade longer than slide warns",
			mutate:       func(a *Assembly) { a.FadeDuration = 10 },
			wantWarnings: 1,
		},
		{
			name: "enforce total without value warns",
			mutate: func(a *Assembly) {
				a.EnforceTotalDuration = true
				a.TotalDuration = 0
			},
			wantWarnings: 1,
		},
		{
			name: "custom source without path warns",
			mutate: func(a *Assembly) {
				a.BinarySource = "custom"
				a.BinaryPath = ""
			},
			wantWarnings: 1,
		},
		{
			name:         "missing audio file warns",
			mutate:       func(a *Assembly) { a.AudioFile = "/nonexistent/music.mp3" },
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAssembly()
			tt.mutate(&cfg)

			warnings, err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("Validate() warnings = %v, want %d", warnings, tt.wantWarnings)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg := DefaultAssembly()
	cfg.OutputDir = "/srv/out"
	cfg.OutputName = "loop"

	if got := cfg.OutputPath("mp4"); got != filepath.Join("/srv/out", "loop.mp4") {
		t.Errorf("OutputPath() = %q", got)
	}
}
