package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Assembly holds the [assembly] section of the config file: everything the
// video pipeline consumes. The daemon reloads this section on file change,
// always replacing the whole value so readers never see a half-updated mix.
type Assembly struct {
	SlidesDir  string `toml:"slides_dir"`
	OutputDir  string `toml:"output_dir"`
	OutputName string `toml:"output_name"`
	AudioFile  string `toml:"audio_file"`

	IntervalMinutes int `toml:"interval_minutes"`

	QualityPreset string `toml:"quality_preset"`
	Resolution    string `toml:"resolution"`
	Codec         string `toml:"codec"`
	Bitrate       string `toml:"bitrate"`
	FPS           int    `toml:"fps"`

	UseCRF      bool   `toml:"use_crf"`
	CRF         int    `toml:"crf"`
	SpeedPreset string `toml:"speed_preset"`
	MaxRate     string `toml:"max_rate"`
	BufSize     string `toml:"buf_size"`

	Container string `toml:"container"`

	SlideDuration        float64 `toml:"slide_duration"`
	FadeDuration         float64 `toml:"fade_duration"`
	EnforceTotalDuration bool    `toml:"enforce_total_duration"`
	TotalDuration        float64 `toml:"total_duration"`

	HardwareAccel         bool `toml:"hardware_accel"`
	HardwareAccelOverride bool `toml:"hardware_accel_override"`

	BinarySource string `toml:"binary_source"`
	BinaryPath   string `toml:"binary_path"`
}

// DefaultAssembly returns the built-in assembly settings.
func DefaultAssembly() Assembly {
	return Assembly{
		SlidesDir:       "slides",
		OutputDir:       "output",
		OutputName:      "signage",
		IntervalMinutes: 30,
		QualityPreset:   "medium",
		Resolution:      "1920x1080",
		Codec:           "h264",
		Bitrate:         "4M",
		FPS:             30,
		CRF:             23,
		SpeedPreset:     "medium",
		Container:       "mp4",
		SlideDuration:   8,
		FadeDuration:    1,
		BinarySource:    "bundled",
	}
}

// LoadAssembly reads the [assembly] section from a TOML config file,
// merged over the defaults. A missing file yields the defaults.
func LoadAssembly(path string) (Assembly, error) {
	cfg := DefaultAssembly()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var raw struct {
		Assembly Assembly `toml:"assembly"`
	}
	raw.Assembly = cfg
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	return raw.Assembly, nil
}

// Validate checks the assembly settings. It returns a hard error for values
// the pipeline cannot work with, and a list of advisory warnings for values
// that are legal but suspicious.
func (a Assembly) Validate() ([]string, error) {
	var warnings []string

	if a.SlidesDir == "" {
		return nil, fmt.Errorf("slides_dir must be set")
	}
	if a.OutputDir == "" {
		return nil, fmt.Errorf("output_dir must be set")
	}
	if a.SlideDuration <= 0 {
		return nil, fmt.Errorf("slide_duration must be positive, got %v", a.SlideDuration)
	}
	if a.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", a.FPS)
	}
	if a.FadeDuration < 0 {
		return nil, fmt.Errorf("fade_duration must not be negative, got %v", a.FadeDuration)
	}

	if a.FadeDuration >= a.SlideDuration {
		warnings = append(warnings,
			fmt.Sprintf("fade_duration %.1fs is not shorter than slide_duration %.1fs; transitions will overlap whole slides",
				a.FadeDuration, a.SlideDuration))
	}
	if a.EnforceTotalDuration && a.TotalDuration <= 0 {
		warnings = append(warnings, "enforce_total_duration is set but total_duration is zero; the flag is ignored")
	}
	if a.AudioFile != "" {
		if _, err := os.Stat(a.AudioFile); err != nil {
			warnings = append(warnings, fmt.Sprintf("audio_file %s does not exist; output will have no audio track", a.AudioFile))
		}
	}
	if a.BinarySource == "custom" && a.BinaryPath == "" {
		warnings = append(warnings, "binary_source is custom but binary_path is empty; falling back to bundled")
	}

	return warnings, nil
}

// OutputPath returns the full artifact path for the given container extension.
func (a Assembly) OutputPath(extension string) string {
	return filepath.Join(a.OutputDir, a.OutputName+"."+extension)
}
