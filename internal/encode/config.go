package encode

import (
	"fmt"

	"github.com/signcast/signcast/internal/config"
)

// Config is the fully resolved, immutable parameter set one assembly run
// encodes with. It is built once per run from the live Assembly settings;
// later config reloads produce a new Config instead of mutating this one.
type Config struct {
	Width  int
	Height int
	FPS    int

	Codec   Codec
	Encoder string // concrete ffmpeg encoder name, e.g. libx264 or h264_nvenc

	// Rate control. UseCRF selects constant-quality mode; MaxRate/BufSize
	// then cap the bitrate spikes CRF would otherwise allow. In bitrate
	// mode Bitrate is the target and MaxRate/BufSize are ignored.
	UseCRF      bool
	CRF         int
	Bitrate     Bitrate
	MaxRate     string
	BufSize     string
	SpeedPreset string

	Container string

	SlideDuration float64
	FadeDuration  float64

	AudioFile string
}

// Resolve turns the operator-facing assembly settings into a concrete
// encoding parameter set. The quality preset is applied first, then any
// explicitly set resolution/codec/bitrate/fps values override it, which
// flips the effective preset to Custom.
func Resolve(a config.Assembly) (Config, error) {
	preset, ok := ParsePreset(a.QualityPreset)
	if !ok && a.QualityPreset != "" {
		return Config{}, fmt.Errorf("unknown quality_preset %q", a.QualityPreset)
	}
	if a.QualityPreset == "" {
		preset = PresetMedium
	}
	settings := NewSettings(preset)

	if a.Resolution != "" {
		res, err := ParseResolution(a.Resolution)
		if err != nil {
			return Config{}, err
		}
		settings.SetResolution(res)
	}
	if a.Codec != "" {
		codec, err := ParseCodec(a.Codec)
		if err != nil {
			return Config{}, err
		}
		settings.SetCodec(codec)
	}
	if a.Bitrate != "" {
		bitrate, err := ParseBitrate(a.Bitrate)
		if err != nil {
			return Config{}, err
		}
		settings.SetBitrate(bitrate)
	}
	if a.FPS > 0 {
		settings.SetFPS(a.FPS)
	}

	cfg := Config{
		Width:         settings.Resolution().Width,
		Height:        settings.Resolution().Height,
		FPS:           settings.FPS(),
		Codec:         settings.Codec(),
		Encoder:       settings.Codec().SoftwareEncoder(),
		UseCRF:        a.UseCRF,
		CRF:           a.CRF,
		Bitrate:       settings.Bitrate(),
		MaxRate:       a.MaxRate,
		BufSize:       a.BufSize,
		SpeedPreset:   a.SpeedPreset,
		Container:     a.Container,
		SlideDuration: a.SlideDuration,
		FadeDuration:  a.FadeDuration,
		AudioFile:     a.AudioFile,
	}

	if cfg.UseCRF && (cfg.CRF < 0 || cfg.CRF > 51) {
		return Config{}, fmt.Errorf("crf %d out of range 0-51", cfg.CRF)
	}
	if !cfg.UseCRF && (cfg.MaxRate != "" || cfg.BufSize != "") {
		// Rate caps only make sense in CRF mode; ignore them rather than
		// producing a command ffmpeg would interpret differently.
		cfg.MaxRate = ""
		cfg.BufSize = ""
	}
	if cfg.Container == "" {
		cfg.Container = "mp4"
	}

	return cfg, nil
}

// WithEncoder returns a copy using the given concrete encoder name. The
// hardware probe calls this after confirming an accelerated encoder works.
func (c Config) WithEncoder(name string) Config {
	c.Encoder = name
	return c
}

// FadesEnabled reports whether crossfade transitions are configured.
func (c Config) FadesEnabled() bool {
	return c.FadeDuration > 0
}

// EffectiveSlideDuration returns the per-slide display time for a run with
// n images, honoring an enforced total duration when set.
func EffectiveSlideDuration(a config.Assembly, n int) float64 {
	if a.EnforceTotalDuration && a.TotalDuration > 0 && n > 0 {
		return a.TotalDuration / float64(n)
	}
	return a.SlideDuration
}
