package encode

import "strings"

// Preset names a bundle of quality parameters. Custom is a sentinel meaning
// the operator has diverged from every named bundle; applying it never
// overwrites anything.
type Preset string

// Named presets plus the Custom sentinel.
const (
	PresetUltra     Preset = "ultra"
	PresetHigh      Preset = "high"
	PresetMedium    Preset = "medium"
	PresetLow       Preset = "low"
	PresetBandwidth Preset = "bandwidth"
	PresetCustom    Preset = "custom"
)

// presetParams holds the parameter bundle a named preset expands to.
type presetParams struct {
	Resolution Resolution
	Codec      Codec
	Bitrate    Bitrate
	FPS        int
}

var presetTable = map[Preset]presetParams{
	PresetUltra:     {Res4K, CodecHEVC, Bitrate12M, 30},
	PresetHigh:      {Res1080p, CodecH264, Bitrate8M, 30},
	PresetMedium:    {Res1080p, CodecH264, Bitrate4M, 30},
	PresetLow:       {Res720p, CodecH264, Bitrate2M, 25},
	PresetBandwidth: {Res480p, CodecH264, Bitrate1M, 15},
}

// ParsePreset accepts a preset name, case-insensitively.
func ParsePreset(s string) (Preset, bool) {
	switch Preset(strings.ToLower(strings.TrimSpace(s))) {
	case PresetUltra:
		return PresetUltra, true
	case PresetHigh:
		return PresetHigh, true
	case PresetMedium:
		return PresetMedium, true
	case PresetLow:
		return PresetLow, true
	case PresetBandwidth:
		return PresetBandwidth, true
	case PresetCustom:
		return PresetCustom, true
	}
	return "", false
}

// Settings is the mutable quality selection an operator edits. It tracks
// which named preset the current values correspond to; any edit that changes
// a value flips the tag to Custom.
type Settings struct {
	resolution Resolution
	codec      Codec
	bitrate    Bitrate
	fps        int
	active     Preset
}

// NewSettings returns settings initialized from the given preset.
// Custom (or an unknown preset) falls back to Medium values tagged Custom.
func NewSettings(p Preset) *Settings {
	s := &Settings{}
	if _, ok := presetTable[p]; !ok {
		params := presetTable[PresetMedium]
		s.resolution = params.Resolution
		s.codec = params.Codec
		s.bitrate = params.Bitrate
		s.fps = params.FPS
		s.active = PresetCustom
		return s
	}
	s.ApplyPreset(p)
	return s
}

// ApplyPreset overwrites all values with the preset's bundle and records the
// preset as active. Applying the active preset again is a no-op. Applying
// Custom never overwrites values; it only marks the selection as diverged.
func (s *Settings) ApplyPreset(p Preset) {
	if p == PresetCustom {
		s.active = PresetCustom
		return
	}
	params, ok := presetTable[p]
	if !ok {
		return
	}
	s.resolution = params.Resolution
	s.codec = params.Codec
	s.bitrate = params.Bitrate
	s.fps = params.FPS
	s.active = p
}

// Active returns the preset the current values correspond to, or Custom.
func (s *Settings) Active() Preset { return s.active }

// Resolution returns the selected canvas size.
func (s *Settings) Resolution() Resolution { return s.resolution }

// Codec returns the selected codec.
func (s *Settings) Codec() Codec { return s.codec }

// Bitrate returns the selected target bitrate.
func (s *Settings) Bitrate() Bitrate { return s.bitrate }

// FPS returns the selected frame rate.
func (s *Settings) FPS() int { return s.fps }

// SetResolution changes the canvas size. Setting the current value is a
// no-op and does not disturb the active preset tag.
func (s *Settings) SetResolution(r Resolution) {
	if s.resolution == r {
		return
	}
	s.resolution = r
	s.active = PresetCustom
}

// SetCodec changes the codec, flipping the tag to Custom on a real change.
func (s *Settings) SetCodec(c Codec) {
	if s.codec == c {
		return
	}
	s.codec = c
	s.active = PresetCustom
}

// SetBitrate changes the target bitrate, flipping the tag to Custom on a
// real change.
func (s *Settings) SetBitrate(b Bitrate) {
	if s.bitrate == b {
		return
	}
	s.bitrate = b
	s.active = PresetCustom
}

// SetFPS changes the frame rate, flipping the tag to Custom on a real change.
func (s *Settings) SetFPS(fps int) {
	if s.fps == fps {
		return
	}
	s.fps = fps
	s.active = PresetCustom
}
