// Package encode resolves human-facing quality choices into the concrete
// encoder parameters handed to the assembly pipeline.
package encode

import (
	"fmt"
	"strconv"
	"strings"
)

// Codec identifies a target video codec.
type Codec string

// Supported codecs.
const (
	CodecH264 Codec = "h264"
	CodecHEVC Codec = "hevc"
	CodecAV1  Codec = "av1"
)

// codecLabels maps codecs to their user-facing display labels and back.
// Keeping both directions in one table avoids string parsing on the hot
// configuration path.
var codecLabels = map[Codec]string{
	CodecH264: "H.264 (AVC)",
	CodecHEVC: "H.265 (HEVC)",
	CodecAV1:  "AV1",
}

// softwareEncoders maps codecs to their software encoder names.
var softwareEncoders = map[Codec]string{
	CodecH264: "libx264",
	CodecHEVC: "libx265",
	CodecAV1:  "libsvtav1",
}

// hardwareEncoders maps codecs to hardware encoder candidates in
// preference order.
var hardwareEncoders = map[Codec][]string{
	CodecH264: {"h264_nvenc", "h264_qsv", "h264_amf", "h264_vaapi"},
	CodecHEVC: {"hevc_nvenc", "hevc_qsv", "hevc_amf", "hevc_vaapi"},
	CodecAV1:  {"av1_nvenc", "av1_qsv", "av1_amf", "av1_vaapi"},
}

// ParseCodec accepts a codec identifier or its display label.
func ParseCodec(s string) (Codec, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "h264", "avc", "x264":
		return CodecH264, nil
	case "h265", "hevc", "x265":
		return CodecHEVC, nil
	case "av1":
		return CodecAV1, nil
	}
	for c, label := range codecLabels {
		if strings.EqualFold(s, label) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown codec %q", s)
}

// Label returns the display label for the codec.
func (c Codec) Label() string {
	return codecLabels[c]
}

// SoftwareEncoder returns the software encoder name for the codec.
func (c Codec) SoftwareEncoder() string {
	return softwareEncoders[c]
}

// HardwareCandidates returns hardware encoder names in preference order.
func (c Codec) HardwareCandidates() []string {
	return hardwareEncoders[c]
}

// Resolution is a target canvas size.
type Resolution struct {
	Width  int
	Height int
}

// Named resolutions offered as presets.
var (
	Res4K    = Resolution{3840, 2160}
	Res1080p = Resolution{1920, 1080}
	Res720p  = Resolution{1280, 720}
	Res480p  = Resolution{854, 480}
)

var resolutionLabels = map[Resolution]string{
	Res4K:    "4K (3840x2160)",
	Res1080p: "1080p (1920x1080)",
	Res720p:  "720p (1280x720)",
	Res480p:  "480p (854x480)",
}

// ParseResolution accepts "WIDTHxHEIGHT" or a display label like
// "1080p (1920x1080)".
func ParseResolution(s string) (Resolution, error) {
	for r, label := range resolutionLabels {
		if strings.EqualFold(strings.TrimSpace(s), label) {
			return r, nil
		}
	}

	// Pull the WxH out of a label-style string if present
	raw := strings.TrimSpace(s)
	if open := strings.IndexByte(raw, '('); open != -1 {
		if close := strings.IndexByte(raw, ')'); close > open {
			raw = raw[open+1 : close]
		}
	}

	parts := strings.SplitN(strings.ToLower(raw), "x", 2)
	if len(parts) != 2 {
		return Resolution{}, fmt.Errorf("invalid resolution %q", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid resolution width in %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Resolution{}, fmt.Errorf("invalid resolution height in %q", s)
	}
	if w <= 0 || h <= 0 {
		return Resolution{}, fmt.Errorf("resolution %q must be positive", s)
	}
	return Resolution{Width: w, Height: h}, nil
}

// String returns the WIDTHxHEIGHT form.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Label returns the display label, falling back to WxH for custom sizes.
func (r Resolution) Label() string {
	if label, ok := resolutionLabels[r]; ok {
		return label
	}
	return r.String()
}

// Bitrate is a target bitrate expressed the way ffmpeg accepts it ("4M").
type Bitrate string

// Named bitrates offered as presets.
const (
	Bitrate12M Bitrate = "12M"
	Bitrate8M  Bitrate = "8M"
	Bitrate4M  Bitrate = "4M"
	Bitrate2M  Bitrate = "2M"
	Bitrate1M  Bitrate = "1M"
)

var bitrateLabels = map[Bitrate]string{
	Bitrate12M: "12M (Ultra)",
	Bitrate8M:  "8M (High)",
	Bitrate4M:  "4M (Medium)",
	Bitrate2M:  "2M (Low)",
	Bitrate1M:  "1M (Bandwidth)",
}

// ParseBitrate accepts a bare rate ("4M", "2500k") or a display label
// ("4M (Medium)").
func ParseBitrate(s string) (Bitrate, error) {
	trimmed := strings.TrimSpace(s)
	for b, label := range bitrateLabels {
		if strings.EqualFold(trimmed, label) {
			return b, nil
		}
	}

	// Bare rate: digits followed by an optional k/M suffix
	if idx := strings.IndexByte(trimmed, ' '); idx != -1 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "", fmt.Errorf("empty bitrate")
	}
	numeric := strings.TrimRight(trimmed, "kKmM")
	if _, err := strconv.Atoi(numeric); err != nil || numeric == "" {
		return "", fmt.Errorf("invalid bitrate %q", s)
	}
	return Bitrate(trimmed), nil
}

// Label returns the display label, falling back to the raw rate.
func (b Bitrate) Label() string {
	if label, ok := bitrateLabels[b]; ok {
		return label
	}
	return string(b)
}
