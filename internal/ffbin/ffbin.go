// Package ffbin locates or provisions the external encoder (ffmpeg) and
// prober (ffprobe) executables. It owns a persistent cache directory and a
// source-selection policy: bundled (auto-downloaded into the cache), system
// (conventional install dirs, then PATH), or custom (operator-supplied path).
package ffbin

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Source selects where executables come from.
type Source string

const (
	// SourceBundled downloads executables into the cache on demand.
	SourceBundled Source = "bundled"
	// SourceSystem uses an existing system installation.
	SourceSystem Source = "system"
	// SourceCustom uses an operator-supplied directory or executable path.
	SourceCustom Source = "custom"
)

// ParseSource accepts a source name, case-insensitively. Empty means bundled.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceBundled, "":
		return SourceBundled, nil
	case SourceSystem, "path", "system-path":
		return SourceSystem, nil
	case SourceCustom:
		return SourceCustom, nil
	}
	return "", fmt.Errorf("unknown binary source %q", s)
}

// Binary is a resolved executable: where it is, where it came from, and
// whether it exists on disk right now.
type Binary struct {
	Path      string
	Source    Source
	Available bool
}

// Sentinel failures. Both are reported to the caller, never fatal; the
// daemon's cycle decides whether to retry.
var (
	// ErrBinaryUnavailable means every source was exhausted with nothing
	// usable found.
	ErrBinaryUnavailable = errors.New("encoder binary unavailable from all sources")
	// ErrArchiveMissingExecutable means a download succeeded but the
	// expected executable was nowhere in the extracted tree.
	ErrArchiveMissingExecutable = errors.New("downloaded archive does not contain the expected executable")
)

// Executable base names, suffixed per platform.
const (
	encoderName = "ffmpeg"
	proberName  = "ffprobe"
)

// exeName appends the platform executable suffix.
func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
