package ffbin

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/signcast/signcast/internal/logging"
)

// systemSearchDirs lists conventional installation directories checked
// before falling back to PATH lookup.
func systemSearchDirs() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\Program Files\ffmpeg\bin`,
			`C:\ffmpeg\bin`,
		}
	}
	return []string{
		"/usr/bin",
		"/usr/local/bin",
		"/opt/ffmpeg/bin",
	}
}

// Config is the immutable source selection a Provisioner is built with.
// Changing the source means constructing a new Provisioner; nothing mutates
// a live one.
type Config struct {
	Source     Source
	CustomPath string // directory containing the executables, or a direct executable path
	CacheDir   string // bundled install target; empty selects the user cache dir

	// Download endpoints for the bundled source, tried in order. Empty
	// selects the built-in defaults.
	ArchiveURLs []string
}

// DefaultCacheDir returns the per-user cache directory for bundled binaries.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "signcast", "bin"), nil
}

// Provisioner resolves encoder/prober paths for one source configuration.
type Provisioner struct {
	cfg    Config
	logger *slog.Logger
}

// New builds a Provisioner for the given configuration. An unset cache dir
// falls back to the user cache directory.
func New(cfg Config) (*Provisioner, error) {
	if cfg.Source == "" {
		cfg.Source = SourceBundled
	}
	if cfg.CacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return nil, err
		}
		cfg.CacheDir = dir
	}
	if len(cfg.ArchiveURLs) == 0 {
		cfg.ArchiveURLs = defaultArchiveURLs()
	}
	return &Provisioner{
		cfg:    cfg,
		logger: logging.GetLogger("ffbin"),
	}, nil
}

// CacheDir returns the bundled install directory.
func (p *Provisioner) CacheDir() string {
	return p.cfg.CacheDir
}

// Resolve returns the encoder binary for the configured source. Available
// is false when the returned path does not exist yet (bundled source before
// the first download); callers then trigger EnsureInstalled.
func (p *Provisioner) Resolve() Binary {
	return p.resolve(encoderName)
}

// ResolveProber returns the prober binary under the same policy.
func (p *Provisioner) ResolveProber() Binary {
	return p.resolve(proberName)
}

func (p *Provisioner) resolve(base string) Binary {
	switch p.cfg.Source {
	case SourceSystem:
		return p.resolveSystem(base)
	case SourceCustom:
		return p.resolveCustom(base)
	default:
		return p.resolveBundled(base)
	}
}

// resolveSystem searches conventional install dirs, then PATH. When nothing
// is found it returns the bare executable name so the OS loader can still
// attempt resolution, and warns.
func (p *Provisioner) resolveSystem(base string) Binary {
	name := exeName(base)

	for _, dir := range systemSearchDirs() {
		candidate := filepath.Join(dir, name)
		if isRegularFile(candidate) {
			return Binary{Path: candidate, Source: SourceSystem, Available: true}
		}
	}

	if found, err := exec.LookPath(name); err == nil {
		return Binary{Path: found, Source: SourceSystem, Available: true}
	}

	p.logger.Warn("Executable not found in system locations, relying on OS lookup at spawn time", "executable", name)
	return Binary{Path: name, Source: SourceSystem, Available: false}
}

// resolveCustom validates the operator-supplied location: a directory
// expected to contain the executable, or a direct executable path. On
// failure it warns and falls through to the bundled policy.
func (p *Provisioner) resolveCustom(base string) Binary {
	name := exeName(base)

	if p.cfg.CustomPath != "" {
		if info, err := os.Stat(p.cfg.CustomPath); err == nil {
			if info.IsDir() {
				candidate := filepath.Join(p.cfg.CustomPath, name)
				if isRegularFile(candidate) {
					return Binary{Path: candidate, Source: SourceCustom, Available: true}
				}
			} else if filepath.Base(p.cfg.CustomPath) == name {
				return Binary{Path: p.cfg.CustomPath, Source: SourceCustom, Available: true}
			}
		}
	}

	p.logger.Warn("Custom binary path unusable, falling back to bundled", "path", p.cfg.CustomPath, "executable", name)
	return p.resolveBundled(base)
}

// resolveBundled prefers the cache, uses a system binary as a stop-gap, and
// otherwise returns the not-yet-populated cache path so the caller can
// trigger EnsureInstalled.
func (p *Provisioner) resolveBundled(base string) Binary {
	cached := filepath.Join(p.cfg.CacheDir, exeName(base))
	if isRegularFile(cached) {
		return Binary{Path: cached, Source: SourceBundled, Available: true}
	}

	if system := p.resolveSystem(base); system.Available {
		p.logger.Info("Bundled binary not cached yet, using system binary as stop-gap", "path", system.Path)
		return Binary{Path: system.Path, Source: SourceBundled, Available: true}
	}

	return Binary{Path: cached, Source: SourceBundled, Available: false}
}

// Installed reports whether both executables are present in the cache.
func (p *Provisioner) Installed() bool {
	return isRegularFile(filepath.Join(p.cfg.CacheDir, exeName(encoderName))) &&
		isRegularFile(filepath.Join(p.cfg.CacheDir, exeName(proberName)))
}

// ValidateConfiguration describes the active source and whether it is
// usable. The message is non-empty in every state; for the bundled source,
// "not yet downloaded" is informational, not a failure, since provisioning
// happens on demand.
func (p *Provisioner) ValidateConfiguration() (bool, string) {
	switch p.cfg.Source {
	case SourceSystem:
		bin := p.resolveSystem(encoderName)
		if bin.Available {
			return true, fmt.Sprintf("system ffmpeg found at %s", bin.Path)
		}
		return false, "system source selected but ffmpeg was not found in conventional directories or PATH"

	case SourceCustom:
		if p.cfg.CustomPath == "" {
			return false, "custom source selected but no path configured; bundled fallback will be used"
		}
		bin := p.resolveCustom(encoderName)
		if bin.Source == SourceCustom && bin.Available {
			return true, fmt.Sprintf("custom ffmpeg found at %s", bin.Path)
		}
		return false, fmt.Sprintf("custom path %s does not contain ffmpeg; bundled fallback will be used", p.cfg.CustomPath)

	default:
		if p.Installed() {
			return true, fmt.Sprintf("bundled ffmpeg installed in %s", p.cfg.CacheDir)
		}
		return true, "bundled ffmpeg not yet downloaded; it will be provisioned automatically before the first run"
	}
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
