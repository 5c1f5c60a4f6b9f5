package ffbin

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/signcast/signcast/internal/metrics"
)

// Progress budget: downloads fill 0-80, extraction reports fixed 85/95
// checkpoints, and 100 marks the install complete.
const (
	downloadBudget  = 80.0
	extractStartPct = 85.0
	extractDonePct  = 95.0
)

// defaultArchiveURLs returns the built-in download endpoints for the current
// platform, primary first.
func defaultArchiveURLs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			"https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip",
			"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-win64-gpl.zip",
		}
	case "darwin":
		return []string{
			"https://evermeet.cx/ffmpeg/getrelease/zip",
			"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-macos64-gpl.zip",
		}
	default:
		return []string{
			"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linux64-gpl.zip",
			"https://github.com/ffbinaries/ffbinaries-prebuilt/releases/latest/download/ffmpeg-linux-64.zip",
		}
	}
}

// ProgressSink receives provisioning progress as a 0-100 percentage plus a
// short human-readable status.
type ProgressSink func(percent float64, message string)

// EnsureInstalled makes sure the encoder and prober executables are present
// in the cache directory. If both are already cached it returns immediately.
// Otherwise it downloads a release archive (primary URL first, then
// fallbacks), extracts it into a private temporary directory, locates the
// executables wherever the archive nests them, and installs them flat into
// the cache root via a staging file and atomic rename. Temporary artifacts
// are removed on success and failure alike.
func (p *Provisioner) EnsureInstalled(ctx context.Context, sink ProgressSink) error {
	if sink == nil {
		sink = func(float64, string) {}
	}

	if p.Installed() {
		sink(100, "encoder already installed")
		return nil
	}

	if err := os.MkdirAll(p.cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	workDir, err := os.MkdirTemp("", "signcast-ffbin-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	archivePath := filepath.Join(workDir, "ffmpeg.zip")

	var lastErr error
	downloaded := false
	for i, url := range p.cfg.ArchiveURLs {
		label := "primary"
		if i > 0 {
			label = "fallback"
		}

		p.logger.Info("Downloading encoder archive", "url", url, "source", label)
		if err := p.download(ctx, url, archivePath, sink); err != nil {
			p.logger.Warn("Archive download failed", "url", url, "error", err)
			metrics.RecordDownloadFailure(label)
			lastErr = err
			continue
		}
		downloaded = true
		break
	}
	if !downloaded {
		return fmt.Errorf("%w: %v", ErrBinaryUnavailable, lastErr)
	}

	sink(extractStartPct, "extracting archive")

	extractDir := filepath.Join(workDir, "extracted")
	if err := extractZip(archivePath, extractDir); err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}

	sink(extractDonePct, "installing executables")

	// Both executables must be present before either is installed; a cache
	// holding only one of them would fail Installed() and force a full
	// re-download on every later run.
	found := make(map[string]string, 2)
	for _, base := range []string{encoderName, proberName} {
		name := exeName(base)
		path, err := findExecutable(extractDir, name)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrArchiveMissingExecutable, name)
		}
		found[name] = path
	}

	for name, path := range found {
		if err := installAtomic(path, filepath.Join(p.cfg.CacheDir, name)); err != nil {
			return fmt.Errorf("failed to install %s: %w", name, err)
		}
	}

	sink(100, "encoder installed")
	p.logger.Info("Encoder provisioned", "cache_dir", p.cfg.CacheDir)
	return nil
}

// download streams one archive URL to dest, reporting progress within the
// download budget when the server provides a content length.
func (p *Provisioner) download(ctx context.Context, url, dest string, sink ProgressSink) error {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	total := resp.ContentLength
	var written int64
	buf := make([]byte, 128*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			written += int64(n)
			metrics.AddDownloadBytes(int64(n))
			if total > 0 {
				sink(float64(written)/float64(total)*downloadBudget, "downloading encoder")
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	sink(downloadBudget, "download complete")
	return nil
}

// extractZip unpacks a zip archive under dest, refusing entries that would
// escape it.
func extractZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	for _, file := range reader.File {
		target := filepath.Join(dest, filepath.FromSlash(file.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes extraction dir: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		src, err := file.Open()
		if err != nil {
			return err
		}
		dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
		if err != nil {
			src.Close()
			return err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// findExecutable locates name under root: the root itself first, then any
// directory literally named "bin", then a full recursive search. Release
// archives nest their executables unpredictably, so all three passes exist.
func findExecutable(root, name string) (string, error) {
	direct := filepath.Join(root, name)
	if isRegularFile(direct) {
		return direct, nil
	}

	var inBin, anywhere string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != name {
			return err
		}
		if filepath.Base(filepath.Dir(path)) == "bin" && inBin == "" {
			inBin = path
		}
		if anywhere == "" {
			anywhere = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if inBin != "" {
		return inBin, nil
	}
	if anywhere != "" {
		return anywhere, nil
	}
	return "", fmt.Errorf("%s not found in extracted archive", name)
}

// installAtomic copies src into place via a staging file in the destination
// directory and an atomic rename, so concurrent resolvers only ever see a
// complete executable or none at all.
func installAtomic(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	staging, err := os.CreateTemp(filepath.Dir(dest), ".install-*")
	if err != nil {
		return err
	}
	stagingPath := staging.Name()

	if _, err := io.Copy(staging, in); err != nil {
		staging.Close()
		os.Remove(stagingPath)
		return err
	}
	if err := staging.Chmod(0o755); err != nil {
		staging.Close()
		os.Remove(stagingPath)
		return err
	}
	if err := staging.Close(); err != nil {
		os.Remove(stagingPath)
		return err
	}

	if err := os.Rename(stagingPath, dest); err != nil {
		os.Remove(stagingPath)
		return err
	}
	return nil
}
