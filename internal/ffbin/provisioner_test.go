package ffbin

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// buildArchive produces a zip whose entries are name -> content.
func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func serveArchive(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serveError(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEnsureInstalledFallbackWithNestedBin(t *testing.T) {
	// Primary URL fails; fallback serves an archive with the executables
	// nested two directories deep under a folder named "bin".
	archive := buildArchive(t, map[string]string{
		"release/extras/readme.txt":                "docs",
		"release/nested/bin/" + exeName("ffmpeg"):  "encoder-payload",
		"release/nested/bin/" + exeName("ffprobe"): "prober-payload",
	})
	primary := serveError(t, http.StatusInternalServerError)
	fallback := serveArchive(t, archive)

	cacheDir := t.TempDir()
	p, err := New(Config{
		Source:      SourceBundled,
		CacheDir:    cacheDir,
		ArchiveURLs: []string{primary.URL, fallback.URL},
	})
	if err != nil {
		t.Fatal(err)
	}

	var percents []float64
	sink := func(pct float64, _ string) { percents = append(percents, pct) }

	if err := p.EnsureInstalled(context.Background(), sink); err != nil {
		t.Fatalf("EnsureInstalled() error: %v", err)
	}

	// Executables land flat in the cache root, not nested
	for _, name := range []string{exeName("ffmpeg"), exeName("ffprobe")} {
		path := filepath.Join(cacheDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("%s not installed in cache root: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s installed empty", name)
		}
	}

	bin := p.Resolve()
	if !bin.Available {
		t.Error("Resolve() after install reports unavailable")
	}
	if bin.Path != filepath.Join(cacheDir, exeName("ffmpeg")) {
		t.Errorf("Resolve() path = %s, want cache root", bin.Path)
	}

	// Extraction checkpoints and completion are reported
	seen := map[float64]bool{}
	for _, pct := range percents {
		seen[pct] = true
	}
	for _, want := range []float64{85, 95, 100} {
		if !seen[want] {
			t.Errorf("progress checkpoint %v not reported, got %v", want, percents)
		}
	}
}

func TestEnsureInstalledAllSourcesFail(t *testing.T) {
	bad := serveError(t, http.StatusNotFound)

	p, err := New(Config{
		CacheDir:    t.TempDir(),
		ArchiveURLs: []string{bad.URL, bad.URL},
	})
	if err != nil {
		t.Fatal(err)
	}

	err = p.EnsureInstalled(context.Background(), nil)
	if err == nil {
		t.Fatal("EnsureInstalled() expected error when all sources fail")
	}
}

func TestEnsureInstalledArchiveMissingEncoder(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"release/readme.txt": "no binaries here",
	})
	srv := serveArchive(t, archive)

	cacheDir := t.TempDir()
	p, err := New(Config{CacheDir: cacheDir, ArchiveURLs: []string{srv.URL}})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.EnsureInstalled(context.Background(), nil); err == nil {
		t.Fatal("EnsureInstalled() expected error for archive without encoder")
	}

	// No partial install left behind
	if isRegularFile(filepath.Join(cacheDir, exeName("ffmpeg"))) {
		t.Error("partial install left in cache")
	}
}

func TestEnsureInstalledArchiveMissingProber(t *testing.T) {
	// The encoder alone is not enough: a cache holding one executable
	// would never satisfy Installed() and every later run would download
	// the archive again.
	archive := buildArchive(t, map[string]string{
		"release/bin/" + exeName("ffmpeg"): "encoder-payload",
	})
	srv := serveArchive(t, archive)

	cacheDir := t.TempDir()
	p, err := New(Config{CacheDir: cacheDir, ArchiveURLs: []string{srv.URL}})
	if err != nil {
		t.Fatal(err)
	}

	err = p.EnsureInstalled(context.Background(), nil)
	if !errors.Is(err, ErrArchiveMissingExecutable) {
		t.Fatalf("EnsureInstalled() error = %v, want ErrArchiveMissingExecutable", err)
	}

	// Neither executable installed; the cache stays empty rather than half-provisioned
	for _, name := range []string{exeName("ffmpeg"), exeName("ffprobe")} {
		if isRegularFile(filepath.Join(cacheDir, name)) {
			t.Errorf("%s installed despite incomplete archive", name)
		}
	}
}

func TestEnsureInstalledSkipsWhenCached(t *testing.T) {
	cacheDir := t.TempDir()
	for _, name := range []string{exeName("ffmpeg"), exeName("ffprobe")} {
		if err := os.WriteFile(filepath.Join(cacheDir, name), []byte("cached"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	// A download attempt would hit this unreachable URL and fail
	p, err := New(Config{CacheDir: cacheDir, ArchiveURLs: []string{"http://127.0.0.1:1/nope.zip"}})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.EnsureInstalled(context.Background(), nil); err != nil {
		t.Errorf("EnsureInstalled() with cached binaries: %v", err)
	}
}

func TestResolveCustomFallsBackToBundled(t *testing.T) {
	cacheDir := t.TempDir()
	cached := filepath.Join(cacheDir, exeName("ffmpeg"))
	if err := os.WriteFile(cached, []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := New(Config{
		Source:     SourceCustom,
		CustomPath: filepath.Join(t.TempDir(), "does-not-exist"),
		CacheDir:   cacheDir,
	})
	if err != nil {
		t.Fatal(err)
	}

	bin := p.Resolve()
	if bin.Source != SourceBundled || bin.Path != cached {
		t.Errorf("Resolve() = %+v, want bundled fallback to %s", bin, cached)
	}
}

func TestResolveCustomDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, exeName("ffmpeg"))
	if err := os.WriteFile(path, []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := New(Config{Source: SourceCustom, CustomPath: dir, CacheDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	bin := p.Resolve()
	if !bin.Available || bin.Source != SourceCustom || bin.Path != path {
		t.Errorf("Resolve() = %+v, want custom %s", bin, path)
	}
}

func TestValidateConfigurationAlwaysExplains(t *testing.T) {
	cachedDir := t.TempDir()
	for _, name := range []string{exeName("ffmpeg"), exeName("ffprobe")} {
		if err := os.WriteFile(filepath.Join(cachedDir, name), []byte("x"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	customDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(customDir, exeName("ffmpeg")), []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		cfg    Config
		wantOK bool
	}{
		{"bundled not yet downloaded", Config{Source: SourceBundled, CacheDir: t.TempDir()}, true},
		{"bundled installed", Config{Source: SourceBundled, CacheDir: cachedDir}, true},
		{"custom valid", Config{Source: SourceCustom, CustomPath: customDir, CacheDir: t.TempDir()}, true},
		{"custom invalid", Config{Source: SourceCustom, CustomPath: "/nonexistent", CacheDir: t.TempDir()}, false},
		{"custom empty path", Config{Source: SourceCustom, CacheDir: t.TempDir()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ArchiveURLs = []string{"http://unused.invalid/a.zip"}
			p, err := New(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}

			ok, msg := p.ValidateConfiguration()
			if ok != tt.wantOK {
				t.Errorf("ValidateConfiguration() ok = %v, want %v (%s)", ok, tt.wantOK, msg)
			}
			if msg == "" {
				t.Error("ValidateConfiguration() returned empty message")
			}
		})
	}
}

func TestFindExecutablePrefersBinDirectory(t *testing.T) {
	root := t.TempDir()
	// Same name both loose and under bin/; bin wins
	if err := os.MkdirAll(filepath.Join(root, "aaa"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "zzz", "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "aaa", "tool"), []byte("loose"), 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "zzz", "bin", "tool")
	if err := os.WriteFile(want, []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := findExecutable(root, "tool")
	if err != nil {
		t.Fatalf("findExecutable() error: %v", err)
	}
	if got != want {
		t.Errorf("findExecutable() = %s, want %s", got, want)
	}
}

func TestInstallAtomicOverwritesStaleCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	if err := os.WriteFile(src, []byte("fresh"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("stale"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := installAtomic(src, dest); err != nil {
		t.Fatalf("installAtomic() error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fresh" {
		t.Errorf("dest = %q, want fresh copy", data)
	}

	// No staging leftovers
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("unexpected leftover files: %v", entries)
	}
}
