package sequence

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "slide_03.png")
	touch(t, dir, "slide_01.png")
	touch(t, dir, "slide_02.JPG")
	touch(t, dir, "notes.txt")
	touch(t, dir, "preview.mp4")
	if err := os.Mkdir(filepath.Join(dir, "slide_00.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	seq, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if seq.Len() != 3 {
		t.Fatalf("Scan() found %d images, want 3: %v", seq.Len(), seq.Images)
	}

	wantOrder := []string{"slide_01.png", "slide_02.JPG", "slide_03.png"}
	for i, img := range seq.Images {
		if filepath.Base(img) != wantOrder[i] {
			t.Errorf("image %d = %s, want %s", i, filepath.Base(img), wantOrder[i])
		}
		if !filepath.IsAbs(img) {
			t.Errorf("image %d = %s, want absolute path", i, img)
		}
	}
}

func TestScanMissingDirectory(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Scan() on missing directory expected error")
	}
}

func TestValidateMinimumCount(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "only.png")

	seq, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if err := seq.Validate(); err == nil {
		t.Error("Validate() with 1 image expected error")
	}

	touch(t, dir, "second.png")
	seq, err = Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if err := seq.Validate(); err != nil {
		t.Errorf("Validate() with 2 images unexpected error: %v", err)
	}
}
