// Package sequence builds the ordered list of slide images consumed by an
// assembly run. The renderer drops stills into a directory; each run scans
// that directory fresh so the video always reflects the latest render.
package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MinImages is the smallest image set that can produce a video.
const MinImages = 2

// recognized still-image extensions, lowercase
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// ImageSequence is an ordered set of absolute slide image paths.
type ImageSequence struct {
	Dir    string
	Images []string
}

// Scan lists the recognized still images in dir, sorted by file name,
// as absolute paths. It does not enforce the minimum count; callers decide
// whether a short sequence is an error (see Validate).
func Scan(dir string) (*ImageSequence, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve slides directory: %w", err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read slides directory %s: %w", absDir, err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if imageExtensions[ext] {
			images = append(images, filepath.Join(absDir, entry.Name()))
		}
	}

	sort.Strings(images)

	return &ImageSequence{Dir: absDir, Images: images}, nil
}

// Validate returns an error when the sequence is too small to assemble.
func (s *ImageSequence) Validate() error {
	if len(s.Images) < MinImages {
		return fmt.Errorf("need at least %d slide images, found %d in %s", MinImages, len(s.Images), s.Dir)
	}
	return nil
}

// Len returns the number of images in the sequence.
func (s *ImageSequence) Len() int {
	return len(s.Images)
}
