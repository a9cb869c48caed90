// File: internal/vision/reference.go
package vision

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// LoadReference reads and decodes the stored reference image for a target.
// A reference that cannot be decoded is a configuration error: it will never
// succeed on retry, so the failure is surfaced immediately.
func LoadReference(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vision: failed to decode reference image %q: %w", path, err)
	}
	return img, nil
}
