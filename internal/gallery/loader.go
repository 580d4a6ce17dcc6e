package gallery

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Loader decodes a picture file for display.
type Loader interface {
	// Load returns the image at path, upright and no larger than
	// width x height. A non-positive dimension disables resizing.
	Load(path string, width, height int) (image.Image, error)
}

// ImagingLoader is the default Loader. It honours the EXIF orientation tag
// and scales down with a Lanczos filter, keeping the aspect ratio.
type ImagingLoader struct{}

// Load implements Loader.
func (ImagingLoader) Load(path string, width, height int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if width <= 0 || height <= 0 {
		return img, nil
	}
	return imaging.Fit(img, width, height, imaging.Lanczos), nil
}
