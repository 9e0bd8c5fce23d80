package covers

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailWidth is the width of generated cover thumbnails in pixels.
	// Height follows the aspect ratio of the source image.
	ThumbnailWidth = 300

	thumbnailQuality = 85
)

// Thumbnail decodes a cover image and returns a resized JPEG thumbnail.
// Covers wider than ThumbnailWidth are downscaled, smaller ones are
// re-encoded unchanged.
func Thumbnail(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("error decoding cover image: %w", err)
	}

	if img.Bounds().Dx() > ThumbnailWidth {
		img = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("error encoding cover thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// Dimensions returns the width and height of a cover image
func Dimensions(r io.Reader) (width, height int, err error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return 0, 0, fmt.Errorf("error decoding cover image: %w", err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}
