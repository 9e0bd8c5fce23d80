package covers

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, width, height int, asPNG bool) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, nil)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestThumbnailDownscalesWideCovers(t *testing.T) {
	src := encodeTestImage(t, 900, 1350, false)

	thumb, err := Thumbnail(bytes.NewReader(src))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)

	assert.Equal(t, ThumbnailWidth, decoded.Bounds().Dx())
	// Aspect ratio 2:3 preserved
	assert.Equal(t, 450, decoded.Bounds().Dy())
}

func TestThumbnailKeepsSmallCovers(t *testing.T) {
	src := encodeTestImage(t, 200, 300, true)

	thumb, err := Thumbnail(bytes.NewReader(src))
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)

	assert.Equal(t, 200, decoded.Bounds().Dx())
	assert.Equal(t, 300, decoded.Bounds().Dy())
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := Thumbnail(bytes.NewReader([]byte("not an image at all")))
	assert.Error(t, err)
}

func TestDimensions(t *testing.T) {
	src := encodeTestImage(t, 640, 480, true)

	w, h, err := Dimensions(bytes.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}
