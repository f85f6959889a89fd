package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 8 {
		for y := 0; y < height; y += 8 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestResizeImageShrinksLargeImages(t *testing.T) {
	resized, format, err := resizeImage(pngBytes(t, 3200, 1800))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	w, h := decodeSize(t, resized)
	assert.Equal(t, 1600, w)
	assert.Equal(t, 900, h)
}

func TestResizeImagePreservesAspectRatio(t *testing.T) {
	// a tall image is bounded by height, not squashed into the box
	resized, _, err := resizeImage(pngBytes(t, 1000, 2000))
	require.NoError(t, err)

	w, h := decodeSize(t, resized)
	assert.Equal(t, 900, h)
	assert.Equal(t, 450, w)
}

func TestResizeImageNeverUpscales(t *testing.T) {
	resized, format, err := resizeImage(pngBytes(t, 120, 80))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	w, h := decodeSize(t, resized)
	assert.Equal(t, 120, w)
	assert.Equal(t, 80, h)
}

func TestResizeImageRejectsGarbage(t *testing.T) {
	_, _, err := resizeImage([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestKeyExtension(t *testing.T) {
	assert.Equal(t, "jpg", keyExtension("jpeg"))
	assert.Equal(t, "png", keyExtension("png"))
	assert.Equal(t, "gif", keyExtension("gif"))
}
