package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func noise(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompress_PassesThroughNonImages(t *testing.T) {
	data := []byte("%PDF-1.7 invoice")
	res, err := Compress(data, "application/pdf", "faktura.pdf", Options{})
	require.NoError(t, err)
	assert.Equal(t, data, res.Data)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Equal(t, "faktura.pdf", res.Filename)
	assert.False(t, res.Compressed)
}

func TestCompress_DownscalesLargeImage(t *testing.T) {
	data := encodePNG(t, gradient(3600, 2400))

	res, err := Compress(data, "image/png", "uctenka.png", Options{})
	require.NoError(t, err)
	assert.True(t, res.Compressed)
	assert.Equal(t, "image/jpeg", res.ContentType)
	assert.Equal(t, "uctenka.jpg", res.Filename)
	assert.LessOrEqual(t, len(res.Data), DefaultMaxBytes)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxWidth, cfg.Width)
	assert.Equal(t, 1200, cfg.Height)
}

func TestCompress_KeepsSmallDimensions(t *testing.T) {
	data := encodePNG(t, gradient(640, 480))

	res, err := Compress(data, "image/png", "scan", Options{})
	require.NoError(t, err)
	assert.Equal(t, "scan.jpg", res.Filename)
	assert.Equal(t, startQuality, res.Quality)
	assert.Empty(t, res.Warning)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
}

func TestCompress_WarnsAboveTarget(t *testing.T) {
	data := encodePNG(t, noise(400, 400))

	res, err := Compress(data, "image/png", "noise.png", Options{TargetBytes: 100, MaxBytes: 10 << 20})
	require.NoError(t, err)
	assert.Equal(t, minQuality, res.Quality)
	assert.NotEmpty(t, res.Warning)
}

func TestCompress_RejectsTooLarge(t *testing.T) {
	data := encodePNG(t, noise(600, 600))

	_, err := Compress(data, "image/png", "noise.png", Options{TargetBytes: 500, MaxBytes: 1000})
	assert.True(t, errors.Is(err, ErrTooLarge), "got %v", err)
}

func TestCompress_DefaultNoiseStaysBounded(t *testing.T) {
	data := encodePNG(t, noise(2400, 1600))

	res, err := Compress(data, "image/png", "noise.png", Options{})
	if err != nil {
		assert.True(t, errors.Is(err, ErrTooLarge), "got %v", err)
		return
	}
	assert.LessOrEqual(t, len(res.Data), DefaultMaxBytes)
}

func TestCompress_LargePhoto(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(5000, 5000), &jpeg.Options{Quality: 95}))

	res, err := Compress(buf.Bytes(), "image/jpeg", "fotka.jpeg", Options{})
	if err != nil {
		assert.True(t, errors.Is(err, ErrTooLarge), "got %v", err)
		return
	}
	assert.LessOrEqual(t, len(res.Data), DefaultMaxBytes)
	assert.Equal(t, "fotka.jpg", res.Filename)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxWidth, cfg.Width)
	assert.Equal(t, DefaultMaxWidth, cfg.Height)
}

func TestCompress_UndecodableImage(t *testing.T) {
	_, err := Compress([]byte("not an image"), "image/jpeg", "x.jpg", Options{})
	assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
}

func TestJpegName(t *testing.T) {
	tests := map[string]string{
		"photo.HEIC":  "photo.jpg",
		"a.b.png":     "a.b.jpg",
		"":            "image.jpg",
		".png":        "image.jpg",
		"already.jpg": "already.jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, jpegName(in), in)
	}
}
