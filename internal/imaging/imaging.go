// Package imaging shrinks uploaded photos before they are stored as
// request attachments.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	stddraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ErrTooLarge is returned when even the lowest quality exceeds MaxBytes.
var ErrTooLarge = errors.New("image too large after compression")

// ErrDecode is returned for image/* payloads that cannot be decoded.
var ErrDecode = errors.New("unable to decode image")

// Defaults used when Options fields are zero.
const (
	DefaultMaxWidth    = 1800
	DefaultTargetBytes = 250 * 1024
	DefaultMaxBytes    = 500 * 1024

	startQuality = 90
	minQuality   = 40
	qualityStep  = 10
)

// Options bound the output of Compress.
type Options struct {
	MaxWidth    int
	TargetBytes int
	MaxBytes    int
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.TargetBytes <= 0 {
		o.TargetBytes = DefaultTargetBytes
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.TargetBytes > o.MaxBytes {
		o.TargetBytes = o.MaxBytes
	}
	return o
}

// Result is the file to store.
type Result struct {
	Data        []byte
	ContentType string
	Filename    string

	// Compressed is false when the input was passed through untouched.
	Compressed bool
	Quality    int

	// Warning is set when the output is above the target but within MaxBytes.
	Warning string
}

// IsImage reports whether contentType names an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// Compress re-encodes images as JPEG, downscaled to MaxWidth, lowering the
// quality until the output fits TargetBytes. Non-image content is returned
// unchanged.
func Compress(data []byte, contentType, filename string, opts Options) (*Result, error) {
	if !IsImage(contentType) {
		return &Result{Data: data, ContentType: contentType, Filename: filename}, nil
	}
	opts = opts.withDefaults()

	src, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img := fit(src, opts.MaxWidth)

	var (
		out     bytes.Buffer
		quality int
	)
	for quality = startQuality; quality >= minQuality; quality -= qualityStep {
		out.Reset()
		if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		if out.Len() <= opts.TargetBytes {
			break
		}
	}
	if quality < minQuality {
		quality = minQuality
	}
	if out.Len() > opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, out.Len(), opts.MaxBytes)
	}

	res := &Result{
		Data:        out.Bytes(),
		ContentType: "image/jpeg",
		Filename:    jpegName(filename),
		Compressed:  true,
		Quality:     quality,
	}
	if out.Len() > opts.TargetBytes {
		res.Warning = fmt.Sprintf("image is %d KB after compression, above the %d KB target", out.Len()/1024, opts.TargetBytes/1024)
	}
	return res, nil
}

func decode(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err == nil {
		return img, nil
	}
	if decoded, webpErr := webp.Decode(bytes.NewReader(raw)); webpErr == nil {
		return decoded, nil
	}
	return nil, err
}

// fit scales src down to maxWidth and flattens it onto white, since JPEG has
// no alpha channel.
func fit(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, stddraw.Src)
	if w == b.Dx() && h == b.Dy() {
		stddraw.Draw(canvas, canvas.Bounds(), src, b.Min, stddraw.Over)
		return canvas
	}
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, b, stddraw.Over, nil)
	return canvas
}

func jpegName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.TrimSpace(base) == "" {
		base = "image"
	}
	return base + ".jpg"
}
