// Package imaging recompresses uploaded photos before they are stored.
// Every accepted image is bounded to a maximum edge length and re-encoded
// as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/vbonduro/traincheck/internal/domain"
)

// OutputMIME is the type of every compressed photo.
const OutputMIME = "image/jpeg"

const (
	DefaultMaxDimension = 1920
	DefaultQuality      = 80

	// MaxPixels bounds the decoded size of an upload. The decoders allocate
	// the full frame from the header before reading any pixel data.
	MaxPixels = 64 << 20
)

// ErrUnsupported is returned for data that is not an accepted image format.
var ErrUnsupported = fmt.Errorf("%w: unsupported image format", domain.ErrInvalidInput)

// ErrTooLarge is returned for images whose header declares more than MaxPixels.
var ErrTooLarge = fmt.Errorf("%w: image dimensions too large", domain.ErrInvalidInput)

var acceptedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Options struct {
	MaxDimension int
	Quality      int
}

func DefaultOptions() Options {
	return Options{MaxDimension: DefaultMaxDimension, Quality: DefaultQuality}
}

func (o Options) normalized() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// DetectMIME sniffs data and returns its type when it is an accepted image.
func DetectMIME(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	detected := mimetype.Detect(data)
	for _, t := range acceptedTypes {
		if detected.Is(t) {
			return t, true
		}
	}
	return "", false
}

// Compress decodes data, scales it so neither edge exceeds MaxDimension and
// encodes it as JPEG. Transparent areas are flattened onto white.
func Compress(data []byte, opts Options) ([]byte, error) {
	opts = opts.normalized()

	if _, ok := DetectMIME(data); !ok {
		return nil, ErrUnsupported
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupported)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	bounds := src.Bounds()
	width, height := fit(bounds.Dx(), bounds.Dy(), opts.MaxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fit returns the dimensions scaled down proportionally so the longer edge is
// at most maxDim. Images already within bounds are returned unchanged.
func fit(width, height, maxDim int) (int, int) {
	longest := max(width, height)
	if longest <= maxDim {
		return width, height
	}
	scale := float64(maxDim) / float64(longest)
	w := max(1, int(float64(width)*scale+0.5))
	h := max(1, int(float64(height)*scale+0.5))
	return w, h
}
