package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/traincheck/internal/domain"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantMIME string
		wantOK   bool
	}{
		{name: "JPEG", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, wantMIME: "image/jpeg", wantOK: true},
		{name: "PNG", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, wantMIME: "image/png", wantOK: true},
		{name: "GIF", data: []byte("GIF89a"), wantMIME: "image/gif", wantOK: true},
		{name: "WebP", data: append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), make([]byte, 10)...), wantMIME: "image/webp", wantOK: true},
		{name: "RIFF but not WebP", data: append([]byte("RIFF\x00\x00\x00\x00WAVEfmt "), make([]byte, 10)...), wantOK: false},
		{name: "PDF disguised as image", data: []byte("%PDF-1.4 malicious content"), wantOK: false},
		{name: "empty", data: []byte{}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMIME, gotOK := DetectMIME(tt.data)
			assert.Equal(t, tt.wantOK, gotOK)
			assert.Equal(t, tt.wantMIME, gotMIME)
		})
	}
}

func TestCompress_ScalesDownLargeImage(t *testing.T) {
	out, err := Compress(encodePNG(t, 400, 200), Options{MaxDimension: 100, Quality: 70})
	require.NoError(t, err)

	mime, ok := DetectMIME(out)
	require.True(t, ok)
	assert.Equal(t, OutputMIME, mime)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestCompress_KeepsSmallImageSize(t *testing.T) {
	out, err := Compress(encodePNG(t, 40, 30), DefaultOptions())
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestCompress_RejectsNonImage(t *testing.T) {
	_, err := Compress([]byte("%PDF-1.4 not a photo"), DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompress_RejectsCorruptImage(t *testing.T) {
	corrupt := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	_, err := Compress(corrupt, DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupported)
}

// withDimensions rewrites the IHDR chunk of a PNG so its header declares
// w x h pixels while the image data stays tiny.
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(data[12:16]))
	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestCompress_RejectsOversizedDimensions(t *testing.T) {
	small := encodePNG(t, 2, 2)

	tests := []struct {
		name string
		w, h uint32
	}{
		{name: "just over the pixel cap", w: 8193, h: 8193},
		{name: "forty thousand square", w: 40000, h: 40000},
		{name: "one very long edge", w: 1 << 30, h: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forged := withDimensions(t, small, tt.w, tt.h)

			cfg, err := png.DecodeConfig(bytes.NewReader(forged))
			require.NoError(t, err)
			require.Equal(t, int(tt.w), cfg.Width)

			_, err = Compress(forged, DefaultOptions())
			assert.ErrorIs(t, err, ErrTooLarge)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{name: "within bounds", w: 800, h: 600, max: 1920, wantW: 800, wantH: 600},
		{name: "landscape", w: 3840, h: 2160, max: 1920, wantW: 1920, wantH: 1080},
		{name: "portrait", w: 1000, h: 4000, max: 1000, wantW: 250, wantH: 1000},
		{name: "thin strip", w: 5000, h: 1, max: 100, wantW: 100, wantH: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fit(tt.w, tt.h, tt.max)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}
