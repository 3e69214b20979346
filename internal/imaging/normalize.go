package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WEBP decoder
)

var (
	// ErrUnsupportedFormat means the payload is a recognized but
	// unsupported format (PDF). Caller's fault, 4xx-equivalent.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDecode means the payload claimed to be an image but could not
	// be decoded (corrupt bytes, unknown codec).
	ErrDecode = errors.New("image decode failed")
)

const (
	// MaxDimensionPx bounds the larger axis of a normalized image.
	MaxDimensionPx = 1500

	// MaxEncodedBytes is the target ceiling for the encoded payload.
	MaxEncodedBytes = 3 * 1024 * 1024
)

// qualityLadder is the bounded recompression policy: encode at 85, and
// if the result still exceeds the byte ceiling try exactly once more at
// 50. No further iteration.
var qualityLadder = [2]int{85, 50}

// Limits bounds the normalized output. Zero values fall back to the
// package defaults, so callers without configuration pass Limits{}.
type Limits struct {
	MaxDimensionPx  int
	MaxEncodedBytes int
}

func (l Limits) withDefaults() Limits {
	if l.MaxDimensionPx <= 0 {
		l.MaxDimensionPx = MaxDimensionPx
	}
	if l.MaxEncodedBytes <= 0 {
		l.MaxEncodedBytes = MaxEncodedBytes
	}
	return l
}

// NormalizedImage is a receipt image guaranteed to be opaque-RGB JPEG
// with both axes within the dimension bound and size within the byte
// ceiling, or the best effort after the second recompression attempt.
type NormalizedImage struct {
	Bytes     []byte
	MediaType string
	Width     int
	Height    int
	Attempts  int // encode passes taken (1 or 2)
}

// Normalize sniffs, decodes, flattens to opaque RGB, downsizes, and
// recompresses raw upload bytes into the canonical JPEG form.
func Normalize(data []byte, lim Limits) (*NormalizedImage, error) {
	lim = lim.withDefaults()

	if Sniff(data) == PDF {
		return nil, fmt.Errorf("%w: PDF files are not supported, upload an image (JPG, PNG, WEBP)", ErrUnsupportedFormat)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img := toOpaqueRGB(src)
	img = downscale(img, lim.MaxDimensionPx)

	b := img.Bounds()
	out := &NormalizedImage{
		MediaType: string(JPEG),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	for _, q := range qualityLadder {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("%w: jpeg encode: %v", ErrDecode, err)
		}
		out.Bytes = buf.Bytes()
		out.Attempts++
		if len(out.Bytes) <= lim.MaxEncodedBytes {
			break
		}
	}
	return out, nil
}

// toOpaqueRGB flattens any source color model (RGBA, paletted, gray,
// YCbCr) onto a fully opaque RGB raster.
func toOpaqueRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// downscale resizes so the larger axis equals exactly maxDim, preserving
// aspect ratio, using Catmull-Rom resampling. Images already within
// bounds are returned unchanged.
func downscale(img *image.RGBA, maxDim int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	var tw, th int
	if w >= h {
		tw = maxDim
		th = int(math.Round(float64(h) * float64(maxDim) / float64(w)))
	} else {
		th = maxDim
		tw = int(math.Round(float64(w) * float64(maxDim) / float64(h)))
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
