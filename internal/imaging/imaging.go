// Package imaging registers the image decoders the merger accepts and holds
// the small geometry and transcoding helpers shared by previews and merging.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"

	_ "github.com/hhrutter/tiff"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Format names as reported by image.DecodeConfig.
const (
	JPEG = "jpeg"
	PNG  = "png"
)

// ErrUnknownFormat is returned when no registered decoder recognizes the data.
var ErrUnknownFormat = errors.New("unknown image format")

// Sniff reports the actual encoding of data and its pixel dimensions.
func Sniff(data []byte) (string, image.Config, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", image.Config{}, ErrUnknownFormat
		}
		return "", image.Config{}, errors.Wrap(err, "decode image config")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", image.Config{}, errors.Errorf("image has no area: %dx%d", cfg.Width, cfg.Height)
	}
	return format, cfg, nil
}

// Decode decodes the first frame of data.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnknownFormat
		}
		return nil, "", errors.Wrap(err, "decode image")
	}
	return img, format, nil
}

// ToPNG re-encodes the first frame of data as PNG.
func ToPNG(data []byte) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// FitRect returns the rectangle of a w x h source scaled to fit inside box,
// aspect ratio preserved, centered on both axes. Sources smaller than the box
// are scaled up.
func FitRect(w, h int, box image.Rectangle) image.Rectangle {
	if w <= 0 || h <= 0 || box.Empty() {
		return image.Rectangle{}
	}
	bw, bh := float64(box.Dx()), float64(box.Dy())
	scale := math.Min(bw/float64(w), bh/float64(h))
	sw := int(math.Round(float64(w) * scale))
	sh := int(math.Round(float64(h) * scale))
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	x := box.Min.X + (box.Dx()-sw)/2
	y := box.Min.Y + (box.Dy()-sh)/2
	return image.Rect(x, y, x+sw, y+sh)
}

// Fit draws src scaled into a fresh width x height canvas. Pixels outside
// the scaled image stay fully transparent.
func Fit(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	b := src.Bounds()
	r := FitRect(b.Dx(), b.Dy(), dst.Bounds())
	if r.Empty() {
		return dst
	}
	draw.CatmullRom.Scale(dst, r, src, b, draw.Over, nil)
	return dst
}

// ScaleToWidth resamples src to exactly width pixels wide, keeping the aspect
// ratio. src is returned unchanged when it already has that width.
func ScaleToWidth(src image.Image, width int) image.Image {
	b := src.Bounds()
	if b.Dx() == width || b.Dx() <= 0 || width <= 0 {
		return src
	}
	h := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
