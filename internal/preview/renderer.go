// Package preview renders thumbnails for pending files and tracks their
// state by file identity.
package preview

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/bradsaid/pdf-merger/internal/collection"
	"github.com/bradsaid/pdf-merger/internal/imaging"
)

// Renderer produces the thumbnail bitmap for one file.
type Renderer interface {
	Render(ctx context.Context, f collection.PendingFile) (image.Image, error)
}

// Rasterizer draws page 1 of a PDF at approximately width pixels.
type Rasterizer interface {
	FirstPage(content []byte, width int) (image.Image, error)
}

// Options sizes thumbnails and bounds the render pool.
type Options struct {
	BoxWidth  int // image thumbnail canvas
	BoxHeight int
	PDFWidth  int // PDF thumbnails are exactly this wide, height follows the page
	Workers   int
}

// DefaultOptions matches the list view's 100x130 thumbnail box.
func DefaultOptions() Options {
	return Options{BoxWidth: 100, BoxHeight: 130, PDFWidth: 100, Workers: 4}
}

// PageRenderer renders PDFs through a Rasterizer and images through the
// registered image decoders.
type PageRenderer struct {
	raster Rasterizer
	opts   Options
}

// NewRenderer returns a PageRenderer.
func NewRenderer(raster Rasterizer, opts Options) *PageRenderer {
	return &PageRenderer{raster: raster, opts: opts}
}

// Render implements Renderer.
func (r *PageRenderer) Render(ctx context.Context, f collection.PendingFile) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Type == collection.PDF {
		if r.raster == nil {
			return nil, errors.New("no pdf rasterizer configured")
		}
		img, err := r.raster.FirstPage(f.Content, r.opts.PDFWidth)
		if err != nil {
			return nil, errors.Wrapf(err, "rasterize %s", f.Name)
		}
		return imaging.ScaleToWidth(img, r.opts.PDFWidth), nil
	}

	img, _, err := imaging.Decode(f.Content)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.Name)
	}
	return imaging.Fit(img, r.opts.BoxWidth, r.opts.BoxHeight), nil
}
