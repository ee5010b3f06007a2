package preview

import (
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/pkg/errors"
)

// Fitz rasterizes with MuPDF.
type Fitz struct{}

// FirstPage renders page 1 at the resolution that makes it width pixels wide.
func (Fitz) FirstPage(content []byte, width int) (image.Image, error) {
	if width <= 0 {
		return nil, errors.Errorf("invalid width %d", width)
	}
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, errors.Wrap(err, "open pdf")
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, errors.New("pdf has no pages")
	}
	// Bound is reported at 72 dpi, i.e. in points.
	bound, err := doc.Bound(0)
	if err != nil {
		return nil, errors.Wrap(err, "page bounds")
	}
	if bound.Dx() <= 0 || bound.Dy() <= 0 {
		return nil, errors.Errorf("page 1 has no area: %v", bound)
	}

	dpi := 72 * float64(width) / float64(bound.Dx())
	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return nil, errors.Wrap(err, "render page 1")
	}
	return img, nil
}
