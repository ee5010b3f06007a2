package merge

import (
	"bytes"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"

	"github.com/bradsaid/pdf-merger/internal/collection"
	"github.com/bradsaid/pdf-merger/internal/imaging"
)

// PDFCPU is the pdfcpu backed Backend. Image pages are PageWidth x
// PageHeight points with the image fitted and centered.
type PDFCPU struct {
	PageWidth  float64
	PageHeight float64
}

// NewPDFCPU returns a backend producing image pages of the given size in points.
func NewPDFCPU(pageWidth, pageHeight float64) *PDFCPU {
	return &PDFCPU{PageWidth: pageWidth, PageHeight: pageHeight}
}

func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.MERGECREATE
	conf.ValidationMode = model.ValidationRelaxed
	conf.CreateBookmarks = false
	return conf
}

type pdfDoc struct {
	ctx *model.Context
}

func (d *pdfDoc) PageCount() int { return d.ctx.PageCount }

// LoadPDF implements Backend.
func (p *PDFCPU) LoadPDF(content []byte) (Document, error) {
	ctx, err := api.ReadAndValidate(bytes.NewReader(content), newConf())
	if err != nil {
		return nil, errors.Wrap(err, "read pdf")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, errors.Wrap(err, "count pages")
	}
	if ctx.PageCount < 1 {
		return nil, errors.New("pdf has no pages")
	}
	return &pdfDoc{ctx: ctx}, nil
}

// ImagePage implements Backend. JPEG and PNG data is embedded as is, other
// formats are transcoded to PNG first. The declared type is not trusted.
func (p *PDFCPU) ImagePage(content []byte, _ collection.MediaType) (Document, error) {
	format, _, err := imaging.Sniff(content)
	if err != nil {
		return nil, err
	}
	data := content
	if format != imaging.JPEG && format != imaging.PNG {
		if data, err = imaging.ToPNG(content); err != nil {
			return nil, err
		}
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: p.PageWidth, Height: p.PageHeight}
	imp.PageSize = ""
	imp.UserDim = true
	imp.Pos = types.Center
	imp.Scale = 1.0

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(data)}, imp, model.NewDefaultConfiguration()); err != nil {
		return nil, errors.Wrapf(err, "import %s image", format)
	}
	return p.LoadPDF(buf.Bytes())
}

// NewAssembly implements Backend.
func (p *PDFCPU) NewAssembly() Assembly { return &pdfAssembly{} }

// pdfAssembly adopts the first document as the destination and merges every
// later document's object graph into it.
type pdfAssembly struct {
	dest *model.Context
	n    int
}

func (a *pdfAssembly) Append(doc Document) error {
	d, ok := doc.(*pdfDoc)
	if !ok {
		return errors.Errorf("unexpected document type %T", doc)
	}
	a.n++
	if a.dest == nil {
		if d.ctx.XRefTable.Version() < model.V20 {
			d.ctx.EnsureVersionForWriting()
		}
		a.dest = d.ctx
		return nil
	}
	if a.dest.XRefTable.Version() < model.V20 && d.ctx.XRefTable.Version() == model.V20 {
		return pdfcpu.ErrUnsupportedVersion
	}
	return pdfcpu.MergeXRefTables(strconv.Itoa(a.n), d.ctx, a.dest, false, false)
}

func (a *pdfAssembly) PageCount() int {
	if a.dest == nil {
		return 0
	}
	return a.dest.PageCount
}

func (a *pdfAssembly) Write(w io.Writer) error {
	if a.dest == nil {
		return errors.New("nothing to write")
	}
	return api.WriteContext(a.dest, w)
}
