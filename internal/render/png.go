package render

import (
	"bytes"
	"context"
	"image/png"

	"github.com/gen2brain/go-fitz"

	cerrors "doc-composer/internal/common/errors"
)

// PNGRenderer rasterizes one page of the laid-out document. The page is
// selected at construction (default 0). At most one of width and height may
// be set; the other axis follows the page's aspect ratio by scaling the
// render resolution instead of stretching pixels.
type PNGRenderer struct {
	width  *int
	height *int
	page   int
}

func newPNGRenderer(params Params) (Renderer, error) {
	if params.Width != nil && params.Height != nil {
		return nil, &cerrors.AspectRatioCompromisedError{}
	}
	for _, dim := range []*int{params.Width, params.Height} {
		if dim != nil && *dim < 0 {
			return nil, &cerrors.NegativeNumberError{Value: *dim}
		}
	}
	page := 0
	if params.Page != nil {
		if *params.Page < 0 {
			return nil, &cerrors.NegativeNumberError{Value: *params.Page}
		}
		page = *params.Page
	}
	return &PNGRenderer{width: params.Width, height: params.Height, page: page}, nil
}

func (r *PNGRenderer) MIMEType() string { return PNGMIME }

func (r *PNGRenderer) FileExtension() string { return FileExtensionFor(PNGMIME) }

func (r *PNGRenderer) Print(ctx context.Context, html string) ([]byte, error) {
	pdf, err := layoutHTML(html)
	if err != nil {
		return nil, &cerrors.RenderError{Stage: "png layout", Err: err}
	}

	var pdfBuf bytes.Buffer
	if err := pdf.Output(&pdfBuf); err != nil {
		return nil, &cerrors.RenderError{Stage: "png layout output", Err: err}
	}

	doc, err := fitz.NewFromMemory(pdfBuf.Bytes())
	if err != nil {
		return nil, &cerrors.RenderError{Stage: "png open", Err: err}
	}
	defer doc.Close()

	if max := doc.NumPage() - 1; r.page > max {
		return nil, &cerrors.InvalidPageNumberError{Page: r.page, MaxPage: max}
	}

	dpi, err := r.resolution(doc)
	if err != nil {
		return nil, err
	}

	img, err := doc.ImageDPI(r.page, dpi)
	if err != nil {
		return nil, &cerrors.RenderError{Stage: "png rasterize", Err: err}
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, &cerrors.RenderError{Stage: "png encode", Err: err}
	}
	return out.Bytes(), nil
}

// resolution derives the render DPI from the requested dimension. Page
// bounds are in PDF points (72 per inch); the natural pixel size is what
// the page measures at the baseline DPI, and the requested dimension sets a
// multiplier on that baseline.
func (r *PNGRenderer) resolution(doc *fitz.Document) (float64, error) {
	if r.width == nil && r.height == nil {
		return defaultDPI, nil
	}

	bounds, err := doc.Bound(r.page)
	if err != nil {
		return 0, &cerrors.RenderError{Stage: "png bounds", Err: err}
	}

	if r.width != nil {
		natural := float64(bounds.Dx()) * defaultDPI / 72.0
		return defaultDPI * float64(*r.width) / natural, nil
	}
	natural := float64(bounds.Dy()) * defaultDPI / 72.0
	return defaultDPI * float64(*r.height) / natural, nil
}
