package render

import (
	"bytes"
	"context"

	cerrors "doc-composer/internal/common/errors"
)

// PDFRenderer lays composed HTML out into a paginated A4 PDF. It is the
// default output type and accepts no rendering parameters.
type PDFRenderer struct{}

func newPDFRenderer(params Params) (Renderer, error) {
	if params.Width != nil || params.Height != nil {
		return nil, &cerrors.ResizingUnsupportedError{MIMEType: PDFMIME}
	}
	if params.Page != nil {
		return nil, &cerrors.SinglePageUnsupportedError{MIMEType: PDFMIME}
	}
	return &PDFRenderer{}, nil
}

func (r *PDFRenderer) MIMEType() string { return PDFMIME }

func (r *PDFRenderer) FileExtension() string { return FileExtensionFor(PDFMIME) }

func (r *PDFRenderer) Print(ctx context.Context, html string) ([]byte, error) {
	pdf, err := layoutHTML(html)
	if err != nil {
		return nil, &cerrors.RenderError{Stage: "pdf layout", Err: err}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &cerrors.RenderError{Stage: "pdf output", Err: err}
	}
	return buf.Bytes(), nil
}
