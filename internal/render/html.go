package render

import (
	"context"

	cerrors "doc-composer/internal/common/errors"
)

// HTMLRenderer passes the composed HTML through unchanged, UTF-8 encoded.
// Useful for debugging template bodies without a layout round-trip.
type HTMLRenderer struct{}

func newHTMLRenderer(params Params) (Renderer, error) {
	if params.Width != nil || params.Height != nil {
		return nil, &cerrors.ResizingUnsupportedError{MIMEType: HTMLMIME}
	}
	if params.Page != nil {
		return nil, &cerrors.SinglePageUnsupportedError{MIMEType: HTMLMIME}
	}
	return &HTMLRenderer{}, nil
}

func (r *HTMLRenderer) MIMEType() string { return HTMLMIME }

func (r *HTMLRenderer) FileExtension() string { return FileExtensionFor(HTMLMIME) }

func (r *HTMLRenderer) Print(ctx context.Context, html string) ([]byte, error) {
	return []byte(html), nil
}
