// Package render holds the polymorphic renderer family: one variant per
// output MIME type, collected into an explicit registry built once at
// startup.
package render

import (
	"context"
	"fmt"
	"mime"

	cerrors "doc-composer/internal/common/errors"
)

// Output MIME types with a registered renderer variant.
const (
	PDFMIME  = "application/pdf"
	PNGMIME  = "image/png"
	HTMLMIME = "text/html"
)

// defaultDPI is the resolution raster output is laid out at when no target
// dimension is requested. Resolution multipliers scale from this baseline so
// fixing one axis keeps the other proportional.
const defaultDPI = 96.0

// Params are the optional per-request rendering parameters. Only the PNG
// variant accepts any of them; Width and Height are mutually exclusive.
type Params struct {
	Width  *int
	Height *int
	Page   *int
}

// Renderer converts composed HTML into final output bytes.
type Renderer interface {
	// Print renders the composed HTML according to the variant's MIME type.
	Print(ctx context.Context, html string) ([]byte, error)
	MIMEType() string
	FileExtension() string
}

// Factory builds a renderer variant for one request. Construction fails when
// the variant does not accept the given parameters.
type Factory func(params Params) (Renderer, error)

// Registry maps output MIME types to renderer factories. It is populated
// once at startup and read-only afterwards, so concurrent lookups need no
// locking.
type Registry struct {
	factories map[string]Factory
	mimeTypes []string
}

// NewRegistry builds the registry with every known renderer variant.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.register(PDFMIME, newPDFRenderer)
	r.register(PNGMIME, newPNGRenderer)
	r.register(HTMLMIME, newHTMLRenderer)
	return r
}

// register panics on a duplicate MIME type: two variants claiming one key is
// a programming error, not a request error.
func (r *Registry) register(mimeType string, factory Factory) {
	if _, dup := r.factories[mimeType]; dup {
		panic(fmt.Sprintf("render: duplicate renderer registration for %s", mimeType))
	}
	r.factories[mimeType] = factory
	r.mimeTypes = append(r.mimeTypes, mimeType)
}

// Get returns the factory for a MIME type.
func (r *Registry) Get(mimeType string) (Factory, error) {
	factory, ok := r.factories[mimeType]
	if !ok {
		return nil, &cerrors.RendererNotFoundError{MIMEType: mimeType}
	}
	return factory, nil
}

// Contains reports whether a renderer is registered for the MIME type.
func (r *Registry) Contains(mimeType string) bool {
	_, ok := r.factories[mimeType]
	return ok
}

// MIMETypes lists the registered output types in registration order.
func (r *Registry) MIMETypes() []string {
	out := make([]string, len(r.mimeTypes))
	copy(out, r.mimeTypes)
	return out
}

// canonical extensions; mime.ExtensionsByType ordering is platform-dependent.
var preferredExtensions = map[string]string{
	PDFMIME:  ".pdf",
	PNGMIME:  ".png",
	HTMLMIME: ".html",
}

// FileExtensionFor guesses a file extension for a MIME type.
func FileExtensionFor(mimeType string) string {
	if ext, ok := preferredExtensions[mimeType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
