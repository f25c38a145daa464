// Package errors defines the request-scoped error taxonomy of the compose
// pipeline and its mapping onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// SchemaValidationError is returned when compose input data does not conform
// to the template's JSON Schema. Explanation carries the validator's output.
type SchemaValidationError struct {
	Explanation string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("Invalid compose json: %s", e.Explanation)
}

// TemplateNotFoundError is returned when a template id is unknown, either to
// the metadata store or to the template body storage.
type TemplateNotFoundError struct {
	TemplateID string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("Template '%s' not found", e.TemplateID)
}

// RendererNotFoundError is returned by the registry when no renderer variant
// is registered for a MIME type.
type RendererNotFoundError struct {
	MIMEType string
}

func (e *RendererNotFoundError) Error() string {
	return fmt.Sprintf("No renderer registered for MIME type: %s", e.MIMEType)
}

// UnsupportedMIMETypeError is returned when content negotiation finds no
// registered renderer matching the Accept header.
type UnsupportedMIMETypeError struct {
	Accept    string
	Available []string
}

func (e *UnsupportedMIMETypeError) Error() string {
	return fmt.Sprintf("No supported format in ACCEPT header: %s, Available formats: %s",
		e.Accept, strings.Join(e.Available, ", "))
}

// ResizingUnsupportedError is returned when width or height is requested for
// a non-raster output format.
type ResizingUnsupportedError struct {
	MIMEType string
}

func (e *ResizingUnsupportedError) Error() string {
	return fmt.Sprintf("Resizing unsupported on provided mime_type: %s", e.MIMEType)
}

// SinglePageUnsupportedError is returned when a page index is requested for
// an output format that is not paginated.
type SinglePageUnsupportedError struct {
	MIMEType string
}

func (e *SinglePageUnsupportedError) Error() string {
	return fmt.Sprintf("Single page printing unsupported on provided mime_type: %s", e.MIMEType)
}

// AspectRatioCompromisedError is returned when both width and height are
// requested. Resizing anchors on exactly one axis so the other stays
// proportional.
type AspectRatioCompromisedError struct{}

func (e *AspectRatioCompromisedError) Error() string {
	return "Specifying both width and height compromises the template's aspect ratio"
}

// NegativeNumberError is returned when the requested page index is negative.
type NegativeNumberError struct {
	Value int
}

func (e *NegativeNumberError) Error() string {
	return fmt.Sprintf("A negative number is not allowed: %d", e.Value)
}

// InvalidPageNumberError is returned when the requested page index exceeds
// the laid-out document's page count.
type InvalidPageNumberError struct {
	Page    int
	MaxPage int
}

func (e *InvalidPageNumberError) Error() string {
	return fmt.Sprintf("Page number (%d) is larger than the maximum page number (%d)", e.Page, e.MaxPage)
}

// QRPathError reports a qr_entries path expression that cannot be evaluated
// against the compose data, e.g. a traversal through a non-object value.
// This is a template-authoring defect, not a request error.
type QRPathError struct {
	Path   string
	Reason string
}

func (e *QRPathError) Error() string {
	return fmt.Sprintf("invalid qr_entries path %q: %s", e.Path, e.Reason)
}

// RenderError wraps unexpected failures from the underlying document engine.
// These are outside the named taxonomy and surface as internal errors.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed during %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps a pipeline error onto the HTTP status the API layer emits:
// not-found 404, unsupported MIME 406, caller input errors 400, everything
// else 500.
func HTTPStatus(err error) int {
	var (
		notFound    *TemplateNotFoundError
		noRenderer  *RendererNotFoundError
		unsupported *UnsupportedMIMETypeError
		validation  *SchemaValidationError
		resizing    *ResizingUnsupportedError
		singlePage  *SinglePageUnsupportedError
		aspectRatio *AspectRatioCompromisedError
		negative    *NegativeNumberError
		invalidPage *InvalidPageNumberError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &noRenderer), errors.As(err, &unsupported):
		return http.StatusNotAcceptable
	case errors.As(err, &validation),
		errors.As(err, &resizing),
		errors.As(err, &singlePage),
		errors.As(err, &aspectRatio),
		errors.As(err, &negative),
		errors.As(err, &invalidPage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
