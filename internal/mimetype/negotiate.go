// Package mimetype resolves an HTTP Accept header against the output types
// the renderer registry offers.
package mimetype

import (
	"github.com/munnerz/goautoneg"

	cerrors "doc-composer/internal/common/errors"
)

// Negotiate picks the best offered MIME type for an Accept header,
// honouring quality factors and wildcards per RFC 2616 section 14.1. An
// empty header accepts anything, so the first offer wins. Returns an
// UnsupportedMIMETypeError when nothing offered satisfies the header.
func Negotiate(acceptHeader string, offered []string) (string, error) {
	if acceptHeader == "" {
		acceptHeader = "*/*"
	}
	match := goautoneg.Negotiate(acceptHeader, offered)
	if match == "" {
		return "", &cerrors.UnsupportedMIMETypeError{Accept: acceptHeader, Available: offered}
	}
	return match, nil
}
