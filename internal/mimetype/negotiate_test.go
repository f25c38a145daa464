package mimetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "doc-composer/internal/common/errors"
)

var offered = []string{"application/pdf", "image/png", "text/html"}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name     string
		accept   string
		expected string
		wantErr  bool
	}{
		{name: "exact match", accept: "image/png", expected: "image/png"},
		{name: "wildcard takes first offer", accept: "*/*", expected: "application/pdf"},
		{name: "empty header accepts anything", accept: "", expected: "application/pdf"},
		{name: "subtype wildcard", accept: "image/*", expected: "image/png"},
		{
			name:     "quality factors decide",
			accept:   "text/html;q=0.5, image/png;q=0.9",
			expected: "image/png",
		},
		{
			name:     "browser style header",
			accept:   "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			expected: "text/html",
		},
		{name: "nothing acceptable", accept: "application/msword", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Negotiate(tt.accept, offered)
			if tt.wantErr {
				var unsupported *cerrors.UnsupportedMIMETypeError
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t,
					"No supported format in ACCEPT header: application/msword, "+
						"Available formats: application/pdf, image/png, text/html",
					err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
