package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "doc-composer/internal/common/errors"
)

func nestedData() map[string]interface{} {
	return map[string]interface{}{
		"plain": "text",
		"course": map[string]interface{}{
			"name": "Go 101",
			"organization": map[string]interface{}{
				"contact": map[string]interface{}{
					"website_url": "https://example.org",
				},
			},
		},
	}
}

func TestLookupPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected interface{}
		found    bool
		wantErr  bool
	}{
		{name: "top level key", path: "plain", expected: "text", found: true},
		{name: "deeply nested key", path: "course.organization.contact.website_url", expected: "https://example.org", found: true},
		{name: "missing top level key", path: "absent", found: false},
		{name: "missing nested key", path: "course.absent.deeper", found: false},
		{name: "traversal through scalar", path: "plain.deeper", wantErr: true},
		{name: "empty segment", path: "course..name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, found, err := lookupPath(nestedData(), tt.path)
			if tt.wantErr {
				var pathErr *cerrors.QRPathError
				require.ErrorAs(t, err, &pathErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestSetPath(t *testing.T) {
	t.Run("overwrites nested value", func(t *testing.T) {
		data := nestedData()
		err := setPath(data, "course.organization.contact.website_url", "/tmp/0.png")
		require.NoError(t, err)

		value, found, err := lookupPath(data, "course.organization.contact.website_url")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "/tmp/0.png", value)
	})

	t.Run("never creates structure", func(t *testing.T) {
		data := nestedData()
		err := setPath(data, "course.absent.deeper", "x")
		var pathErr *cerrors.QRPathError
		require.ErrorAs(t, err, &pathErr)
		_, ok := data["course"].(map[string]interface{})["absent"]
		assert.False(t, ok)
	})
}

func TestDeepCopyObject(t *testing.T) {
	original := nestedData()
	clone := deepCopyObject(original)

	require.NoError(t, setPath(clone, "course.name", "changed"))

	value, _, err := lookupPath(original, "course.name")
	require.NoError(t, err)
	assert.Equal(t, "Go 101", value, "mutating the clone must not touch the original")
}
