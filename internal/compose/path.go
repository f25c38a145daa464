package compose

import (
	"fmt"
	"strings"

	cerrors "doc-composer/internal/common/errors"
)

// lookupPath resolves a dot-separated path ("a.b.c") against nested JSON
// objects. A missing key anywhere along the path yields found=false; a
// traversal step through a non-object value is a path-expression defect and
// returns a QRPathError. Arrays are not addressable.
func lookupPath(data map[string]interface{}, path string) (value interface{}, found bool, err error) {
	keys := strings.Split(path, ".")
	current := data

	for i, key := range keys {
		if key == "" {
			return nil, false, &cerrors.QRPathError{Path: path, Reason: "empty path segment"}
		}

		raw, ok := current[key]
		if !ok {
			return nil, false, nil
		}

		if i == len(keys)-1 {
			return raw, true, nil
		}

		next, ok := raw.(map[string]interface{})
		if !ok {
			return nil, false, &cerrors.QRPathError{
				Path:   path,
				Reason: fmt.Sprintf("segment %q resolves to %T, expected an object", key, raw),
			}
		}
		current = next
	}

	return nil, false, nil
}

// setPath overwrites the value at a dot-separated path. Every intermediate
// segment must already exist as an object; setPath never creates structure.
func setPath(data map[string]interface{}, path string, value interface{}) error {
	keys := strings.Split(path, ".")
	current := data

	for _, key := range keys[:len(keys)-1] {
		raw, ok := current[key]
		if !ok {
			return &cerrors.QRPathError{Path: path, Reason: fmt.Sprintf("segment %q not found", key)}
		}
		next, ok := raw.(map[string]interface{})
		if !ok {
			return &cerrors.QRPathError{
				Path:   path,
				Reason: fmt.Sprintf("segment %q resolves to %T, expected an object", key, raw),
			}
		}
		current = next
	}

	current[keys[len(keys)-1]] = value
	return nil
}

// deepCopyObject clones a JSON-like tree so QR substitution never mutates
// the caller's request data.
func deepCopyObject(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}
	return dst
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return deepCopyObject(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return val
	}
}
