package compose

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	cerrors "doc-composer/internal/common/errors"
)

// QRCodeType is the schema vocabulary extension marking string fields that
// must be rendered as QR images. For validation it behaves exactly like
// "string"; only the QR substituter gives it meaning.
const QRCodeType = "qr_code"

// ValidateSchema checks data against a template's JSON Schema under draft 7
// semantics. Returns a SchemaValidationError carrying the validator's
// explanation on mismatch.
func ValidateSchema(data map[string]interface{}, schema map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(normalizeQRTypes(schema))
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		// The schema itself failed to load, a template-authoring defect.
		return &cerrors.SchemaValidationError{Explanation: err.Error()}
	}

	if !result.Valid() {
		descriptions := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			descriptions[i] = desc.String()
		}
		return &cerrors.SchemaValidationError{Explanation: strings.Join(descriptions, "; ")}
	}

	return nil
}

// normalizeQRTypes rewrites every "type": "qr_code" occurrence to "string"
// so standard draft 7 validation applies. The original schema is left
// untouched.
func normalizeQRTypes(schema map[string]interface{}) map[string]interface{} {
	out, _ := rewriteQRValue(schema).(map[string]interface{})
	return out
}

func rewriteQRValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			if k == "type" {
				out[k] = rewriteQRType(inner)
				continue
			}
			out[k] = rewriteQRValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = rewriteQRValue(inner)
		}
		return out
	default:
		return v
	}
}

// rewriteQRType handles both the scalar form ("type": "qr_code") and the
// union form ("type": ["qr_code", "null"]).
func rewriteQRType(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if val == QRCodeType {
			return "string"
		}
		return val
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = rewriteQRType(inner)
		}
		return out
	default:
		return v
	}
}
