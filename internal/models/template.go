// Package models holds the domain records shared across the service.
package models

// TemplateDefinition describes a registered document template: its JSON
// Schema for compose input, the MIME type of the template body itself
// (currently always an HTML variant), free-form owner metadata, discovery
// tags and an example composition payload.
//
// Recognized metadata keys:
//
//	qr_entries — ordered list of dot-separated paths into the compose data
//	whose values must be rendered as QR images, e.g.
//	"course.organization.contact.website_url".
type TemplateDefinition struct {
	ID                 string                 `json:"title"`
	Schema             map[string]interface{} `json:"schema"`
	Type               string                 `json:"type"`
	Metadata           map[string]interface{} `json:"metadata"`
	ExampleComposition map[string]interface{} `json:"example_composition"`
	Tags               []string               `json:"tags"`
}

// QREntries returns the qr_entries metadata list, empty when absent.
// Tolerates both []string and the []interface{} shape produced by JSON
// decoding.
func (t *TemplateDefinition) QREntries() []string {
	if t.Metadata == nil {
		return nil
	}
	raw, ok := t.Metadata["qr_entries"]
	if !ok {
		return nil
	}

	switch entries := raw.(type) {
	case []string:
		return entries
	case []interface{}:
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
