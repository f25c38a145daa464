package compose

import (
	"fmt"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"doc-composer/internal/models"
)

const defaultQRSize = 256 // pixels, square

// QRSubstituter renders compose-data values flagged in the template's
// qr_entries metadata as QR code images.
type QRSubstituter struct {
	level qrcode.RecoveryLevel
	size  int
}

func NewQRSubstituter() *QRSubstituter {
	return &QRSubstituter{level: qrcode.Medium, size: defaultQRSize}
}

// EmbedQRCodes walks the template's qr_entries paths, writes a PNG QR image
// for each present, non-nil value into scratchDir and rewrites the value at
// that path to the image's filesystem path. Absent or nil values are skipped
// silently; the schema decides whether such fields are required, not this
// stage. The input map is mutated in place and returned.
//
// File names are the ordinal index of the entry ("0.png", "1.png", ...) so
// repeated compositions of one template are deterministic.
func (q *QRSubstituter) EmbedQRCodes(scratchDir string, template *models.TemplateDefinition, data map[string]interface{}) (map[string]interface{}, error) {
	for i, path := range template.QREntries() {
		value, found, err := lookupPath(data, path)
		if err != nil {
			return nil, err
		}
		if !found || value == nil {
			continue
		}

		payload, ok := value.(string)
		if !ok {
			payload = fmt.Sprint(value)
		}

		imagePath := filepath.Join(scratchDir, fmt.Sprintf("%d.png", i))
		if err := qrcode.WriteFile(payload, q.level, q.size, imagePath); err != nil {
			return nil, fmt.Errorf("generating QR image for %q: %w", path, err)
		}

		if err := setPath(data, path, imagePath); err != nil {
			return nil, err
		}
	}

	return data, nil
}
