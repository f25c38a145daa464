package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-composer/internal/models"
)

func qrTemplate(entries ...interface{}) *models.TemplateDefinition {
	return &models.TemplateDefinition{
		ID:   "cert",
		Type: "text/html",
		Metadata: map[string]interface{}{
			"qr_entries": entries,
		},
	}
}

func TestEmbedQRCodes(t *testing.T) {
	t.Run("substitutes value with image path", func(t *testing.T) {
		scratch := t.TempDir()
		data := map[string]interface{}{
			"course": map[string]interface{}{
				"url": "https://example.org/course/42",
			},
		}

		result, err := NewQRSubstituter().EmbedQRCodes(scratch, qrTemplate("course.url"), data)
		require.NoError(t, err)

		value, found, err := lookupPath(result, "course.url")
		require.NoError(t, err)
		require.True(t, found)

		imagePath, ok := value.(string)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(scratch, "0.png"), imagePath)

		info, err := os.Stat(imagePath)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	})

	t.Run("numbers images by entry position", func(t *testing.T) {
		scratch := t.TempDir()
		data := map[string]interface{}{
			"first":  "one",
			"second": "two",
		}

		_, err := NewQRSubstituter().EmbedQRCodes(scratch, qrTemplate("first", "second"), data)
		require.NoError(t, err)

		assert.FileExists(t, filepath.Join(scratch, "0.png"))
		assert.FileExists(t, filepath.Join(scratch, "1.png"))
	})

	t.Run("skips absent and null values", func(t *testing.T) {
		scratch := t.TempDir()
		data := map[string]interface{}{
			"present": nil,
		}

		result, err := NewQRSubstituter().EmbedQRCodes(scratch, qrTemplate("present", "absent"), data)
		require.NoError(t, err)

		assert.Nil(t, result["present"])
		assert.NotContains(t, result, "absent")

		entries, err := os.ReadDir(scratch)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("no qr_entries is a no-op", func(t *testing.T) {
		scratch := t.TempDir()
		tpl := &models.TemplateDefinition{ID: "cert", Type: "text/html"}
		data := map[string]interface{}{"plain": "text"}

		result, err := NewQRSubstituter().EmbedQRCodes(scratch, tpl, data)
		require.NoError(t, err)
		assert.Equal(t, data, result)
	})

	t.Run("path through scalar fails", func(t *testing.T) {
		scratch := t.TempDir()
		data := map[string]interface{}{"plain": "text"}

		_, err := NewQRSubstituter().EmbedQRCodes(scratch, qrTemplate("plain.deeper"), data)
		assert.Error(t, err)
	})
}
