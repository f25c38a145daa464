package compose

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "doc-composer/internal/common/errors"
	"doc-composer/internal/common/logger"
	"doc-composer/internal/models"
	"doc-composer/internal/render"
	"doc-composer/internal/store"
)

const plainBody = `<html><body><p>{{ .p.plain }}</p></html>`

func intPtr(v int) *int { return &v }

func plainTemplate() *models.TemplateDefinition {
	return &models.TemplateDefinition{
		ID:   "plain_text",
		Type: "text/html",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"plain": map[string]interface{}{"type": "string"},
			},
			"required": []interface{}{"plain"},
		},
		ExampleComposition: map[string]interface{}{
			"plain": "An example composition",
		},
		Tags: []string{"test"},
	}
}

func writeTemplateBody(t *testing.T, root, id, body string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id), []byte(body), 0o644))
}

func newTestComposer(t *testing.T, templates ...*models.TemplateDefinition) (*Composer, string) {
	t.Helper()
	root := t.TempDir()
	env := NewEnvironment(root, filepath.Join(root, "static"))
	composer := NewComposer(store.NewMemoryStore(templates...), env, render.NewRegistry(),
		logger.NewTestLogger(t), nil, t.TempDir())
	return composer, root
}

func TestComposerCompose(t *testing.T) {
	t.Run("renders html output", func(t *testing.T) {
		composer, root := newTestComposer(t, plainTemplate())
		writeTemplateBody(t, root, "plain_text", plainBody)

		artifact, err := composer.Compose(context.Background(), Request{
			TemplateID: "plain_text",
			Data:       map[string]interface{}{"plain": "This is some plain text"},
			MIMEType:   render.HTMLMIME,
		})
		require.NoError(t, err)

		assert.Equal(t, render.HTMLMIME, artifact.MIMEType)
		assert.Equal(t, ".html", artifact.FileExtension)
		assert.Contains(t, string(artifact.Bytes), "This is some plain text")
	})

	t.Run("renders pdf output", func(t *testing.T) {
		composer, root := newTestComposer(t, plainTemplate())
		writeTemplateBody(t, root, "plain_text", plainBody)

		artifact, err := composer.Compose(context.Background(), Request{
			TemplateID: "plain_text",
			Data:       map[string]interface{}{"plain": "This is some plain text"},
			MIMEType:   render.PDFMIME,
		})
		require.NoError(t, err)

		assert.Equal(t, ".pdf", artifact.FileExtension)
		assert.True(t, strings.HasPrefix(string(artifact.Bytes), "%PDF"))
	})

	t.Run("unknown template", func(t *testing.T) {
		composer, _ := newTestComposer(t)

		_, err := composer.Compose(context.Background(), Request{
			TemplateID: "ghost",
			Data:       map[string]interface{}{},
			MIMEType:   render.HTMLMIME,
		})

		var notFound *cerrors.TemplateNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "Template 'ghost' not found", err.Error())
	})

	t.Run("registered template with missing body file", func(t *testing.T) {
		composer, _ := newTestComposer(t, plainTemplate())

		_, err := composer.Compose(context.Background(), Request{
			TemplateID: "plain_text",
			Data:       map[string]interface{}{"plain": "text"},
			MIMEType:   render.HTMLMIME,
		})

		var notFound *cerrors.TemplateNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("schema violation", func(t *testing.T) {
		composer, root := newTestComposer(t, plainTemplate())
		writeTemplateBody(t, root, "plain_text", plainBody)

		_, err := composer.Compose(context.Background(), Request{
			TemplateID: "plain_text",
			Data:       map[string]interface{}{"plain": float64(42)},
			MIMEType:   render.HTMLMIME,
		})

		var validation *cerrors.SchemaValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("unregistered output type", func(t *testing.T) {
		composer, root := newTestComposer(t, plainTemplate())
		writeTemplateBody(t, root, "plain_text", plainBody)

		_, err := composer.Compose(context.Background(), Request{
			TemplateID: "plain_text",
			Data:       map[string]interface{}{"plain": "text"},
			MIMEType:   "application/msword",
		})

		var noRenderer *cerrors.RendererNotFoundError
		assert.ErrorAs(t, err, &noRenderer)
	})

	t.Run("parameter validation precedes schema validation", func(t *testing.T) {
		composer, root := newTestComposer(t, plainTemplate())
		writeTemplateBody(t, root, "plain_text", plainBody)

		// Data violates the schema too; the parameter error must win.
		_, err := composer.Compose(context.Background(), Request{
			TemplateID: "plain_text",
			Data:       map[string]interface{}{},
			MIMEType:   render.HTMLMIME,
			Width:      intPtr(50),
		})

		var resizing *cerrors.ResizingUnsupportedError
		require.ErrorAs(t, err, &resizing)
		assert.Equal(t, "Resizing unsupported on provided mime_type: text/html", err.Error())
	})

	t.Run("page selection on non raster output", func(t *testing.T) {
		composer, root := newTestComposer(t, plainTemplate())
		writeTemplateBody(t, root, "plain_text", plainBody)

		_, err := composer.Compose(context.Background(), Request{
			TemplateID: "plain_text",
			Data:       map[string]interface{}{"plain": "text"},
			MIMEType:   render.PDFMIME,
			Page:       intPtr(0),
		})

		var singlePage *cerrors.SinglePageUnsupportedError
		assert.ErrorAs(t, err, &singlePage)
	})

	t.Run("width and height together", func(t *testing.T) {
		composer, root := newTestComposer(t, plainTemplate())
		writeTemplateBody(t, root, "plain_text", plainBody)

		_, err := composer.Compose(context.Background(), Request{
			TemplateID: "plain_text",
			Data:       map[string]interface{}{"plain": "text"},
			MIMEType:   render.PNGMIME,
			Width:      intPtr(100),
			Height:     intPtr(100),
		})

		var aspect *cerrors.AspectRatioCompromisedError
		assert.ErrorAs(t, err, &aspect)
	})
}

func TestComposerQRSubstitution(t *testing.T) {
	tpl := &models.TemplateDefinition{
		ID:   "qr_cert",
		Type: "text/html",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"url": map[string]interface{}{"type": "qr_code"},
			},
			"required": []interface{}{"url"},
		},
		Metadata: map[string]interface{}{
			"qr_entries": []interface{}{"url"},
		},
	}

	composer, root := newTestComposer(t, tpl)
	writeTemplateBody(t, root, "qr_cert", `<html><body><p>{{ .p.url }}</p></html>`)

	data := map[string]interface{}{"url": "https://example.org"}
	artifact, err := composer.Compose(context.Background(), Request{
		TemplateID: "qr_cert",
		Data:       data,
		MIMEType:   render.HTMLMIME,
	})
	require.NoError(t, err)

	assert.Contains(t, string(artifact.Bytes), "0.png",
		"the composed document sees the QR image path, not the raw value")
	assert.Equal(t, "https://example.org", data["url"],
		"the caller's data must survive substitution")
}

func TestComposerComposeExample(t *testing.T) {
	composer, root := newTestComposer(t, plainTemplate())
	writeTemplateBody(t, root, "plain_text", plainBody)

	artifact, err := composer.ComposeExample(context.Background(), "plain_text", render.HTMLMIME, nil, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, string(artifact.Bytes), "An example composition")
}
