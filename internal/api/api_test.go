package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-composer/internal/common/logger"
	"doc-composer/internal/compose"
	"doc-composer/internal/models"
	"doc-composer/internal/render"
	"doc-composer/internal/store"
)

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
		Tags: []string{"official"},
	}
}

func newTestServer(t *testing.T, templates ...*models.TemplateDefinition) *httptest.Server {
	t.Helper()

	root := t.TempDir()
	for _, tpl := range templates {
		dir := filepath.Join(root, tpl.ID)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		body := `<html><body><p>{{ .p.plain }}</p></body></html>`
		require.NoError(t, os.WriteFile(filepath.Join(dir, tpl.ID), []byte(body), 0o644))
	}

	templateStore := store.NewMemoryStore(templates...)
	env := compose.NewEnvironment(root, filepath.Join(root, "static"))
	registry := render.NewRegistry()
	log := logger.NewTestLogger(t)
	composer := compose.NewComposer(templateStore, env, registry, log, nil, t.TempDir())

	server := httptest.NewServer(NewServer(composer, templateStore, registry, log).Routes())
	t.Cleanup(server.Close)
	return server
}

func decodeMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload["message"]
}

func TestListTemplates(t *testing.T) {
	server := newTestServer(t, plainTemplate())

	t.Run("lists all", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/templates")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var views []map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
		require.Len(t, views, 1)
		assert.Equal(t, "plain_text", views[0]["template_id"])
		assert.Contains(t, views[0], "template_schema")
	})

	t.Run("tag filter excludes", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/templates?tags=nonexistent")
		require.NoError(t, err)
		defer resp.Body.Close()

		var views []map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
		assert.Empty(t, views)
	})
}

func TestGetTemplate(t *testing.T) {
	server := newTestServer(t, plainTemplate())

	t.Run("detail view", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/templates/plain_text")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var view map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		assert.Equal(t, "plain_text", view["template_id"])
		assert.Equal(t, "text/html", view["type"])
	})

	t.Run("unknown template", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/templates/ghost")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Template 'ghost' not found", decodeMessage(t, resp))
	})
}

func postCompose(t *testing.T, server *httptest.Server, path, body, accept string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCompose(t *testing.T) {
	server := newTestServer(t, plainTemplate())
	validBody := `{"plain": "This is some plain text"}`

	t.Run("html output", func(t *testing.T) {
		resp := postCompose(t, server, "/template/plain_text/compose", validBody, "text/html")
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
		assert.Equal(t, "attachment; filename=compose.html", resp.Header.Get("Content-Disposition"))

		body := new(strings.Builder)
		_, err := io.Copy(body, resp.Body)
		require.NoError(t, err)
		assert.Contains(t, body.String(), "This is some plain text")
	})

	t.Run("defaults to pdf without accept header", func(t *testing.T) {
		resp := postCompose(t, server, "/template/plain_text/compose", validBody, "")
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, "attachment; filename=compose.pdf", resp.Header.Get("Content-Disposition"))

		prefix := make([]byte, 4)
		_, err := io.ReadFull(resp.Body, prefix)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(prefix))
	})

	t.Run("unknown template", func(t *testing.T) {
		resp := postCompose(t, server, "/template/ghost/compose", validBody, "text/html")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unsupported accept header", func(t *testing.T) {
		resp := postCompose(t, server, "/template/plain_text/compose", validBody, "application/msword")
		defer resp.Body.Close()

		require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
		assert.Contains(t, decodeMessage(t, resp), "No supported format in ACCEPT header: application/msword")
	})

	t.Run("schema violation", func(t *testing.T) {
		resp := postCompose(t, server, "/template/plain_text/compose", `{"plain": 42}`, "text/html")
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decodeMessage(t, resp), "Invalid compose json")
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := postCompose(t, server, "/template/plain_text/compose", `not json`, "text/html")
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decodeMessage(t, resp), "Invalid compose json")
	})

	t.Run("non numeric width", func(t *testing.T) {
		resp := postCompose(t, server, "/template/plain_text/compose?width=wide", validBody, "image/png")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("resize on non raster output", func(t *testing.T) {
		resp := postCompose(t, server, "/template/plain_text/compose?width=100", validBody, "text/html")
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Resizing unsupported on provided mime_type: text/html", decodeMessage(t, resp))
	})

	t.Run("width and height together", func(t *testing.T) {
		resp := postCompose(t, server, "/template/plain_text/compose?width=100&height=100", validBody, "image/png")
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t,
			"Specifying both width and height compromises the template's aspect ratio",
			decodeMessage(t, resp))
	})
}

func TestExample(t *testing.T) {
	server := newTestServer(t, plainTemplate())

	t.Run("renders the stored example", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/template/plain_text/example", nil)
		require.NoError(t, err)
		req.Header.Set("Accept", "text/html")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "attachment; filename=example.html", resp.Header.Get("Content-Disposition"))

		body := new(strings.Builder)
		_, err = io.Copy(body, resp.Body)
		require.NoError(t, err)
		assert.Contains(t, body.String(), "An example composition")
	})

	t.Run("unknown template", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/template/ghost/example")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
