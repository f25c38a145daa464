// Package api exposes the compose service over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	cerrors "doc-composer/internal/common/errors"
	"doc-composer/internal/common/logger"
	"doc-composer/internal/compose"
	"doc-composer/internal/mimetype"
	"doc-composer/internal/render"
	"doc-composer/internal/store"
)

// Server holds the HTTP handlers for template discovery and composition.
type Server struct {
	composer *compose.Composer
	store    store.TemplateStore
	registry *render.Registry
	logger   logger.Logger
}

func NewServer(composer *compose.Composer, templates store.TemplateStore, registry *render.Registry, log logger.Logger) *Server {
	return &Server{composer: composer, store: templates, registry: registry, logger: log}
}

// Routes builds the route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("GET /templates/{id}", s.handleGetTemplate)
	mux.HandleFunc("POST /template/{id}/compose", s.handleCompose)
	mux.HandleFunc("GET /template/{id}/example", s.handleExample)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.requestLogger(mux)
}

// templateView is the wire shape of a template definition.
type templateView struct {
	TemplateID     string                 `json:"template_id"`
	TemplateSchema map[string]interface{} `json:"template_schema"`
	Type           string                 `json:"type"`
	Metadata       map[string]interface{} `json:"metadata"`
	Tags           []string               `json:"tags"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	tags := r.URL.Query()["tags"]

	templates, err := s.store.ListTemplates(r.Context(), tags)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	views := make([]templateView, len(templates))
	for i, tpl := range templates {
		views[i] = templateView{
			TemplateID:     tpl.ID,
			TemplateSchema: tpl.Schema,
			Type:           tpl.Type,
			Metadata:       tpl.Metadata,
			Tags:           tpl.Tags,
		}
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.store.GetTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, templateView{
		TemplateID:     tpl.ID,
		TemplateSchema: tpl.Schema,
		Type:           tpl.Type,
		Metadata:       tpl.Metadata,
		Tags:           tpl.Tags,
	})
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		s.writeError(w, r, &cerrors.SchemaValidationError{Explanation: err.Error()})
		return
	}

	params, err := renderParams(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	mimeType, err := s.negotiate(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	artifact, err := s.composer.Compose(r.Context(), compose.Request{
		TemplateID: r.PathValue("id"),
		Data:       data,
		MIMEType:   mimeType,
		Width:      params.Width,
		Height:     params.Height,
		Page:       params.Page,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeArtifact(w, artifact, "compose")
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	params, err := renderParams(r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	mimeType, err := s.negotiate(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	artifact, err := s.composer.ComposeExample(r.Context(), r.PathValue("id"), mimeType,
		params.Width, params.Height, params.Page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeArtifact(w, artifact, "example")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// negotiate resolves the Accept header against the registered output types.
// An absent header gets the default, PDF.
func (s *Server) negotiate(r *http.Request) (string, error) {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return render.PDFMIME, nil
	}
	return mimetype.Negotiate(accept, s.registry.MIMETypes())
}

// renderParams reads the optional width, height and page query parameters.
func renderParams(r *http.Request) (render.Params, error) {
	var params render.Params
	for _, p := range []struct {
		name string
		dest **int
	}{
		{"width", &params.Width},
		{"height", &params.Height},
		{"page", &params.Page},
	} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return render.Params{}, fmt.Errorf("query parameter %s must be an integer, got %q", p.name, raw)
		}
		*p.dest = &value
	}
	return params, nil
}

func (s *Server) writeArtifact(w http.ResponseWriter, artifact *compose.Artifact, operation string) {
	w.Header().Set("Content-Type", artifact.MIMEType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s%s", operation, artifact.FileExtension))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Bytes)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := cerrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		// Do not leak engine internals to the caller.
		s.writeMessage(w, status, "internal server error")
		return
	}
	s.writeMessage(w, status, err.Error())
}

// statusRecorder captures the response code for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request handled", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
