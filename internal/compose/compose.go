// Package compose implements the composition pipeline: schema validation,
// QR substitution, HTML templating and handoff to a renderer variant.
package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	cerrors "doc-composer/internal/common/errors"
	"doc-composer/internal/common/logger"
	"doc-composer/internal/common/metrics"
	"doc-composer/internal/common/observability"
	"doc-composer/internal/models"
	"doc-composer/internal/render"
	"doc-composer/internal/store"
)

// Request is one composition order: a template id, the compose data and the
// negotiated output MIME type, plus the optional rendering parameters.
type Request struct {
	TemplateID string
	Data       map[string]interface{}
	MIMEType   string
	Width      *int
	Height     *int
	Page       *int
}

// Artifact is a finished document.
type Artifact struct {
	Bytes         []byte
	MIMEType      string
	FileExtension string
}

// Composer runs the composition pipeline. Safe for concurrent use; each
// request gets its own scratch directory for QR images.
type Composer struct {
	store       store.TemplateStore
	env         *Environment
	registry    *render.Registry
	qr          *QRSubstituter
	logger      logger.Logger
	obs         *observability.Observability
	scratchRoot string
}

func NewComposer(templates store.TemplateStore, env *Environment, registry *render.Registry, log logger.Logger, obs *observability.Observability, scratchRoot string) *Composer {
	if scratchRoot == "" {
		scratchRoot = os.TempDir()
	}
	return &Composer{
		store:       templates,
		env:         env,
		registry:    registry,
		qr:          NewQRSubstituter(),
		logger:      log,
		obs:         obs,
		scratchRoot: scratchRoot,
	}
}

// Compose runs the full pipeline for a request. Parameter validation happens
// before schema validation so an unusable renderer never costs a validation
// pass, and schema validation happens before any rendering work.
func (c *Composer) Compose(ctx context.Context, req Request) (*Artifact, error) {
	start := time.Now()

	ctx, span := observability.Tracer().Start(ctx, "compose",
		trace.WithAttributes(
			attribute.String("template_id", req.TemplateID),
			attribute.String("mime_type", req.MIMEType),
		))
	defer span.End()

	tpl, err := c.store.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, c.fail(ctx, req.MIMEType, err)
	}

	artifact, err := c.composeTemplate(ctx, tpl, req)
	if err != nil {
		return nil, c.fail(ctx, req.MIMEType, err)
	}

	elapsed := time.Since(start)
	metrics.CompositionsCompleted.WithLabelValues(req.MIMEType).Inc()
	metrics.ComposeDuration.WithLabelValues(req.MIMEType).Observe(elapsed.Seconds())
	if c.obs != nil {
		c.obs.RecordComposition(ctx, req.MIMEType, "success")
		c.obs.RecordComposeDuration(ctx, elapsed, req.MIMEType)
	}

	c.logger.Info("composition completed", map[string]interface{}{
		"template_id": req.TemplateID,
		"mime_type":   req.MIMEType,
		"bytes":       len(artifact.Bytes),
		"duration_ms": elapsed.Milliseconds(),
	})
	return artifact, nil
}

// ComposeExample renders a template's stored example composition, for
// previewing a template without crafting input data.
func (c *Composer) ComposeExample(ctx context.Context, templateID, mimeType string, width, height, page *int) (*Artifact, error) {
	tpl, err := c.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, c.fail(ctx, mimeType, err)
	}

	return c.Compose(ctx, Request{
		TemplateID: templateID,
		Data:       tpl.ExampleComposition,
		MIMEType:   mimeType,
		Width:      width,
		Height:     height,
		Page:       page,
	})
}

func (c *Composer) composeTemplate(ctx context.Context, tpl *models.TemplateDefinition, req Request) (*Artifact, error) {
	factory, err := c.registry.Get(req.MIMEType)
	if err != nil {
		return nil, err
	}

	renderer, err := factory(render.Params{Width: req.Width, Height: req.Height, Page: req.Page})
	if err != nil {
		return nil, err
	}

	_, validateSpan := observability.Tracer().Start(ctx, "validate_schema")
	err = ValidateSchema(req.Data, tpl.Schema)
	validateSpan.End()
	if err != nil {
		return nil, err
	}

	scratchDir := filepath.Join(c.scratchRoot, "compose-"+uuid.NewString())
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			c.logger.Warn("scratch directory cleanup failed", map[string]interface{}{
				"dir":   scratchDir,
				"error": err.Error(),
			})
		}
	}()

	// QR substitution works on a copy so the caller's data survives intact.
	_, qrSpan := observability.Tracer().Start(ctx, "embed_qr_codes")
	data, err := c.qr.EmbedQRCodes(scratchDir, tpl, deepCopyObject(req.Data))
	qrSpan.End()
	if err != nil {
		return nil, err
	}

	_, htmlSpan := observability.Tracer().Start(ctx, "compose_html")
	html, err := c.env.ComposeHTML(tpl, data)
	htmlSpan.End()
	if err != nil {
		return nil, err
	}

	renderCtx, renderSpan := observability.Tracer().Start(ctx, "render",
		trace.WithAttributes(attribute.String("mime_type", req.MIMEType)))
	renderStart := time.Now()
	output, err := renderer.Print(renderCtx, html)
	renderSpan.End()
	if err != nil {
		return nil, err
	}
	metrics.RenderDuration.WithLabelValues(req.MIMEType).Observe(time.Since(renderStart).Seconds())

	return &Artifact{
		Bytes:         output,
		MIMEType:      renderer.MIMEType(),
		FileExtension: renderer.FileExtension(),
	}, nil
}

func (c *Composer) fail(ctx context.Context, mimeType string, err error) error {
	metrics.CompositionsFailed.WithLabelValues(mimeType, errorLabel(err)).Inc()
	if c.obs != nil {
		c.obs.RecordComposition(ctx, mimeType, "failure")
	}
	return err
}

// errorLabel gives a low-cardinality metric label for an error: the type
// name for taxonomy errors, "internal" for everything else.
func errorLabel(err error) string {
	switch err.(type) {
	case *cerrors.SchemaValidationError,
		*cerrors.TemplateNotFoundError,
		*cerrors.RendererNotFoundError,
		*cerrors.UnsupportedMIMETypeError,
		*cerrors.ResizingUnsupportedError,
		*cerrors.SinglePageUnsupportedError,
		*cerrors.AspectRatioCompromisedError,
		*cerrors.NegativeNumberError,
		*cerrors.InvalidPageNumberError:
		name := fmt.Sprintf("%T", err)
		return strings.TrimPrefix(name, "*errors.")
	default:
		return "internal"
	}
}
