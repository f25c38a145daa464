package compose

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	cerrors "doc-composer/internal/common/errors"
	"doc-composer/internal/models"
)

// Environment is the templating environment for HTML composition. It is
// built once at startup with the filter functions bound at construction and
// passed explicitly to whoever composes, never read from global state.
//
// Template bodies live at {templateRoot}/{id}/{id}; static assets for a
// template are addressed under {staticRoot}/{id}/.
type Environment struct {
	templateRoot string
	staticRoot   string
	funcs        template.FuncMap
}

func NewEnvironment(templateRoot, staticRoot string) *Environment {
	return &Environment{
		templateRoot: templateRoot,
		staticRoot:   staticRoot,
		funcs: template.FuncMap{
			"formatDate": FormatDate,
			"ordinal":    Ordinal,
		},
	}
}

// templateContext is what template authors see: the compose data under .p
// plus the shared and per-template static asset paths.
type templateContext struct {
	P              map[string]interface{}
	BaseStatic     string
	TemplateStatic string
}

// ComposeHTML resolves the template body by id and renders it with the
// (QR-substituted) compose data. html/template contextual autoescaping
// guards against injection through input data.
func (e *Environment) ComposeHTML(tpl *models.TemplateDefinition, data map[string]interface{}) (string, error) {
	bodyPath := filepath.Join(e.templateRoot, tpl.ID, tpl.ID)
	body, err := os.ReadFile(bodyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &cerrors.TemplateNotFoundError{TemplateID: tpl.ID}
		}
		return "", fmt.Errorf("reading template body %s: %w", bodyPath, err)
	}

	parsed, err := template.New(tpl.ID).Funcs(e.funcs).Parse(string(body))
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", tpl.ID, err)
	}

	ctx := templateContext{
		P:              data,
		BaseStatic:     e.staticRoot + "/",
		TemplateStatic: e.staticRoot + "/" + tpl.ID + "/",
	}

	var b strings.Builder
	if err := parsed.Execute(&b, renderBindings(ctx)); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", tpl.ID, err)
	}

	return b.String(), nil
}

// renderBindings exposes the context under the lowercase names template
// authors write: .p, .base_static, .template_static. The static paths are
// trusted configuration, typed template.URL so file:// references survive
// the autoescaper's URL filtering.
func renderBindings(ctx templateContext) map[string]interface{} {
	return map[string]interface{}{
		"p":               ctx.P,
		"base_static":     template.URL(ctx.BaseStatic),
		"template_static": template.URL(ctx.TemplateStatic),
	}
}
