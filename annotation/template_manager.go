package annotation

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/abiosoft/mold"
)

const baseLayout = "layouts/base.html"

// TemplateManager renders pages inside the base layout using mold
type TemplateManager struct {
	engine mold.Engine
}

// NewTemplateManagerWithFuncMap parses every template under fsys.
// Pages are rendered inside layouts/base.html.
func NewTemplateManagerWithFuncMap(fsys fs.FS, funcMap template.FuncMap) (*TemplateManager, error) {
	engine, err := mold.New(fsys,
		mold.WithLayout(baseLayout),
		mold.WithFuncMap(funcMap),
	)
	if err != nil {
		return nil, fmt.Errorf("while parsing templates: %w", err)
	}
	return &TemplateManager{engine: engine}, nil
}

// Render renders a page by its path relative to the template root, like pages/index.html
func (tm *TemplateManager) Render(w io.Writer, pageName string, data any) error {
	if err := tm.engine.Render(w, pageName, data); err != nil {
		return fmt.Errorf("while rendering %s: %w", pageName, err)
	}
	return nil
}
