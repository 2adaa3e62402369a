package annotation

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/motheatensoul/tei-scribe/internal/domain"
)

var (
	//go:embed templates
	templateFS embed.FS

	//go:embed assets/style.css
	cssContent string

	//go:embed assets/favicon.svg
	faviconContent string

	templateManager *TemplateManager

	// TemplateFuncMap contains custom template functions available globally
	TemplateFuncMap = template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"markdown": func(text string) template.HTML {
			return template.HTML(blackfriday.Run([]byte(text), blackfriday.WithRenderer(noteRenderer())))
		},
		"describe": describeValue,
	}
)

func init() {
	root, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	templateManager, err = NewTemplateManagerWithFuncMap(root, TemplateFuncMap)
	if err != nil {
		panic(err)
	}
}

// noteRenderer renders note Markdown with any embedded HTML dropped, since
// notes come from project files rather than from the application
func noteRenderer() blackfriday.Renderer {
	return blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML,
	})
}

// Translator localizes a message id; args are key/value pairs of template data
type Translator func(messageID string, args ...any) string

func newTranslator(ctx context.Context) Translator {
	return func(messageID string, args ...any) string {
		var data map[string]any
		if len(args) > 1 {
			data = make(map[string]any, len(args)/2)
			for i := 0; i+1 < len(args); i += 2 {
				if key, ok := args[i].(string); ok {
					data[key] = args[i+1]
				}
			}
		}
		return Localize(ctx, messageID, data)
	}
}

// RenderPageWithRequest renders a page with the localizer of the request
func RenderPageWithRequest(r *http.Request, w io.Writer, pageName string, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	data["CSS"] = template.CSS(cssContent)
	data["T"] = newTranslator(r.Context())
	return templateManager.Render(w, "pages/"+pageName, data)
}

// GetFavicon returns the embedded favicon content
func GetFavicon() string {
	return faviconContent
}

// describeValue gives a one line summary of an annotation value for listings
func describeValue(v domain.Value) string {
	switch v := v.(type) {
	case domain.LemmaValue:
		parts := []string{v.Lemma}
		if v.Msa != "" {
			parts = append(parts, v.Msa)
		}
		if v.Normalized != "" {
			parts = append(parts, v.Normalized)
		}
		return strings.Join(parts, " · ")
	case domain.SemanticValue:
		if v.Label != "" {
			return v.Label
		}
		return v.Category
	case domain.NoteValue:
		return ""
	case domain.PaleographicValue:
		return v.ObservationType
	case domain.MenotaPaleographicValue:
		return v.ObservationType
	case domain.SyntaxValue:
		return v.Function
	case domain.ReferenceValue:
		return v.RefType + " " + v.Target
	case domain.CustomValue:
		return v.CustomType
	}
	return ""
}
