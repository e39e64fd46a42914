package blog

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/kvernberg/blogsmith/internal/errors"
)

//go:embed templates
var builtinTemplates embed.FS

// TemplateData returns the template text for kind ("entry", "page", "short")
// and format. A file in the configured template directory wins; otherwise
// the built-in template ships with the binary. Missing both is a
// configuration error.
func (b *Blog) TemplateData(kind, format string) (string, error) {
	basename := kind + "." + format
	path := filepath.Join(b.Config.TemplateDir(), basename)
	if data, err := os.ReadFile(path); err == nil {
		return string(data), nil
	}
	data, err := builtinTemplates.ReadFile("templates/" + basename)
	if err != nil {
		return "", errors.New(errors.CategoryConfig, errors.SeverityError,
			fmt.Sprintf("template %s not found", basename))
	}
	return string(data), nil
}

// RenderTemplate executes the template for kind and format with data.
// Parsed templates are cached per blog; config and template dir are
// immutable for the process.
func (b *Blog) RenderTemplate(kind, format string, data map[string]any) (string, error) {
	if b.templates == nil {
		b.templates = map[string]*template.Template{}
	}
	basename := kind + "." + format
	tpl, ok := b.templates[basename]
	if !ok {
		text, err := b.TemplateData(kind, format)
		if err != nil {
			return "", err
		}
		if tpl, err = template.New(basename).Parse(text); err != nil {
			return "", errors.Wrap(err, errors.CategoryRender, errors.SeverityError,
				fmt.Sprintf("failed to parse template %s", basename))
		}
		b.templates[basename] = tpl
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, errors.CategoryRender, errors.SeverityError,
			fmt.Sprintf("failed to render template %s", basename))
	}
	return buf.String(), nil
}
