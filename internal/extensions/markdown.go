package extensions

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	gmext "github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/errors"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// markdownEntry renders entry bodies from Markdown. Raw HTML in the source
// passes through; entries are trusted input.
type markdownEntry struct {
	extension.EntryMixin

	once sync.Once
	md   goldmark.Markdown
}

func (m *markdownEntry) engine(b *blog.Blog) goldmark.Markdown {
	m.once.Do(func() {
		opts := []goldmark.Option{
			goldmark.WithRendererOptions(html.WithUnsafe()),
		}
		if b.Config.Bool("markdown_gfm", true) {
			opts = append(opts, goldmark.WithExtensions(gmext.GFM))
		}
		m.md = goldmark.New(opts...)
	})
	return m.md
}

func (m *markdownEntry) RenderBody(e *blog.Entry, body string) (string, error) {
	var buf strings.Builder
	if err := m.engine(e.Blog).Convert([]byte(body), &buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryRender, errors.SeverityError,
			"markdown conversion failed").WithContext("entry", e.CacheKey)
	}
	return buf.String(), nil
}

type markdownContributor struct{}

func (markdownContributor) Name() string { return "render_markdown" }
func (markdownContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{&markdownEntry{}}
}

func init() {
	extension.MustRegister(markdownContributor{})
}
