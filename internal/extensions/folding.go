package extensions

import (
	"strings"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// foldMarker returns the configured fold marker. Unless fold_inline is set
// the marker must sit on its own line.
func foldMarker(b *blog.Blog) string {
	marker := b.Config.String("fold_symbol", "<!-- FOLD -->")
	if b.Config.Bool("fold_inline", false) {
		return marker
	}
	return marker + "\n"
}

func shortFormats(b *blog.Blog) []string {
	return b.Config.StringSlice("short_formats", []string{"html"})
}

// foldEntry captures the text above the fold marker as the entry's short
// form and strips the marker from the body.
type foldEntry struct {
	extension.EntryMixin
}

func (foldEntry) FilterSource(e *blog.Entry, raw string) (string, error) {
	marker := foldMarker(e.Blog)
	if i := strings.Index(raw, marker); i >= 0 {
		e.Scratch["short"] = raw[:i]
		return raw[:i] + raw[i+len(marker):], nil
	}
	return raw, nil
}

// OverrideBody substitutes the short form when the render parameters call
// for it: either forced by another extension, or the entry sits past the
// configured number of full entries on its page.
func (foldEntry) OverrideBody(e *blog.Entry, params blog.Params) (string, bool, error) {
	if _, err := e.Raw(); err != nil {
		return "", false, err
	}
	short, hasShort := e.Scratch["short"].(string)
	if !hasShort {
		return "", false, nil
	}

	format, _ := params.Get("format", "html").(string)
	formatOK := false
	for _, f := range shortFormats(e.Blog) {
		if f == format {
			formatOK = true
			break
		}
	}
	if !formatOK {
		return "", false, nil
	}

	maxFull := e.Blog.Config.Int("max_full_entries", 1) - 1
	if maxFull < 0 {
		maxFull = 0
	}
	if !params.Bool("force_short", false) && params.Int("index", 0) <= maxFull {
		return "", false, nil
	}

	body := short
	var err error
	for _, render := range e.Blog.Comp.Entry.Renderers {
		if body, err = render(e, body); err != nil {
			return "", false, err
		}
	}
	link, err := e.Permalink(format)
	if err != nil {
		return "", false, err
	}
	out, err := e.Blog.RenderTemplate("short", format, map[string]any{
		"body": body,
		"link": link,
	})
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// foldPage records each entry's position on its page so the entry-side
// override can tell above-the-fold entries from the rest.
type foldPage struct {
	extension.PageMixin
}

func (foldPage) ModifyEntryParams(p *blog.Page, e *blog.Entry, params blog.Params) error {
	params["format"] = p.Format
	entries, err := p.Source.SourceEntries()
	if err != nil {
		return err
	}
	for i, member := range entries {
		if member == e {
			params["index"] = i
			break
		}
	}
	return nil
}

type foldContributor struct{}

func (foldContributor) Name() string { return "folding" }
func (foldContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{foldEntry{}, foldPage{}}
}

func init() {
	extension.MustRegister(foldContributor{})
}
