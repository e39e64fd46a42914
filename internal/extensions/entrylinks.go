package extensions

import (
	"fmt"
	"strings"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// Scratch keys holding the neighboring entries within the index ordering.
const (
	prevEntryKey = "prev_in_blog"
	nextEntryKey = "next_in_blog"
)

func expandLabel(tmpl, label string) string {
	return strings.ReplaceAll(tmpl, "{label}", label)
}

// linkEntry renders the previous/next navigation attrs for an entry.
type linkEntry struct {
	extension.EntryMixin
}

func (linkEntry) renderLink(e *blog.Entry, neighbor *blog.Entry, format string, next bool) (string, error) {
	cfg := e.Blog.Config
	contentTmpl := cfg.String("link_prev_template", "previous in {label}")
	titleTmpl := cfg.String("link_prev_title_template", "Previous in {label}")
	if next {
		contentTmpl = cfg.String("link_next_template", "next in {label}")
		titleTmpl = cfg.String("link_next_title_template", "Next in {label}")
	}
	content := expandLabel(contentTmpl, "blog")
	if neighbor == nil {
		return content, nil
	}
	href, err := neighbor.Permalink(format)
	if err != nil {
		return "", err
	}
	title := expandLabel(titleTmpl, "Blog")
	return fmt.Sprintf(`<a href="%s" title="%s">%s</a>`, href, title, content), nil
}

func (m linkEntry) entryLinks(e *blog.Entry, format string) (string, error) {
	prev, _ := e.Scratch[prevEntryKey].(*blog.Entry)
	next, _ := e.Scratch[nextEntryKey].(*blog.Entry)
	nextLink, err := m.renderLink(e, next, format, true)
	if err != nil {
		return "", err
	}
	prevLink, err := m.renderLink(e, prev, format, false)
	if err != nil {
		return "", err
	}
	sep := e.Blog.Config.String("entrylink_sep", "&nbsp;")
	return nextLink + sep + prevLink, nil
}

func (m linkEntry) ModifyEntryAttrs(e *blog.Entry, attrs map[string]any, params blog.Params) error {
	sourcetype, _ := params.Get("sourcetype", "").(string)
	display := e.Blog.Config.StringSlice("link_display_sourcetypes", []string{"entry"})
	show := false
	for _, st := range display {
		if st == sourcetype {
			show = true
			break
		}
	}
	if !show {
		attrs["entrylinks"] = ""
		return nil
	}
	format, _ := params.Get("format", "html").(string)
	links, err := m.entryLinks(e, format)
	if err != nil {
		return err
	}
	attrs["entrylinks"] = links
	return nil
}

// linkPage exposes the rendering context entry attrs depend on and the
// page-level navigation for single-entry pages.
type linkPage struct {
	extension.PageMixin
}

func (linkPage) ModifyEntryParams(p *blog.Page, _ *blog.Entry, params blog.Params) error {
	params["sourcetype"] = p.Source.SourceKind()
	params["format"] = p.Format
	return nil
}

func (linkPage) ModifyPageAttrs(p *blog.Page, attrs map[string]any) error {
	e, ok := p.Source.(*blog.Entry)
	if !ok {
		attrs["page_entrylinks"] = ""
		return nil
	}
	links, err := linkEntry{}.entryLinks(e, p.Format)
	if err != nil {
		return err
	}
	attrs["page_entrylinks"] = links
	return nil
}

// linkBlog walks the index ordering once and records each entry's neighbors.
// With the default newest-first sort, "next" points at the newer entry.
type linkBlog struct {
	extension.BlogMixin
}

func (linkBlog) ModifySources(b *blog.Blog, sources []blog.PageSource) ([]blog.PageSource, error) {
	entries, err := b.Index().Entries()
	if err != nil {
		return nil, err
	}
	reversed := b.Config.Bool("entry_sort_reversed", true)
	for i, e := range entries {
		var prev, next *blog.Entry
		if i > 0 {
			prev = entries[i-1]
		}
		if i < len(entries)-1 {
			next = entries[i+1]
		}
		if reversed {
			prev, next = next, prev
		}
		e.Scratch[prevEntryKey] = prev
		e.Scratch[nextEntryKey] = next
	}
	return sources, nil
}

type linkContributor struct{}

func (linkContributor) Name() string { return "links" }
func (linkContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{linkEntry{}, linkPage{}, linkBlog{}}
}

func init() {
	extension.MustRegister(linkContributor{})
}
