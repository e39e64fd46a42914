package blog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kvernberg/blogsmith/internal/errors"
)

// Page wraps exactly one source (a single entry or a container) and knows
// how to turn it into one output file in one format.
type Page struct {
	Blog   *Blog
	Source Source
	Format string

	memo map[string]any
}

// NewPage creates a page for source in the given format and runs the
// composed page initializers.
func NewPage(b *Blog, source Source, format string) (*Page, error) {
	p := &Page{Blog: b, Source: source, Format: format, memo: map[string]any{}}
	for _, init := range b.Comp.Page.Inits {
		if err := init(p); err != nil {
			return nil, fmt.Errorf("page init: %w", err)
		}
	}
	return p, nil
}

// Prop resolves a named property through the composed page table.
func (p *Page) Prop(name string) (any, error) {
	if v, ok := p.memo[name]; ok {
		return v, nil
	}
	fn, ok := p.Blog.Comp.Page.Props[name]
	if !ok {
		return nil, errors.New(errors.CategoryInternal, errors.SeverityError,
			fmt.Sprintf("page has no property %q", name))
	}
	v, err := fn(p)
	if err != nil {
		return nil, err
	}
	p.memo[name] = v
	return v, nil
}

// StringProp resolves a property and coerces it to a string.
func (p *Page) StringProp(name string) (string, error) {
	v, err := p.Prop(name)
	if err != nil {
		return "", err
	}
	return asString(v)
}

// URLPath returns the page's site-root-relative address, format included.
func (p *Page) URLPath() (string, error) {
	sourcePath, err := p.Source.URLPath()
	if err != nil {
		return "", err
	}
	return sourcePath + "." + p.Format, nil
}

// FilePath returns the output-relative file path for the page.
func (p *Page) FilePath() (string, error) {
	urlpath, err := p.URLPath()
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(strings.TrimPrefix(urlpath, "/")), nil
}

// EntryParams builds the render parameters handed to one entry, through the
// composed param modifiers.
func (p *Page) EntryParams(e *Entry) (Params, error) {
	params := Params{}
	for _, mod := range p.Blog.Comp.Page.ParamsMods {
		if err := mod(p, e, params); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// Body assembles the page body: every member entry formatted through the
// entry template, or the configured no-entries text for an empty source.
// Body overrides are consulted last-declared-first, like entry body
// overrides; the first one that answers supplies the whole body.
func (p *Page) Body() (string, error) {
	entries, err := p.Source.SourceEntries()
	if err != nil {
		return "", err
	}
	overrides := p.Blog.Comp.Page.BodyOverrides
	for i := len(overrides) - 1; i >= 0; i-- {
		body, ok, err := overrides[i](p, entries)
		if err != nil {
			return "", err
		}
		if ok {
			return body, nil
		}
	}
	if len(entries) == 0 {
		return p.Blog.Config.String("no_entries_content", "<p>No entries found!</p>"), nil
	}
	formatted := make([]string, 0, len(entries))
	for _, e := range entries {
		params, err := p.EntryParams(e)
		if err != nil {
			return "", err
		}
		s, err := e.Formatted(p.Format, params)
		if err != nil {
			return "", err
		}
		formatted = append(formatted, s)
	}
	return strings.Join(formatted, "\n"), nil
}

// sourceLinks renders the next/previous source links. The link source is a
// property so extensions (pagination) can substitute the original source for
// a derived one.
func (p *Page) sourceLinks() (next, prev string, err error) {
	v, err := p.Prop("link_source")
	if err != nil {
		return "", "", err
	}
	source, _ := v.(Source)
	if source == nil {
		return "", "", nil
	}
	tmpl := p.Blog.Config.String("source_link_template", `<a href="{urlshort}">{title}</a>`)
	render := func(s Source) (string, error) {
		if s == nil {
			return "", nil
		}
		attrs, err := s.LinkAttrs()
		if err != nil {
			return "", err
		}
		return ExpandAttrs(tmpl, attrs), nil
	}
	if next, err = render(source.NextSource()); err != nil {
		return "", "", err
	}
	if prev, err = render(source.PrevSource()); err != nil {
		return "", "", err
	}
	return next, prev, nil
}

// Attrs assembles the template attributes for the page: the blog metadata
// under blog_ keys, the page's own fields under page_ keys, generator
// identification, then the composed attribute modifiers.
func (p *Page) Attrs() (map[string]any, error) {
	title, err := p.Source.Title()
	if err != nil {
		return nil, err
	}
	heading, err := p.Source.Heading()
	if err != nil {
		return nil, err
	}
	body, err := p.Body()
	if err != nil {
		return nil, err
	}
	linkNext, linkPrev, err := p.sourceLinks()
	if err != nil {
		return nil, err
	}
	sep := p.Blog.Config.String("source_link_sep", "&nbsp;&nbsp;")
	links := make([]string, 0, 2)
	for _, link := range []string{linkNext, linkPrev} {
		if link != "" {
			links = append(links, link)
		}
	}

	attrs := map[string]any{}
	for k, v := range p.Blog.Metadata {
		attrs["blog_"+k] = v
	}
	attrs["page_title"] = title
	attrs["page_heading"] = heading
	attrs["page_entries"] = body
	attrs["page_sourcelinks"] = strings.Join(links, sep)
	attrs["page_sourcelink_next"] = linkNext
	attrs["page_sourcelink_prev"] = linkPrev
	attrs["sys_gen_name"] = GeneratorName
	attrs["sys_gen_uri"] = GeneratorURI
	attrs["sys_gen_version"] = GeneratorVersion

	for _, mod := range p.Blog.Comp.Page.AttrsMods {
		if err := mod(p, attrs); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// Rendered produces the page's full output through the page template.
func (p *Page) Rendered() (string, error) {
	attrs, err := p.Attrs()
	if err != nil {
		return "", err
	}
	return p.Blog.RenderTemplate("page", p.Format, attrs)
}

// basePageProps is the page role's behavior with zero extensions.
func basePageProps() map[string]PageProp {
	return map[string]PageProp{
		"link_source": func(p *Page) (any, error) { return p.Source, nil },
	}
}

// ExpandAttrs substitutes {key} placeholders in a config link template with
// the corresponding attribute values.
func ExpandAttrs(tmpl string, attrs map[string]any) string {
	pairs := make([]string, 0, len(attrs)*2)
	for k, v := range attrs {
		pairs = append(pairs, "{"+k+"}", fmt.Sprintf("%v", v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
