package extensions

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// Characters dropped from titles before alphabetical comparison.
var indexAlphaStripRe = regexp.MustCompile(`[^A-Za-z ]`)

// linkIndexModes returns the enabled index orderings, in a fixed order so
// the generated page set is deterministic.
func linkIndexModes(b *blog.Blog) []string {
	var modes []string
	if b.Config.Bool("link_index_key", false) {
		modes = append(modes, "key")
	}
	if b.Config.Bool("link_index_chrono", true) {
		modes = append(modes, "chrono")
	}
	if b.Config.Bool("link_index_alpha", false) {
		modes = append(modes, "alpha")
	}
	return modes
}

// indexSource backs one link index page. It carries no entries of its own;
// the page body override renders the link list over the whole blog.
type indexSource struct {
	blog *blog.Blog
	mode string
}

func (s *indexSource) label() string {
	switch s.mode {
	case "alpha":
		return s.blog.Config.String("link_index_heading_alpha", "Alphabetical")
	case "chrono":
		return s.blog.Config.String("link_index_heading_chrono", "Chronological")
	}
	return s.blog.Config.String("link_index_heading_key", "Key")
}

func (s *indexSource) SourceKind() string { return "linkindex" }

func (s *indexSource) Heading() (string, error) {
	tmpl := s.blog.Config.String("link_index_heading_template", "{label} Index")
	return strings.ReplaceAll(tmpl, "{label}", s.label()), nil
}

func (s *indexSource) Title() (string, error) {
	heading, err := s.Heading()
	if err != nil {
		return "", err
	}
	tmpl := s.blog.Config.String("link_index_title_template", "{heading}")
	return strings.ReplaceAll(tmpl, "{heading}", heading), nil
}

func (s *indexSource) URLPath() (string, error) { return "/index-" + s.mode, nil }

func (s *indexSource) SourceEntries() ([]*blog.Entry, error) { return nil, nil }

func (s *indexSource) PrevSource() blog.Source { return nil }
func (s *indexSource) NextSource() blog.Source { return nil }

func (s *indexSource) LinkAttrs() (map[string]any, error) {
	title, err := s.Title()
	if err != nil {
		return nil, err
	}
	heading, err := s.Heading()
	if err != nil {
		return nil, err
	}
	urlpath, err := s.URLPath()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"urlshort": urlpath,
		"urlpath":  urlpath,
		"title":    title,
		"heading":  heading,
		"count":    0,
	}, nil
}

// indexPage supplies the body of link index pages: one link per entry,
// ordered by the source's mode. Other pages are declined.
type indexPage struct {
	extension.PageMixin
}

func (indexPage) OverridePageBody(p *blog.Page, _ []*blog.Entry) (string, bool, error) {
	src, ok := p.Source.(*indexSource)
	if !ok {
		return "", false, nil
	}
	entries, err := p.Blog.AllEntries()
	if err != nil {
		return "", false, err
	}
	type item struct {
		entry *blog.Entry
		key   string
		label string
	}
	items := make([]item, 0, len(entries))
	for _, e := range entries {
		it := item{entry: e}
		if src.mode == "key" {
			it.key, it.label = e.CacheKey, e.CacheKey
		} else {
			title, err := e.Title()
			if err != nil {
				return "", false, err
			}
			it.label = title
			if src.mode == "alpha" {
				it.key = indexAlphaStripRe.ReplaceAllString(title, "")
			} else {
				ts, err := e.Timestamp()
				if err != nil {
					return "", false, err
				}
				it.key = ts.UTC().Format(time.RFC3339)
			}
		}
		items = append(items, it)
	}
	// Chronological indexes list newest first; key and alphabetical ones
	// sort ascending.
	reverse := src.mode == "chrono"
	sort.SliceStable(items, func(i, j int) bool {
		if reverse {
			return items[i].key > items[j].key
		}
		return items[i].key < items[j].key
	})

	linkTmpl := p.Blog.Config.String("index_link_template", "{link}")
	suffixTmpl := p.Blog.Config.String("index_link_suffix_template", "")
	sep := p.Blog.Config.String("link_index_sep", "<br>")
	lines := make([]string, 0, len(items))
	for _, it := range items {
		urlpath, err := it.entry.URLPath()
		if err != nil {
			return "", false, err
		}
		suffix := ""
		if suffixTmpl != "" {
			attrs, err := it.entry.LinkAttrs()
			if err != nil {
				return "", false, err
			}
			suffix = blog.ExpandAttrs(suffixTmpl, attrs)
		}
		link := fmt.Sprintf(`<a href="%s.%s">%s</a>%s`, urlpath, p.Format, it.label, suffix)
		lines = append(lines, strings.ReplaceAll(linkTmpl, "{link}", link))
	}
	return strings.Join(lines, sep+"\n"), true, nil
}

// indexBlog appends one link index page per enabled mode and format.
type indexBlog struct {
	extension.BlogMixin
}

func (indexBlog) ModifyPages(b *blog.Blog, pages []*blog.Page) ([]*blog.Page, error) {
	for _, format := range b.Config.StringSlice("link_index_formats", []string{"html"}) {
		for _, mode := range linkIndexModes(b) {
			p, err := blog.NewPage(b, &indexSource{blog: b, mode: mode}, format)
			if err != nil {
				return nil, err
			}
			pages = append(pages, p)
		}
	}
	return pages, nil
}

type indexContributor struct{}

func (indexContributor) Name() string { return "indexes" }
func (indexContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{indexPage{}, indexBlog{}}
}

func init() {
	extension.MustRegister(indexContributor{})
}
