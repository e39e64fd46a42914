package extensions

import (
	"fmt"
	"strings"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// pagedContainer is one page-sized slice of a larger container. It keeps a
// handle on the original so the page's source links still navigate the
// original family while newer/older links navigate the slices.
type pagedContainer struct {
	*blog.Container

	orig     *blog.Container
	pagenum  int
	numPages int
}

// pageURLPath derives the urlpath for one slice: the first slice takes over
// the original index address, later ones get a numbered suffix.
func pageURLPath(urlshort string, pagenum int) string {
	if pagenum == 0 {
		return urlshort + "index"
	}
	return fmt.Sprintf("%sindex%d", urlshort, pagenum)
}

// pageLinks renders the newer/older navigation anchors for a slice. The
// first and last slices drop the link that points nowhere.
func (pc *pagedContainer) pageLinks(format string) (newer, older string) {
	cfg := pc.Blog.Config
	newerLabel := cfg.String("page_newer_label", "Newer Entries")
	olderLabel := cfg.String("page_older_label", "Older Entries")
	href := func(pagenum int) string {
		return pageURLPath(pc.orig.URLShort, pagenum) + "." + format
	}
	if pc.pagenum > 0 {
		newer = fmt.Sprintf(`<a href="%s">%s</a>`, href(pc.pagenum-1), newerLabel)
	}
	if pc.pagenum < pc.numPages-1 {
		older = fmt.Sprintf(`<a href="%s">%s</a>`, href(pc.pagenum+1), olderLabel)
	}
	return newer, older
}

// paginatePage substitutes the original source for link rendering, forces
// short entries on later slices, and adds the newer/older attrs.
type paginatePage struct {
	extension.PageMixin
}

func (paginatePage) PageProps() map[string]blog.PageProp {
	return map[string]blog.PageProp{
		"link_source": func(p *blog.Page) (any, error) {
			if pc, ok := p.Source.(*pagedContainer); ok {
				return pc.orig, nil
			}
			return p.Source, nil
		},
	}
}

func (paginatePage) ModifyEntryParams(p *blog.Page, _ *blog.Entry, params blog.Params) error {
	pc, ok := p.Source.(*pagedContainer)
	if !ok {
		return nil
	}
	if pc.pagenum > 0 && p.Blog.Config.Bool("page_force_short", true) {
		params["force_short"] = true
	}
	return nil
}

func (paginatePage) ModifyPageAttrs(p *blog.Page, attrs map[string]any) error {
	newer, older := "", ""
	if pc, ok := p.Source.(*pagedContainer); ok {
		newer, older = pc.pageLinks(p.Format)
	}
	sep := p.Blog.Config.String("page_link_sep", "&nbsp;&nbsp;")
	links := make([]string, 0, 2)
	for _, link := range []string{newer, older} {
		if link != "" {
			links = append(links, link)
		}
	}
	joined := strings.Join(links, sep)
	if joined != "" {
		joined += "\n"
	}
	attrs["page_links"] = joined
	attrs["page_link_newer"] = newer
	attrs["page_link_older"] = older
	return nil
}

// paginateBlog splits oversized container sources into page-sized slices.
type paginateBlog struct {
	extension.BlogMixin
}

func (paginateBlog) ModifySources(b *blog.Blog, sources []blog.PageSource) ([]blog.PageSource, error) {
	formats := b.Config.StringSlice("paginate_formats", []string{"html"})
	maxEntries := b.Config.Int("page_max_entries", 10)
	if maxEntries < 1 {
		return sources, nil
	}

	formatOK := func(format string) bool {
		for _, f := range formats {
			if f == format {
				return true
			}
		}
		return false
	}

	var out []blog.PageSource
	for _, ps := range sources {
		c, ok := ps.Source.(*blog.Container)
		if !ok || !formatOK(ps.Format) {
			out = append(out, ps)
			continue
		}
		entries, err := c.Entries()
		if err != nil {
			return nil, err
		}
		if len(entries) <= maxEntries {
			out = append(out, ps)
			continue
		}

		numPages := (len(entries) + maxEntries - 1) / maxEntries
		title, err := c.Title()
		if err != nil {
			return nil, err
		}
		heading, err := c.Heading()
		if err != nil {
			return nil, err
		}
		titleTmpl := b.Config.String("page_title_template", "{title} - Page {pagenum}")
		headingTmpl := b.Config.String("page_heading_template", "{heading} - Page {pagenum}")
		includeHome := b.Config.Bool("page_home_include_pagenum", false)

		slices := make([]*blog.Container, 0, numPages)
		for pagenum := 0; pagenum < numPages; pagenum++ {
			start := pagenum * maxEntries
			end := start + maxEntries
			if end > len(entries) {
				end = len(entries)
			}
			members := entries[start:end]

			slice := blog.NewContainer(b, c.Kind)
			slice.Name = c.Name
			slice.TypeName = c.TypeName
			slice.URLShort = c.URLShort
			slice.SortKey = c.SortKey
			slice.Fetch = func(*blog.Container) ([]*blog.Entry, error) { return members, nil }
			slice.DefaultTitle = title
			slice.DefaultHeading = heading
			if pagenum > 0 || includeHome {
				slice.DefaultTitle = blog.ExpandAttrs(titleTmpl,
					map[string]any{"title": title, "pagenum": pagenum + 1})
				slice.DefaultHeading = blog.ExpandAttrs(headingTmpl,
					map[string]any{"heading": heading, "pagenum": pagenum + 1})
			}
			num := pagenum
			slice.URLPathFunc = func(sc *blog.Container) (string, error) {
				return pageURLPath(c.URLShort, num), nil
			}
			slices = append(slices, slice)
		}

		for _, slice := range slices {
			slice.Siblings = slices
		}
		for pagenum, slice := range slices {
			out = append(out, blog.PageSource{
				Source: &pagedContainer{
					Container: slice,
					orig:      c,
					pagenum:   pagenum,
					numPages:  numPages,
				},
				Format: ps.Format,
			})
		}
	}
	return out, nil
}

type paginateContributor struct{}

func (paginateContributor) Name() string { return "paginate" }
func (paginateContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{paginatePage{}, paginateBlog{}}
}

func init() {
	extension.MustRegister(paginateContributor{})
}
