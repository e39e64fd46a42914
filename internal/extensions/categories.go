package extensions

import (
	"fmt"
	"path"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

var categoryTitleCaser = cases.Title(language.English)

// entryCategory derives an entry's category from its position under the
// entries directory: the subdirectory path, or "" at the root.
func entryCategory(e *blog.Entry) string {
	dir := path.Dir(e.CacheKey)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// categoryEntry shortens the entry name to its basename and exposes the
// category through properties and template attrs.
type categoryEntry struct {
	extension.EntryMixin
}

func (categoryEntry) EntryProps() map[string]blog.EntryProp {
	return map[string]blog.EntryProp{
		"name": func(e *blog.Entry) (any, error) {
			return path.Base(e.CacheKey), nil
		},
		"category": func(e *blog.Entry) (any, error) {
			return entryCategory(e), nil
		},
	}
}

func (categoryEntry) InitEntry(e *blog.Entry) error {
	if cat := entryCategory(e); cat != "" {
		e.Meta["categorylink"] = fmt.Sprintf(`<a href="/%s/" title="Category">%s</a>`, cat, cat)
	} else {
		e.Meta["categorylink"] = "(None)"
	}
	return nil
}

func (categoryEntry) ModifyEntryAttrs(e *blog.Entry, attrs map[string]any, _ blog.Params) error {
	attrs["category"] = entryCategory(e)
	return nil
}

// categoryBlog builds one container per entries subdirectory.
type categoryBlog struct {
	extension.BlogMixin
}

func (categoryBlog) ModifySources(b *blog.Blog, sources []blog.PageSource) ([]blog.PageSource, error) {
	entries, err := b.AllEntries()
	if err != nil {
		return nil, err
	}
	byCategory := map[string][]*blog.Entry{}
	for _, e := range entries {
		if cat := entryCategory(e); cat != "" {
			byCategory[cat] = append(byCategory[cat], e)
		}
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	prefix := b.Config.String("categories_prefix", "")
	containers := make([]*blog.Container, 0, len(names))
	for _, name := range names {
		members := byCategory[name]
		c := blog.NewNamedContainer(b, "category", "Category", name, prefix)
		c.DefaultTitle = categoryTitleCaser.String(name)
		c.Fetch = func(*blog.Container) ([]*blog.Entry, error) { return members, nil }
		containers = append(containers, c)
	}
	b.Shared["all_categories"] = containers

	links, err := extension.Links(containers, false)
	if err != nil {
		return nil, err
	}
	b.Metadata["category_links"] = links

	for _, c := range containers {
		sources = append(sources, blog.PageSource{Source: c, Format: "html"})
	}
	return sources, nil
}

type categoryContributor struct{}

func (categoryContributor) Name() string { return "categories" }
func (categoryContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{categoryEntry{}, categoryBlog{}}
}

func init() {
	extension.MustRegister(categoryContributor{})
}
