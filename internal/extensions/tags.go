package extensions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

const tagCacheName = "tags"

// parseTags splits a raw tag string into its normalized sorted set.
func parseTags(s string) []string {
	seen := map[string]bool{}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// entryTags resolves an entry's tag set through the tags property.
func entryTags(e *blog.Entry) ([]string, error) {
	s, err := e.StringProp("tags")
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	return parseTags(s), nil
}

// tagEntry parses the tag marker line out of the raw source and exposes the
// tag set as a cached property.
type tagEntry struct {
	extension.EntryMixin
}

func (tagEntry) FilterSource(e *blog.Entry, raw string) (string, error) {
	marker := e.Blog.Config.String("tags_marker", "#tags ")
	end := e.Blog.Config.String("tags_end", "\n")
	start := strings.Index(raw, marker)
	if start < 0 {
		e.Scratch["tagstr"] = ""
		return raw, nil
	}
	rest := raw[start+len(marker):]
	stop := strings.Index(rest, end)
	if stop < 0 {
		e.Scratch["tagstr"] = ""
		return raw, nil
	}
	e.Scratch["tagstr"] = rest[:stop]
	return raw[:start] + rest[stop+len(end):], nil
}

func (tagEntry) EntryProps() map[string]blog.EntryProp {
	compute := func(e *blog.Entry) (any, error) {
		if _, err := e.Raw(); err != nil {
			return nil, err
		}
		s, _ := e.Scratch["tagstr"].(string)
		return strings.Join(parseTags(s), ","), nil
	}
	return map[string]blog.EntryProp{
		"tags": blog.CachedProp(tagCacheName, "tags", compute, nil),
	}
}

func (tagEntry) ModifyEntryAttrs(e *blog.Entry, attrs map[string]any, _ blog.Params) error {
	s, err := e.StringProp("tags")
	if err != nil {
		return err
	}
	attrs["tags"] = s
	return nil
}

// tagBlog builds one container per tag and publishes the tag link list in
// the blog metadata.
type tagBlog struct {
	extension.BlogMixin
}

func (tagBlog) ModifySources(b *blog.Blog, sources []blog.PageSource) ([]blog.PageSource, error) {
	entries, err := b.AllEntries()
	if err != nil {
		return nil, err
	}
	byTag := map[string][]*blog.Entry{}
	for _, e := range entries {
		tags, err := entryTags(e)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			byTag[tag] = append(byTag[tag], e)
		}
	}

	names := make([]string, 0, len(byTag))
	for name := range byTag {
		names = append(names, name)
	}
	sort.Strings(names)

	prefix := b.Config.String("tags_prefix", "")
	containers := make([]*blog.Container, 0, len(names))
	for _, name := range names {
		members := byTag[name]
		c := blog.NewNamedContainer(b, "tag", "Tag", name, prefix)
		c.Fetch = func(*blog.Container) ([]*blog.Entry, error) { return members, nil }
		containers = append(containers, c)
	}
	b.Shared["all_tags"] = containers

	links, err := extension.Links(containers, false)
	if err != nil {
		return nil, err
	}
	b.Metadata["tag_links"] = links

	for _, e := range entries {
		tags, err := entryTags(e)
		if err != nil {
			return nil, err
		}
		taglinks := make([]string, 0, len(tags))
		for _, tag := range tags {
			href := "/" + tag + "/"
			if prefix != "" {
				href = "/" + prefix + "/" + tag + "/"
			}
			taglinks = append(taglinks, fmt.Sprintf(`<a href="%s">%s</a>`, href, tag))
		}
		e.Meta["taglinks"] = strings.Join(taglinks, ",\n")
	}

	for _, c := range containers {
		sources = append(sources, blog.PageSource{Source: c, Format: "html"})
	}
	return sources, nil
}

type tagContributor struct{}

func (tagContributor) Name() string { return "tags" }
func (tagContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{tagEntry{}, tagBlog{}}
}

func init() {
	extension.MustRegister(tagContributor{})
}
