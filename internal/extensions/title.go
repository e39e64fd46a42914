// Package extensions holds the builtin contributors. Each file registers one
// contributor with the default registry; importing the package makes the
// whole builtin set available for config-declared composition.
package extensions

import (
	"regexp"
	"strings"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

var (
	titleBoldRe = regexp.MustCompile(`\*\*([A-Za-z0-9]+)\*\*`)
	titleEmRe   = regexp.MustCompile(`\*([A-Za-z0-9]+)\*`)
)

// titleEntry splits the title line off the entry source: everything before
// the first occurrence of the title separator is the title, the rest is the
// body. Entries without a separator get an empty title and keep the base
// name-derived one out of the picture deliberately; that matches sources
// where the title line is mandatory.
type titleEntry struct {
	extension.EntryMixin
}

func (titleEntry) FilterSource(e *blog.Entry, raw string) (string, error) {
	sep := e.Blog.Config.String("title_separator", "\n")
	if i := strings.Index(raw, sep); i >= 0 {
		e.Scratch["titlestr"] = raw[:i]
		return raw[i+len(sep):], nil
	}
	e.Scratch["titlestr"] = ""
	return raw, nil
}

func (titleEntry) EntryProps() map[string]blog.EntryProp {
	compute := func(e *blog.Entry) (any, error) {
		if _, err := e.Raw(); err != nil {
			return nil, err
		}
		title, _ := e.Scratch["titlestr"].(string)
		if title != "" && e.Blog.Config.Bool("title_format", false) {
			title = titleBoldRe.ReplaceAllString(title, "<strong>$1</strong>")
			title = titleEmRe.ReplaceAllString(title, "<em>$1</em>")
		}
		return title, nil
	}
	return map[string]blog.EntryProp{
		"title": blog.CachedProp(titleCacheName, "title", compute, nil),
	}
}

const titleCacheName = "titles"

type titleContributor struct{}

func (titleContributor) Name() string { return "title" }
func (titleContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{titleEntry{}}
}

func init() {
	extension.MustRegister(titleContributor{})
}
