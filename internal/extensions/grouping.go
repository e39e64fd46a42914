package extensions

import (
	"strings"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// groupValue resolves the grouping key for an entry. The datestamp and
// timestamp keys format the entry timestamp; anything else is an entry
// property.
func groupValue(e *blog.Entry, key string) (string, error) {
	switch key {
	case "datestamp":
		ts, err := e.Timestamp()
		if err != nil {
			return "", err
		}
		return ts.Format(e.Blog.Config.String("datestamp_format", "2006-01-02")), nil
	case "timestamp":
		ts, err := e.Timestamp()
		if err != nil {
			return "", err
		}
		return ts.Format(e.Blog.Config.String("timestamp_format", "15:04")), nil
	}
	return e.StringProp(key)
}

func expandGroup(tmpl string, index int, key string) string {
	return blog.ExpandAttrs(tmpl, map[string]any{
		"groupindex": index,
		"groupkey":   key,
	})
}

// groupPage reassembles the page body with head and foot markup around each
// run of entries sharing a group key. Entries keep their page order; only
// consecutive runs group together, so a page sorted by timestamp groups by
// date.
type groupPage struct {
	extension.PageMixin
}

func (groupPage) OverridePageBody(p *blog.Page, entries []*blog.Entry) (string, bool, error) {
	if len(entries) == 0 {
		return "", false, nil
	}
	formatOK := false
	for _, f := range p.Blog.Config.StringSlice("group_formats", []string{"html"}) {
		if f == p.Format {
			formatOK = true
			break
		}
	}
	if !formatOK {
		return "", false, nil
	}

	key := p.Blog.Config.String("group_key", "datestamp")
	headTmpl := p.Blog.Config.String("group_head_template", `<h2 class="group-head">{groupkey}</h2>`)
	footTmpl := p.Blog.Config.String("group_foot_template", "")

	var parts []string
	groupindex := -1
	current := ""
	for _, e := range entries {
		gv, err := groupValue(e, key)
		if err != nil {
			return "", false, err
		}
		if groupindex < 0 || gv != current {
			if groupindex >= 0 && footTmpl != "" {
				parts = append(parts, expandGroup(footTmpl, groupindex, current))
			}
			groupindex++
			current = gv
			if headTmpl != "" {
				parts = append(parts, expandGroup(headTmpl, groupindex, current))
			}
		}
		params, err := p.EntryParams(e)
		if err != nil {
			return "", false, err
		}
		params["groupindex"] = groupindex
		params["groupkey"] = current
		s, err := e.Formatted(p.Format, params)
		if err != nil {
			return "", false, err
		}
		parts = append(parts, s)
	}
	if groupindex >= 0 && footTmpl != "" {
		parts = append(parts, expandGroup(footTmpl, groupindex, current))
	}
	return strings.Join(parts, "\n"), true, nil
}

type groupContributor struct{}

func (groupContributor) Name() string { return "grouping" }
func (groupContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{groupPage{}}
}

func init() {
	extension.MustRegister(groupContributor{})
}
