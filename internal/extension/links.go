package extension

import (
	"sort"
	"strings"

	"github.com/kvernberg/blogsmith/internal/blog"
)

const defaultLinkTemplate = `<a href="{urlshort}">{title}</a>`

// Links renders a sorted link list for a family of containers, one line per
// container. The link markup comes from the per-kind config key
// "<kind>_link_template"; {urlshort}, {urlpath}, {title}, {heading} and
// {count} are substituted from each container's link attributes.
func Links(containers []*blog.Container, reverse bool) (string, error) {
	if len(containers) == 0 {
		return "", nil
	}
	sorted := make([]*blog.Container, len(containers))
	copy(sorted, containers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if reverse {
			return sorted[i].SortKey > sorted[j].SortKey
		}
		return sorted[i].SortKey < sorted[j].SortKey
	})

	lines := make([]string, 0, len(sorted))
	for _, c := range sorted {
		tmpl := c.Blog.Config.String(c.Kind+"_link_template", defaultLinkTemplate)
		attrs, err := c.LinkAttrs()
		if err != nil {
			return "", err
		}
		lines = append(lines, blog.ExpandAttrs(tmpl, attrs))
	}
	return strings.Join(lines, "\n"), nil
}
