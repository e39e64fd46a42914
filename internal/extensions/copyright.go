package extensions

import (
	"fmt"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// copyrightBlog derives a copyright line from the span of entry years and
// publishes it in the blog metadata.
type copyrightBlog struct {
	extension.BlogMixin
}

func (copyrightBlog) InitBlog(b *blog.Blog) error {
	start := b.Config.Int("copyright_start_year", 0)
	end := b.Config.Int("copyright_end_year", 0)
	if start == 0 || end == 0 {
		entries, err := b.AllEntries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		minYear, maxYear := 0, 0
		for _, e := range entries {
			ts, err := e.Timestamp()
			if err != nil {
				return err
			}
			year := ts.Year()
			if minYear == 0 || year < minYear {
				minYear = year
			}
			if year > maxYear {
				maxYear = year
			}
		}
		if start == 0 {
			start = minYear
		}
		if end == 0 {
			end = maxYear
		}
	}

	yearspec := fmt.Sprintf("%d", start)
	if start < end {
		yearspec = fmt.Sprintf("%d-%d", start, end)
	}
	attrs := map[string]any{"yearspec": yearspec}
	b.Metadata["copyright"] = blog.ExpandAttrs(
		b.Config.String("copyright_template", "Copyright {yearspec}"), attrs)
	b.Metadata["copyright_display"] = blog.ExpandAttrs(
		b.Config.String("copyright_display_template", "Copyright &copy; {yearspec}"), attrs)
	return nil
}

type copyrightContributor struct{}

func (copyrightContributor) Name() string { return "copyright" }
func (copyrightContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{copyrightBlog{}}
}

func init() {
	extension.MustRegister(copyrightContributor{})
}
