package extensions

import (
	"fmt"
	"sort"
	"time"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// archiveKey identifies one archive bucket. Zero month means a year bucket,
// zero day a month bucket.
type archiveKey struct {
	year  int
	month int
	day   int
}

func (k archiveKey) sortKey() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.year, k.month, k.day)
}

func (k archiveKey) monthKey(useNames, longNames bool) string {
	if !useNames {
		return fmt.Sprintf("%02d", k.month)
	}
	layout := "Jan"
	if longNames {
		layout = "January"
	}
	return time.Date(k.year, time.Month(k.month), 1, 0, 0, 0, 0, time.UTC).Format(layout)
}

func (k archiveKey) label(useNames, longNames bool) string {
	monthKey := k.monthKey(useNames, longNames)
	switch {
	case k.day > 0:
		return fmt.Sprintf("%d-%s-%02d", k.year, monthKey, k.day)
	case k.month > 0:
		return fmt.Sprintf("%d-%s", k.year, monthKey)
	default:
		return fmt.Sprintf("%d", k.year)
	}
}

func (k archiveKey) urlshort(prefix string, useNames, longNames bool) string {
	monthKey := k.monthKey(useNames, longNames)
	url := fmt.Sprintf("/%d/", k.year)
	if k.month > 0 {
		url = fmt.Sprintf("/%d/%s/", k.year, monthKey)
	}
	if k.day > 0 {
		url = fmt.Sprintf("/%d/%s/%02d/", k.year, monthKey, k.day)
	}
	if prefix != "" {
		url = "/" + prefix + url
	}
	return url
}

// archiveBlog groups entries into year, month and day buckets and adds one
// container per bucket.
type archiveBlog struct {
	extension.BlogMixin
}

func (archiveBlog) ModifySources(b *blog.Blog, sources []blog.PageSource) ([]blog.PageSource, error) {
	entries, err := b.AllEntries()
	if err != nil {
		return nil, err
	}

	years := b.Config.Bool("archive_years", true)
	months := b.Config.Bool("archive_months", false)
	days := b.Config.Bool("archive_days", false)

	buckets := map[archiveKey][]*blog.Entry{}
	for _, e := range entries {
		ts, err := e.Timestamp()
		if err != nil {
			return nil, err
		}
		if years {
			k := archiveKey{year: ts.Year()}
			buckets[k] = append(buckets[k], e)
		}
		if months {
			k := archiveKey{year: ts.Year(), month: int(ts.Month())}
			buckets[k] = append(buckets[k], e)
		}
		if days {
			k := archiveKey{year: ts.Year(), month: int(ts.Month()), day: ts.Day()}
			buckets[k] = append(buckets[k], e)
		}
	}

	keys := make([]archiveKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].sortKey() < keys[j].sortKey() })

	prefix := b.Config.String("archives_prefix", "")
	useNames := b.Config.Bool("archive_use_monthnames", false)
	longNames := b.Config.Bool("archive_long_monthnames", false)

	containers := make([]*blog.Container, 0, len(keys))
	var linkContainers []*blog.Container
	for _, k := range keys {
		members := buckets[k]
		c := blog.NewContainer(b, "archive")
		c.Name = k.label(useNames, longNames)
		c.TypeName = "Archive"
		c.SortKey = k.sortKey()
		c.URLShort = k.urlshort(prefix, useNames, longNames)
		c.DefaultTitle = "{name}"
		c.DefaultHeading = "Archive: {title}"
		c.Fetch = func(*blog.Container) ([]*blog.Entry, error) { return members, nil }
		containers = append(containers, c)

		link := false
		switch {
		case k.day > 0:
			link = b.Config.Bool("archive_link_days", false)
		case k.month > 0:
			link = b.Config.Bool("archive_link_months", false)
		default:
			link = b.Config.Bool("archive_link_years", true)
		}
		if link {
			linkContainers = append(linkContainers, c)
		}
	}

	for _, c := range containers {
		c.Siblings = containers
	}
	b.Shared["all_archives"] = containers

	links, err := extension.Links(linkContainers, true)
	if err != nil {
		return nil, err
	}
	b.Metadata["archive_links"] = links

	for _, c := range containers {
		sources = append(sources, blog.PageSource{Source: c, Format: "html"})
	}
	return sources, nil
}

type archiveContributor struct{}

func (archiveContributor) Name() string { return "archives" }
func (archiveContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{archiveBlog{}}
}

func init() {
	extension.MustRegister(archiveContributor{})
}
