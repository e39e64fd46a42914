package extensions

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/config"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// buildBlog assembles a blog in a fresh working directory: entry files,
// config values, composition of the named extensions.
func buildBlog(t *testing.T, settings map[string]any) *blog.Blog {
	t.Helper()
	cfg := config.NewFromMap(settings)
	comp, err := extension.NewLoader(cfg).Compose()
	require.NoError(t, err)
	b, err := blog.Load(cfg, comp, "", slog.Default())
	require.NoError(t, err)
	return b
}

func writeEntry(t *testing.T, cachekey, content string) {
	t.Helper()
	path := filepath.Join("entries", filepath.FromSlash(cachekey)+".html")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func touchEntry(t *testing.T, cachekey string, ts time.Time) {
	t.Helper()
	path := filepath.Join("entries", filepath.FromSlash(cachekey)+".html")
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func singleEntry(t *testing.T, b *blog.Blog) *blog.Entry {
	t.Helper()
	entries, err := b.AllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return entries[0]
}

func TestSourceFilterChainOrder(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "post", "The *Title*\n#tags go, fun\nIntro paragraph.\n<!-- FOLD -->\nMore body.\n")

	b := buildBlog(t, map[string]any{
		"extensions": []string{"title", "tags", "folding"},
	})
	e := singleEntry(t, b)

	raw, err := e.Raw()
	require.NoError(t, err)
	assert.Equal(t, "Intro paragraph.\nMore body.\n", raw)

	title, err := e.Title()
	require.NoError(t, err)
	assert.Equal(t, "The *Title*", title)

	tags, err := e.StringProp("tags")
	require.NoError(t, err)
	assert.Equal(t, "fun,go", tags)

	assert.Equal(t, "Intro paragraph.\n", e.Scratch["short"])
}

func TestTitleFormatting(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "post", "A **big** *deal*\nBody.\n")

	b := buildBlog(t, map[string]any{
		"extensions":   []string{"title"},
		"title_format": true,
	})
	title, err := singleEntry(t, b).Title()
	require.NoError(t, err)
	assert.Equal(t, "A <strong>big</strong> <em>deal</em>", title)
}

func TestMisorderedFiltersStillLoad(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "post", "The Title\n#tags go\nBody.\n")

	// Tags declared before title: the tag filter sees the title line first.
	// The wrong order changes the result but must never error.
	b := buildBlog(t, map[string]any{
		"extensions": []string{"tags", "title"},
	})
	_, err := singleEntry(t, b).Raw()
	require.NoError(t, err)
}

func TestTitleTrustedFromCacheAcrossRebuilds(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeEntry(t, "post", "First Title\nBody.\n")

	settings := map[string]any{"extensions": []string{"title"}}
	b := buildBlog(t, settings)
	title, err := singleEntry(t, b).Title()
	require.NoError(t, err)
	assert.Equal(t, "First Title", title)
	require.NoError(t, b.Caches.Flush())

	// The source changes, but the cached title stays authoritative.
	writeEntry(t, "post", "Second Title\nBody.\n")
	b2 := buildBlog(t, settings)
	title, err = singleEntry(t, b2).Title()
	require.NoError(t, err)
	assert.Equal(t, "First Title", title)
}

func TestTimestampPinnedByCache(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "post", "Body.\n")
	first := time.Date(2023, 4, 1, 10, 30, 0, 0, time.Local)
	touchEntry(t, "post", first)

	settings := map[string]any{"extensions": []string{"timestamps"}}
	b := buildBlog(t, settings)
	ts, err := singleEntry(t, b).Timestamp()
	require.NoError(t, err)
	assert.Equal(t, first, ts)
	require.NoError(t, b.Caches.Flush())

	touchEntry(t, "post", first.AddDate(1, 0, 0))
	b2 := buildBlog(t, settings)
	ts, err = singleEntry(t, b2).Timestamp()
	require.NoError(t, err)
	assert.Equal(t, first, ts)
}

func TestTimestampCodecRoundTrip(t *testing.T) {
	ts := time.Date(2023, 4, 1, 10, 30, 0, 0, time.Local)
	encoded := encodeTimestamp(ts, false)
	assert.Equal(t, "2023-04-01-10-30", encoded)
	decoded, err := decodeTimestamp(encoded)
	require.NoError(t, err)
	assert.Equal(t, ts, decoded)

	_, err = decodeTimestamp("not-a-timestamp")
	assert.Error(t, err)
}

func TestMarkdownRendering(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "post", "Some **bold** text.\n")

	b := buildBlog(t, map[string]any{
		"extensions": []string{"render-markdown"},
	})
	rendered, err := singleEntry(t, b).Rendered()
	require.NoError(t, err)
	assert.Contains(t, rendered, "<strong>bold</strong>")
}

func TestTagContainers(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "one", "Title One\n#tags go, blog\nBody one.\n")
	writeEntry(t, "two", "Title Two\n#tags go\nBody two.\n")

	b := buildBlog(t, map[string]any{
		"extensions": []string{"title", "tags"},
	})
	sources, err := b.Sources()
	require.NoError(t, err)

	var tagPaths []string
	for _, ps := range sources {
		if ps.Source.SourceKind() == "tag" {
			p, err := ps.Source.URLPath()
			require.NoError(t, err)
			tagPaths = append(tagPaths, p)
		}
	}
	assert.ElementsMatch(t, []string{"/go/index", "/blog/index"}, tagPaths)

	assert.Contains(t, b.Metadata["tag_links"], `<a href="/go/">go</a>`)

	containers, ok := b.Shared["all_tags"].([]*blog.Container)
	require.True(t, ok)
	require.Len(t, containers, 2)
}

func TestFoldingShortFormPastTheFold(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "newer", "Newer\nNewer intro.\n<!-- FOLD -->\nNewer full body.\n")
	writeEntry(t, "older", "Older\nOlder intro.\n<!-- FOLD -->\nOlder full body.\n")
	touchEntry(t, "older", time.Now().Add(-time.Hour))

	b := buildBlog(t, map[string]any{
		"extensions":       []string{"title", "folding"},
		"max_full_entries": 1,
	})
	pages, err := b.Pages()
	require.NoError(t, err)

	var index *blog.Page
	for _, p := range pages {
		if p.Source.SourceKind() == "blog" {
			index = p
		}
	}
	require.NotNil(t, index)

	body, err := index.Body()
	require.NoError(t, err)
	// First entry above the fold renders in full; the second folds.
	assert.Contains(t, body, "Newer full body.")
	assert.Contains(t, body, "Older intro.")
	assert.NotContains(t, body, "Older full body.")
}

func TestPaginateSplitsLargeContainers(t *testing.T) {
	chdir(t, t.TempDir())
	base := time.Now().Add(-24 * time.Hour)
	for i, key := range []string{"a", "b", "c", "d", "e"} {
		writeEntry(t, key, "Title\nBody "+key+".\n")
		touchEntry(t, key, base.Add(time.Duration(i)*time.Minute))
	}

	b := buildBlog(t, map[string]any{
		"extensions":       []string{"title", "paginate"},
		"page_max_entries": 2,
	})
	sources, err := b.Sources()
	require.NoError(t, err)

	var indexPaths []string
	for _, ps := range sources {
		if ps.Source.SourceKind() == "blog" {
			p, err := ps.Source.URLPath()
			require.NoError(t, err)
			indexPaths = append(indexPaths, p)
		}
	}
	assert.Equal(t, []string{"/index", "/index1", "/index2"}, indexPaths)

	pages, err := b.Pages()
	require.NoError(t, err)
	var first *blog.Page
	for _, p := range pages {
		path, err := p.URLPath()
		require.NoError(t, err)
		if path == "/index.html" {
			first = p
		}
	}
	require.NotNil(t, first)
	attrs, err := first.Attrs()
	require.NoError(t, err)
	assert.Empty(t, attrs["page_link_newer"])
	assert.Contains(t, attrs["page_link_older"], "/index1.html")
}

func TestArchiveContainers(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "old", "Old\nBody.\n")
	touchEntry(t, "old", time.Date(2022, 6, 1, 12, 0, 0, 0, time.Local))
	writeEntry(t, "new", "New\nBody.\n")
	touchEntry(t, "new", time.Date(2023, 2, 1, 12, 0, 0, 0, time.Local))

	b := buildBlog(t, map[string]any{
		"extensions": []string{"title", "timestamps", "archives"},
	})
	sources, err := b.Sources()
	require.NoError(t, err)

	var archivePaths []string
	for _, ps := range sources {
		if ps.Source.SourceKind() == "archive" {
			p, err := ps.Source.URLPath()
			require.NoError(t, err)
			archivePaths = append(archivePaths, p)
		}
	}
	assert.Equal(t, []string{"/2022/index", "/2023/index"}, archivePaths)
	assert.Contains(t, b.Metadata["archive_links"], `<a href="/2023/">2023</a>`)
}

func TestCategoryContainers(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "tech/post", "Post\nBody.\n")
	writeEntry(t, "note", "Note\nBody.\n")

	b := buildBlog(t, map[string]any{
		"extensions": []string{"title", "categories"},
	})
	e, err := b.AllEntries()
	require.NoError(t, err)

	byKey := map[string]*blog.Entry{}
	for _, entry := range e {
		byKey[entry.CacheKey] = entry
	}
	name, err := byKey["tech/post"].StringProp("name")
	require.NoError(t, err)
	assert.Equal(t, "post", name)
	cat, err := byKey["tech/post"].StringProp("category")
	require.NoError(t, err)
	assert.Equal(t, "tech", cat)
	cat, err = byKey["note"].StringProp("category")
	require.NoError(t, err)
	assert.Equal(t, "", cat)

	sources, err := b.Sources()
	require.NoError(t, err)
	var catPaths []string
	for _, ps := range sources {
		if ps.Source.SourceKind() == "category" {
			p, err := ps.Source.URLPath()
			require.NoError(t, err)
			catPaths = append(catPaths, p)
		}
	}
	assert.Equal(t, []string{"/tech/index"}, catPaths)
	assert.Contains(t, b.Metadata["category_links"], ">Tech<")
}

func TestEntryLinks(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "newer", "Newer\nBody.\n")
	writeEntry(t, "older", "Older\nBody.\n")
	touchEntry(t, "older", time.Now().Add(-time.Hour))

	b := buildBlog(t, map[string]any{
		"extensions": []string{"title", "links"},
	})
	pages, err := b.Pages()
	require.NoError(t, err)

	var newerPage *blog.Page
	for _, p := range pages {
		if e, ok := p.Source.(*blog.Entry); ok && e.CacheKey == "newer" {
			newerPage = p
		}
	}
	require.NotNil(t, newerPage)

	attrs, err := newerPage.Attrs()
	require.NoError(t, err)
	links, ok := attrs["page_entrylinks"].(string)
	require.True(t, ok)
	assert.Contains(t, links, `<a href="/older.html"`)
	assert.Contains(t, links, "previous in blog")
	// Nothing newer exists, so the next link stays plain text.
	assert.NotContains(t, links, `>next in blog</a>`)
}

func TestQuoteMetadata(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "post", "Body.\n")
	require.NoError(t, os.WriteFile("blog.yaml", []byte(
		"name: Test Blog\nroot_url: https://example.com\nfeed_url: /feed.xml\n"), 0o644))

	b := buildBlog(t, map[string]any{"extensions": []string{"quote"}})
	assert.Equal(t, "https%3A%2F%2Fexample.com%2Findex.html", b.Metadata["root_url_quoted"])
	assert.Equal(t, "https%3A%2F%2Fexample.com%2Ffeed.xml", b.Metadata["feed_url_quoted"])
}

func TestQuoteRequiresRootURL(t *testing.T) {
	chdir(t, t.TempDir())
	cfg := config.NewFromMap(map[string]any{"extensions": []string{"quote"}})
	comp, err := extension.NewLoader(cfg).Compose()
	require.NoError(t, err)
	_, err = blog.Load(cfg, comp, "", slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root_url")
}

func TestCopyrightYearSpan(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "old", "Body.\n")
	touchEntry(t, "old", time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local))
	writeEntry(t, "new", "Body.\n")
	touchEntry(t, "new", time.Date(2023, 1, 1, 0, 0, 0, 0, time.Local))

	b := buildBlog(t, map[string]any{"extensions": []string{"copyright"}})
	assert.Equal(t, "Copyright 2020-2023", b.Metadata["copyright"])
	assert.Equal(t, "Copyright &copy; 2020-2023", b.Metadata["copyright_display"])
}

func findPage(t *testing.T, b *blog.Blog, urlpath string) *blog.Page {
	t.Helper()
	pages, err := b.Pages()
	require.NoError(t, err)
	for _, p := range pages {
		path, err := p.URLPath()
		require.NoError(t, err)
		if path == urlpath {
			return p
		}
	}
	t.Fatalf("no page at %s", urlpath)
	return nil
}

func TestLinkIndexChronological(t *testing.T) {
	chdir(t, t.TempDir())
	base := time.Now().Add(-24 * time.Hour)
	writeEntry(t, "older", "Zebra Post\nBody.\n")
	touchEntry(t, "older", base)
	writeEntry(t, "newer", "Apple Post\nBody.\n")
	touchEntry(t, "newer", base.Add(time.Hour))

	b := buildBlog(t, map[string]any{
		"extensions": []string{"title", "indexes"},
	})
	p := findPage(t, b, "/index-chrono.html")

	title, err := p.Source.Title()
	require.NoError(t, err)
	assert.Equal(t, "Chronological Index", title)

	body, err := p.Body()
	require.NoError(t, err)
	newer := strings.Index(body, `<a href="/newer.html">Apple Post</a>`)
	older := strings.Index(body, `<a href="/older.html">Zebra Post</a>`)
	require.GreaterOrEqual(t, newer, 0)
	require.GreaterOrEqual(t, older, 0)
	assert.Less(t, newer, older)
	assert.Contains(t, body, "<br>")
}

func TestLinkIndexAlphaAndKeyModes(t *testing.T) {
	chdir(t, t.TempDir())
	base := time.Now().Add(-24 * time.Hour)
	writeEntry(t, "older", "Zebra Post\nBody.\n")
	touchEntry(t, "older", base)
	writeEntry(t, "newer", "Apple Post\nBody.\n")
	touchEntry(t, "newer", base.Add(time.Hour))

	b := buildBlog(t, map[string]any{
		"extensions":        []string{"title", "indexes"},
		"link_index_chrono": false,
		"link_index_alpha":  true,
		"link_index_key":    true,
	})

	alpha := findPage(t, b, "/index-alpha.html")
	body, err := alpha.Body()
	require.NoError(t, err)
	apple := strings.Index(body, "Apple Post")
	zebra := strings.Index(body, "Zebra Post")
	require.GreaterOrEqual(t, apple, 0)
	require.GreaterOrEqual(t, zebra, 0)
	assert.Less(t, apple, zebra)

	key := findPage(t, b, "/index-key.html")
	body, err = key.Body()
	require.NoError(t, err)
	// Key mode labels links with the cachekey, ascending.
	newer := strings.Index(body, `<a href="/newer.html">newer</a>`)
	older := strings.Index(body, `<a href="/older.html">older</a>`)
	require.GreaterOrEqual(t, newer, 0)
	require.GreaterOrEqual(t, older, 0)
	assert.Less(t, newer, older)
}

func TestGroupingByDatestamp(t *testing.T) {
	chdir(t, t.TempDir())
	day1 := time.Date(2023, 4, 1, 10, 0, 0, 0, time.Local)
	day2 := time.Date(2023, 4, 2, 10, 0, 0, 0, time.Local)
	writeEntry(t, "first", "First\nBody one.\n")
	touchEntry(t, "first", day1)
	writeEntry(t, "second", "Second\nBody two.\n")
	touchEntry(t, "second", day1.Add(time.Hour))
	writeEntry(t, "third", "Third\nBody three.\n")
	touchEntry(t, "third", day2)

	b := buildBlog(t, map[string]any{
		"extensions": []string{"title", "timestamps", "grouping"},
	})
	p := findPage(t, b, "/index.html")
	body, err := p.Body()
	require.NoError(t, err)

	// One head per date run, newest date first.
	assert.Equal(t, 1, strings.Count(body, `<h2 class="group-head">2023-04-02</h2>`))
	assert.Equal(t, 1, strings.Count(body, `<h2 class="group-head">2023-04-01</h2>`))
	assert.Less(t,
		strings.Index(body, "2023-04-02"),
		strings.Index(body, "2023-04-01"))
	assert.Less(t,
		strings.Index(body, "Body three."),
		strings.Index(body, "Body two."))
}

func TestGroupingDeclinesOtherFormats(t *testing.T) {
	chdir(t, t.TempDir())
	writeEntry(t, "post", "Title\nBody.\n")

	b := buildBlog(t, map[string]any{
		"extensions":    []string{"title", "grouping"},
		"group_formats": []string{"txt"},
	})
	p := findPage(t, b, "/index.html")
	body, err := p.Body()
	require.NoError(t, err)
	assert.NotContains(t, body, "group-head")
}
