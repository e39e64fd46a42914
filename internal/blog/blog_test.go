package blog

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvernberg/blogsmith/internal/config"
)

func TestAllEntriesScansRecursively(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestEntry(t, "top", "body\n")
	writeTestEntry(t, "sub/nested", "body\n")
	b := newTestBlog(t, nil, nil)

	entries, err := b.AllEntries()
	require.NoError(t, err)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.CacheKey)
	}
	assert.ElementsMatch(t, []string{"top", "sub/nested"}, keys)
}

func TestAllEntriesMissingDirIsEmpty(t *testing.T) {
	chdir(t, t.TempDir())
	b := newTestBlog(t, nil, nil)
	entries, err := b.AllEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAllEntriesIgnoresOtherExtensions(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestEntry(t, "post", "body\n")
	require.NoError(t, os.WriteFile("entries/notes.txt", []byte("not an entry"), 0o644))
	b := newTestBlog(t, nil, nil)

	entries, err := b.AllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "post", entries[0].CacheKey)
}

// With zero extensions the blog still produces the index page plus one page
// per entry.
func TestBareBlogProducesIndexAndEntryPages(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestEntry(t, "one", "body one\n")
	writeTestEntry(t, "two", "body two\n")
	b := newTestBlog(t, nil, nil)

	pages, err := b.Pages()
	require.NoError(t, err)
	require.Len(t, pages, 3)

	paths := make([]string, 0, len(pages))
	for _, p := range pages {
		urlpath, err := p.URLPath()
		require.NoError(t, err)
		paths = append(paths, urlpath)
	}
	assert.ElementsMatch(t, []string{"/index.html", "/one.html", "/two.html"}, paths)
}

func TestSourcesHonorFormatConfig(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestEntry(t, "post", "body\n")
	b := newTestBlog(t, map[string]any{
		"index_formats": []string{"html", "txt"},
		"entry_formats": []string{"html"},
	}, nil)

	sources, err := b.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, "txt", sources[1].Format)
	assert.Same(t, b.Index(), sources[0].Source)
}

func TestLoadRejectsMissingRequiredMetadata(t *testing.T) {
	chdir(t, t.TempDir())
	comp := NewComposite()
	comp.Blog.RequiredMeta = []string{"root_url"}
	_, err := Load(config.NewFromMap(nil), comp, "", slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root_url")
}

func TestLoadReadsMetadataFile(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("blog.yaml", []byte("name: Test Blog\ncharset: latin-1\n"), 0o644))
	b := newTestBlog(t, nil, nil)

	assert.Equal(t, "Test Blog", b.Metadata["name"])
	assert.Equal(t, "latin-1", b.Metadata["charset"])

	name, err := b.Prop("name")
	require.NoError(t, err)
	assert.Equal(t, "Test Blog", name)
}

func TestLoadDefaultsCharset(t *testing.T) {
	chdir(t, t.TempDir())
	b := newTestBlog(t, nil, nil)
	assert.Equal(t, "utf-8", b.Metadata["charset"])
}

func TestTemplateOverrideWinsOverBuiltin(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestEntry(t, "post", "body\n")
	require.NoError(t, os.MkdirAll("templates", 0o755))
	require.NoError(t, os.WriteFile("templates/entry.html", []byte("custom: {{.title}}\n"), 0o644))
	b := newTestBlog(t, nil, nil)

	e, err := NewEntry(b, "post")
	require.NoError(t, err)
	out, err := e.Formatted("html", Params{})
	require.NoError(t, err)
	assert.Equal(t, "custom: post\n", out)
}

func TestPageBodyEmptySource(t *testing.T) {
	chdir(t, t.TempDir())
	b := newTestBlog(t, map[string]any{"no_entries_content": "<p>nothing here</p>"}, nil)

	p, err := NewPage(b, b.Index(), "html")
	require.NoError(t, err)
	body, err := p.Body()
	require.NoError(t, err)
	assert.Equal(t, "<p>nothing here</p>", body)
}

func TestPageFilePath(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestEntry(t, "sub/post", "body\n")
	b := newTestBlog(t, nil, nil)
	entries, err := b.AllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	p, err := NewPage(b, entries[0], "html")
	require.NoError(t, err)
	fp, err := p.FilePath()
	require.NoError(t, err)
	assert.Equal(t, "sub/post.html", fp)
}

func TestPageAttrsCarryBlogMetadata(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestEntry(t, "post", "body\n")
	require.NoError(t, os.WriteFile("blog.yaml", []byte("name: Test Blog\n"), 0o644))
	b := newTestBlog(t, nil, nil)

	p, err := NewPage(b, b.Index(), "html")
	require.NoError(t, err)
	attrs, err := p.Attrs()
	require.NoError(t, err)
	assert.Equal(t, "Test Blog", attrs["blog_name"])
	assert.Equal(t, GeneratorName, attrs["sys_gen_name"])
	assert.Equal(t, "Home", attrs["page_title"])
}
