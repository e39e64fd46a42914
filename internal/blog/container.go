package blog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kvernberg/blogsmith/internal/errors"
)

// Source is what a page wraps: either a single entry or a container of
// entries. Pages are polymorphic over this contract and nothing else.
type Source interface {
	SourceKind() string
	Title() (string, error)
	Heading() (string, error)
	URLPath() (string, error)
	SourceEntries() ([]*Entry, error)
	PrevSource() Source
	NextSource() Source
	LinkAttrs() (map[string]any, error)
}

// PageSource pairs a source with the output format it will be rendered in.
// The blog's source list holds one of these per page to build.
type PageSource struct {
	Source Source
	Format string
}

// Container groups entries sharing some criterion: a tag, a category, a date
// bucket, or the whole blog for the default index. Extensions define the
// grouping by supplying Fetch; ordering is reverse-chronological unless
// configured otherwise.
type Container struct {
	Blog *Blog

	// Kind is the sourcetype ("blog", "tag", "category", "archive", ...)
	// used to scope config template keys and link machinery.
	Kind string

	// Name and TypeName label named containers ("go", "Tag").
	Name     string
	TypeName string

	// URLShort is the trailing-slash-terminated base path ("/", "/tags/go/").
	URLShort string

	// SortKey orders sibling containers in link lists.
	SortKey string

	// Fetch returns the membership set. Entries are sorted afterwards.
	Fetch func(*Container) ([]*Entry, error)

	// Siblings is the ordered family this container belongs to, for
	// previous/next navigation. Nil for solitary containers.
	Siblings []*Container

	// URLPathFunc overrides the derived urlpath when set (pagination).
	URLPathFunc func(*Container) (string, error)

	DefaultTitle   string
	DefaultHeading string

	memo        map[string]any
	entries     []*Entry
	entriesDone bool
}

// NewContainer creates a container of the given kind.
func NewContainer(b *Blog, kind string) *Container {
	return &Container{Blog: b, Kind: kind, memo: map[string]any{}}
}

// NewNamedContainer creates a named container (tag, category) with the
// conventional defaults: url under an optional prefix, title from the name,
// heading "TypeName: name".
func NewNamedContainer(b *Blog, kind, typeName, name, prefix string) *Container {
	c := NewContainer(b, kind)
	c.Name = name
	c.TypeName = typeName
	c.SortKey = name
	if prefix != "" {
		c.URLShort = "/" + prefix + "/" + name + "/"
	} else {
		c.URLShort = "/" + name + "/"
	}
	c.DefaultTitle = "{name}"
	c.DefaultHeading = "{typename}: {name}"
	return c
}

// NewIndex creates the default container holding all entries. Every blog has
// exactly one, even with zero extensions loaded.
func NewIndex(b *Blog) *Container {
	c := NewContainer(b, "blog")
	c.URLShort = "/"
	c.DefaultTitle = "Home"
	c.DefaultHeading = "Home Page"
	c.Fetch = func(c *Container) ([]*Entry, error) { return c.Blog.AllEntries() }
	return c
}

// Prop resolves a named property through the composed container table.
func (c *Container) Prop(name string) (any, error) {
	if v, ok := c.memo[name]; ok {
		return v, nil
	}
	fn, ok := c.Blog.Comp.Container.Props[name]
	if !ok {
		return nil, errors.New(errors.CategoryInternal, errors.SeverityError,
			fmt.Sprintf("container has no property %q", name))
	}
	v, err := fn(c)
	if err != nil {
		return nil, err
	}
	c.memo[name] = v
	return v, nil
}

// StringProp resolves a property and coerces it to a string.
func (c *Container) StringProp(name string) (string, error) {
	v, err := c.Prop(name)
	if err != nil {
		return "", err
	}
	return asString(v)
}

// Entries returns the membership set in display order. Sorting is by entry
// timestamp, newest first unless entry_sort_reversed is disabled.
func (c *Container) Entries() ([]*Entry, error) {
	if c.entriesDone {
		return c.entries, nil
	}
	var entries []*Entry
	var err error
	if c.Fetch != nil {
		if entries, err = c.Fetch(c); err != nil {
			return nil, err
		}
	}
	type keyed struct {
		entry *Entry
		ts    time.Time
	}
	keys := make([]keyed, 0, len(entries))
	for _, e := range entries {
		ts, err := e.Timestamp()
		if err != nil {
			return nil, err
		}
		keys = append(keys, keyed{e, ts})
	}
	reversed := c.Blog.Config.Bool("entry_sort_reversed", true)
	sort.SliceStable(keys, func(i, j int) bool {
		if reversed {
			return keys[i].ts.After(keys[j].ts)
		}
		return keys[i].ts.Before(keys[j].ts)
	})
	sorted := make([]*Entry, len(keys))
	for i, k := range keys {
		sorted[i] = k.entry
	}
	c.entries = sorted
	c.entriesDone = true
	return sorted, nil
}

// expand substitutes the container's label variables into a config template.
func (c *Container) expand(tmpl string, withTitle bool) (string, error) {
	pairs := []string{
		"{name}", c.Name,
		"{typename}", c.TypeName,
	}
	if withTitle {
		title, err := c.Title()
		if err != nil {
			return "", err
		}
		pairs = append(pairs, "{title}", title)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

// Title resolves the container title.
func (c *Container) Title() (string, error) { return c.StringProp("title") }

// Heading resolves the container heading.
func (c *Container) Heading() (string, error) { return c.StringProp("heading") }

// SourceKind identifies the container's sourcetype.
func (c *Container) SourceKind() string { return c.Kind }

// SourceEntries implements Source.
func (c *Container) SourceEntries() ([]*Entry, error) { return c.Entries() }

// URLPath returns the index page path for this container.
func (c *Container) URLPath() (string, error) {
	if c.URLPathFunc != nil {
		return c.URLPathFunc(c)
	}
	return c.URLShort + "index", nil
}

// siblingIndex locates this container within its family, or -1.
func (c *Container) siblingIndex() int {
	for i, s := range c.Siblings {
		if s == c {
			return i
		}
	}
	return -1
}

// PrevSource returns the previous container in the family, or nil.
func (c *Container) PrevSource() Source {
	if i := c.siblingIndex(); i > 0 {
		return c.Siblings[i-1]
	}
	return nil
}

// NextSource returns the next container in the family, or nil.
func (c *Container) NextSource() Source {
	if i := c.siblingIndex(); i > -1 && i < len(c.Siblings)-1 {
		return c.Siblings[i+1]
	}
	return nil
}

// LinkAttrs returns the attributes used to render a link to this container.
func (c *Container) LinkAttrs() (map[string]any, error) {
	title, err := c.Title()
	if err != nil {
		return nil, err
	}
	heading, err := c.Heading()
	if err != nil {
		return nil, err
	}
	urlpath, err := c.URLPath()
	if err != nil {
		return nil, err
	}
	entries, err := c.Entries()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"urlshort": c.URLShort,
		"urlpath":  urlpath,
		"title":    title,
		"heading":  heading,
		"count":    len(entries),
	}, nil
}

// baseContainerProps is the container role's behavior with zero extensions.
// Title and heading honor per-kind config templates before falling back to
// the container's declared defaults.
func baseContainerProps() map[string]ContainerProp {
	return map[string]ContainerProp{
		"title": func(c *Container) (any, error) {
			tmpl := c.DefaultTitle
			if c.Kind != "" {
				tmpl = c.Blog.Config.String(c.Kind+"_title_template", tmpl)
			}
			return c.expand(tmpl, false)
		},
		"heading": func(c *Container) (any, error) {
			tmpl := c.DefaultHeading
			if c.Kind != "" {
				tmpl = c.Blog.Config.String(c.Kind+"_heading_template", tmpl)
			}
			return c.expand(tmpl, true)
		},
	}
}
