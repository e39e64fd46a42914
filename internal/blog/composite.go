// Package blog implements the four composable content roles (entry,
// container, page, blog) and the property-resolution engine their behavior
// is assembled from. Extensions contribute property overrides and hook
// functions; the loader layers them into one Composite per process, in
// extension-declaration order, with later layers winning on name collisions.
package blog

import "github.com/kvernberg/blogsmith/internal/metrics"

// Params carries per-render parameters passed down from a page to the
// entries it formats. Extensions read and write them through the entry
// params hooks.
type Params map[string]any

// Get returns the parameter for key, or def when absent.
func (p Params) Get(key string, def any) any {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Int returns the parameter for key coerced to an int.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return def
}

// Bool returns the parameter for key coerced to a bool.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Property functions resolve one named property for an instance of their
// role. Results are memoized on the instance after the first read.
type (
	EntryProp     func(*Entry) (any, error)
	ContainerProp func(*Container) (any, error)
	PageProp      func(*Page) (any, error)
	BlogProp      func(*Blog) (any, error)
)

// Hook function types. Filter and renderer chains run in extension
// declaration order; override chains run last-declared-first, first answer
// wins. Attribute modifiers mutate the map in place.
type (
	// SourceFilterFunc rewrites an entry's raw source as it is loaded
	// (title line extraction, tag markers, fold markers). Order matters:
	// each filter sees the output of the previous one.
	SourceFilterFunc func(*Entry, string) (string, error)

	// RenderFilterFunc converts loaded raw data toward the rendered body
	// (markdown, smart quotes, ...).
	RenderFilterFunc func(*Entry, string) (string, error)

	// BodyOverrideFunc may supply the entry body for a render, e.g. the
	// folded short form on index pages. Returning ok=false declines.
	BodyOverrideFunc func(*Entry, Params) (string, bool, error)

	EntryInitFunc  func(*Entry) error
	EntryAttrsFunc func(*Entry, map[string]any, Params) error

	PageInitFunc    func(*Page) error
	EntryParamsFunc func(*Page, *Entry, Params) error
	PageAttrsFunc   func(*Page, map[string]any) error

	// PageBodyFunc may supply the whole page body instead of the default
	// per-entry assembly (grouped entries, link-list index pages).
	// Returning ok=false declines.
	PageBodyFunc func(*Page, []*Entry) (string, bool, error)

	BlogInitFunc func(*Blog) error
	SourcesFunc  func(*Blog, []PageSource) ([]PageSource, error)
	PagesFunc    func(*Blog, []*Page) ([]*Page, error)
)

// EntryTable is the composed behavior for the entry role.
type EntryTable struct {
	Props         map[string]EntryProp
	Filters       []SourceFilterFunc
	Renderers     []RenderFilterFunc
	Inits         []EntryInitFunc
	BodyOverrides []BodyOverrideFunc
	AttrsMods     []EntryAttrsFunc
}

// ContainerTable is the composed behavior for the container role.
type ContainerTable struct {
	Props map[string]ContainerProp
}

// PageTable is the composed behavior for the page role.
type PageTable struct {
	Props         map[string]PageProp
	Inits         []PageInitFunc
	ParamsMods    []EntryParamsFunc
	AttrsMods     []PageAttrsFunc
	BodyOverrides []PageBodyFunc
}

// BlogTable is the composed behavior for the blog role.
type BlogTable struct {
	Props        map[string]BlogProp
	Inits        []BlogInitFunc
	RequiredMeta []string
	SourcesMods  []SourcesFunc
	PagesMods    []PagesFunc
}

// Composite holds the four per-role tables synthesized by the loader. It is
// built exactly once per process and shared, read-only, by every instance of
// every role. Seal marks the end of composition; further layering is a
// programming error.
type Composite struct {
	Entry     EntryTable
	Container ContainerTable
	Page      PageTable
	Blog      BlogTable

	// Recorder is the metrics recorder the loader composed with. Load
	// hands it to the cache manager so cache traffic from the very first
	// blog initializer is counted.
	Recorder metrics.Recorder

	sealed bool
}

// Seal freezes the composite. Called by the loader when it reaches the
// composed state.
func (c *Composite) Seal() { c.sealed = true }

// Sealed reports whether composition has finished.
func (c *Composite) Sealed() bool { return c.sealed }

// NewComposite returns the base composite: the behavior of the four roles
// with zero extensions loaded.
func NewComposite() *Composite {
	return &Composite{
		Entry:     EntryTable{Props: baseEntryProps()},
		Container: ContainerTable{Props: baseContainerProps()},
		Page:      PageTable{Props: basePageProps()},
		Blog:      BlogTable{Props: baseBlogProps()},
	}
}
