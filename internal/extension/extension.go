// Package extension defines the contributor contract and the loader that
// composes the four content roles from the config-declared extension list.
//
// A contributor offers zero or one mixin per role. Discovery is
// registration-free from the contributor's point of view beyond a single
// Register call: the loader recognizes what a mixin can do by its capability
// interfaces, never by naming conventions.
package extension

import (
	"github.com/kvernberg/blogsmith/internal/blog"
)

// Role enumerates the four composable roles a mixin can attach to.
type Role string

const (
	RoleEntry     Role = "entry"
	RoleContainer Role = "container"
	RolePage      Role = "page"
	RoleBlog      Role = "blog"
)

// Mixin is the capability marker every role mixin carries. The loader
// filters a contributor's mixins by this marker and layers them into the
// role's composite table.
type Mixin interface {
	Role() Role
}

// Contributor is an independently authored extension: a name to declare in
// config and the mixins it supplies.
type Contributor interface {
	Name() string
	Mixins() []Mixin
}

// Base mixin types for embedding. A mixin embeds the base for its role and
// implements whichever capability interfaces below it needs.
type (
	EntryMixin     struct{}
	ContainerMixin struct{}
	PageMixin      struct{}
	BlogMixin      struct{}
)

func (EntryMixin) Role() Role     { return RoleEntry }
func (ContainerMixin) Role() Role { return RoleContainer }
func (PageMixin) Role() Role      { return RolePage }
func (BlogMixin) Role() Role      { return RoleBlog }

// Capability interfaces for entry mixins.
type (
	// EntryPropsProvider contributes property overrides. Later-declared
	// extensions win on name collisions; overrides of the reserved
	// cachekey and source names are discarded.
	EntryPropsProvider interface {
		EntryProps() map[string]blog.EntryProp
	}

	// SourceFilter rewrites raw entry source during load. Filters run in
	// extension declaration order (title before tags before folding when
	// declared that way; the loader does not check).
	SourceFilter interface {
		FilterSource(*blog.Entry, string) (string, error)
	}

	// BodyRenderer participates in the raw-to-rendered chain.
	BodyRenderer interface {
		RenderBody(*blog.Entry, string) (string, error)
	}

	// EntryInitializer runs after each entry is constructed.
	EntryInitializer interface {
		InitEntry(*blog.Entry) error
	}

	// BodyOverrider may substitute the entry body for one render.
	BodyOverrider interface {
		OverrideBody(*blog.Entry, blog.Params) (string, bool, error)
	}

	// EntryAttrsModifier adjusts an entry's template attributes.
	EntryAttrsModifier interface {
		ModifyEntryAttrs(*blog.Entry, map[string]any, blog.Params) error
	}
)

// Capability interfaces for container mixins.
type (
	ContainerPropsProvider interface {
		ContainerProps() map[string]blog.ContainerProp
	}
)

// Capability interfaces for page mixins.
type (
	PagePropsProvider interface {
		PageProps() map[string]blog.PageProp
	}

	PageInitializer interface {
		InitPage(*blog.Page) error
	}

	// EntryParamsModifier adjusts the render parameters a page hands to
	// each of its entries.
	EntryParamsModifier interface {
		ModifyEntryParams(*blog.Page, *blog.Entry, blog.Params) error
	}

	PageAttrsModifier interface {
		ModifyPageAttrs(*blog.Page, map[string]any) error
	}

	// PageBodyOverrider may supply a page's whole body in place of the
	// default per-entry assembly. Returning ok=false declines.
	PageBodyOverrider interface {
		OverridePageBody(*blog.Page, []*blog.Entry) (string, bool, error)
	}
)

// Capability interfaces for blog mixins.
type (
	BlogPropsProvider interface {
		BlogProps() map[string]blog.BlogProp
	}

	BlogInitializer interface {
		InitBlog(*blog.Blog) error
	}

	// RequiredMetadataProvider adds keys the blog metadata file must carry.
	RequiredMetadataProvider interface {
		RequiredMetadata() []string
	}

	// SourcesModifier rewrites the (source, format) list pages derive
	// from: adding containers, replacing them with paginated slices, etc.
	SourcesModifier interface {
		ModifySources(*blog.Blog, []blog.PageSource) ([]blog.PageSource, error)
	}

	// PagesModifier rewrites the final page list.
	PagesModifier interface {
		ModifyPages(*blog.Blog, []*blog.Page) ([]*blog.Page, error)
	}
)
