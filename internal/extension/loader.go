package extension

import (
	"log/slog"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/config"
	"github.com/kvernberg/blogsmith/internal/metrics"
)

// State tracks a loader's lifecycle. A loader composes exactly once; the
// resulting composite is cached and returned on every later Compose call.
type State int

const (
	StateUnconfigured State = iota
	StateResolving
	StateComposed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateResolving:
		return "resolving"
	case StateComposed:
		return "composed"
	default:
		return "unknown"
	}
}

// reservedProps are entry properties bound to struct identity. Overrides
// from extensions are discarded with a warning.
var reservedProps = map[string]bool{
	"cachekey": true,
	"source":   true,
}

// Loader resolves the config-declared extension list against a registry and
// layers the contributors' mixins into a sealed composite.
type Loader struct {
	cfg    *config.Store
	reg    *Registry
	logger *slog.Logger
	rec    metrics.Recorder

	state State
	comp  *blog.Composite
}

type LoaderOption func(*Loader)

func WithRegistry(reg *Registry) LoaderOption {
	return func(l *Loader) { l.reg = reg }
}

func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

func WithRecorder(rec metrics.Recorder) LoaderOption {
	return func(l *Loader) { l.rec = rec }
}

func NewLoader(cfg *config.Store, opts ...LoaderOption) *Loader {
	l := &Loader{
		cfg:    cfg,
		reg:    defaultRegistry,
		logger: slog.Default(),
		rec:    metrics.NoopRecorder{},
		state:  StateUnconfigured,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) State() State { return l.state }

// Compose resolves every declared extension and builds the composite role
// tables. An unresolvable name aborts composition; nothing is partially
// applied to later callers because the composite is only cached on success.
func (l *Loader) Compose() (*blog.Composite, error) {
	if l.state == StateComposed {
		return l.comp, nil
	}
	l.state = StateResolving

	names := l.cfg.Extensions()
	comp := blog.NewComposite()
	counts := map[Role]int{}

	for _, name := range names {
		c, err := l.reg.Resolve(name)
		if err != nil {
			return nil, err
		}
		for _, m := range c.Mixins() {
			l.apply(comp, c, m)
			counts[m.Role()]++
		}
		l.logger.Debug("extension composed", "name", Normalize(name))
	}

	comp.Recorder = l.rec
	comp.Seal()
	l.comp = comp
	l.state = StateComposed
	for _, role := range []Role{RoleEntry, RoleContainer, RolePage, RoleBlog} {
		l.rec.SetComposedMixins(string(role), counts[role])
	}
	l.logger.Info("extension composition complete", "extensions", len(names))
	return comp, nil
}

// apply layers one mixin's contributions into the composite. Map writes
// give last-declared-wins for properties; hook slices append in declaration
// order, and the call sites decide traversal direction.
func (l *Loader) apply(comp *blog.Composite, c Contributor, m Mixin) {
	switch m.Role() {
	case RoleEntry:
		if p, ok := m.(EntryPropsProvider); ok {
			for name, fn := range p.EntryProps() {
				if reservedProps[name] {
					l.logger.Warn("extension override of reserved entry property discarded",
						"extension", c.Name(), "property", name)
					continue
				}
				comp.Entry.Props[name] = fn
			}
		}
		if f, ok := m.(SourceFilter); ok {
			comp.Entry.Filters = append(comp.Entry.Filters, f.FilterSource)
		}
		if r, ok := m.(BodyRenderer); ok {
			comp.Entry.Renderers = append(comp.Entry.Renderers, r.RenderBody)
		}
		if i, ok := m.(EntryInitializer); ok {
			comp.Entry.Inits = append(comp.Entry.Inits, i.InitEntry)
		}
		if o, ok := m.(BodyOverrider); ok {
			comp.Entry.BodyOverrides = append(comp.Entry.BodyOverrides, o.OverrideBody)
		}
		if a, ok := m.(EntryAttrsModifier); ok {
			comp.Entry.AttrsMods = append(comp.Entry.AttrsMods, a.ModifyEntryAttrs)
		}
	case RoleContainer:
		if p, ok := m.(ContainerPropsProvider); ok {
			for name, fn := range p.ContainerProps() {
				comp.Container.Props[name] = fn
			}
		}
	case RolePage:
		if p, ok := m.(PagePropsProvider); ok {
			for name, fn := range p.PageProps() {
				comp.Page.Props[name] = fn
			}
		}
		if i, ok := m.(PageInitializer); ok {
			comp.Page.Inits = append(comp.Page.Inits, i.InitPage)
		}
		if e, ok := m.(EntryParamsModifier); ok {
			comp.Page.ParamsMods = append(comp.Page.ParamsMods, e.ModifyEntryParams)
		}
		if a, ok := m.(PageAttrsModifier); ok {
			comp.Page.AttrsMods = append(comp.Page.AttrsMods, a.ModifyPageAttrs)
		}
		if o, ok := m.(PageBodyOverrider); ok {
			comp.Page.BodyOverrides = append(comp.Page.BodyOverrides, o.OverridePageBody)
		}
	case RoleBlog:
		if p, ok := m.(BlogPropsProvider); ok {
			for name, fn := range p.BlogProps() {
				comp.Blog.Props[name] = fn
			}
		}
		if i, ok := m.(BlogInitializer); ok {
			comp.Blog.Inits = append(comp.Blog.Inits, i.InitBlog)
		}
		if r, ok := m.(RequiredMetadataProvider); ok {
			comp.Blog.RequiredMeta = append(comp.Blog.RequiredMeta, r.RequiredMetadata()...)
		}
		if s, ok := m.(SourcesModifier); ok {
			comp.Blog.SourcesMods = append(comp.Blog.SourcesMods, s.ModifySources)
		}
		if pg, ok := m.(PagesModifier); ok {
			comp.Blog.PagesMods = append(comp.Blog.PagesMods, pg.ModifyPages)
		}
	}
}
