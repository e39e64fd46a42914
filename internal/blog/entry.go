package blog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kvernberg/blogsmith/internal/errors"
)

// Entry is the atomic content unit: one source file under the entries
// directory. Its identity is fixed at creation and never extension-visible:
// CacheKey keys every metadata cache record and SourcePath names the origin
// file. These are the only two attributes the override table refuses to
// touch; everything else an entry exposes can be supplied or replaced by
// mixins.
type Entry struct {
	Blog *Blog

	// CacheKey is the stable identifier, assigned once at creation.
	CacheKey string

	// SourcePath is the origin file. Exempt from override: an entry's
	// origin identity must be stable and extension-independent.
	SourcePath string

	// Meta holds extension-populated metadata merged into template attrs.
	Meta map[string]any

	// Scratch is shared state between an entry's source filters and the
	// properties that consume what they extracted (title line, tag string,
	// fold position).
	Scratch map[string]any

	memo      map[string]any
	rawLoaded bool
	raw       string
	rendered  *string
}

// NewEntry creates the entry for cachekey and runs the composed entry
// initializers in declaration order.
func NewEntry(b *Blog, cachekey string) (*Entry, error) {
	e := &Entry{
		Blog:       b,
		CacheKey:   cachekey,
		SourcePath: filepath.Join(b.Config.EntriesDir(), filepath.FromSlash(cachekey)+b.Config.EntryExt()),
		Meta:       map[string]any{},
		Scratch:    map[string]any{},
		memo:       map[string]any{},
	}
	for _, init := range b.Comp.Entry.Inits {
		if err := init(e); err != nil {
			return nil, fmt.Errorf("entry %s: init: %w", cachekey, err)
		}
	}
	return e, nil
}

// Prop resolves a named property through the composed override table,
// memoizing the result on the instance. The cachekey and source identities
// resolve directly from the struct and bypass the table entirely.
func (e *Entry) Prop(name string) (any, error) {
	switch name {
	case "cachekey":
		return e.CacheKey, nil
	case "source":
		return e.SourcePath, nil
	}
	if v, ok := e.memo[name]; ok {
		return v, nil
	}
	fn, ok := e.Blog.Comp.Entry.Props[name]
	if !ok {
		return nil, errors.New(errors.CategoryInternal, errors.SeverityError,
			fmt.Sprintf("entry has no property %q", name))
	}
	v, err := fn(e)
	if err != nil {
		return nil, err
	}
	e.memo[name] = v
	return v, nil
}

// StringProp resolves a property and coerces it to a string.
func (e *Entry) StringProp(name string) (string, error) {
	v, err := e.Prop(name)
	if err != nil {
		return "", err
	}
	return asString(v)
}

// TimeProp resolves a property expected to hold a time.Time.
func (e *Entry) TimeProp(name string) (time.Time, error) {
	v, err := e.Prop(name)
	if err != nil {
		return time.Time{}, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, errors.New(errors.CategoryInternal, errors.SeverityError,
			fmt.Sprintf("entry property %q is not a timestamp", name))
	}
	return t, nil
}

// Raw loads the entry source and applies the composed source-filter chain in
// extension declaration order. Filters see the output of their predecessors,
// which is why raw-source processors must be declared in the right order.
func (e *Entry) Raw() (string, error) {
	if e.rawLoaded {
		return e.raw, nil
	}
	data, err := os.ReadFile(e.SourcePath)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError,
			"failed to read entry source").WithContext("entry", e.CacheKey)
	}
	raw := string(data)
	for _, filter := range e.Blog.Comp.Entry.Filters {
		if raw, err = filter(e, raw); err != nil {
			return "", fmt.Errorf("entry %s: source filter: %w", e.CacheKey, err)
		}
	}
	e.raw = raw
	e.rawLoaded = true
	return raw, nil
}

// Rendered converts the loaded raw data into the rendered body through the
// composed render chain.
func (e *Entry) Rendered() (string, error) {
	if e.rendered != nil {
		return *e.rendered, nil
	}
	body, err := e.Raw()
	if err != nil {
		return "", err
	}
	for _, render := range e.Blog.Comp.Entry.Renderers {
		if body, err = render(e, body); err != nil {
			return "", fmt.Errorf("entry %s: render: %w", e.CacheKey, err)
		}
	}
	e.rendered = &body
	return body, nil
}

// Body returns the entry body for one render. Body overrides are consulted
// last-declared-first; the first one that answers wins. With no takers the
// rendered body is used.
func (e *Entry) Body(params Params) (string, error) {
	overrides := e.Blog.Comp.Entry.BodyOverrides
	for i := len(overrides) - 1; i >= 0; i-- {
		body, ok, err := overrides[i](e, params)
		if err != nil {
			return "", err
		}
		if ok {
			return body, nil
		}
	}
	return e.Rendered()
}

// Title resolves the entry title.
func (e *Entry) Title() (string, error) { return e.StringProp("title") }

// Heading resolves the entry heading.
func (e *Entry) Heading() (string, error) { return e.StringProp("heading") }

// Timestamp resolves the entry timestamp.
func (e *Entry) Timestamp() (time.Time, error) { return e.TimeProp("timestamp") }

// URLPath resolves the site-root-relative path of the entry, without format
// suffix.
func (e *Entry) URLPath() (string, error) { return e.StringProp("urlpath") }

// Permalink returns the entry's address for one output format.
func (e *Entry) Permalink(format string) (string, error) {
	urlpath, err := e.URLPath()
	if err != nil {
		return "", err
	}
	return urlpath + "." + format, nil
}

// Attrs assembles the template attributes for formatting this entry:
// timestamp variables, the standard identity and content keys, the
// extension-populated metadata, then the composed attribute modifiers.
func (e *Entry) Attrs(format string, params Params) (map[string]any, error) {
	attrs, err := e.timestampVars()
	if err != nil {
		return nil, err
	}
	title, err := e.Title()
	if err != nil {
		return nil, err
	}
	urlpath, err := e.URLPath()
	if err != nil {
		return nil, err
	}
	body, err := e.Body(params)
	if err != nil {
		return nil, err
	}
	permalink, err := e.Permalink(format)
	if err != nil {
		return nil, err
	}
	name, err := e.StringProp("name")
	if err != nil {
		return nil, err
	}
	ts, err := e.Timestamp()
	if err != nil {
		return nil, err
	}
	attrs["name"] = name
	attrs["cachekey"] = e.CacheKey
	attrs["urlpath"] = urlpath
	attrs["title"] = title
	attrs["body"] = body
	attrs["permalink"] = permalink
	attrs["timestamp"] = ts.Format(e.Blog.Config.String("timestamp_format", "15:04"))
	attrs["datestamp"] = ts.Format(e.Blog.Config.String("datestamp_format", "2006-01-02"))
	for k, v := range e.Meta {
		attrs[k] = v
	}
	for _, mod := range e.Blog.Comp.Entry.AttrsMods {
		if err := mod(e, attrs, params); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

// Formatted renders the entry through the entry template for format.
func (e *Entry) Formatted(format string, params Params) (string, error) {
	attrs, err := e.Attrs(format, params)
	if err != nil {
		return "", err
	}
	return e.Blog.RenderTemplate("entry", format, attrs)
}

// timestampVars exposes the timestamp components under the names templates
// use. The month and weekday name keys are the localization hook point:
// mixins override the timestamp_vars property to substitute localized names.
func (e *Entry) timestampVars() (map[string]any, error) {
	v, err := e.Prop("timestamp_vars")
	if err != nil {
		return nil, err
	}
	vars, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New(errors.CategoryInternal, errors.SeverityError,
			"entry property timestamp_vars is not a map")
	}
	// Copy: attrs assembly mutates the result.
	out := make(map[string]any, len(vars))
	for k, val := range vars {
		out[k] = val
	}
	return out, nil
}

// Entry implements Source so a page can wrap it directly.

// SourceKind identifies the entry role to link machinery.
func (e *Entry) SourceKind() string { return "entry" }

// SourceEntries returns the singleton entry list.
func (e *Entry) SourceEntries() ([]*Entry, error) { return []*Entry{e}, nil }

// PrevSource returns nil; single entries have no sibling ordering of their
// own. The links extension wires prev/next entry attrs through containers.
func (e *Entry) PrevSource() Source { return nil }

// NextSource returns nil.
func (e *Entry) NextSource() Source { return nil }

// LinkAttrs returns the attributes used to render a link to this entry.
func (e *Entry) LinkAttrs() (map[string]any, error) {
	title, err := e.Title()
	if err != nil {
		return nil, err
	}
	heading, err := e.Heading()
	if err != nil {
		return nil, err
	}
	urlpath, err := e.URLPath()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"urlshort": urlpath,
		"urlpath":  urlpath,
		"title":    title,
		"heading":  heading,
		"count":    1,
	}, nil
}

// baseEntryProps is the entry role's behavior with zero extensions.
func baseEntryProps() map[string]EntryProp {
	props := map[string]EntryProp{
		"name": func(e *Entry) (any, error) { return e.CacheKey, nil },
		"urlpath": func(e *Entry) (any, error) {
			return "/" + strings.TrimPrefix(e.CacheKey, "/"), nil
		},
		"heading": func(e *Entry) (any, error) { return "Single Entry", nil },
		"title":   func(e *Entry) (any, error) { return e.Prop("name") },
		"timestamp": func(e *Entry) (any, error) {
			info, err := os.Stat(e.SourcePath)
			if err != nil {
				return nil, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError,
					"failed to stat entry source").WithContext("entry", e.CacheKey)
			}
			ts := info.ModTime()
			if e.Blog.Config.Bool("utc_timestamps", false) {
				ts = ts.UTC()
			}
			return ts, nil
		},
		"timestamp_vars": func(e *Entry) (any, error) {
			ts, err := e.Timestamp()
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"year":             ts.Year(),
				"month":            int(ts.Month()),
				"day":              ts.Day(),
				"hour":             ts.Hour(),
				"minute":           ts.Minute(),
				"second":           ts.Second(),
				"monthname":        ts.Format("Jan"),
				"monthname_long":   ts.Format("January"),
				"weekdayname":      ts.Format("Mon"),
				"weekdayname_long": ts.Format("Monday"),
			}, nil
		},
		"rendered": func(e *Entry) (any, error) { return e.Rendered() },
	}
	return props
}
