package blog

import (
	"fmt"

	"github.com/kvernberg/blogsmith/internal/config"
	"github.com/kvernberg/blogsmith/internal/errors"
)

// ConfigVar declares a property whose value comes from the config store,
// without writing accessor code: name, config key (defaulting to the name),
// default value, and an optional transform applied to the resolved value.
//
// A declared default makes the key optional. A nil default makes the key
// required, but the error is raised at first property access, not at load
// time, so extensions may declare keys they only conditionally read.
type ConfigVar struct {
	Name      string
	Key       string
	Default   any
	Transform func(any) (any, error)
}

func (v ConfigVar) resolve(cfg *config.Store) (any, error) {
	key := v.Key
	if key == "" {
		key = v.Name
	}
	val, ok := cfg.Value(key)
	if !ok {
		if v.Default == nil {
			return nil, errors.Configuration(key)
		}
		val = v.Default
	}
	if v.Transform != nil {
		return v.Transform(val)
	}
	return val, nil
}

// EntryConfigProps materializes config-bound declarations into entry
// property functions. Instance memoization makes the config lookup happen at
// most once per instance; the config is immutable for the process, so this
// is always safe.
func EntryConfigProps(vars ...ConfigVar) map[string]EntryProp {
	props := make(map[string]EntryProp, len(vars))
	for _, v := range vars {
		props[v.Name] = func(e *Entry) (any, error) { return v.resolve(e.Blog.Config) }
	}
	return props
}

// ContainerConfigProps is EntryConfigProps for the container role.
func ContainerConfigProps(vars ...ConfigVar) map[string]ContainerProp {
	props := make(map[string]ContainerProp, len(vars))
	for _, v := range vars {
		props[v.Name] = func(c *Container) (any, error) { return v.resolve(c.Blog.Config) }
	}
	return props
}

// PageConfigProps is EntryConfigProps for the page role.
func PageConfigProps(vars ...ConfigVar) map[string]PageProp {
	props := make(map[string]PageProp, len(vars))
	for _, v := range vars {
		props[v.Name] = func(p *Page) (any, error) { return v.resolve(p.Blog.Config) }
	}
	return props
}

// BlogConfigProps is EntryConfigProps for the blog role.
func BlogConfigProps(vars ...ConfigVar) map[string]BlogProp {
	props := make(map[string]BlogProp, len(vars))
	for _, v := range vars {
		props[v.Name] = func(b *Blog) (any, error) { return v.resolve(b.Config) }
	}
	return props
}

// Codec converts between a property's in-memory value and its
// JSON-serializable cache representation.
type Codec struct {
	Encode func(any) (any, error)
	Decode func(any) (any, error)
}

// CachedProp wraps an entry property computation with file-backed
// persistence, keyed by the owning entry's cachekey. A stored value is
// accepted as correct by construction; compute runs only on a cache miss,
// and the result is stored for the next run.
func CachedProp(cachename, propname string, compute EntryProp, codec *Codec) EntryProp {
	return func(e *Entry) (any, error) {
		c := e.Blog.Caches.Cache(cachename)
		stored, ok, err := c.Get(e.CacheKey, propname)
		if err != nil {
			return nil, err
		}
		if ok {
			if codec != nil && codec.Decode != nil {
				return codec.Decode(stored)
			}
			return stored, nil
		}
		value, err := compute(e)
		if err != nil {
			return nil, err
		}
		toStore := value
		if codec != nil && codec.Encode != nil {
			if toStore, err = codec.Encode(value); err != nil {
				return nil, err
			}
		}
		if err := c.Put(e.CacheKey, propname, toStore); err != nil {
			return nil, err
		}
		return value, nil
	}
}

// asString coerces a resolved property value to a string.
func asString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprintf("%v", t), nil
	}
}
