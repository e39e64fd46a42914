package extension

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kvernberg/blogsmith/internal/errors"
)

// Normalize maps a config-facing extension name to its canonical registry
// form. Hyphens and underscores are interchangeable in config.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}

// Registry holds the contributors available for composition.
type Registry struct {
	mu           sync.RWMutex
	contributors map[string]Contributor
}

func NewRegistry() *Registry {
	return &Registry{contributors: make(map[string]Contributor)}
}

// Register adds a contributor under its normalized name. Registering two
// contributors with the same name is a programming error.
func (r *Registry) Register(c Contributor) error {
	name := Normalize(c.Name())
	if name == "" {
		return errors.New(errors.CategoryExtension, errors.SeverityFatal, "contributor has empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contributors[name]; ok {
		return errors.New(errors.CategoryExtension, errors.SeverityFatal,
			fmt.Sprintf("contributor %q registered twice", name))
	}
	r.contributors[name] = c
	return nil
}

// MustRegister is Register for package init blocks.
func (r *Registry) MustRegister(c Contributor) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Resolve looks up a contributor by config name.
func (r *Registry) Resolve(name string) (Contributor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contributors[Normalize(name)]
	if !ok {
		return nil, errors.Resolution(name)
	}
	return c, nil
}

// Names returns the registered contributor names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.contributors))
	for name := range r.contributors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry backs the package-level registration used by the builtin
// contributors' init functions.
var defaultRegistry = NewRegistry()

func DefaultRegistry() *Registry { return defaultRegistry }

func MustRegister(c Contributor) { defaultRegistry.MustRegister(c) }
