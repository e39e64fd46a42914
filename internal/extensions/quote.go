package extensions

import (
	"net/url"
	"strings"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/errors"
	"github.com/kvernberg/blogsmith/internal/extension"
)

// quoteBlog adds a URL-quoted variant of every *_url metadata key, for
// pasting into share and search links. Relative URLs resolve against the
// mandatory root_url.
type quoteBlog struct {
	extension.BlogMixin
}

func (quoteBlog) RequiredMetadata() []string { return []string{"root_url"} }

func (quoteBlog) InitBlog(b *blog.Blog) error {
	root, _ := b.Metadata["root_url"].(string)
	rootURL, err := url.Parse(root)
	if err != nil {
		return errors.Wrap(err, errors.CategoryMetadata, errors.SeverityFatal,
			"root_url is not a valid URL")
	}

	for key, v := range b.Metadata {
		if !strings.HasSuffix(key, "_url") {
			continue
		}
		quotedKey := key + "_quoted"
		if _, ok := b.Metadata[quotedKey]; ok {
			continue
		}
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var full string
		if key == "root_url" {
			ref, err := url.Parse("/index.html")
			if err != nil {
				return err
			}
			full = rootURL.ResolveReference(ref).String()
		} else {
			ref, err := url.Parse(raw)
			if err != nil {
				return errors.Wrap(err, errors.CategoryMetadata, errors.SeverityError,
					key+" is not a valid URL")
			}
			full = rootURL.ResolveReference(ref).String()
		}
		b.Metadata[quotedKey] = url.QueryEscape(full)
	}
	return nil
}

type quoteContributor struct{}

func (quoteContributor) Name() string { return "quote" }
func (quoteContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{quoteBlog{}}
}

func init() {
	extension.MustRegister(quoteContributor{})
}
