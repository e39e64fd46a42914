package extensions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kvernberg/blogsmith/internal/blog"
	"github.com/kvernberg/blogsmith/internal/errors"
	"github.com/kvernberg/blogsmith/internal/extension"
)

const timestampCacheName = "timestamps"

// encodeTimestamp serializes a timestamp for the cache file. Minute
// resolution by default; second resolution with timestamps_cache_seconds.
func encodeTimestamp(ts time.Time, seconds bool) string {
	fields := []int{ts.Year(), int(ts.Month()), ts.Day(), ts.Hour(), ts.Minute()}
	if seconds {
		fields = append(fields, ts.Second())
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%02d", f)
	}
	return strings.Join(parts, "-")
}

// decodeTimestamp parses a cached timestamp string back into a time.Time.
// Both the five-field and six-field forms are accepted regardless of the
// current timestamps_cache_seconds setting.
func decodeTimestamp(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 5 || len(parts) > 6 {
		return time.Time{}, errors.New(errors.CategoryCache, errors.SeverityError,
			fmt.Sprintf("%q is not a valid cached timestamp", s))
	}
	fields := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, errors.Wrap(err, errors.CategoryCache, errors.SeverityError,
				fmt.Sprintf("%q is not a valid cached timestamp", s))
		}
		fields[i] = n
	}
	return time.Date(fields[0], time.Month(fields[1]), fields[2],
		fields[3], fields[4], fields[5], 0, time.Local), nil
}

// timestampEntry pins each entry's timestamp across rebuilds: the source
// file mtime is read once, stored in the timestamps cache, and trusted from
// the cache ever after, so editing an old entry does not reorder the blog.
type timestampEntry struct {
	extension.EntryMixin
}

func (timestampEntry) EntryProps() map[string]blog.EntryProp {
	compute := func(e *blog.Entry) (any, error) {
		info, err := os.Stat(e.SourcePath)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError,
				"failed to stat entry source").WithContext("entry", e.CacheKey)
		}
		ts := info.ModTime()
		if e.Blog.Config.Bool("utc_timestamps", false) {
			ts = ts.UTC()
		}
		// Truncate to what the cache will hold, so the first run and
		// every cached run agree on ordering.
		seconds := e.Blog.Config.Bool("timestamps_cache_seconds", false)
		decoded, err := decodeTimestamp(encodeTimestamp(ts, seconds))
		if err != nil {
			return nil, err
		}
		return decoded, nil
	}
	return map[string]blog.EntryProp{
		"timestamp": blog.CachedProp(timestampCacheName, "timestamp", compute, &blog.Codec{
			Encode: func(v any) (any, error) {
				ts, ok := v.(time.Time)
				if !ok {
					return nil, errors.New(errors.CategoryInternal, errors.SeverityError,
						"timestamp property did not compute a time value")
				}
				return encodeTimestamp(ts, ts.Second() != 0), nil
			},
			Decode: func(v any) (any, error) {
				s, ok := v.(string)
				if !ok {
					return nil, errors.New(errors.CategoryCache, errors.SeverityError,
						"cached timestamp is not a string")
				}
				return decodeTimestamp(s)
			},
		}),
	}
}

type timestampContributor struct{}

func (timestampContributor) Name() string { return "timestamps" }
func (timestampContributor) Mixins() []extension.Mixin {
	return []extension.Mixin{timestampEntry{}}
}

func init() {
	extension.MustRegister(timestampContributor{})
}
