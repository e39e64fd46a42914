// Package metrics defines the observability hooks recorded during
// composition, cache access, and site builds.
package metrics

import "time"

// Recorder defines observability hooks for build and cache metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe for nil receivers when using the NoopRecorder (allowing
// optional injection).
type Recorder interface {
	IncCacheHit(cachename string)
	IncCacheMiss(cachename string)
	IncCacheFlush(cachename string)
	SetComposedMixins(role string, n int)
	IncPageRendered()
	IncPageSkipped()
	ObserveBuildDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncCacheHit(string)                  {}
func (NoopRecorder) IncCacheMiss(string)                 {}
func (NoopRecorder) IncCacheFlush(string)                {}
func (NoopRecorder) SetComposedMixins(string, int)       {}
func (NoopRecorder) IncPageRendered()                    {}
func (NoopRecorder) IncPageSkipped()                     {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)  {}
