package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	cacheHits      *prom.CounterVec
	cacheMisses    *prom.CounterVec
	cacheFlushes   *prom.CounterVec
	composedMixins *prom.GaugeVec
	pagesRendered  prom.Counter
	pagesSkipped   prom.Counter
	buildDuration  prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.cacheHits = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogsmith",
			Name:      "metacache_hits_total",
			Help:      "Metadata cache hits by cache file",
		}, []string{"cache"})
		pr.cacheMisses = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogsmith",
			Name:      "metacache_misses_total",
			Help:      "Metadata cache misses (recomputes) by cache file",
		}, []string{"cache"})
		pr.cacheFlushes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogsmith",
			Name:      "metacache_flushes_total",
			Help:      "Metadata cache file rewrites by cache file",
		}, []string{"cache"})
		pr.composedMixins = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "blogsmith",
			Name:      "composed_mixins",
			Help:      "Mixins layered into the composite type, per role",
		}, []string{"role"})
		pr.pagesRendered = prom.NewCounter(prom.CounterOpts{
			Namespace: "blogsmith",
			Name:      "pages_rendered_total",
			Help:      "Pages written during builds",
		})
		pr.pagesSkipped = prom.NewCounter(prom.CounterOpts{
			Namespace: "blogsmith",
			Name:      "pages_skipped_total",
			Help:      "Pages skipped as unchanged during builds",
		})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "blogsmith",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		reg.MustRegister(pr.cacheHits, pr.cacheMisses, pr.cacheFlushes, pr.composedMixins, pr.pagesRendered, pr.pagesSkipped, pr.buildDuration)
	})
	return pr
}

func (p *PrometheusRecorder) IncCacheHit(cachename string) {
	if p == nil || p.cacheHits == nil {
		return
	}
	p.cacheHits.WithLabelValues(cachename).Inc()
}

func (p *PrometheusRecorder) IncCacheMiss(cachename string) {
	if p == nil || p.cacheMisses == nil {
		return
	}
	p.cacheMisses.WithLabelValues(cachename).Inc()
}

func (p *PrometheusRecorder) IncCacheFlush(cachename string) {
	if p == nil || p.cacheFlushes == nil {
		return
	}
	p.cacheFlushes.WithLabelValues(cachename).Inc()
}

func (p *PrometheusRecorder) SetComposedMixins(role string, n int) {
	if p == nil || p.composedMixins == nil {
		return
	}
	p.composedMixins.WithLabelValues(role).Set(float64(n))
}

func (p *PrometheusRecorder) IncPageRendered() {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Inc()
}

func (p *PrometheusRecorder) IncPageSkipped() {
	if p == nil || p.pagesSkipped == nil {
		return
	}
	p.pagesSkipped.Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}
