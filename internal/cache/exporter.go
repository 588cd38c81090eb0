package cache

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Exporter отдаёт метрики зарегистрированных кешей в Prometheus.
// Источники добавляются по имени regionset.
type Exporter struct {
	mu      sync.RWMutex
	sources map[string]StatsSource

	requests    *prometheus.Desc
	hits        *prometheus.Desc
	misses      *prometheus.Desc
	evictions   *prometheus.Desc
	openHandles *prometheus.Desc
}

// NewExporter создаёт коллектор; регистрация - забота вызывающего.
func NewExporter() *Exporter {
	labels := []string{"regionset"}
	return &Exporter{
		sources: make(map[string]StatsSource),
		requests: prometheus.NewDesc("mcworld_handle_cache_requests_total",
			"Total handle cache lookups", labels, nil),
		hits: prometheus.NewDesc("mcworld_handle_cache_hits_total",
			"Handle cache hits", labels, nil),
		misses: prometheus.NewDesc("mcworld_handle_cache_misses_total",
			"Handle cache misses (container opened)", labels, nil),
		evictions: prometheus.NewDesc("mcworld_handle_cache_evictions_total",
			"Handles closed to stay within capacity", labels, nil),
		openHandles: prometheus.NewDesc("mcworld_handle_cache_open_handles",
			"Currently open container handles", labels, nil),
	}
}

// Add регистрирует источник метрик под именем name.
func (e *Exporter) Add(name string, src StatsSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources[name] = src
}

// Remove убирает источник.
func (e *Exporter) Remove(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sources, name)
}

// Names возвращает имена источников в отсортированном порядке.
func (e *Exporter) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.sources))
	for name := range e.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe реализует prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.requests
	ch <- e.hits
	ch <- e.misses
	ch <- e.evictions
	ch <- e.openHandles
}

// Collect реализует prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for name, src := range e.sources {
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(e.requests, prometheus.CounterValue, float64(s.TotalRequests), name)
		ch <- prometheus.MustNewConstMetric(e.hits, prometheus.CounterValue, float64(s.CacheHits), name)
		ch <- prometheus.MustNewConstMetric(e.misses, prometheus.CounterValue, float64(s.CacheMisses), name)
		ch <- prometheus.MustNewConstMetric(e.evictions, prometheus.CounterValue, float64(s.Evictions), name)
		ch <- prometheus.MustNewConstMetric(e.openHandles, prometheus.GaugeValue, float64(s.OpenHandles), name)
	}
}
