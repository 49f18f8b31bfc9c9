// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Demo-site cache (public slug resolution).

	CachedSites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "demosite_cached_sites",
			Help: "Number of published demo sites currently held in memory.",
		})

	SiteLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "demosite_cache_load_total",
			Help: "Cumulative number of demo sites loaded into the cache.",
		})

	SiteLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "demosite_cache_load_errors_total",
			Help: "Cumulative number of demo-site cache load errors.",
		})

	SiteEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "demosite_cache_evict_total",
			Help: "Cumulative number of demo sites evicted from the cache.",
		})

	// Store and renderer.

	SiteMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demosite_mutations_total",
			Help: "Demo-site store mutations by operation and result.",
		}, []string{"op", "result"})

	RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demosite_renders_total",
			Help: "Template renders by template id.",
		}, []string{"template"})

	// Preview tokens.

	PreviewIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_tokens_issued_total",
			Help: "Preview tokens issued by content type.",
		}, []string{"type"})

	PreviewResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_resolutions_total",
			Help: "Preview token resolutions by result (ok, expired, not_found, error).",
		}, []string{"result"})

	PreviewSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "preview_tokens_swept_total",
			Help: "Expired preview tokens removed by the sweeper.",
		})

	// Leads and scraper.

	LeadQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_queries_total",
			Help: "Lead directory queries by kind (list, locations).",
		}, []string{"kind"})

	ScrapeTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_triggers_total",
			Help: "Scrape trigger calls by result (accepted, rejected, unavailable).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		CachedSites,
		SiteLoadTotal,
		SiteLoadErrorsTotal,
		SiteEvictTotal,
		SiteMutationsTotal,
		RendersTotal,
		PreviewIssuedTotal,
		PreviewResolvedTotal,
		PreviewSweptTotal,
		LeadQueriesTotal,
		ScrapeTriggersTotal,
	)
}

// Result maps an error to the "ok"/"error" label used by mutation counters.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
