package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "people_cache_hits_total",
		Help: "Total number of People response cache hits",
	})

	// CacheMisses counts cache misses, including expired entries.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "people_cache_misses_total",
		Help: "Total number of People response cache misses",
	})

	// CacheSize tracks bytes written to Redis.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "people_cache_size_bytes",
		Help: "Bytes written to the People response cache",
	})

	// NotModifiedResponses counts 304 revalidations served from cache.
	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "people_cache_not_modified_total",
		Help: "Total number of 304 Not Modified revalidations",
	})

	// ConditionalRequestsSent counts requests sent with validators.
	ConditionalRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "people_cache_conditional_requests_total",
		Help: "Total number of conditional requests sent",
	})

	// CacheErrors counts cache operation errors.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "people_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"}) // "get", "set", "delete"
)
