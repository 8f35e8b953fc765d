package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "people_pages_fetched_total",
		Help: "Total number of list pages fetched with their details",
	})

	detailFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "people_detail_failures_total",
		Help: "Total number of detail fetches dropped from a page",
	})

	pageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "people_page_duration_seconds",
		Help:    "Time to fetch one list page and all of its details",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	streamTerminationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "people_stream_terminations_total",
		Help: "Total number of finished stream traversals by terminal state",
	}, []string{"state", "reason"})
)
