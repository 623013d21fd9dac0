// Package metrics holds the producer's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producer_poll_cycles_total",
		Help: "Completed fetch-and-publish cycles.",
	})
	PostsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "producer_posts_fetched_total",
		Help: "Posts returned by the search API.",
	})
	RecordsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "producer_records_published_total",
		Help: "Records appended to the stream.",
	}, []string{"backend"})
	RecordsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "producer_records_failed_total",
		Help: "Records dropped after a failed append.",
	}, []string{"backend"})
	State = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "producer_state",
		Help: "Current poll loop state (0=initializing 1=fetching 2=publishing 3=sleeping 4=terminated).",
	})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
