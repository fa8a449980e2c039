package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "enedis_upstream_requests_total",
		Help: "Requests sent to the Enedis API, by endpoint and HTTP status.",
	}, []string{"endpoint", "status"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metering_cache_lookups_total",
		Help: "Metering data lookups, by kind and result (hit or miss).",
	}, []string{"kind", "result"})

	RecordsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metering_records_persisted_total",
		Help: "Metering readings written to the record store, by kind.",
	}, []string{"kind"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Inbound HTTP requests, by method, route and status.",
	}, []string{"method", "route", "status"})
)

// Handler exposes the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
