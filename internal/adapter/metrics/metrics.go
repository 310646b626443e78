// Package metrics defines the Prometheus collectors of the service. Each concern
// gets its own struct registered on a caller-supplied registry, so tests can use
// a fresh prometheus.NewRegistry() without global state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hashpulse"

// Set is every collector group of the service, registered on one registry.
type Set struct {
	Registry   *prometheus.Registry
	HTTP       *HTTPMetrics
	Ingest     *IngestMetrics
	Cache      *CacheMetrics
	DB         *DBMetrics
	Redis      *RedisMetrics
	Classifier *ClassifierMetrics
}

// NewSet creates a registry with Go runtime and process collectors and
// registers all service metrics on it.
func NewSet() *Set {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Set{
		Registry:   reg,
		HTTP:       NewHTTPMetrics(reg),
		Ingest:     NewIngestMetrics(reg),
		Cache:      NewCacheMetrics(reg),
		DB:         NewDBMetrics(reg),
		Redis:      NewRedisMetrics(reg),
		Classifier: NewClassifierMetrics(reg),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg, EnableOpenMetrics: true})
}
