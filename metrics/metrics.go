package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the service's Prometheus instruments.
type Collectors struct {
	AnalyticsEvents *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	EventResults    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		AnalyticsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportevents",
			Name:      "analytics_events_total",
			Help:      "Analytics events logged by name.",
		}, []string{"name"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportevents",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sportevents",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		EventResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sportevents",
			Name:      "event_list_results_total",
			Help:      "Event list answers by status (success, stale, error).",
		}, []string{"status"}),
	}
	reg.MustRegister(c.AnalyticsEvents, c.HTTPRequests, c.HTTPDuration, c.EventResults)
	return c
}
