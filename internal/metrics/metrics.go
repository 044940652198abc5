package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes
const (
	OutcomeResolved = "resolved"
	OutcomeFallback = "fallback" // as-of date predated every rule-set
	OutcomeError    = "error"
)

// Recorder holds the service's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	resolutions  *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them on reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebook_resolutions_total",
				Help: "Total number of bracket resolutions",
			},
			[]string{"family", "outcome"},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratebook_repository_load_seconds",
				Help:    "Rule-set repository load duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"family"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratebook_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	for _, c := range []prometheus.Collector{r.resolutions, r.loadDuration, r.httpRequests, r.httpDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveResolution counts one resolution
func (r *Recorder) ObserveResolution(family, outcome string) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(family, outcome).Inc()
}

// ObserveLoad records how long a repository load took
func (r *Recorder) ObserveLoad(family string, d time.Duration) {
	if r == nil {
		return
	}
	r.loadDuration.WithLabelValues(family).Observe(d.Seconds())
}

// ObserveHTTP records one served request
func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the gatherer in the Prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
