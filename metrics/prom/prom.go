// Package prom exports client instrumentation as Prometheus metrics.
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guldfisk/cubeclient-go/client"
)

// Adapter implements client.Metrics and exports Prometheus counters.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	requests *prometheus.CounterVec
	hits     prometheus.Counter
	misses   prometheus.Counter
	dedups   prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "requests_total",
				Help:        "Requests by operation and outcome",
				ConstLabels: constLabels,
			},
			[]string{"operation", "failed"},
		),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "cache_hits_total",
			Help:        "Managed cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "cache_misses_total",
			Help:        "Managed cache misses",
			ConstLabels: constLabels,
		}),
		dedups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "dedups_total",
			Help:        "Requests coalesced onto an in-flight fetch",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.requests, a.hits, a.misses, a.dedups)
	return a
}

// Request increments the request counter for operation with a failed label.
func (a *Adapter) Request(operation string, failed bool) {
	a.requests.WithLabelValues(operation, strconv.FormatBool(failed)).Inc()
}

// CacheHit increments the managed cache hit counter.
func (a *Adapter) CacheHit() { a.hits.Inc() }

// CacheMiss increments the managed cache miss counter.
func (a *Adapter) CacheMiss() { a.misses.Inc() }

// Dedup increments the coalesced request counter.
func (a *Adapter) Dedup() { a.dedups.Inc() }

// Compile-time check: ensure Adapter implements client.Metrics.
var _ client.Metrics = (*Adapter)(nil)
