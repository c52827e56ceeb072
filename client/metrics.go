package client

// Metrics receives instrumentation callbacks from client implementations.
// Implementations must be safe for concurrent use. The prom subpackage
// provides a Prometheus-backed implementation; NoopMetrics is the default.
type Metrics interface {
	// Request records one completed service request for the named
	// operation and whether it failed.
	Request(operation string, failed bool)
	// CacheHit records a managed-cache or image-cache hit.
	CacheHit()
	// CacheMiss records a managed-cache or image-cache miss.
	CacheMiss()
	// Dedup records a fetch that was coalesced onto an already in-flight
	// fetch for the same key.
	Dedup()
}

// NoopMetrics is a Metrics implementation that discards all callbacks.
type NoopMetrics struct{}

func (NoopMetrics) Request(string, bool) {}
func (NoopMetrics) CacheHit()            {}
func (NoopMetrics) CacheMiss()           {}
func (NoopMetrics) Dedup()               {}

var _ Metrics = NoopMetrics{}
