// Package metrics exposes the credential core counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authcore"

// Collector implements session.Metrics on its own registry.
type Collector struct {
	reg *prometheus.Registry

	issued    *prometheus.CounterVec
	lookups   *prometheus.CounterVec
	cacheErrs *prometheus.CounterVec
	revoked   *prometheus.CounterVec
	swept     prometheus.Counter
	rotations *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		reg: reg,
		issued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credentials_issued_total",
			Help:      "Credentials issued by kind.",
		}, []string{"kind"}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_lookups_total",
			Help:      "Refresh token verifications by where they were resolved.",
		}, []string{"result"}),
		cacheErrs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Lookup cache failures by operation.",
		}, []string{"op"}),
		revoked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revocations_total",
			Help:      "Refresh tokens revoked by scope.",
		}, []string{"scope"}),
		swept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_deleted_total",
			Help:      "Expired refresh token records deleted by the sweeper.",
		}),
		rotations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_total",
			Help:      "Refresh token rotations by outcome.",
		}, []string{"result"}),
	}
}

func (c *Collector) CredentialIssued(kind string) { c.issued.WithLabelValues(kind).Inc() }
func (c *Collector) RefreshLookup(result string)  { c.lookups.WithLabelValues(result).Inc() }
func (c *Collector) CacheError(op string)         { c.cacheErrs.WithLabelValues(op).Inc() }
func (c *Collector) Rotation(result string)       { c.rotations.WithLabelValues(result).Inc() }

func (c *Collector) Revoked(scope string, n int64) {
	if n > 0 {
		c.revoked.WithLabelValues(scope).Add(float64(n))
	}
}

func (c *Collector) Swept(n int64) {
	if n > 0 {
		c.swept.Add(float64(n))
	}
}

// Registry returns the registry the counters live on.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
