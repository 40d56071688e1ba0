// Package metrics exposes Prometheus metrics for the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricRPCRequestsTotal    = "spolek_rpc_requests_total"
	MetricRPCDurationSeconds  = "spolek_rpc_duration_seconds"
	MetricApprovalsTotal      = "spolek_approvals_total"
	MetricMailBroadcastsTotal = "spolek_mail_broadcasts_total"
	MetricOAuthLoginsTotal    = "spolek_oauth_logins_total"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultDenied   = "denied"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds the application collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rpcRequests    *prometheus.CounterVec
	rpcDuration    *prometheus.HistogramVec
	approvals      prometheus.Counter
	mailBroadcasts *prometheus.CounterVec
	oauthLogins    *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRPCRequestsTotal,
				Help: "Total number of RPC calls by procedure and result code.",
			},
			[]string{"procedure", "code"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRPCDurationSeconds,
				Help:    "RPC handling duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"procedure"},
		),
		approvals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricApprovalsTotal,
			Help: "Total number of committed queue approvals.",
		}),
		mailBroadcasts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricMailBroadcastsTotal,
				Help: "Total number of bulk mail relay attempts by result.",
			},
			[]string{"result"},
		),
		oauthLogins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricOAuthLoginsTotal,
				Help: "Total number of Seznam login callbacks by result.",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.rpcRequests,
		m.rpcDuration,
		m.approvals,
		m.mailBroadcasts,
		m.oauthLogins,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// ApprovalCommitted counts a committed approval transaction.
func (m *Metrics) ApprovalCommitted() {
	if m == nil {
		return
	}
	m.approvals.Inc()
}

// MailBroadcast counts a bulk mail attempt.
func (m *Metrics) MailBroadcast(result string) {
	if m == nil {
		return
	}
	m.mailBroadcasts.WithLabelValues(result).Inc()
}

// OAuthLogin counts a login callback.
func (m *Metrics) OAuthLogin(result string) {
	if m == nil {
		return
	}
	m.oauthLogins.WithLabelValues(result).Inc()
}
