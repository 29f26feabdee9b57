// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records request latencies and sign-in/sign-up outcomes.
type Collector struct {
	reg             prometheus.Registerer
	signIn          *prometheus.CounterVec
	signUp          *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reg: reg,
		signIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minitorque_signin_total",
			Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		signUp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minitorque_signup_total",
			Help: "Sign-up attempts by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minitorque_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
	}

	reg.MustRegister(c.signIn, c.signUp, c.requestDuration)
	return c
}

// NewRegistry returns an empty registry for the application's metrics.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideCollector registers the collector on the application registry.
func ProvideCollector(reg *prometheus.Registry) *Collector {
	return NewCollector(reg)
}

func (c *Collector) RecordSignIn(outcome string) {
	c.signIn.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordSignUp(outcome string) {
	c.signUp.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one handled request. route is the matched route pattern.
func (c *Collector) ObserveRequest(method, route string, statusCode int, duration time.Duration) {
	c.requestDuration.WithLabelValues(method, route, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

// RegisterActiveSessions exports count as the signed-in session gauge.
func (c *Collector) RegisterActiveSessions(count func() int) error {
	return c.reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "minitorque_active_sessions",
		Help: "Signed-in browser sessions held by this instance.",
	}, func() float64 { return float64(count()) }))
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
