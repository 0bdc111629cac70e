// Package metrics holds the Prometheus collectors of the gearhub server.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the domain counters.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	settlementsTotal      *prometheus.CounterVec
	stockAdjustmentsTotal *prometheus.CounterVec
	paymentIntentsTotal   *prometheus.CounterVec
	reconciledTotal       prometheus.Counter

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gearhub_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gearhub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		settlementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gearhub_order_settlements_total",
				Help: "Order settlement attempts by outcome",
			},
			[]string{"outcome"},
		),

		stockAdjustmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gearhub_stock_adjustments_total",
				Help: "Equipment quantity adjustments by outcome",
			},
			[]string{"outcome"},
		),

		paymentIntentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gearhub_payment_intents_total",
				Help: "Payment intents requested from the processor by outcome",
			},
			[]string{"outcome"},
		),

		reconciledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gearhub_orders_reconciled_total",
				Help: "Orders marked paid by the reconcile scan",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.settlementsTotal,
		m.stockAdjustmentsTotal,
		m.paymentIntentsTotal,
		m.reconciledTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordSettlement(outcome string) {
	if m == nil {
		return
	}
	m.settlementsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordStockAdjustment(outcome string) {
	if m == nil {
		return
	}
	m.stockAdjustmentsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordPaymentIntent(outcome string) {
	if m == nil {
		return
	}
	m.paymentIntentsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordReconciled(n int) {
	if m == nil {
		return
	}
	m.reconciledTotal.Add(float64(n))
}

// Handler returns the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
