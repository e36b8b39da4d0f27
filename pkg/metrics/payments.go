package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PaymentMetrics tracks order creation, verification and gateway latency.
type PaymentMetrics struct {
	ordersCreated  *prometheus.CounterVec
	verifications  *prometheus.CounterVec
	cancellations  *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_orders_created_total",
		Help: "Payment orders minted with the gateway, by purpose.",
	}, []string{"purpose"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verification attempts, by outcome.",
	}, []string{"outcome"})
	cancellations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_cancellations_total",
		Help: "Payment order cancellations, by outcome.",
	}, []string{"outcome"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Latency of payment gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})
	reg.MustRegister(ordersCreated, verifications, cancellations, gatewayLatency)
	return &PaymentMetrics{
		ordersCreated:  ordersCreated,
		verifications:  verifications,
		cancellations:  cancellations,
		gatewayLatency: gatewayLatency,
	}
}

func (m *PaymentMetrics) IncOrderCreated(purpose string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(purpose)).Inc()
}

// IncVerification records a verification outcome; use "success", "duplicate" or an error code.
func (m *PaymentMetrics) IncVerification(outcome string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *PaymentMetrics) IncCancellation(outcome string) {
	if m == nil || m.cancellations == nil {
		return
	}
	m.cancellations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGateway records the latency of one gateway call.
func (m *PaymentMetrics) ObserveGateway(operation string, duration time.Duration, err error) {
	if m == nil || m.gatewayLatency == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.gatewayLatency.WithLabelValues(normalizeLabel(operation), result).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
