package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records marketplace order flow counters.
type OrderMetrics struct {
	ordersCreated     prometheus.Counter
	paymentsConfirmed prometheus.Counter
	gatewayFailures   *prometheus.CounterVec
}

// NewOrderMetrics registers the order flow metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted in PENDING state.",
	})
	paymentsConfirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_confirmed_total",
		Help: "Orders settled to PAID.",
	})
	gatewayFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_failures_total",
		Help: "Payment gateway call failures by kind.",
	}, []string{"kind"})
	reg.MustRegister(ordersCreated, paymentsConfirmed, gatewayFailures)
	return &OrderMetrics{
		ordersCreated:     ordersCreated,
		paymentsConfirmed: paymentsConfirmed,
		gatewayFailures:   gatewayFailures,
	}
}

// IncOrderCreated counts a persisted pending order.
func (m *OrderMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncPaymentConfirmed counts a settled order.
func (m *OrderMetrics) IncPaymentConfirmed() {
	if m == nil || m.paymentsConfirmed == nil {
		return
	}
	m.paymentsConfirmed.Inc()
}

// IncGatewayFailure counts a gateway call failure of the given kind.
func (m *OrderMetrics) IncGatewayFailure(kind string) {
	if m == nil || m.gatewayFailures == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.gatewayFailures.WithLabelValues(kind).Inc()
}
