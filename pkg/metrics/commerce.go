package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics tracks checkout and order lifecycle outcomes.
type CommerceMetrics struct {
	checkouts    *prometheus.CounterVec
	orderStatus  *prometheus.CounterVec
	refunds      *prometheus.CounterVec
	stockRejects prometheus.Counter
	staleWrites  prometheus.Counter
}

// NewCommerceMetrics registers the commerce metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})
	orderStatus := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "refunds_total",
		Help: "Refund attempts by type and result.",
	}, []string{"type", "result"})
	stockRejects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_conflicts_total",
		Help: "Stock decrements rejected by the guarded counter update.",
	})
	staleWrites := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stale_order_writes_total",
		Help: "Order updates rejected by the optimistic version check.",
	})
	reg.MustRegister(checkouts, orderStatus, refunds, stockRejects, staleWrites)
	return &CommerceMetrics{
		checkouts:    checkouts,
		orderStatus:  orderStatus,
		refunds:      refunds,
		stockRejects: stockRejects,
		staleWrites:  staleWrites,
	}
}

// IncCheckout records a checkout attempt outcome ("success" or "failure").
func (c *CommerceMetrics) IncCheckout(result string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncOrderStatus records a transition into the named status.
func (c *CommerceMetrics) IncOrderStatus(status string) {
	if c == nil || c.orderStatus == nil {
		return
	}
	c.orderStatus.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncRefund records a refund attempt outcome.
func (c *CommerceMetrics) IncRefund(refundType, result string) {
	if c == nil || c.refunds == nil {
		return
	}
	c.refunds.WithLabelValues(normalizeLabel(refundType), normalizeLabel(result)).Inc()
}

// IncStockConflict counts a rejected stock decrement.
func (c *CommerceMetrics) IncStockConflict() {
	if c == nil || c.stockRejects == nil {
		return
	}
	c.stockRejects.Inc()
}

// IncStaleWrite counts an order update lost to a concurrent writer.
func (c *CommerceMetrics) IncStaleWrite() {
	if c == nil || c.staleWrites == nil {
		return
	}
	c.staleWrites.Inc()
}

// normalizeLabel keeps the label set bounded when a caller passes an empty value.
func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
