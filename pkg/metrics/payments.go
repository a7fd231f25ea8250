package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics counts payment-transaction and reconciliation activity.
type PaymentMetrics struct {
	transactionsCreated *prometheus.CounterVec
	tokensReused        prometheus.Counter
	webhookOutcomes     *prometheus.CounterVec
	ordersReconciled    prometheus.Counter
	persistenceWarnings prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transactions_created",
		Help: "Gateway transactions created, by payment method.",
	}, []string{"method"})
	reused := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_tokens_reused",
		Help: "Existing snap tokens returned instead of creating a new transaction.",
	})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_outcomes",
		Help: "Gateway notifications processed, by outcome.",
	}, []string{"outcome"})
	reconciled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_orders_reconciled",
		Help: "Orders whose status was updated from a gateway notification.",
	})
	persistence := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_persistence_warnings",
		Help: "Post-success order updates that failed and need manual reconciliation.",
	})
	reg.MustRegister(created, reused, webhooks, reconciled, persistence)
	return &PaymentMetrics{
		transactionsCreated: created,
		tokensReused:        reused,
		webhookOutcomes:     webhooks,
		ordersReconciled:    reconciled,
		persistenceWarnings: persistence,
	}
}

// IncCreated counts a created gateway transaction for the given method.
func (p *PaymentMetrics) IncCreated(method string) {
	if p == nil || p.transactionsCreated == nil {
		return
	}
	p.transactionsCreated.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncReused counts a reused snap token.
func (p *PaymentMetrics) IncReused() {
	if p == nil || p.tokensReused == nil {
		return
	}
	p.tokensReused.Inc()
}

// IncWebhook counts a processed notification outcome.
func (p *PaymentMetrics) IncWebhook(outcome string) {
	if p == nil || p.webhookOutcomes == nil {
		return
	}
	p.webhookOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddReconciled counts orders updated by a notification.
func (p *PaymentMetrics) AddReconciled(n int) {
	if p == nil || p.ordersReconciled == nil || n <= 0 {
		return
	}
	p.ordersReconciled.Add(float64(n))
}

// IncPersistenceWarning counts a post-success store write failure.
func (p *PaymentMetrics) IncPersistenceWarning() {
	if p == nil || p.persistenceWarnings == nil {
		return
	}
	p.persistenceWarnings.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
