package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreMetrics tracks storefront health signals that reports also surface.
type StoreMetrics struct {
	lowStock        prometheus.Gauge
	outboxPublished *prometheus.CounterVec
	outboxFailed    *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
}

// NewStoreMetrics registers the storefront metrics on reg. A nil registerer
// yields a no-op recorder.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	m := &StoreMetrics{
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "low_stock_products",
			Help:      "Products below the low-stock threshold at the last scan.",
		}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox events published to the message bus.",
		}, []string{"event_type"}),
		outboxFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_failed_total",
			Help:      "Outbox publish attempts that failed.",
		}, []string{"event_type"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stripe_webhook_events_total",
			Help:      "Stripe webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
	}
	reg.MustRegister(m.lowStock, m.outboxPublished, m.outboxFailed, m.webhookEvents)
	return m
}

func (m *StoreMetrics) SetLowStock(count int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(count))
}

func (m *StoreMetrics) IncOutboxPublished(eventType string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *StoreMetrics) IncOutboxFailed(eventType string) {
	if m == nil || m.outboxFailed == nil {
		return
	}
	m.outboxFailed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *StoreMetrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
