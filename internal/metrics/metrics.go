package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaxProductTypeLabels caps the distinct product_type label values. Product
// types seen after the cap is reached are recorded as OtherProductType.
const (
	MaxProductTypeLabels = 100
	OtherProductType     = "other"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	CallbacksDelivered  *prometheus.CounterVec
	CallbacksFailed     *prometheus.CounterVec
	CallbackLatency     *prometheus.HistogramVec
	SubscriptionChanges *prometheus.CounterVec

	mu           sync.Mutex
	productTypes map[string]struct{}
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallbacksDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "callbacks_delivered_total",
			Help: "Subscriber callbacks acknowledged with a 2xx status.",
		}, []string{"product_type"}),

		CallbacksFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "callbacks_failed_total",
			Help: "Subscriber callbacks that failed, timed out, or returned a non-2xx status.",
		}, []string{"product_type"}),

		CallbackLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "callback_duration_seconds",
			Help:    "Duration of a single callback attempt, including rate-limit wait.",
			Buckets: prometheus.DefBuckets,
		}, []string{"product_type"}),

		SubscriptionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_changes_total",
			Help: "Accepted subscribe and unsubscribe requests.",
		}, []string{"action"}),

		productTypes: make(map[string]struct{}),
	}

	reg.MustRegister(
		m.CallbacksDelivered,
		m.CallbacksFailed,
		m.CallbackLatency,
		m.SubscriptionChanges,
	)

	return m
}

// WorkerHooks returns the metric callback functions expected by worker.MetricHooks.
func (m *Metrics) WorkerHooks() (
	onDelivered func(productType string, latency time.Duration),
	onFailed func(productType string, latency time.Duration),
) {
	onDelivered = func(pt string, latency time.Duration) {
		pt = m.productTypeLabel(pt)
		m.CallbacksDelivered.WithLabelValues(pt).Inc()
		m.CallbackLatency.WithLabelValues(pt).Observe(latency.Seconds())
	}
	onFailed = func(pt string, latency time.Duration) {
		pt = m.productTypeLabel(pt)
		m.CallbacksFailed.WithLabelValues(pt).Inc()
		m.CallbackLatency.WithLabelValues(pt).Observe(latency.Seconds())
	}
	return
}

// SubscriptionHook returns the callback the service invokes after a
// successful subscribe ("subscribe") or unsubscribe ("unsubscribe").
func (m *Metrics) SubscriptionHook() func(action string) {
	return func(action string) {
		m.SubscriptionChanges.WithLabelValues(action).Inc()
	}
}

// productTypeLabel returns pt while fewer than MaxProductTypeLabels distinct
// values have been seen, OtherProductType afterwards.
func (m *Metrics) productTypeLabel(pt string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.productTypes[pt]; ok {
		return pt
	}
	if len(m.productTypes) >= MaxProductTypeLabels {
		return OtherProductType
	}
	m.productTypes[pt] = struct{}{}
	return pt
}
