package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every collector registered by New.
const DefaultNamespace = "rtss"

// Delivery results reported through Delivered.
const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
)

// Metrics groups the relay collectors. A nil *Metrics is valid and records nothing,
// so components can hold one unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	eventsReceived  prometheus.Counter
	deliveries      *prometheus.CounterVec
	subscribers     *prometheus.GaugeVec
	evictions       *prometheus.CounterVec
	connectAttempts *prometheus.CounterVec
	pipelines       prometheus.Counter
	bufferedKeys    prometheus.Gauge
}

// New registers the relay collectors on a fresh registry under the given namespace.
// An empty namespace falls back to DefaultNamespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		eventsReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Events pulled from the upstream listener.",
		}),
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Payload pushes into subscriber sinks by result.",
		}, []string{"publisher", "result"}),
		subscribers: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Live subscriptions held by a publisher.",
		}, []string{"publisher"}),
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Registry entries removed by reason.",
		}, []string{"publisher", "reason"}),
		connectAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Upstream connection attempts by result.",
		}, []string{"result"}),
		pipelines: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipelines_started_total",
			Help:      "Ingest pipelines started, one per upstream connection.",
		}),
		bufferedKeys: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "replay_keys",
			Help:      "Keys currently holding a replay buffer.",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) EventReceived() {
	if m == nil {
		return
	}
	m.eventsReceived.Inc()
}

func (m *Metrics) Delivered(publisher, result string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(publisher, result).Inc()
}

func (m *Metrics) SubscriberAdded(publisher string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(publisher).Inc()
}

func (m *Metrics) SubscriberRemoved(publisher, reason string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(publisher).Dec()
	m.evictions.WithLabelValues(publisher, reason).Inc()
}

func (m *Metrics) ConnectAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "ok"
	}
	m.connectAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) PipelineStarted() {
	if m == nil {
		return
	}
	m.pipelines.Inc()
}

func (m *Metrics) KeyBuffered() {
	if m == nil {
		return
	}
	m.bufferedKeys.Inc()
}

func (m *Metrics) KeyEvicted() {
	if m == nil {
		return
	}
	m.bufferedKeys.Dec()
	m.evictions.WithLabelValues("replay", "expired").Inc()
}
