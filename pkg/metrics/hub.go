package metrics

import "github.com/prometheus/client_golang/prometheus"

// HubMetrics tracks the realtime observer hub.
type HubMetrics struct {
	connections prometheus.Gauge
	events      *prometheus.CounterVec
	evictions   *prometheus.CounterVec
}

// NewHubMetrics registers the hub metrics on the provided registerer.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	if reg == nil {
		return &HubMetrics{}
	}
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "hub",
		Name:      "connections",
		Help:      "Currently registered observer connections.",
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hub",
		Name:      "events_total",
		Help:      "Events broadcast to observers.",
	}, []string{"type"})
	evictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hub",
		Name:      "evictions_total",
		Help:      "Observer connections evicted from the registry.",
	}, []string{"reason"})
	reg.MustRegister(connections, events, evictions)
	return &HubMetrics{
		connections: connections,
		events:      events,
		evictions:   evictions,
	}
}

// SetConnections records the current registry size.
func (h *HubMetrics) SetConnections(n int) {
	if h == nil || h.connections == nil {
		return
	}
	h.connections.Set(float64(n))
}

// IncEvent counts a broadcast by event type.
func (h *HubMetrics) IncEvent(eventType string) {
	if h == nil || h.events == nil {
		return
	}
	h.events.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncEviction counts an eviction by reason (send_failed, stale, shutdown).
func (h *HubMetrics) IncEviction(reason string) {
	if h == nil || h.evictions == nil {
		return
	}
	h.evictions.WithLabelValues(normalizeLabel(reason)).Inc()
}
