package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	GuardDecisions   *prometheus.CounterVec
	OrderTransitions *prometheus.CounterVec
	InventoryWrites  *prometheus.CounterVec
	BackendRequests  *prometheus.CounterVec
	BackendLatency   *prometheus.HistogramVec
	EventsPublished  *prometheus.CounterVec
}

// New registers the admin shell collectors on reg. Tests pass a fresh
// prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin_shell",
			Name:      "guard_decisions_total",
			Help:      "Route guard outcomes by state.",
		}, []string{"state"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin_shell",
			Name:      "order_transitions_total",
			Help:      "Order status change attempts by target and result.",
		}, []string{"target", "result"}),
		InventoryWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin_shell",
			Name:      "inventory_row_writes_total",
			Help:      "Inventory row submissions by kind and result.",
		}, []string{"kind", "result"}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin_shell",
			Name:      "backend_requests_total",
			Help:      "Calls to the commerce backend by method and status class.",
		}, []string{"method", "class"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "admin_shell",
			Name:      "backend_request_seconds",
			Help:      "Latency of calls to the commerce backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin_shell",
			Name:      "events_published_total",
			Help:      "Admin action events by type and result.",
		}, []string{"type", "result"}),
	}
	reg.MustRegister(
		m.GuardDecisions,
		m.OrderTransitions,
		m.InventoryWrites,
		m.BackendRequests,
		m.BackendLatency,
		m.EventsPublished,
	)
	return m
}

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// StatusClass buckets an HTTP status as 2xx, 4xx, and so on; 0 is a transport failure.
func StatusClass(status int) string {
	switch {
	case status <= 0:
		return "transport_error"
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
