package metrics

import "github.com/prometheus/client_golang/prometheus"

// RouterMetrics exposes counters/histograms for the routing and safety flows.
type RouterMetrics struct {
	classifiedTotal  *prometheus.CounterVec
	dispatchTotal    *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec
	breakerEvents    *prometheus.CounterVec
	analysesTotal    *prometheus.CounterVec
	incidentsTotal   *prometheus.CounterVec
	degradedFallback prometheus.Counter
}

func NewRouterMetrics(reg prometheus.Registerer) *RouterMetrics {
	m := &RouterMetrics{
		classifiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brightbuddy",
			Subsystem: "router",
			Name:      "classified_total",
			Help:      "Total classified inbound events",
		}, []string{"intent", "unclassified"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brightbuddy",
			Subsystem: "router",
			Name:      "dispatch_total",
			Help:      "Total agent dispatch attempts",
		}, []string{"agent", "status"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "brightbuddy",
			Subsystem: "router",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of downstream agent invocations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
		breakerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brightbuddy",
			Subsystem: "router",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions per agent",
		}, []string{"agent", "to"}),
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brightbuddy",
			Subsystem: "safety",
			Name:      "analyses_total",
			Help:      "Content safety analyses by severity",
		}, []string{"severity"}),
		incidentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brightbuddy",
			Subsystem: "safety",
			Name:      "incidents_total",
			Help:      "Safety incidents persisted by category and mode",
		}, []string{"category", "mode"}),
		degradedFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brightbuddy",
			Subsystem: "safety",
			Name:      "degraded_reads_total",
			Help:      "Incident history reads served from the degraded cache",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.classifiedTotal,
		m.dispatchTotal,
		m.dispatchLatency,
		m.breakerEvents,
		m.analysesTotal,
		m.incidentsTotal,
		m.degradedFallback,
	)
	return m
}

func (m *RouterMetrics) ObserveClassified(intent string, unclassified bool) {
	if m == nil {
		return
	}
	label := "false"
	if unclassified {
		label = "true"
	}
	m.classifiedTotal.WithLabelValues(intent, label).Inc()
}

func (m *RouterMetrics) ObserveDispatch(agent, status string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(agent, status).Inc()
}

func (m *RouterMetrics) ObserveDispatchLatency(agent string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchLatency.WithLabelValues(agent).Observe(seconds)
}

func (m *RouterMetrics) ObserveBreakerTransition(agent, to string) {
	if m == nil {
		return
	}
	m.breakerEvents.WithLabelValues(agent, to).Inc()
}

func (m *RouterMetrics) ObserveAnalysis(severity string) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(severity).Inc()
}

func (m *RouterMetrics) ObserveIncident(category, mode string) {
	if m == nil {
		return
	}
	m.incidentsTotal.WithLabelValues(category, mode).Inc()
}

func (m *RouterMetrics) ObserveDegradedRead() {
	if m == nil {
		return
	}
	m.degradedFallback.Inc()
}
