package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRouterMetricsObserve(t *testing.T) {
	m := NewRouterMetrics(prometheus.NewRegistry())
	m.ObserveClassified("EMOTION", false)
	m.ObserveDispatch("emotion-agent", "success")
	m.ObserveDispatchLatency("emotion-agent", 0.2)
	m.ObserveBreakerTransition("emotion-agent", "open")
	m.ObserveAnalysis("critical")
	m.ObserveIncident("automated_detection", "durable")
	m.ObserveDegradedRead()
}

func TestRouterMetricsGather(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRouterMetrics(reg)
	m.ObserveDispatch("content-agent", "success")
	m.ObserveDispatch("content-agent", "success")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "brightbuddy_router_dispatch_total" {
			found = mf
		}
	}
	if found == nil {
		t.Fatal("dispatch_total metric family not registered")
	}
	if got := found.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected counter value 2, got %v", got)
	}
}

func TestRouterMetricsNilSafe(t *testing.T) {
	var m *RouterMetrics
	m.ObserveClassified("CONTENT", true)
	m.ObserveDispatch("agent", "failure")
	m.ObserveDispatchLatency("agent", 0.1)
	m.ObserveBreakerTransition("agent", "half-open")
	m.ObserveAnalysis("none")
	m.ObserveIncident("manual_report", "degraded")
	m.ObserveDegradedRead()
}
