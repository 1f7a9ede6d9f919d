package agents

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brightbuddy-ai/platform/internal/intent"
	"github.com/brightbuddy-ai/platform/internal/observability/metrics"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

var dispatchTracer = otel.Tracer("brightbuddy.internal.agents.dispatch")

// Invoker calls a downstream agent. Implementations are opaque beyond
// success/failure and the payload/result shape.
type Invoker interface {
	Invoke(ctx context.Context, agent string, payload []byte) ([]byte, error)
}

// Result captures the outcome of one dispatch attempt, fallback hop included.
type Result struct {
	Success            bool            `json:"success"`
	Agent              string          `json:"agent,omitempty"`
	Intent             intent.Tag      `json:"intent,omitempty"`
	Body               json.RawMessage `json:"body,omitempty"`
	CircuitBreakerOpen bool            `json:"circuitBreakerOpen,omitempty"`
	Fallback           bool            `json:"fallback,omitempty"`
	FallbackUsed       bool            `json:"fallbackUsed,omitempty"`
	Error              string          `json:"error,omitempty"`
}

// Dispatcher invokes destination agents through the circuit breakers and
// performs at most one fallback hop when the route permits it.
type Dispatcher struct {
	registry *Registry
	invoker  Invoker
	breakers *Breakers
	metrics  *metrics.RouterMetrics
	logger   *logging.Logger
}

// NewDispatcher builds a Dispatcher. The registry, invoker and breakers are
// required collaborators.
func NewDispatcher(registry *Registry, invoker Invoker, breakers *Breakers, m *metrics.RouterMetrics, logger *logging.Logger) *Dispatcher {
	if registry == nil {
		panic("agents: registry cannot be nil")
	}
	if invoker == nil {
		panic("agents: invoker cannot be nil")
	}
	if breakers == nil {
		panic("agents: breakers cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		registry: registry,
		invoker:  invoker,
		breakers: breakers,
		metrics:  m,
		logger:   logger,
	}
}

// Dispatch sends payload to the decided destination. An open circuit returns
// immediately without network I/O; that rejection is the backpressure
// mechanism protecting a failing agent from further load.
func (d *Dispatcher) Dispatch(ctx context.Context, decision Decision, payload []byte) Result {
	ctx, span := dispatchTracer.Start(ctx, "agents.dispatch")
	defer span.End()

	dest := decision.Destination
	span.SetAttributes(
		attribute.String("agent.name", dest.Name),
		attribute.String("intent", string(decision.Intent)),
	)

	done, ok := d.breakers.Allow(dest.Name)
	if !ok {
		d.metrics.ObserveDispatch(dest.Name, "circuit_open")
		d.logger.Warn("circuit open, rejecting dispatch", "agent", dest.Name)
		return Result{
			Agent:              dest.Name,
			Intent:             decision.Intent,
			CircuitBreakerOpen: true,
			Fallback:           true,
		}
	}

	body, err := d.invoke(ctx, dest, payload, done)
	if err == nil {
		return Result{Success: true, Agent: dest.Name, Intent: decision.Intent, Body: body}
	}

	if !dest.FallbackAllowed {
		return Result{Agent: dest.Name, Intent: decision.Intent, Error: err.Error()}
	}

	// One fallback hop at most, to bound latency.
	fb := d.registry.Fallback()
	if fb.Name == dest.Name {
		return Result{Agent: dest.Name, Intent: decision.Intent, Fallback: true, Error: err.Error()}
	}
	fdone, ok := d.breakers.Allow(fb.Name)
	if !ok {
		d.metrics.ObserveDispatch(fb.Name, "circuit_open")
		return Result{Agent: dest.Name, Intent: decision.Intent, Fallback: true, Error: err.Error()}
	}
	fbody, ferr := d.invoke(ctx, fb, payload, fdone)
	if ferr != nil {
		return Result{Agent: fb.Name, Intent: decision.Intent, Fallback: true, Error: ferr.Error()}
	}
	d.logger.Info("fallback agent succeeded after primary failure",
		"primary", dest.Name,
		"fallback", fb.Name,
	)
	return Result{Success: true, Agent: fb.Name, Intent: decision.Intent, Body: fbody, FallbackUsed: true}
}

// invoke runs one breaker-admitted call, re-running it up to the route's
// retry budget. The breaker records a single outcome per admission, so a
// retried call that eventually succeeds leaves no failure streak behind.
func (d *Dispatcher) invoke(ctx context.Context, dest Ref, payload []byte, done func(success bool)) ([]byte, error) {
	var body []byte
	var err error
	for attempt := 0; attempt <= dest.MaxRetries; attempt++ {
		body, err = d.attempt(ctx, dest, payload)
		if err == nil {
			done(true)
			d.metrics.ObserveDispatch(dest.Name, "success")
			return body, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	// Timeouts count as failures for circuit breaker purposes.
	done(false)
	d.metrics.ObserveDispatch(dest.Name, "failure")
	d.logger.Warn("agent invocation failed",
		"agent", dest.Name,
		"retries", dest.MaxRetries,
		"error", err.Error(),
	)
	return nil, err
}

func (d *Dispatcher) attempt(ctx context.Context, dest Ref, payload []byte) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, dest.Timeout)
	defer cancel()

	start := time.Now()
	body, err := d.invoker.Invoke(callCtx, dest.Name, payload)
	d.metrics.ObserveDispatchLatency(dest.Name, time.Since(start).Seconds())
	return body, err
}
