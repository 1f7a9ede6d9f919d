// Package router composes classification, safety scoring and agent dispatch
// into the per-event pipeline. Each inbound event runs through one state
// machine instance; the only state shared between events lives in the
// circuit breakers and caches owned by the collaborators.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brightbuddy-ai/platform/internal/agents"
	"github.com/brightbuddy-ai/platform/internal/apperr"
	"github.com/brightbuddy-ai/platform/internal/intent"
	"github.com/brightbuddy-ai/platform/internal/observability/metrics"
	"github.com/brightbuddy-ai/platform/internal/safety"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

var routerTracer = otel.Tracer("brightbuddy.internal.router")

// State is the per-event pipeline position.
type State string

const (
	StateReceived      State = "RECEIVED"
	StateClassified    State = "CLASSIFIED"
	StateSafetyChecked State = "SAFETY_CHECKED"
	StateDispatched    State = "DISPATCHED"
	StateResponded     State = "RESPONDED"
	StateError         State = "ERROR"
)

// InboundEvent is one conversational event. Immutable; consumed once.
type InboundEvent struct {
	Text           string         `json:"text"`
	UserID         string         `json:"userId"`
	ConversationID string         `json:"conversationId"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Outcome is the terminal result of routing one event.
type Outcome struct {
	State           State            `json:"state"`
	Intent          intent.Result    `json:"intent"`
	Dispatch        *agents.Result   `json:"dispatch,omitempty"`
	Safety          *safety.Analysis `json:"safety,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty"`
	SuppressedBody  bool             `json:"suppressedBody,omitempty"`
}

// SafetyAnalyzer is the scoring dependency the pipeline needs.
type SafetyAnalyzer interface {
	Analyze(ctx context.Context, userID, conversationID, content string) (*safety.Analysis, error)
}

// Router wires the pipeline. All collaborators are injected fully
// constructed; the router never lazily initializes connections inside a
// request path.
type Router struct {
	classifier *intent.Classifier
	registry   *agents.Registry
	dispatcher *agents.Dispatcher
	analyzer   SafetyAnalyzer
	metrics    *metrics.RouterMetrics
	logger     *logging.Logger
}

// New builds a Router.
func New(classifier *intent.Classifier, registry *agents.Registry, dispatcher *agents.Dispatcher, analyzer SafetyAnalyzer, m *metrics.RouterMetrics, logger *logging.Logger) *Router {
	if classifier == nil {
		panic("router: classifier cannot be nil")
	}
	if registry == nil {
		panic("router: registry cannot be nil")
	}
	if dispatcher == nil {
		panic("router: dispatcher cannot be nil")
	}
	if analyzer == nil {
		panic("router: safety analyzer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{
		classifier: classifier,
		registry:   registry,
		dispatcher: dispatcher,
		analyzer:   analyzer,
		metrics:    m,
		logger:     logger,
	}
}

// Route runs one event through classify, optional safety check and dispatch.
// Classification always precedes dispatch; the safety check, when taken,
// completes before the incident write and the final response.
func (r *Router) Route(ctx context.Context, event InboundEvent) (*Outcome, error) {
	ctx, span := routerTracer.Start(ctx, "router.route")
	defer span.End()

	outcome := &Outcome{State: StateReceived}

	if event.UserID == "" {
		outcome.State = StateError
		return outcome, apperr.Validation("userId is required")
	}
	if event.ConversationID == "" {
		outcome.State = StateError
		return outcome, apperr.Validation("conversationId is required")
	}

	result := r.classifier.Classify(event.Text)
	outcome.Intent = result
	outcome.State = StateClassified
	r.metrics.ObserveClassified(string(result.Primary), result.Unclassified)
	span.SetAttributes(
		attribute.String("intent.primary", string(result.Primary)),
		attribute.Bool("intent.unclassified", result.Unclassified),
	)

	if r.safetySensitive(result, event.Metadata) {
		analysis, err := r.analyzer.Analyze(ctx, event.UserID, event.ConversationID, event.Text)
		if err != nil {
			outcome.State = StateError
			return outcome, err
		}
		outcome.Safety = analysis
		outcome.State = StateSafetyChecked
		span.SetAttributes(attribute.String("safety.severity", string(analysis.Severity)))
	}

	payload, err := json.Marshal(event)
	if err != nil {
		outcome.State = StateError
		return outcome, fmt.Errorf("router: encode event: %w", err)
	}

	decision := r.registry.Decide(result.Primary)
	dispatch := r.dispatcher.Dispatch(ctx, decision, payload)
	outcome.Dispatch = &dispatch
	outcome.State = StateDispatched

	if outcome.Safety != nil && outcome.Safety.RequiresReview {
		// The user may still get an answer, but pending agent content is
		// withheld and the intervention guidance is surfaced instead.
		outcome.Recommendations = outcome.Safety.Recommendations
		if len(dispatch.Body) > 0 {
			outcome.Dispatch.Body = nil
			outcome.SuppressedBody = true
		}
		r.logger.Warn("agent response suppressed pending review",
			"user_id", event.UserID,
			"conversation_id", event.ConversationID,
			"severity", outcome.Safety.Severity,
			"incident_id", safety.IncidentID(outcome.Safety.AnalysisID),
		)
	}

	outcome.State = StateResponded
	return outcome, nil
}

// safetySensitive reports whether an event must be scored before dispatch.
// Distress intents always qualify, as does anything from an account marked
// as belonging to a minor.
func (r *Router) safetySensitive(result intent.Result, metadata map[string]any) bool {
	if result.Primary == intent.TagEmotion {
		return true
	}
	for _, tag := range result.Secondary {
		if tag == intent.TagEmotion {
			return true
		}
	}
	if metadata == nil {
		return false
	}
	if minor, ok := metadata["minorAccount"].(bool); ok && minor {
		return true
	}
	if group, ok := metadata["ageGroup"].(string); ok && group == "child" {
		return true
	}
	return false
}
