package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brightbuddy-ai/platform/internal/apperr"
	"github.com/brightbuddy-ai/platform/internal/safety"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

// Action identifies one recognized inbound operation. The handler table is
// keyed on this type, so adding an action is a compile-time registration
// rather than a string match.
type Action string

const (
	ActionAnalyzeContent     Action = "analyzeContent"
	ActionReportIncident     Action = "reportIncident"
	ActionGetIncidentHistory Action = "getIncidentHistory"
	ActionHealth             Action = "health"
	ActionRouteMessage       Action = "routeMessage"
)

// Envelope is the inbound event shape.
type Envelope struct {
	Action Action          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Response is the transport-neutral reply. Body is always JSON.
type Response struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// SafetyOperations is the incident surface the handler needs beyond scoring.
type SafetyOperations interface {
	SafetyAnalyzer
	ReportIncident(ctx context.Context, userID, conversationID, description string, severity safety.Severity, analysisID string) (*safety.Incident, error)
	IncidentHistory(ctx context.Context, userID string, limit int) ([]safety.Incident, bool, error)
	Health(ctx context.Context) map[string]string
}

type actionFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Handler validates inbound events and dispatches them to the registered
// action functions.
type Handler struct {
	router  *Router
	safety  SafetyOperations
	schemas *schemaSet
	actions map[Action]actionFunc
	logger  *logging.Logger
}

// NewHandler builds the action handler. Schemas compile at construction.
func NewHandler(r *Router, safetyOps SafetyOperations, logger *logging.Logger) *Handler {
	if r == nil {
		panic("router: router cannot be nil")
	}
	if safetyOps == nil {
		panic("router: safety operations cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		router:  r,
		safety:  safetyOps,
		schemas: compileSchemas(),
		logger:  logger,
	}
	h.actions = map[Action]actionFunc{
		ActionAnalyzeContent:     h.analyzeContent,
		ActionReportIncident:     h.reportIncident,
		ActionGetIncidentHistory: h.getIncidentHistory,
		ActionHealth:             h.health,
		ActionRouteMessage:       h.routeMessage,
	}
	return h
}

// Handle processes one raw inbound event and always returns a response;
// failures are encoded, never panicked.
func (h *Handler) Handle(ctx context.Context, raw []byte) Response {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errorResponse(400, "Validation error: request is not valid JSON", "validation")
	}
	if err := h.schemas.validateEnvelope(doc); err != nil {
		return errorResponse(400, fmt.Sprintf("Validation error: %s", err), "validation")
	}

	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return errorResponse(400, "Validation error: request is not valid JSON", "validation")
	}

	fn, ok := h.actions[envelope.Action]
	if !ok {
		return errorResponse(400, fmt.Sprintf("Validation error: unknown action %q", envelope.Action), "validation")
	}

	data := envelope.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	var dataDoc any
	if err := json.Unmarshal(data, &dataDoc); err != nil {
		return errorResponse(400, "Validation error: data is not valid JSON", "validation")
	}
	if err := h.schemas.validateAction(envelope.Action, dataDoc); err != nil {
		return errorResponse(400, fmt.Sprintf("Validation error: %s", err), "validation")
	}

	result, err := fn(ctx, data)
	if err != nil {
		return h.errorFor(envelope.Action, err)
	}
	body, err := json.Marshal(result)
	if err != nil {
		h.logger.Error("response encoding failed", "action", envelope.Action, "error", err)
		return errorResponse(500, "internal error", string(apperr.KindFatal))
	}
	return Response{StatusCode: 200, Body: body}
}

func (h *Handler) errorFor(action Action, err error) Response {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindValidation:
		return errorResponse(400, fmt.Sprintf("Validation error: %s", apperr.MessageOf(err)), string(kind))
	default:
		// Summarized message only; downstream details stay in the logs.
		h.logger.Error("action failed", "action", action, "kind", kind, "error", err)
		return errorResponse(500, apperr.MessageOf(err), string(kind))
	}
}

func (h *Handler) analyzeContent(ctx context.Context, data json.RawMessage) (any, error) {
	var req struct {
		Content        string `json:"content"`
		UserID         string `json:"userId"`
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, apperr.Validation("malformed analyzeContent data")
	}
	return h.safety.Analyze(ctx, req.UserID, req.ConversationID, req.Content)
}

func (h *Handler) reportIncident(ctx context.Context, data json.RawMessage) (any, error) {
	var req struct {
		UserID         string          `json:"userId"`
		ConversationID string          `json:"conversationId"`
		AnalysisID     string          `json:"analysisId"`
		Severity       safety.Severity `json:"severity"`
		Description    string          `json:"description"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, apperr.Validation("malformed reportIncident data")
	}
	return h.safety.ReportIncident(ctx, req.UserID, req.ConversationID, req.Description, req.Severity, req.AnalysisID)
}

func (h *Handler) getIncidentHistory(ctx context.Context, data json.RawMessage) (any, error) {
	var req struct {
		UserID string `json:"userId"`
		Limit  int    `json:"limit"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, apperr.Validation("malformed getIncidentHistory data")
	}
	incidents, degraded, err := h.safety.IncidentHistory(ctx, req.UserID, req.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"incidents": incidents,
		"degraded":  degraded,
	}, nil
}

func (h *Handler) health(ctx context.Context, _ json.RawMessage) (any, error) {
	deps := h.safety.Health(ctx)
	status := "ok"
	for _, state := range deps {
		if state != "ok" {
			status = "degraded"
			break
		}
	}
	return map[string]any{
		"status":       status,
		"dependencies": deps,
	}, nil
}

func (h *Handler) routeMessage(ctx context.Context, data json.RawMessage) (any, error) {
	var event InboundEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, apperr.Validation("malformed routeMessage data")
	}
	return h.router.Route(ctx, event)
}

func errorResponse(status int, message, kind string) Response {
	body, _ := json.Marshal(map[string]string{
		"error": message,
		"type":  kind,
	})
	return Response{StatusCode: status, Body: body}
}
