package router

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brightbuddy-ai/platform/internal/apperr"
	"github.com/brightbuddy-ai/platform/internal/safety"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

type stubSafetyOps struct {
	analyzer  stubAnalyzer
	incident  *safety.Incident
	reportErr error
	history   []safety.Incident
	degraded  bool
	histErr   error
	health    map[string]string
}

func (s *stubSafetyOps) Analyze(ctx context.Context, userID, conversationID, content string) (*safety.Analysis, error) {
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	return s.analyzer.Analyze(ctx, userID, conversationID, content)
}

func (s *stubSafetyOps) ReportIncident(_ context.Context, _, _, _ string, _ safety.Severity, analysisID string) (*safety.Incident, error) {
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	if s.incident != nil {
		return s.incident, nil
	}
	return &safety.Incident{ID: safety.IncidentID(analysisID), Category: safety.CategoryManual, Status: safety.StatusOpen}, nil
}

func (s *stubSafetyOps) IncidentHistory(_ context.Context, _ string, _ int) ([]safety.Incident, bool, error) {
	return s.history, s.degraded, s.histErr
}

func (s *stubSafetyOps) Health(_ context.Context) map[string]string {
	if s.health != nil {
		return s.health
	}
	return map[string]string{"store": "ok", "cache": "ok"}
}

func newTestHandler(ops *stubSafetyOps) *Handler {
	r := newTestRouter(&stubInvoker{}, &ops.analyzer)
	return NewHandler(r, ops, logging.Discard())
}

func handle(t *testing.T, h *Handler, raw string) (Response, map[string]any) {
	t.Helper()
	resp := h.Handle(context.Background(), []byte(raw))
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	return resp, body
}

func TestHandleRejectsInvalidJSON(t *testing.T) {
	h := newTestHandler(&stubSafetyOps{})
	resp, body := handle(t, h, "not json")
	require.Equal(t, 400, resp.StatusCode)
	require.True(t, strings.HasPrefix(body["error"].(string), "Validation error:"))
	require.Equal(t, "validation", body["type"])
}

func TestHandleRejectsMissingAction(t *testing.T) {
	h := newTestHandler(&stubSafetyOps{})
	resp, _ := handle(t, h, `{"data":{}}`)
	require.Equal(t, 400, resp.StatusCode)
}

func TestHandleRejectsUnknownAction(t *testing.T) {
	h := newTestHandler(&stubSafetyOps{})
	resp, body := handle(t, h, `{"action":"deleteEverything","data":{}}`)
	require.Equal(t, 400, resp.StatusCode)
	require.Contains(t, body["error"], "unknown action")
}

func TestHandleRejectsSchemaViolations(t *testing.T) {
	h := newTestHandler(&stubSafetyOps{})

	// analyzeContent without userId.
	resp, body := handle(t, h, `{"action":"analyzeContent","data":{"content":"hi","conversationId":"c1"}}`)
	require.Equal(t, 400, resp.StatusCode)
	require.True(t, strings.HasPrefix(body["error"].(string), "Validation error:"))

	// reportIncident with a bad severity.
	resp, _ = handle(t, h, `{"action":"reportIncident","data":{"userId":"u1","analysisId":"a1","severity":"extreme"}}`)
	require.Equal(t, 400, resp.StatusCode)

	// getIncidentHistory with an out-of-range limit.
	resp, _ = handle(t, h, `{"action":"getIncidentHistory","data":{"userId":"u1","limit":0}}`)
	require.Equal(t, 400, resp.StatusCode)
}

func TestHandleAnalyzeContent(t *testing.T) {
	h := newTestHandler(&stubSafetyOps{})
	resp, body := handle(t, h, `{"action":"analyzeContent","data":{"content":"hello","userId":"u1","conversationId":"c1"}}`)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "analysis-1", body["analysisId"])
}

func TestHandleReportIncident(t *testing.T) {
	h := newTestHandler(&stubSafetyOps{})
	resp, body := handle(t, h, `{"action":"reportIncident","data":{"userId":"u1","analysisId":"a1","severity":"high"}}`)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "inc-a1", body["id"])
}

func TestHandleGetIncidentHistory(t *testing.T) {
	ops := &stubSafetyOps{
		history:  []safety.Incident{{ID: "inc-1", UserID: "u1"}},
		degraded: true,
	}
	h := newTestHandler(ops)
	resp, body := handle(t, h, `{"action":"getIncidentHistory","data":{"userId":"u1","limit":10}}`)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, true, body["degraded"])
	require.Len(t, body["incidents"], 1)
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandler(&stubSafetyOps{})
	resp, body := handle(t, h, `{"action":"health"}`)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	degraded := newTestHandler(&stubSafetyOps{health: map[string]string{"store": "unreachable", "cache": "ok"}})
	resp, body = handle(t, degraded, `{"action":"health"}`)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "degraded", body["status"])
}

func TestHandleRouteMessage(t *testing.T) {
	h := newTestHandler(&stubSafetyOps{})
	resp, body := handle(t, h, `{"action":"routeMessage","data":{"text":"Turn on the lights","userId":"u1","conversationId":"c1"}}`)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, string(StateResponded), body["state"])
}

func TestHandleDependencyErrorsReturn500(t *testing.T) {
	ops := &stubSafetyOps{histErr: apperr.Dependency("incident history unavailable", errors.New("store and cache down"))}
	h := newTestHandler(ops)
	resp, body := handle(t, h, `{"action":"getIncidentHistory","data":{"userId":"u1"}}`)
	require.Equal(t, 500, resp.StatusCode)
	require.Equal(t, "dependency", body["type"])
	// Only the summarized message is exposed.
	require.Equal(t, "incident history unavailable", body["error"])
}

func TestHandleFatalErrorsHideDetail(t *testing.T) {
	ops := &stubSafetyOps{histErr: errors.New("dial tcp 10.0.0.5:8000: connection refused")}
	h := newTestHandler(ops)
	resp, body := handle(t, h, `{"action":"getIncidentHistory","data":{"userId":"u1"}}`)
	require.Equal(t, 500, resp.StatusCode)
	require.Equal(t, "internal", body["type"])
	require.Equal(t, "internal error", body["error"])
	require.NotContains(t, body["error"], "10.0.0.5")
}

func TestHandleValidationErrorsFromServiceReturn400(t *testing.T) {
	ops := &stubSafetyOps{reportErr: apperr.Validation("analysisId is required")}
	h := newTestHandler(ops)
	resp, body := handle(t, h, `{"action":"reportIncident","data":{"userId":"u1","analysisId":"a1","severity":"high"}}`)
	require.Equal(t, 400, resp.StatusCode)
	require.Contains(t, body["error"], "analysisId is required")
}
