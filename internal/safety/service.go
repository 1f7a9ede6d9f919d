package safety

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/brightbuddy-ai/platform/internal/apperr"
	"github.com/brightbuddy-ai/platform/internal/observability/metrics"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

var safetyTracer = otel.Tracer("brightbuddy.internal.safety")

// AlertPublisher forwards review-worthy incidents to the moderation
// pipeline. Publishing is best effort.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, incident *Incident, analysis *Analysis) error
}

// Deps are the collaborators a Service needs. Scorer, Cache, Store and
// Logger are required; Archiver and Alerts are optional best-effort sinks.
type Deps struct {
	Scorer   *Scorer
	Cache    *Cache
	Store    *Store
	Archiver *Archiver
	Alerts   AlertPublisher
	Metrics  *metrics.RouterMetrics
	Logger   *logging.Logger
}

// Service orchestrates scoring, caching and incident persistence. Scoring
// results always reach the caller; persistence failures degrade to the
// cache instead of failing the analysis.
type Service struct {
	scorer   *Scorer
	cache    *Cache
	store    *Store
	archiver *Archiver
	alerts   AlertPublisher
	metrics  *metrics.RouterMetrics
	logger   *logging.Logger
}

// NewService builds the safety service.
func NewService(deps Deps) *Service {
	if deps.Scorer == nil {
		panic("safety: scorer is required")
	}
	if deps.Cache == nil {
		panic("safety: cache is required")
	}
	if deps.Store == nil {
		panic("safety: store is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Service{
		scorer:   deps.Scorer,
		cache:    deps.Cache,
		store:    deps.Store,
		archiver: deps.Archiver,
		alerts:   deps.Alerts,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Analyze scores one piece of content. Identical content from the same user
// and conversation within the cache window returns the original analysis,
// including its original ID. Empty content is valid and scores zero.
//
// If the content crosses the review threshold an incident is persisted as a
// side effect, but a persistence failure never fails the analysis.
func (s *Service) Analyze(ctx context.Context, userID, conversationID, content string) (*Analysis, error) {
	ctx, span := safetyTracer.Start(ctx, "safety.analyze")
	defer span.End()

	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if conversationID == "" {
		return nil, apperr.Validation("conversationId is required")
	}

	key := AnalysisKey(userID, conversationID, content)
	if cached, found, err := s.cache.GetAnalysis(ctx, key); err != nil {
		s.logger.Warn("analysis cache read failed", "error", err)
	} else if found {
		span.SetAttributes(attribute.Bool("safety.cache_hit", true))
		return cached, nil
	}

	scored := s.scorer.Score(content)
	analysis := &Analysis{
		AnalysisID:      uuid.NewString(),
		UserID:          userID,
		ConversationID:  conversationID,
		RiskScore:       scored.RiskScore,
		Severity:        scored.Severity,
		DetectedSignals: scored.DetectedSignals,
		Recommendations: scored.Recommendations,
		RequiresReview:  scored.RequiresReview,
		Sentiment:       scored.Sentiment,
		RulesVersion:    s.scorer.RulesVersion(),
		CreatedAt:       nowRFC3339(),
	}
	span.SetAttributes(
		attribute.Int("safety.risk_score", analysis.RiskScore),
		attribute.String("safety.severity", string(analysis.Severity)),
	)
	s.metrics.ObserveAnalysis(string(analysis.Severity))

	if err := s.cache.PutAnalysis(ctx, key, analysis); err != nil {
		s.logger.Warn("analysis cache write failed", "error", err)
	}

	if analysis.RequiresReview {
		incident := &Incident{
			ID:             IncidentID(analysis.AnalysisID),
			UserID:         userID,
			ConversationID: conversationID,
			Severity:       analysis.Severity,
			Category:       CategoryAutomated,
			Description:    describeSignals(analysis.DetectedSignals),
			AnalysisID:     analysis.AnalysisID,
			CreatedAt:      analysis.CreatedAt,
			Status:         StatusOpen,
		}
		s.persistIncident(ctx, incident, analysis)
	}

	return analysis, nil
}

// ReportIncident records a manually reported incident tied to a prior
// analysis.
func (s *Service) ReportIncident(ctx context.Context, userID, conversationID, description string, severity Severity, analysisID string) (*Incident, error) {
	ctx, span := safetyTracer.Start(ctx, "safety.report_incident")
	defer span.End()

	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if analysisID == "" {
		return nil, apperr.Validation("analysisId is required")
	}
	if !severity.Valid() {
		return nil, apperr.Validationf("unknown severity %q", severity)
	}

	incident := &Incident{
		ID:             IncidentID(analysisID),
		UserID:         userID,
		ConversationID: conversationID,
		Severity:       severity,
		Category:       CategoryManual,
		Description:    description,
		AnalysisID:     analysisID,
		CreatedAt:      nowRFC3339(),
		Status:         StatusOpen,
	}
	s.persistIncident(ctx, incident, nil)
	return incident, nil
}

// IncidentHistory returns up to limit of a user's incidents, newest first.
// When the durable store is unreachable the cache shadow serves the read
// and degraded is true; degraded results cover at most the cache retention
// window and scan bound.
func (s *Service) IncidentHistory(ctx context.Context, userID string, limit int) ([]Incident, bool, error) {
	ctx, span := safetyTracer.Start(ctx, "safety.incident_history")
	defer span.End()

	if userID == "" {
		return nil, false, apperr.Validation("userId is required")
	}

	incidents, err := s.store.QueryByUser(ctx, userID, int32(limit))
	if err == nil {
		return incidents, false, nil
	}
	s.logger.Error("incident store read failed, serving cached history", "user_id", userID, "error", err)
	s.metrics.ObserveDegradedRead()

	cached, cacheErr := s.cache.IncidentsByUser(ctx, userID, limit)
	if cacheErr != nil {
		return nil, false, apperr.Dependency("incident history unavailable", fmt.Errorf("store: %w; cache: %w", err, cacheErr))
	}
	span.SetAttributes(attribute.Bool("safety.degraded", true))
	return cached, true, nil
}

// Health reports reachability of the service's dependencies.
func (s *Service) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"store": "ok",
		"cache": "ok",
	}
	if err := s.store.Ping(ctx); err != nil {
		status["store"] = "unreachable"
	}
	if err := s.cache.Ping(ctx); err != nil {
		status["cache"] = "unreachable"
	}
	return status
}

// persistIncident writes an incident to the durable store, falling back to
// the cache shadow when the store is down. The cache copy is written in both
// modes so degraded history reads see recent incidents. Archival and
// moderation alerts are best effort.
func (s *Service) persistIncident(ctx context.Context, incident *Incident, analysis *Analysis) {
	mode := "durable"
	if err := s.store.Insert(ctx, incident); err != nil {
		mode = "degraded"
		s.logger.Error("incident store write failed, falling back to cache",
			"incident_id", incident.ID, "error", err)
	}
	if err := s.cache.PutIncident(ctx, incident); err != nil {
		s.logger.Warn("incident cache write failed", "incident_id", incident.ID, "error", err)
		if mode == "degraded" {
			s.logger.Error("incident not persisted anywhere", "incident_id", incident.ID)
		}
	}
	s.metrics.ObserveIncident(incident.Category, mode)

	if s.archiver.Enabled() {
		if err := s.archiver.Archive(ctx, incident); err != nil {
			s.logger.Warn("incident archive failed", "incident_id", incident.ID, "error", err)
		}
	}
	if s.alerts != nil {
		if err := s.alerts.PublishAlert(ctx, incident, analysis); err != nil {
			s.logger.Warn("moderation alert publish failed", "incident_id", incident.ID, "error", err)
		}
	}

	traceSpan := trace.SpanFromContext(ctx)
	traceSpan.SetAttributes(attribute.String("safety.persist_mode", mode))
}

func describeSignals(signals []string) string {
	if len(signals) == 0 {
		return "automated detection: elevated risk score"
	}
	desc := "automated detection: "
	for i, sig := range signals {
		if i > 0 {
			desc += ", "
		}
		desc += sig
	}
	return desc
}
